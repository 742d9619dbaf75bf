// Mgmt
// Copyright (C) James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Additional permission under GNU GPL version 3 section 7
//
// If you modify this program, or any covered work, by linking or combining it
// with embedded mcl code and modules (and that the embedded mcl code and
// modules which link with this program, contain a copy of their source code in
// the authoritative form) containing parts covered by the terms of any other
// license, the licensors of this program grant you additional permission to
// convey the resulting work. Furthermore, the licensors of this program grant
// the original author, James Shubin, additional permission to update this
// additional permission if he deems it necessary to achieve the goals of this
// additional permission.

package encoding

import (
	"github.com/purpleidea/lazygraph/lang/ast"
	"github.com/purpleidea/lazygraph/lang/interfaces"
	"github.com/purpleidea/lazygraph/lang/types"
	"github.com/purpleidea/lazygraph/util/errwrap"
)

// Decode parses the legacy wire format back into expression nodes. Catalog
// functions are looked up in the catalog of data, and every invocation goes
// through the usual function application, so arguments are validated and
// promoted again.
func Decode(data *interfaces.Data, b []byte) (interface{}, error) {
	node, err := unmarshal(b)
	if err != nil {
		return nil, err
	}
	return DecodeNode(data, node)
}

// DecodeNode is like Decode, but it starts from a parsed JSON value. Numbers
// should be json.Number values.
func DecodeNode(data *interfaces.Data, node interface{}) (interface{}, error) {
	obj := &decoder{
		data:  data,
		named: make(map[string]interface{}),
	}

	m, ok := node.(map[string]interface{})
	if !ok || m[interfaces.FieldType] != interfaces.TagCompoundValue {
		return obj.decode(node)
	}

	scope, ok := m[interfaces.FieldScope].([]interface{})
	if !ok {
		return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "compound value scope is not a list")
	}
	for i, entry := range scope {
		pair, ok := entry.([]interface{})
		if !ok || len(pair) != 2 {
			return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "scope entry %d is not a pair", i)
		}
		key, ok := pair[0].(string)
		if !ok {
			return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "scope entry %d has no key", i)
		}
		if _, exists := obj.named[key]; exists {
			return nil, errwrap.Wrapf(interfaces.ErrDuplicateScopeKey, "key `%s`", key)
		}
		value, err := obj.decode(pair[1])
		if err != nil {
			return nil, errwrap.Wrapf(err, "scope entry `%s`", key)
		}
		obj.named[key] = value
		obj.data.Printf("decode: scope entry `%s`", key)
	}

	return obj.decode(m[interfaces.FieldValue])
}

// decoder holds the scope entries decoded so far.
type decoder struct {
	data  *interfaces.Data
	named map[string]interface{}
}

// decode returns the value of any node other than a top-level CompoundValue.
func (obj *decoder) decode(node interface{}) (interface{}, error) {
	switch x := node.(type) {
	case nil:
		return types.Null{}, nil
	case []interface{}:
		l := []interface{}{}
		for _, elem := range x {
			e, err := obj.decode(elem)
			if err != nil {
				return nil, err
			}
			l = append(l, e)
		}
		return l, nil
	case map[string]interface{}:
		return obj.object(x)
	}
	return node, nil // bool, string, json.Number
}

// object decodes a typed node.
func (obj *decoder) object(node map[string]interface{}) (interface{}, error) {
	typ, _ := node[interfaces.FieldType].(string)
	switch typ {
	case interfaces.TagCompoundValue:
		return nil, interfaces.ErrNestedCompoundValue

	case interfaces.TagValueRef:
		key, ok := node[interfaces.FieldValue].(string)
		if !ok {
			return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "value reference has no key")
		}
		value, exists := obj.named[key]
		if !exists {
			return nil, errwrap.Wrapf(interfaces.ErrUnknownValueRef, "key `%s`", key)
		}
		return value, nil

	case interfaces.TagArgumentRef:
		name, ok := node[interfaces.FieldValue].(string)
		if !ok {
			return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "argument reference has no name")
		}
		return ast.NewVar(name, types.TypeObject), nil

	case interfaces.TagInvocation:
		return obj.invocation(node)

	case interfaces.TagFunction:
		names, err := stringList(node[interfaces.FieldArgumentNames])
		if err != nil {
			return nil, err
		}
		body, err := obj.decode(node[interfaces.FieldBody])
		if err != nil {
			return nil, err
		}
		return ast.NewBodyFunc(obj.data, names, body)

	case interfaces.TagDictionary:
		value, ok := node[interfaces.FieldValue].(map[string]interface{})
		if !ok {
			return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "dictionary has no value")
		}
		m := make(map[string]interface{})
		for k, elem := range value {
			e, err := obj.decode(elem)
			if err != nil {
				return nil, err
			}
			m[k] = e
		}
		return m, nil

	case interfaces.TagBytes:
		return &types.Bytes{Raw: copyMap(node)}, nil

	case interfaces.TagDate:
		date, err := types.DateFromNumber(node[interfaces.FieldValue])
		if err != nil {
			return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "%s", err.Error())
		}
		return date, nil
	}

	if types.IsGeometryType(typ) {
		return types.NewGeometry(node)
	}
	if typ == "" {
		return nil, errwrap.Wrapf(interfaces.ErrUnknownEncodedType, "object without a type")
	}
	return nil, errwrap.Wrapf(interfaces.ErrUnknownEncodedType, "type `%s`", typ)
}

// invocation decodes an Invocation node by applying its function.
func (obj *decoder) invocation(node map[string]interface{}) (interface{}, error) {
	args := make(map[string]interface{})
	if raw, exists := node[interfaces.FieldArguments]; exists && raw != nil {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "invocation arguments are not a mapping")
		}
		for k, elem := range m {
			e, err := obj.decode(elem)
			if err != nil {
				return nil, err
			}
			args[k] = e
		}
	}

	if name, ok := node[interfaces.FieldFunctionName].(string); ok {
		fn, err := ast.NewCatalogFunc(obj.data, name)
		if err != nil {
			return nil, err
		}
		return fn.Apply(args)
	}

	raw, exists := node[interfaces.FieldFunction]
	if !exists {
		return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "invocation has no function")
	}
	value, err := obj.decode(raw)
	if err != nil {
		return nil, err
	}
	return applyValue(value, args)
}

// applyValue applies a decoded function. Anything that is not a function is an
// algorithm-valued result, which is invoked generically.
func applyValue(value interface{}, args map[string]interface{}) (interface{}, error) {
	if fn, ok := value.(interfaces.Func); ok {
		return fn.Apply(args)
	}
	return ast.NewValueFunc(value).Apply(args)
}

// stringList converts a decoded JSON list of strings.
func stringList(v interface{}) ([]string, error) {
	l, ok := v.([]interface{})
	if !ok {
		return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "argument names are not a list")
	}
	names := []string{}
	for _, x := range l {
		s, ok := x.(string)
		if !ok {
			return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "argument name %v is not a string", x)
		}
		names = append(names, s)
	}
	return names, nil
}

// copyMap returns a shallow copy of a map.
func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// errNotObject is returned when a value node is not a JSON object.
func errNotObject(v interface{}) error {
	return errwrap.Wrapf(interfaces.ErrMalformedNode, "value node of type %T is not an object", v)
}
