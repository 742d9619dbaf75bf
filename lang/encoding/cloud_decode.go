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
	"encoding/json"
	"math"
	"strings"

	"github.com/purpleidea/lazygraph/lang/ast"
	"github.com/purpleidea/lazygraph/lang/interfaces"
	"github.com/purpleidea/lazygraph/lang/types"
	"github.com/purpleidea/lazygraph/util/errwrap"
)

// DecodeCloud parses the reference-based wire format back into expression
// nodes. Each stored value is decoded once, so shared subgraphs stay shared.
func DecodeCloud(data *interfaces.Data, b []byte) (interface{}, error) {
	node, err := unmarshal(b)
	if err != nil {
		return nil, err
	}
	return DecodeCloudNode(data, node)
}

// DecodeCloudNode is like DecodeCloud, but it starts from a parsed JSON value.
func DecodeCloudNode(data *interfaces.Data, node interface{}) (interface{}, error) {
	m, ok := node.(map[string]interface{})
	if !ok {
		return nil, errNotObject(node)
	}
	result, ok := m[interfaces.CloudResult].(string)
	if !ok {
		return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "graph has no result key")
	}
	values, ok := m[interfaces.CloudValues].(map[string]interface{})
	if !ok {
		return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "graph has no values")
	}
	obj := &cloudDecoder{
		data:   data,
		values: values,
		memo:   make(map[string]interface{}),
		active: make(map[string]struct{}),
	}
	return obj.key(result)
}

// cloudDecoder decodes the values table on demand.
type cloudDecoder struct {
	data   *interfaces.Data
	values map[string]interface{}
	memo   map[string]interface{}
	active map[string]struct{}
}

// key returns the decoded value which is stored at a key.
func (obj *cloudDecoder) key(key string) (interface{}, error) {
	if v, exists := obj.memo[key]; exists {
		return v, nil
	}
	if _, exists := obj.active[key]; exists {
		return nil, errwrap.Wrapf(interfaces.ErrCyclicReference, "key `%s`", key)
	}
	node, exists := obj.values[key]
	if !exists {
		return nil, errwrap.Wrapf(interfaces.ErrUnknownValueRef, "key `%s`", key)
	}
	obj.active[key] = struct{}{}
	v, err := obj.node(node)
	delete(obj.active, key)
	if err != nil {
		return nil, errwrap.Wrapf(err, "value `%s`", key)
	}
	obj.memo[key] = v
	return v, nil
}

// node decodes a single value node. Each one has exactly one field.
func (obj *cloudDecoder) node(raw interface{}) (interface{}, error) {
	node, ok := raw.(map[string]interface{})
	if !ok {
		return nil, errNotObject(raw)
	}
	if len(node) != 1 {
		return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "value node has %d fields", len(node))
	}

	if v, exists := node[interfaces.CloudConstantValue]; exists {
		return constantOf(v), nil
	}
	if v, exists := node[interfaces.CloudValueReference]; exists {
		key, ok := v.(string)
		if !ok {
			return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "value reference is not a string")
		}
		return obj.key(key)
	}
	if v, exists := node[interfaces.CloudArrayValue]; exists {
		inner, err := innerValues(v)
		if err != nil {
			return nil, err
		}
		l, ok := inner.([]interface{})
		if !ok {
			return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "array values are not a list")
		}
		result := []interface{}{}
		for _, elem := range l {
			e, err := obj.node(elem)
			if err != nil {
				return nil, err
			}
			result = append(result, e)
		}
		return result, nil
	}
	if v, exists := node[interfaces.CloudDictionaryValue]; exists {
		inner, err := innerValues(v)
		if err != nil {
			return nil, err
		}
		m, ok := inner.(map[string]interface{})
		if !ok {
			return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "dictionary values are not a mapping")
		}
		return obj.mapping(m)
	}
	if v, exists := node[interfaces.CloudFunctionDefinitionValue]; exists {
		return obj.definition(v)
	}
	if v, exists := node[interfaces.CloudFunctionInvocationValue]; exists {
		return obj.invocation(v)
	}
	if v, exists := node[interfaces.CloudArgumentReference]; exists {
		name, ok := v.(string)
		if !ok {
			return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "argument reference is not a string")
		}
		return ast.NewVar(name, types.TypeObject), nil
	}
	if v, exists := node[interfaces.CloudBytesValue]; exists {
		s, ok := v.(string)
		if !ok {
			return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "bytes value is not a string")
		}
		return &types.Bytes{Raw: map[string]interface{}{
			interfaces.FieldType:  interfaces.TagBytes,
			interfaces.FieldValue: s,
		}}, nil
	}

	for k := range node {
		return nil, errwrap.Wrapf(interfaces.ErrUnknownEncodedType, "value node `%s`", k)
	}
	return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "empty value node") // unreachable
}

// mapping decodes each node of a mapping.
func (obj *cloudDecoder) mapping(m map[string]interface{}) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	for k, elem := range m {
		e, err := obj.node(elem)
		if err != nil {
			return nil, errwrap.Wrapf(err, "key `%s`", k)
		}
		result[k] = e
	}
	return result, nil
}

// definition decodes a function definition into a user function.
func (obj *cloudDecoder) definition(v interface{}) (interface{}, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, errNotObject(v)
	}
	names := []string{}
	if raw, exists := m[interfaces.CloudArgumentNames]; exists && raw != nil {
		var err error
		if names, err = stringList(raw); err != nil {
			return nil, err
		}
	}
	key, ok := m[interfaces.CloudBody].(string)
	if !ok {
		return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "function body is not a key")
	}
	body, err := obj.key(key)
	if err != nil {
		return nil, err
	}
	return ast.NewBodyFunc(obj.data, names, body)
}

// invocation decodes a function invocation. Dates and geometries which are
// built from constants become literals again.
func (obj *cloudDecoder) invocation(v interface{}) (interface{}, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, errNotObject(v)
	}
	rawArgs := make(map[string]interface{})
	if raw, exists := m[interfaces.CloudArguments]; exists && raw != nil {
		if rawArgs, ok = raw.(map[string]interface{}); !ok {
			return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "invocation arguments are not a mapping")
		}
	}

	if name, ok := m[interfaces.CloudFunctionName].(string); ok {
		if literal, ok := literalOf(name, rawArgs); ok {
			return literal, nil
		}
		args, err := obj.mapping(rawArgs)
		if err != nil {
			return nil, err
		}
		fn, err := ast.NewCatalogFunc(obj.data, name)
		if err != nil {
			return nil, err
		}
		return fn.Apply(args)
	}

	key, ok := m[interfaces.CloudFunctionReference].(string)
	if !ok {
		return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "invocation has no function")
	}
	fn, err := obj.key(key)
	if err != nil {
		return nil, err
	}
	args, err := obj.mapping(rawArgs)
	if err != nil {
		return nil, err
	}
	return applyValue(fn, args)
}

// literalOf returns the date or geometry literal which an invocation builds,
// if every argument is a constant.
func literalOf(name string, rawArgs map[string]interface{}) (interface{}, bool) {
	consts := make(map[string]interface{})
	for k, v := range rawArgs {
		node, ok := v.(map[string]interface{})
		if !ok || len(node) != 1 {
			return nil, false
		}
		c, exists := node[interfaces.CloudConstantValue]
		if !exists {
			return nil, false
		}
		consts[k] = c
	}

	if name == interfaces.DateFuncName {
		if len(consts) != 1 {
			return nil, false
		}
		n, ok := consts[interfaces.DateArgName].(json.Number)
		if !ok {
			return nil, false
		}
		ms, err := n.Float64()
		if err != nil {
			return nil, false
		}
		return types.DateFromMicros(int64(math.Round(ms * 1000))), true
	}

	if typ := strings.TrimPrefix(name, interfaces.GeometryFuncPrefix); typ != name && types.IsGeometryType(typ) {
		consts[interfaces.FieldType] = typ
		geom, err := types.NewGeometry(consts)
		if err != nil {
			return nil, false
		}
		return geom, true
	}

	return nil, false
}

// innerValues returns the values field of an array or dictionary node.
func innerValues(v interface{}) (interface{}, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, errNotObject(v)
	}
	inner, exists := m[interfaces.CloudInnerValues]
	if !exists {
		return nil, errwrap.Wrapf(interfaces.ErrMalformedNode, "container has no values")
	}
	return inner, nil
}

// constantOf returns the value of a constant. Nulls become explicit nulls so
// that they are not mistaken for missing arguments.
func constantOf(v interface{}) interface{} {
	if v == nil {
		return types.Null{}
	}
	return v
}
