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

// Package encoding contains the wire formats of the expression graph. The
// legacy format is a nested tree of typed nodes, which can share subgraphs in
// an explicit scope. The reference-based format is a flat table of values which
// refer to each other by key.
package encoding

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/purpleidea/lazygraph/lang/interfaces"
	"github.com/purpleidea/lazygraph/lang/types"
	"github.com/purpleidea/lazygraph/util/errwrap"
)

// Encode returns the legacy wire node of any value. Values which describe
// themselves are asked to do so, containers are encoded element-wise, and
// primitives are passed through. No subgraphs are shared.
func Encode(v interface{}) (interface{}, error) {
	return (&encoder{}).Encode(v)
}

// Serialize returns the legacy wire format of a value as a JSON string. Object
// keys are sorted.
func Serialize(v interface{}) (string, error) {
	node, err := Encode(v)
	if err != nil {
		return "", err
	}
	return marshal(node)
}

// encoder is the recursive legacy encoder.
type encoder struct{}

// Encode returns the legacy wire node of any value.
func (obj *encoder) Encode(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case types.Null, *types.Null:
		return nil, nil

	case interfaces.Encodable:
		return x.Encode(obj)

	case *types.Date:
		return x.Node(), nil
	case time.Time:
		return types.NewDate(x).Node(), nil
	case *types.Bytes:
		return x.Node(), nil
	case *types.Geometry:
		return x.Node(), nil

	case bool, string, json.Number:
		return v, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return v, nil

	case []interface{}:
		l := []interface{}{}
		for i, elem := range x {
			e, err := obj.Encode(elem)
			if err != nil {
				return nil, errwrap.Wrapf(err, "index %d", i)
			}
			l = append(l, e)
		}
		return l, nil

	case map[string]interface{}:
		return obj.dictionary(x)
	}

	return obj.reflect(v)
}

// dictionary encodes a plain mapping as a Dictionary node.
func (obj *encoder) dictionary(m map[string]interface{}) (interface{}, error) {
	value := make(map[string]interface{})
	for k, elem := range m {
		e, err := obj.Encode(elem)
		if err != nil {
			return nil, errwrap.Wrapf(err, "key `%s`", k)
		}
		value[k] = e
	}
	return map[string]interface{}{
		interfaces.FieldType:  interfaces.TagDictionary,
		interfaces.FieldValue: value,
	}, nil
}

// reflect handles typed slices and maps such as []string, which are common in
// golang call sites.
func (obj *encoder) reflect(v interface{}) (interface{}, error) {
	l, m, err := container(v)
	if err != nil {
		return nil, err
	}
	if l != nil {
		return obj.Encode(l)
	}
	return obj.dictionary(m)
}

// container converts a typed slice or a map with string keys into its generic
// form. Exactly one of the returned values is set if there is no error.
func container(v interface{}) ([]interface{}, map[string]interface{}, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		l := []interface{}{}
		for i := 0; i < rv.Len(); i++ {
			l = append(l, rv.Index(i).Interface())
		}
		return l, nil, nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]interface{})
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return nil, m, nil
	}
	return nil, nil, errwrap.Wrapf(interfaces.ErrCannotEncode, "value of type %T", v)
}

// marshal returns the JSON of a node without a trailing newline. HTML
// characters are not escaped, since the output is never embedded in a page.
func marshal(node interface{}) (string, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(node); err != nil {
		return "", errwrap.Wrapf(err, "invalid JSON")
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// unmarshal parses JSON, keeping numbers as json.Number so that they are
// reproduced exactly.
func unmarshal(data []byte) (interface{}, error) {
	var node interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&node); err != nil {
		return nil, errwrap.Wrapf(err, "invalid JSON")
	}
	return node, nil
}
