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
	"strconv"
	"time"

	"github.com/purpleidea/lazygraph/lang/interfaces"
	"github.com/purpleidea/lazygraph/lang/types"
	"github.com/purpleidea/lazygraph/util"
	"github.com/purpleidea/lazygraph/util/errwrap"
)

// EncodeCloud returns the reference-based wire form of a value. Every node
// which is not a constant is stored once in the values table, and identical
// nodes share a key. Keys are decimal strings assigned in post-order, so a
// node only ever refers to smaller keys.
func EncodeCloud(v interface{}) (map[string]interface{}, error) {
	obj := newCloudEncoder()
	result, err := obj.Ref(v)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		interfaces.CloudResult: result,
		interfaces.CloudValues: obj.values,
	}, nil
}

// SerializeCloud returns the reference-based wire form of a value as a JSON
// string.
func SerializeCloud(v interface{}) (string, error) {
	node, err := EncodeCloud(v)
	if err != nil {
		return "", err
	}
	return marshal(node)
}

// cloudEncoder is the recursive reference-based encoder.
type cloudEncoder struct {
	values map[string]interface{}
	keys   map[string]string // canonical JSON of a node -> its key
}

func newCloudEncoder() *cloudEncoder {
	return &cloudEncoder{
		values: make(map[string]interface{}),
		keys:   make(map[string]string),
	}
}

// Value returns the node to embed for a child value. Constants are embedded
// directly and everything else is stored and referenced.
func (obj *cloudEncoder) Value(v interface{}) (map[string]interface{}, error) {
	node, err := obj.node(v)
	if err != nil {
		return nil, err
	}
	if isConstant(node) {
		return node, nil
	}
	if _, ok := node[interfaces.CloudValueReference]; ok {
		return node, nil
	}
	key, err := obj.store(node)
	if err != nil {
		return nil, err
	}
	return reference(key), nil
}

// Ref stores the node of a value and returns its key.
func (obj *cloudEncoder) Ref(v interface{}) (string, error) {
	node, err := obj.node(v)
	if err != nil {
		return "", err
	}
	if key, ok := node[interfaces.CloudValueReference].(string); ok && len(node) == 1 {
		return key, nil
	}
	return obj.store(node)
}

// store adds a node to the values table, or finds the identical node which is
// already there.
func (obj *cloudEncoder) store(node map[string]interface{}) (string, error) {
	b, err := json.Marshal(node) // map keys are sorted
	if err != nil {
		return "", errwrap.Wrapf(err, "could not hash node")
	}
	canonical := string(b)
	if key, exists := obj.keys[canonical]; exists {
		return key, nil
	}
	key := strconv.Itoa(len(obj.values))
	obj.keys[canonical] = key
	obj.values[key] = node
	return key, nil
}

// node returns the unstored value node of any value.
func (obj *cloudEncoder) node(v interface{}) (map[string]interface{}, error) {
	switch x := v.(type) {
	case nil:
		return constant(nil), nil
	case types.Null, *types.Null:
		return constant(nil), nil

	case interfaces.CloudEncodable:
		return x.EncodeCloud(obj)

	case *types.Date:
		return dateNode(x), nil
	case time.Time:
		return dateNode(types.NewDate(x)), nil
	case *types.Bytes:
		s, err := x.Value()
		if err != nil {
			return nil, errwrap.Wrapf(interfaces.ErrCannotEncode, "%s", err.Error())
		}
		return map[string]interface{}{
			interfaces.CloudBytesValue: s,
		}, nil
	case *types.Geometry:
		return geometryNode(x), nil

	case bool, string, json.Number:
		return constant(v), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return constant(v), nil

	case []interface{}:
		return obj.array(x)
	case map[string]interface{}:
		return obj.dictionary(x)
	}

	l, m, err := container(v)
	if err != nil {
		return nil, err
	}
	if l != nil {
		return obj.array(l)
	}
	return obj.dictionary(m)
}

// array returns a constant if every element is constant, and an arrayValue
// node otherwise.
func (obj *cloudEncoder) array(l []interface{}) (map[string]interface{}, error) {
	nodes := []interface{}{}
	consts := []interface{}{}
	folded := true
	for i, elem := range l {
		n, err := obj.Value(elem)
		if err != nil {
			return nil, errwrap.Wrapf(err, "index %d", i)
		}
		nodes = append(nodes, n)
		if isConstant(n) {
			consts = append(consts, n[interfaces.CloudConstantValue])
		} else {
			folded = false
		}
	}
	if folded {
		return constant(consts), nil
	}
	return map[string]interface{}{
		interfaces.CloudArrayValue: map[string]interface{}{
			interfaces.CloudInnerValues: nodes,
		},
	}, nil
}

// dictionary returns a constant if every element is constant, and a
// dictionaryValue node otherwise.
func (obj *cloudEncoder) dictionary(m map[string]interface{}) (map[string]interface{}, error) {
	nodes := make(map[string]interface{})
	consts := make(map[string]interface{})
	folded := true
	for _, k := range util.StrMapKeys(m) { // post-order keys must be stable
		n, err := obj.Value(m[k])
		if err != nil {
			return nil, errwrap.Wrapf(err, "key `%s`", k)
		}
		nodes[k] = n
		if isConstant(n) {
			consts[k] = n[interfaces.CloudConstantValue]
		} else {
			folded = false
		}
	}
	if folded {
		return constant(consts), nil
	}
	return map[string]interface{}{
		interfaces.CloudDictionaryValue: map[string]interface{}{
			interfaces.CloudInnerValues: nodes,
		},
	}, nil
}

// dateNode returns the invocation which builds a date from milliseconds.
func dateNode(date *types.Date) map[string]interface{} {
	return invocationNode(interfaces.DateFuncName, map[string]interface{}{
		interfaces.DateArgName: constant(date.Millis()),
	})
}

// geometryNode returns the invocation of the geometry constructor with every
// field other than the type as a constant argument.
func geometryNode(geom *types.Geometry) map[string]interface{} {
	args := make(map[string]interface{})
	for _, field := range geom.Fields() {
		args[field] = constant(geom.Raw[field])
	}
	return invocationNode(interfaces.GeometryFuncPrefix+geom.Type(), args)
}

func invocationNode(name string, args map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		interfaces.CloudFunctionInvocationValue: map[string]interface{}{
			interfaces.CloudFunctionName: name,
			interfaces.CloudArguments:    args,
		},
	}
}

func constant(v interface{}) map[string]interface{} {
	return map[string]interface{}{
		interfaces.CloudConstantValue: v,
	}
}

func reference(key string) map[string]interface{} {
	return map[string]interface{}{
		interfaces.CloudValueReference: key,
	}
}

func isConstant(node map[string]interface{}) bool {
	_, ok := node[interfaces.CloudConstantValue]
	return ok && len(node) == 1
}
