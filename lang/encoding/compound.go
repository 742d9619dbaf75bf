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
	"fmt"

	"github.com/purpleidea/lazygraph/lang/interfaces"
	"github.com/purpleidea/lazygraph/util/errwrap"
)

// Compound builds a legacy CompoundValue. Callers which know that a subgraph
// is used more than once bind it to a key, and embed the returned ValueRef in
// its place. Nothing is shared automatically. Entries are emitted in the order
// they were bound, so a ValueRef always points at an earlier entry.
type Compound struct {
	keys  []string
	scope map[string]interface{}
}

// NewCompound builds an empty compound value.
func NewCompound() *Compound {
	return &Compound{
		keys:  []string{},
		scope: make(map[string]interface{}),
	}
}

// Bind adds a shared subgraph to the scope and returns the reference to embed
// wherever it is used.
func (obj *Compound) Bind(key string, value interface{}) (*ValueRef, error) {
	if key == "" {
		return nil, fmt.Errorf("empty scope key")
	}
	if _, exists := obj.scope[key]; exists {
		return nil, errwrap.Wrapf(interfaces.ErrDuplicateScopeKey, "key `%s`", key)
	}
	obj.keys = append(obj.keys, key)
	obj.scope[key] = value
	return &ValueRef{
		key:   key,
		value: value,
	}, nil
}

// Len returns the number of bound entries.
func (obj *Compound) Len() int { return len(obj.keys) }

// Encode returns the legacy node of the root value. If nothing was bound, this
// is the bare node of the root.
func (obj *Compound) Encode(root interface{}) (interface{}, error) {
	enc := &encoder{}
	value, err := enc.Encode(root)
	if err != nil {
		return nil, err
	}
	if len(obj.keys) == 0 {
		return value, nil
	}
	scope := []interface{}{}
	for _, key := range obj.keys {
		node, err := enc.Encode(obj.scope[key])
		if err != nil {
			return nil, errwrap.Wrapf(err, "scope entry `%s`", key)
		}
		scope = append(scope, []interface{}{key, node})
	}
	return map[string]interface{}{
		interfaces.FieldType:  interfaces.TagCompoundValue,
		interfaces.FieldScope: scope,
		interfaces.FieldValue: value,
	}, nil
}

// Serialize returns the JSON of Encode.
func (obj *Compound) Serialize(root interface{}) (string, error) {
	node, err := obj.Encode(root)
	if err != nil {
		return "", err
	}
	return marshal(node)
}

// ValueRef stands in for a subgraph which was bound in a Compound.
type ValueRef struct {
	key   string
	value interface{}
}

var _ interfaces.Expr = &ValueRef{} // ensure it meets this expectation

// Key returns the scope key.
func (obj *ValueRef) Key() string { return obj.key }

// Value returns the subgraph that this refers to.
func (obj *ValueRef) Value() interface{} { return obj.value }

// String returns a short representation of this reference.
func (obj *ValueRef) String() string { return fmt.Sprintf("ref(%s)", obj.key) }

// Encode returns the legacy reference node.
func (obj *ValueRef) Encode(enc interfaces.Encoder) (interface{}, error) {
	return map[string]interface{}{
		interfaces.FieldType:  interfaces.TagValueRef,
		interfaces.FieldValue: obj.key,
	}, nil
}

// EncodeCloud encodes the subgraph itself. The reference-based format shares
// identical subgraphs on its own.
func (obj *ValueRef) EncodeCloud(enc interfaces.CloudEncoder) (map[string]interface{}, error) {
	return enc.Value(obj.value)
}
