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

// Package promote contains the registry of type promoters. The capability
// wrapper layer registers one promoter per type name, and the registry is then
// installed as the Promoter of an interfaces.Data.
package promote

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/purpleidea/lazygraph/lang/ast"
	"github.com/purpleidea/lazygraph/lang/interfaces"
	"github.com/purpleidea/lazygraph/lang/types"
)

// Registry maps type names to promoters. Values headed for a type without a
// promoter are passed through unchanged. It is safe for concurrent use.
type Registry struct {
	mutex     sync.RWMutex
	promoters map[string]interfaces.PromoteFunc
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		promoters: make(map[string]interfaces.PromoteFunc),
	}
}

// Register adds the promoter for a type name. Each type can only be registered
// once.
func (obj *Registry) Register(typ string, fn interfaces.PromoteFunc) error {
	if typ == "" {
		return fmt.Errorf("empty type name")
	}
	if fn == nil {
		return fmt.Errorf("nil promoter for type: %s", typ)
	}
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	if _, exists := obj.promoters[typ]; exists {
		return fmt.Errorf("a promoter for type %s is already registered", typ)
	}
	obj.promoters[typ] = fn
	return nil
}

// ModuleRegister is like Register, except that it panics on error. It is meant
// to be called from the init of a package which provides capability wrappers.
func (obj *Registry) ModuleRegister(typ string, fn interfaces.PromoteFunc) {
	if err := obj.Register(typ, fn); err != nil {
		panic(err)
	}
}

// Types returns the sorted list of registered type names.
func (obj *Registry) Types() []string {
	obj.mutex.RLock()
	defer obj.mutex.RUnlock()
	keys := []string{}
	for k := range obj.promoters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Promote runs the promoter of the type. It has the signature of an
// interfaces.PromoteFunc so that it can be installed directly. Errors from
// the promoter are returned unchanged.
func (obj *Registry) Promote(value interface{}, typ string) (interface{}, error) {
	obj.mutex.RLock()
	fn, exists := obj.promoters[typ]
	obj.mutex.RUnlock()
	if !exists {
		return value, nil
	}
	return fn(value, typ)
}

// Lambda is a native function headed for an Algorithm slot. It becomes a
// mapping function when it is promoted.
type Lambda struct {
	// ArgTypes are the capability types of the arguments.
	ArgTypes []string

	// Returns is the capability type of the result.
	Returns string

	// Fn builds the body from the placeholder arguments.
	Fn ast.Callback
}

// Algorithm returns the promoter of function-valued slots. A Lambda becomes a
// mapping function, a string names a catalog algorithm, and a function is
// passed through as is.
func Algorithm(data *interfaces.Data) interfaces.PromoteFunc {
	return func(value interface{}, typ string) (interface{}, error) {
		switch x := value.(type) {
		case interfaces.Func:
			return x, nil
		case *Lambda:
			return ast.NewMappingFunc(data, x.ArgTypes, x.Returns, x.Fn)
		case string:
			return ast.NewCatalogFunc(data, x)
		}
		return value, nil
	}
}

// Date is the promoter of date slots. A golang time becomes a date literal.
func Date(value interface{}, typ string) (interface{}, error) {
	switch x := value.(type) {
	case time.Time:
		return types.NewDate(x), nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return types.NewDate(*x), nil
	}
	return value, nil
}

// Builtin builds a registry with the promoters that every client needs, and
// installs it into the data.
func Builtin(data *interfaces.Data) (*Registry, error) {
	obj := NewRegistry()
	for _, typ := range []string{types.TypeAlgorithm, types.TypeFunction} {
		if err := obj.Register(typ, Algorithm(data)); err != nil {
			return nil, err
		}
	}
	if err := obj.Register(types.DateTypeName, Date); err != nil {
		return nil, err
	}
	data.Promoter = obj.Promote
	return obj, nil
}
