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

package ast

import (
	"fmt"
	"strings"
	"sync"

	"github.com/purpleidea/lazygraph/lang/interfaces"
	"github.com/purpleidea/lazygraph/lang/types"
	"github.com/purpleidea/lazygraph/util/errwrap"
)

// Callback is the native body of a user function. It is run exactly once, at
// construction time, with one placeholder variable per declared argument. What
// it returns becomes the body of the function.
type Callback func(args ...interface{}) (interface{}, error)

// CatalogFunc is a proxy for an entry of the signature table.
type CatalogFunc struct {
	data *interfaces.Data
	sig  *types.Signature
}

// NewCatalogFunc looks up the named algorithm and builds a proxy for it.
func NewCatalogFunc(data *interfaces.Data, name string) (*CatalogFunc, error) {
	sig, err := data.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &CatalogFunc{
		data: data,
		sig:  sig,
	}, nil
}

// Kind returns the variant tag of this function.
func (obj *CatalogFunc) Kind() interfaces.FuncKind { return interfaces.KindCatalog }

// Signature returns the declared signature.
func (obj *CatalogFunc) Signature() *types.Signature { return obj.sig }

// String returns the catalog name.
func (obj *CatalogFunc) String() string { return obj.sig.Name }

// Apply invokes the algorithm with named arguments.
func (obj *CatalogFunc) Apply(args map[string]interface{}) (interface{}, error) {
	return apply(obj.data, obj, args)
}

// Encode returns the bare name of the algorithm. This is how the legacy format
// passes a catalog algorithm around as a value.
func (obj *CatalogFunc) Encode(enc interfaces.Encoder) (interface{}, error) {
	return obj.sig.Name, nil
}

// EncodeCloud returns a function definition which forwards each of its
// arguments to the algorithm. The reference-based format has no node which
// names an algorithm without calling it.
func (obj *CatalogFunc) EncodeCloud(enc interfaces.CloudEncoder) (map[string]interface{}, error) {
	names := obj.sig.ArgNames()
	args := make(map[string]interface{})
	for _, arg := range obj.sig.Args {
		args[arg.Name] = NewVar(arg.Name, arg.Type)
	}
	body, err := enc.Ref(NewCall(obj, args))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		interfaces.CloudFunctionDefinitionValue: map[string]interface{}{
			interfaces.CloudArgumentNames: names,
			interfaces.CloudBody:          body,
		},
	}, nil
}

// UserFunc is a function built from a native callback. The callback is run once
// with placeholder variables, and the expression it returns is kept as the body.
type UserFunc struct {
	data *interfaces.Data
	sig  *types.Signature
	body interface{}

	// one of these two is set
	vars    []*ExprVar
	unbound []*ExprUnboundVar

	mutex *sync.Mutex
}

// NewUserFunc builds a function with an explicit signature. Each argument is a
// bound variable named after its declaration, and promoted to the declared
// type before it is handed to the callback.
func NewUserFunc(data *interfaces.Data, sig *types.Signature, cb Callback) (*UserFunc, error) {
	if sig == nil {
		return nil, fmt.Errorf("a signature is required")
	}
	if cb == nil {
		return nil, fmt.Errorf("a callback is required")
	}
	sig = sig.Copy()
	vars := []*ExprVar{}
	params := []interface{}{}
	for _, arg := range sig.Args {
		v := NewVar(arg.Name, arg.Type)
		p, err := data.Promote(v, arg.Type)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
		params = append(params, p)
	}
	body, err := cb(params...)
	if err != nil {
		return nil, err
	}
	return &UserFunc{
		data:  data,
		sig:   sig,
		body:  body,
		vars:  vars,
		mutex: &sync.Mutex{},
	}, nil
}

// NewMappingFunc builds a function for a mapping operation, such as mapping an
// algorithm over every element of a collection. Its variables are unbound with
// reserved serial numbers, so that nested mapping functions never collide. They
// get their names when Finalize runs.
func NewMappingFunc(data *interfaces.Data, argTypes []string, returns string, cb Callback) (*UserFunc, error) {
	if cb == nil {
		return nil, fmt.Errorf("a callback is required")
	}
	sig := &types.Signature{
		Args:    []*types.Arg{},
		Returns: returns,
	}
	unbound := []*ExprUnboundVar{}
	params := []interface{}{}
	for _, typ := range argTypes {
		v, err := NewUnboundVar(data.Namer, typ)
		if err != nil {
			return nil, err
		}
		p, err := data.Promote(v, typ)
		if err != nil {
			return nil, err
		}
		sig.Args = append(sig.Args, &types.Arg{
			Name: v.reservedName(),
			Type: typ,
		})
		unbound = append(unbound, v)
		params = append(params, p)
	}
	body, err := cb(params...)
	if err != nil {
		return nil, err
	}
	return &UserFunc{
		data:    data,
		sig:     sig,
		body:    body,
		unbound: unbound,
		mutex:   &sync.Mutex{},
	}, nil
}

// NewBodyFunc builds a function around an existing body expression. The body
// may refer to the named arguments with variables. This is used by decoders,
// which see the body before they see any callback. Arguments are generic.
func NewBodyFunc(data *interfaces.Data, argNames []string, body interface{}) (*UserFunc, error) {
	sig := &types.Signature{
		Args:    []*types.Arg{},
		Returns: types.TypeObject,
	}
	for _, name := range argNames {
		sig.Args = append(sig.Args, &types.Arg{
			Name: name,
			Type: types.TypeObject,
		})
	}
	return NewUserFunc(data, sig, func(args ...interface{}) (interface{}, error) {
		return body, nil
	})
}

// Kind returns the variant tag of this function.
func (obj *UserFunc) Kind() interfaces.FuncKind { return interfaces.KindUser }

// Signature returns the declared signature.
func (obj *UserFunc) Signature() *types.Signature { return obj.sig }

// Body returns the captured body expression.
func (obj *UserFunc) Body() interface{} { return obj.body }

// String returns a short representation of this function.
func (obj *UserFunc) String() string {
	return fmt.Sprintf("func(%s) { %v }", strings.Join(obj.sig.ArgNames(), ", "), obj.body)
}

// Apply invokes the function with named arguments.
func (obj *UserFunc) Apply(args map[string]interface{}) (interface{}, error) {
	return apply(obj.data, obj, args)
}

// Finalize binds the mapping variables to their reserved names. It is called
// when this function is passed as an argument to another function. It is safe
// to call more than once.
func (obj *UserFunc) Finalize() error {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	for _, v := range obj.unbound {
		if _, err := v.Bind(v.reservedName()); err != nil {
			return err
		}
	}
	return nil
}

// argNames returns the names of the variables. It errors if a mapping variable
// was not bound yet.
func (obj *UserFunc) argNames() ([]string, error) {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	names := []string{}
	for _, v := range obj.vars {
		names = append(names, v.Name())
	}
	for _, v := range obj.unbound {
		b := v.Bound()
		if b == nil {
			return nil, v.unbound()
		}
		names = append(names, b.Name())
	}
	return names, nil
}

// Encode returns the legacy lambda node of this function.
func (obj *UserFunc) Encode(enc interfaces.Encoder) (interface{}, error) {
	names, err := obj.argNames()
	if err != nil {
		return nil, err
	}
	body, err := enc.Encode(obj.body)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		interfaces.FieldType:          interfaces.TagFunction,
		interfaces.FieldArgumentNames: names,
		interfaces.FieldBody:          body,
	}, nil
}

// EncodeCloud returns the reference-based function definition of this
// function.
func (obj *UserFunc) EncodeCloud(enc interfaces.CloudEncoder) (map[string]interface{}, error) {
	names, err := obj.argNames()
	if err != nil {
		return nil, err
	}
	body, err := enc.Ref(obj.body)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		interfaces.CloudFunctionDefinitionValue: map[string]interface{}{
			interfaces.CloudArgumentNames: names,
			interfaces.CloudBody:          body,
		},
	}, nil
}

// SavedFunc is a reference to a computation graph which is stored remotely. It
// is invoked by loading the graph by id first.
type SavedFunc struct {
	data *interfaces.Data
	path string
	sig  *types.Signature
}

// NewSavedFunc builds a reference to the stored graph at path. The signature
// describes its arguments, and is usually retrieved along with it.
func NewSavedFunc(data *interfaces.Data, path string, sig *types.Signature) (*SavedFunc, error) {
	if path == "" {
		return nil, fmt.Errorf("a path is required")
	}
	if sig == nil {
		return nil, fmt.Errorf("a signature is required")
	}
	sig = sig.Copy()
	if sig.Name == "" {
		sig.Name = path
	}
	return &SavedFunc{
		data: data,
		path: path,
		sig:  sig,
	}, nil
}

// Kind returns the variant tag of this function.
func (obj *SavedFunc) Kind() interfaces.FuncKind { return interfaces.KindSaved }

// Signature returns the declared signature.
func (obj *SavedFunc) Signature() *types.Signature { return obj.sig }

// Path returns the id of the stored graph.
func (obj *SavedFunc) Path() string { return obj.path }

// String returns a short representation of this function.
func (obj *SavedFunc) String() string { return fmt.Sprintf("saved(%s)", obj.path) }

// Apply invokes the stored graph with named arguments.
func (obj *SavedFunc) Apply(args map[string]interface{}) (interface{}, error) {
	return apply(obj.data, obj, args)
}

// Encode returns the legacy node which loads the stored graph.
func (obj *SavedFunc) Encode(enc interfaces.Encoder) (interface{}, error) {
	return map[string]interface{}{
		interfaces.FieldType:         interfaces.TagInvocation,
		interfaces.FieldFunctionName: interfaces.LoadByIDFuncName,
		interfaces.FieldArguments: map[string]interface{}{
			interfaces.LoadByIDArgName: obj.path,
		},
	}, nil
}

// EncodeCloud returns the reference-based node which loads the stored graph.
func (obj *SavedFunc) EncodeCloud(enc interfaces.CloudEncoder) (map[string]interface{}, error) {
	id, err := enc.Value(obj.path)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		interfaces.CloudFunctionInvocationValue: map[string]interface{}{
			interfaces.CloudFunctionName: interfaces.LoadByIDFuncName,
			interfaces.CloudArguments: map[string]interface{}{
				interfaces.LoadByIDArgName: id,
			},
		},
	}, nil
}

// ValueFunc is a function whose identity is the result of another expression,
// such as an algorithm returned by a call. Its signature is not known, so its
// arguments are neither checked nor promoted. The decoders produce these.
type ValueFunc struct {
	value interface{}
}

// NewValueFunc wraps an algorithm-valued expression so that it can be invoked.
func NewValueFunc(value interface{}) *ValueFunc {
	return &ValueFunc{
		value: value,
	}
}

// Kind returns the variant tag of this function.
func (obj *ValueFunc) Kind() interfaces.FuncKind { return interfaces.KindValue }

// Signature returns nil, since it is not known.
func (obj *ValueFunc) Signature() *types.Signature { return nil }

// Value returns the wrapped expression.
func (obj *ValueFunc) Value() interface{} { return obj.value }

// String returns a short representation of this function.
func (obj *ValueFunc) String() string { return fmt.Sprintf("%v", obj.value) }

// Apply builds a generic invocation with the arguments as given.
func (obj *ValueFunc) Apply(args map[string]interface{}) (interface{}, error) {
	return NewCall(obj, args), nil
}

// Encode returns the legacy node of the wrapped expression.
func (obj *ValueFunc) Encode(enc interfaces.Encoder) (interface{}, error) {
	return enc.Encode(obj.value)
}

// EncodeCloud returns the reference-based node of the wrapped expression.
func (obj *ValueFunc) EncodeCloud(enc interfaces.CloudEncoder) (map[string]interface{}, error) {
	return enc.Value(obj.value)
}

// errNoSignature is returned when a positional or receiver call is made to a
// function whose signature is not known.
func errNoSignature(fn interfaces.Func) error {
	return errwrap.Wrapf(interfaces.ErrNoSignature, "positional call to %s", fn)
}
