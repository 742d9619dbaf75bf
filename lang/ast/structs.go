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

// Package ast contains the nodes of the lazy expression graph and the function
// variants which can be invoked within it. Nothing in here is ever evaluated
// locally. Each call only records what should be invoked on the remote service.
package ast

import (
	"fmt"
	"strings"
	"sync"

	"github.com/purpleidea/lazygraph/lang/interfaces"
	"github.com/purpleidea/lazygraph/util"
	"github.com/purpleidea/lazygraph/util/errwrap"
)

// ExprCall is an invocation of a function with a set of named arguments. The
// arguments have already been promoted to the types that the function expects.
type ExprCall struct {
	fn   interfaces.Func
	args map[string]interface{}
}

// NewCall builds an invocation node. It is usually called by the function
// application code, which has already validated and promoted the arguments.
// Nil arguments are dropped, since they mean that the argument was not given.
func NewCall(fn interfaces.Func, args map[string]interface{}) *ExprCall {
	m := make(map[string]interface{})
	for k, v := range args {
		if v == nil {
			continue
		}
		m[k] = v
	}
	return &ExprCall{
		fn:   fn,
		args: m,
	}
}

// Func returns the function which is invoked.
func (obj *ExprCall) Func() interfaces.Func { return obj.fn }

// Args returns a copy of the named arguments.
func (obj *ExprCall) Args() map[string]interface{} {
	m := make(map[string]interface{}, len(obj.args))
	for k, v := range obj.args {
		m[k] = v
	}
	return m
}

// String returns a short representation of this expression.
func (obj *ExprCall) String() string {
	args := []string{}
	for _, k := range util.StrMapKeys(obj.args) {
		args = append(args, fmt.Sprintf("%s: %v", k, obj.args[k]))
	}
	return fmt.Sprintf("%s(%s)", funcName(obj.fn), strings.Join(args, ", "))
}

// Encode returns the legacy wire node of this invocation. Catalog functions
// are named directly, all others are encoded in full.
func (obj *ExprCall) Encode(enc interfaces.Encoder) (interface{}, error) {
	args := make(map[string]interface{})
	for _, k := range util.StrMapKeys(obj.args) {
		v, err := enc.Encode(obj.args[k])
		if err != nil {
			return nil, err
		}
		args[k] = v
	}
	node := map[string]interface{}{
		interfaces.FieldType:      interfaces.TagInvocation,
		interfaces.FieldArguments: args,
	}
	if obj.fn.Kind() == interfaces.KindCatalog {
		node[interfaces.FieldFunctionName] = obj.fn.Signature().Name
		return node, nil
	}
	fn, err := enc.Encode(obj.fn)
	if err != nil {
		return nil, err
	}
	node[interfaces.FieldFunction] = fn
	return node, nil
}

// EncodeCloud returns the reference-based value node of this invocation.
func (obj *ExprCall) EncodeCloud(enc interfaces.CloudEncoder) (map[string]interface{}, error) {
	args := make(map[string]interface{})
	for _, k := range util.StrMapKeys(obj.args) {
		v, err := enc.Value(obj.args[k])
		if err != nil {
			return nil, err
		}
		args[k] = v
	}
	inner := map[string]interface{}{
		interfaces.CloudArguments: args,
	}
	if obj.fn.Kind() == interfaces.KindCatalog {
		inner[interfaces.CloudFunctionName] = obj.fn.Signature().Name
	} else {
		ref, err := enc.Ref(obj.fn)
		if err != nil {
			return nil, err
		}
		inner[interfaces.CloudFunctionReference] = ref
	}
	return map[string]interface{}{
		interfaces.CloudFunctionInvocationValue: inner,
	}, nil
}

// ExprVar is a reference to a named function argument. It only has a value
// once the remote service evaluates the enclosing function.
type ExprVar struct {
	name string
	typ  string
}

// NewVar builds a bound variable with a name and the capability type name that
// it stands in for.
func NewVar(name, typ string) *ExprVar {
	return &ExprVar{
		name: name,
		typ:  typ,
	}
}

// Name returns the name of the referenced argument.
func (obj *ExprVar) Name() string { return obj.name }

// Type returns the capability type name that this variable stands in for.
func (obj *ExprVar) Type() string { return obj.typ }

// String returns a short representation of this expression.
func (obj *ExprVar) String() string { return fmt.Sprintf("var(%s)", obj.name) }

// Encode returns the legacy wire node of this variable.
func (obj *ExprVar) Encode(enc interfaces.Encoder) (interface{}, error) {
	return map[string]interface{}{
		interfaces.FieldType:  interfaces.TagArgumentRef,
		interfaces.FieldValue: obj.name,
	}, nil
}

// EncodeCloud returns the reference-based value node of this variable.
func (obj *ExprVar) EncodeCloud(enc interfaces.CloudEncoder) (map[string]interface{}, error) {
	return map[string]interface{}{
		interfaces.CloudArgumentReference: obj.name,
	}, nil
}

// ExprUnboundVar is a variable which does not have a name yet. Its serial
// number is reserved when it is built, but the name only becomes usable once
// Bind is called. This happens when the mapping function that owns it is
// embedded into an enclosing call. Encoding it before that is an error.
type ExprUnboundVar struct {
	typ    string
	serial uint64

	mutex *sync.Mutex
	bound *ExprVar
}

// NewUnboundVar builds an unbound variable and reserves a serial number for it
// from the namer.
func NewUnboundVar(namer *interfaces.Namer, typ string) (*ExprUnboundVar, error) {
	if namer == nil {
		return nil, fmt.Errorf("a namer is required for unbound variables")
	}
	return &ExprUnboundVar{
		typ:    typ,
		serial: namer.Reserve(),
		mutex:  &sync.Mutex{},
	}, nil
}

// Type returns the capability type name that this variable stands in for.
func (obj *ExprUnboundVar) Type() string { return obj.typ }

// Serial returns the reserved serial number.
func (obj *ExprUnboundVar) Serial() uint64 { return obj.serial }

// reservedName is the name that Bind will be given by the owning function. It
// is not usable until then.
func (obj *ExprUnboundVar) reservedName() string {
	return interfaces.MappingVarName(obj.serial)
}

// Bind gives this variable its name. It can only happen once. Binding again to
// the same name is a no-op.
func (obj *ExprUnboundVar) Bind(name string) (*ExprVar, error) {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	if obj.bound != nil {
		if obj.bound.name != name {
			return nil, errwrap.Wrapf(interfaces.ErrAlreadyBound, "variable `%s` can't become `%s`", obj.bound.name, name)
		}
		return obj.bound, nil
	}
	obj.bound = NewVar(name, obj.typ)
	return obj.bound, nil
}

// Bound returns the bound variable, or nil if Bind was not called yet.
func (obj *ExprUnboundVar) Bound() *ExprVar {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	return obj.bound
}

// String returns a short representation of this expression.
func (obj *ExprUnboundVar) String() string {
	if v := obj.Bound(); v != nil {
		return v.String()
	}
	return fmt.Sprintf("var(<unbound %s>)", obj.typ)
}

// Encode returns the legacy wire node of the bound variable. It errors if the
// variable was never bound.
func (obj *ExprUnboundVar) Encode(enc interfaces.Encoder) (interface{}, error) {
	v := obj.Bound()
	if v == nil {
		return nil, obj.unbound()
	}
	return v.Encode(enc)
}

// EncodeCloud returns the reference-based value node of the bound variable.
// It errors if the variable was never bound.
func (obj *ExprUnboundVar) EncodeCloud(enc interfaces.CloudEncoder) (map[string]interface{}, error) {
	v := obj.Bound()
	if v == nil {
		return nil, obj.unbound()
	}
	return v.EncodeCloud(enc)
}

func (obj *ExprUnboundVar) unbound() error {
	return errwrap.Wrapf(interfaces.ErrUnboundVariable, "a mapped %s argument can't be used outside of its mapping function", obj.typ)
}

// funcName returns a printable name for any function.
func funcName(fn interfaces.Func) string {
	if fn == nil {
		return "<nil>"
	}
	if sig := fn.Signature(); sig != nil && sig.Name != "" {
		return sig.Name
	}
	return fn.String()
}
