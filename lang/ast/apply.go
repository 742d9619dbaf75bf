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
	"strings"

	"github.com/purpleidea/lazygraph/lang/interfaces"
	"github.com/purpleidea/lazygraph/lang/types"
	"github.com/purpleidea/lazygraph/util"
	"github.com/purpleidea/lazygraph/util/errwrap"
)

var (
	_ interfaces.Func = &CatalogFunc{}
	_ interfaces.Func = &UserFunc{}
	_ interfaces.Func = &SavedFunc{}
	_ interfaces.Func = &ValueFunc{}

	_ interfaces.Finalizer = &UserFunc{}

	_ interfaces.Expr = &ExprCall{}
	_ interfaces.Expr = &ExprVar{}
	_ interfaces.Expr = &ExprUnboundVar{}
)

// apply is the common implementation of Apply for functions with a known
// signature. Every key must be a declared argument, every required argument
// must be present, and each value is promoted to its declared type. The
// resulting invocation is then promoted to the declared return type. Errors
// from the promoter are returned unchanged.
func apply(data *interfaces.Data, fn interfaces.Func, args map[string]interface{}) (interface{}, error) {
	sig := fn.Signature()

	unknown := util.StrFilterElementsInList(sig.ArgNames(), util.StrMapKeys(args))
	if len(unknown) > 0 {
		return nil, errwrap.Wrapf(interfaces.ErrUnrecognizedArgument, "%s does not take: %s", funcName(fn), strings.Join(unknown, ", "))
	}

	missing := []string{}
	for _, arg := range sig.Args {
		if v, exists := args[arg.Name]; (!exists || v == nil) && !arg.Optional {
			missing = append(missing, arg.Name)
		}
	}
	if len(missing) > 0 {
		return nil, errwrap.Wrapf(interfaces.ErrMissingRequiredArgument, "%s requires: %s", funcName(fn), strings.Join(missing, ", "))
	}

	promoted := make(map[string]interface{})
	for _, arg := range sig.Args {
		v := args[arg.Name]
		if v == nil {
			continue // optional and not given
		}
		p, err := data.Promote(v, arg.Type)
		if err != nil {
			return nil, err
		}
		if f, ok := p.(interfaces.Finalizer); ok {
			if err := f.Finalize(); err != nil {
				return nil, errwrap.Wrapf(err, "could not finalize argument `%s` of %s", arg.Name, funcName(fn))
			}
		}
		promoted[arg.Name] = p
	}

	call := NewCall(fn, promoted)
	data.Printf("apply: %s", call)
	return data.Promote(call, sig.Returns)
}

// Call invokes a function with positional arguments. They are assigned to the
// declared arguments in order. Nil values are treated as not given.
func Call(fn interfaces.Func, args ...interface{}) (interface{}, error) {
	sig := fn.Signature()
	if sig == nil {
		if len(args) > 0 {
			return nil, errNoSignature(fn)
		}
		return fn.Apply(map[string]interface{}{})
	}
	if len(args) > len(sig.Args) {
		return nil, errwrap.Wrapf(interfaces.ErrTooManyArguments, "%s takes at most %d, got %d", funcName(fn), len(sig.Args), len(args))
	}
	named := make(map[string]interface{})
	for i, arg := range args {
		if arg == nil {
			continue
		}
		named[sig.Args[i].Name] = arg
	}
	return fn.Apply(named)
}

// CallOrApply invokes a function in the style of a method call. If receiver is
// not nil, it fills the first argument. The remaining args are read as keyword
// arguments when there is exactly one of them and it is a plain dictionary
// which shares a key with the declared arguments, unless the remaining
// signature has a single required Dictionary argument, which would then be
// ambiguous. Otherwise they are positional.
func CallOrApply(fn interfaces.Func, receiver interface{}, args ...interface{}) (interface{}, error) {
	sig := fn.Signature()
	if sig == nil {
		if receiver != nil {
			return nil, errNoSignature(fn)
		}
		return Call(fn, args...)
	}
	params := sig.Args
	named := make(map[string]interface{})
	var self *types.Arg
	if receiver != nil {
		if len(params) == 0 {
			return nil, errwrap.Wrapf(interfaces.ErrTooManyArguments, "%s takes no receiver", funcName(fn))
		}
		self = params[0]
		named[self.Name] = receiver
		params = params[1:]
	}

	if m, ok := keywordArgs(sig.ArgNames(), params, args); ok {
		for k, v := range m {
			if self != nil && k == self.Name {
				return nil, errwrap.Wrapf(interfaces.ErrDuplicateArgument, "argument `%s` of %s is also the receiver", k, funcName(fn))
			}
			named[k] = v
		}
		return fn.Apply(named)
	}

	if len(args) > len(params) {
		return nil, errwrap.Wrapf(interfaces.ErrTooManyArguments, "%s takes at most %d, got %d", funcName(fn), len(params), len(args))
	}
	for i, arg := range args {
		if arg == nil {
			continue
		}
		named[params[i].Name] = arg
	}
	return fn.Apply(named)
}

// keywordArgs returns the keyword dictionary if args should be read that way.
// A dictionary which shares no key with names is a positional value.
func keywordArgs(names []string, params []*types.Arg, args []interface{}) (map[string]interface{}, bool) {
	if len(args) != 1 || len(params) == 0 {
		return nil, false
	}
	m, ok := args[0].(map[string]interface{})
	if !ok || m == nil {
		return nil, false
	}
	requiresOneArg := len(params) == 1 || params[1].Optional
	if requiresOneArg && params[0].Type == types.TypeDictionary {
		return nil, false // the dictionary is the value
	}
	if len(util.StrListIntersection(util.StrMapKeys(m), names)) == 0 {
		return nil, false
	}
	return m, true
}

// Invoke looks up the named algorithm and calls it in the style of a method
// call. This is what generated capability wrappers use.
func Invoke(data *interfaces.Data, name string, receiver interface{}, args ...interface{}) (interface{}, error) {
	fn, err := NewCatalogFunc(data, name)
	if err != nil {
		return nil, err
	}
	return CallOrApply(fn, receiver, args...)
}
