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

// Package binder turns the raw argument list of a call into a named argument
// mapping. It decides if a call was made in the positional style or with a
// single dictionary of keyword arguments.
package binder

import (
	"fmt"
	"strings"

	"github.com/purpleidea/lazygraph/lang/interfaces"
	"github.com/purpleidea/lazygraph/lang/types"
	"github.com/purpleidea/lazygraph/util"
	"github.com/purpleidea/lazygraph/util/errwrap"
)

// Bind returns the named arguments of a call to the callable named name, which
// declares the parameter list params. Parameter names which carry the
// types.OptionalPrefix marker may be omitted. The rules are as follows:
//
// More than one raw argument, or a single argument which is not a plain
// map[string]interface{}, is a positional call. A single plain map whose keys
// intersect the declared parameter names is a keyword call, and every one of
// its keys must then be a parameter. A single plain map which shares no keys
// with the parameters is a positional call with one argument.
//
// Note that a dictionary value which happens to share a key with a parameter
// name is always read as keyword arguments. Call sites rely on this rule, so
// it must not be made any smarter.
//
// Nil values mean that the argument was not given. Every required parameter
// that is missing is named in a single ErrMissingRequiredArgument error.
func Bind(name string, params []string, args []interface{}) (map[string]interface{}, error) {
	names := []string{}
	for _, p := range params {
		names = append(names, types.StripOptional(p))
	}

	result := make(map[string]interface{})

	if m, ok := keyword(names, args); ok {
		var reterr error
		for _, k := range util.StrMapKeys(m) { // deterministic error order
			if !util.StrInList(k, names) {
				reterr = errwrap.Append(reterr, errwrap.Wrapf(interfaces.ErrUnexpectedArgument, "argument `%s` to %s", k, name))
				continue
			}
			if m[k] == nil {
				continue // undefined
			}
			result[k] = m[k]
		}
		if reterr != nil {
			return nil, reterr
		}

	} else {
		if len(args) > len(names) {
			return nil, errwrap.Wrapf(interfaces.ErrTooManyArguments, "%s takes at most %d, got %d", name, len(names), len(args))
		}
		for i, arg := range args {
			if arg == nil {
				continue // undefined
			}
			result[names[i]] = arg
		}
	}

	missing := []string{}
	for _, p := range params {
		if types.IsOptional(p) {
			continue
		}
		if _, exists := result[p]; !exists {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return nil, errwrap.Wrapf(interfaces.ErrMissingRequiredArgument, "%s requires: %s", name, strings.Join(missing, ", "))
	}

	return result, nil
}

// keyword returns the keyword dictionary if this call was made in the keyword
// style. The dictionary is a clone of the one that was passed in.
func keyword(names []string, args []interface{}) (map[string]interface{}, bool) {
	if len(args) != 1 {
		return nil, false
	}
	m, ok := args[0].(map[string]interface{})
	if !ok || m == nil {
		return nil, false
	}
	if len(util.StrListIntersection(util.StrMapKeys(m), names)) == 0 {
		return nil, false // the dictionary is the first argument
	}
	clone := make(map[string]interface{}, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone, true
}

// Method is a client-side callable with a statically declared parameter list.
// It exists because golang can't recover the parameter names of a func value.
type Method struct {
	// Name is used in error messages.
	Name string

	// Params is the ordered parameter list. Optional ones carry the
	// types.OptionalPrefix marker.
	Params []string

	// Func is run with the bound arguments.
	Func func(args map[string]interface{}) (interface{}, error)
}

// Call binds the raw arguments and then runs the method.
func (obj *Method) Call(args ...interface{}) (interface{}, error) {
	if obj.Func == nil {
		return nil, fmt.Errorf("method %s has no func", obj.Name)
	}
	named, err := Bind(obj.Name, obj.Params, args)
	if err != nil {
		return nil, err
	}
	return obj.Func(named)
}
