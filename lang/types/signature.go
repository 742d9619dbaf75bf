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

// Package types contains the signature data structures of the remote algorithm
// catalog and the few literal value types that have their own wire encoding.
package types

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/purpleidea/lazygraph/util/errwrap"
)

const (
	// TypeObject is the generic type name. It is used when nothing more
	// specific is known, for example for decoded function arguments.
	TypeObject = "Object"

	// TypeDictionary is the type name of a keyed collection of values.
	TypeDictionary = "Dictionary"

	// TypeAlgorithm is the type name of a function-valued argument slot.
	TypeAlgorithm = "Algorithm"

	// TypeFunction is an alternate spelling of TypeAlgorithm that some
	// signature tables use.
	TypeFunction = "Function"

	// OptionalPrefix marks a parameter name as optional in a statically
	// declared parameter list. It is stripped before names are compared.
	OptionalPrefix = "opt_"
)

// genericSuffix matches the generic parameter portion of a type name such as
// `List<Image>`. It is greedy so that nested generics are removed entirely.
var genericSuffix = regexp.MustCompile(`<.*>`)

// NormalizeTypeName removes any generic-type suffix from a type name. For
// example `Dictionary<Object>` becomes `Dictionary`.
func NormalizeTypeName(s string) string {
	return genericSuffix.ReplaceAllString(s, "")
}

// Arg is the declaration of a single argument of an algorithm.
type Arg struct {
	// Name is the keyword name of the argument. It is unique within its
	// signature.
	Name string `json:"name" yaml:"name"`

	// Type is the capability type name that values in this slot are
	// promoted to.
	Type string `json:"type" yaml:"type"`

	// Optional specifies that this argument can be omitted.
	Optional bool `json:"optional,omitempty" yaml:"optional,omitempty"`

	// Default is the informational default value of an optional argument.
	// It is never sent on the wire by this client.
	Default interface{} `json:"default,omitempty" yaml:"default,omitempty"`

	// Description is the human readable documentation of this argument.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// String returns a short representation of the argument.
func (obj *Arg) String() string {
	s := fmt.Sprintf("%s %s", obj.Name, obj.Type)
	if obj.Optional {
		s = fmt.Sprintf("%s?", s)
	}
	return s
}

// Copy returns a copy of this argument declaration. The default value is not
// deep copied.
func (obj *Arg) Copy() *Arg {
	return &Arg{
		Name:        obj.Name,
		Type:        obj.Type,
		Optional:    obj.Optional,
		Default:     obj.Default,
		Description: obj.Description,
	}
}

// Signature is the declared shape of an algorithm: the ordered list of its
// arguments and its return type. Order is significant for positional calls.
type Signature struct {
	// Name is the catalog name of the algorithm, eg: `Image.select`.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Args is the ordered list of argument declarations.
	Args []*Arg `json:"args" yaml:"args"`

	// Returns is the type name of the result.
	Returns string `json:"returns" yaml:"returns"`

	// Description is the human readable documentation of the algorithm.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Hidden algorithms are not listed as members of a capability.
	Hidden bool `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// String returns a representation of the signature in a func-like notation.
func (obj *Signature) String() string {
	args := []string{}
	for _, arg := range obj.Args {
		args = append(args, arg.String())
	}
	return fmt.Sprintf("%s(%s) %s", obj.Name, strings.Join(args, ", "), obj.Returns)
}

// Copy returns a copy of this signature, including copies of each argument.
func (obj *Signature) Copy() *Signature {
	args := []*Arg{}
	for _, arg := range obj.Args {
		args = append(args, arg.Copy())
	}
	return &Signature{
		Name:        obj.Name,
		Args:        args,
		Returns:     obj.Returns,
		Description: obj.Description,
		Hidden:      obj.Hidden,
	}
}

// Normalize strips generic suffixes from every argument type and from the
// return type. It modifies the signature in place.
func (obj *Signature) Normalize() {
	for _, arg := range obj.Args {
		arg.Type = NormalizeTypeName(arg.Type)
	}
	obj.Returns = NormalizeTypeName(obj.Returns)
}

// Validate checks that the signature is well-formed. Every problem found is
// returned at once.
func (obj *Signature) Validate() error {
	var reterr error
	if obj.Name == "" {
		reterr = errwrap.Append(reterr, fmt.Errorf("signature has an empty name"))
	}
	seen := make(map[string]struct{})
	for i, arg := range obj.Args {
		if arg == nil {
			reterr = errwrap.Append(reterr, fmt.Errorf("arg #%d of %s is nil", i, obj.Name))
			continue
		}
		if arg.Name == "" {
			reterr = errwrap.Append(reterr, fmt.Errorf("arg #%d of %s has an empty name", i, obj.Name))
			continue
		}
		if _, exists := seen[arg.Name]; exists {
			reterr = errwrap.Append(reterr, fmt.Errorf("arg `%s` of %s is duplicated", arg.Name, obj.Name))
		}
		seen[arg.Name] = struct{}{}
	}
	return reterr
}

// Arg returns the declaration of the named argument, or nil if none exists.
func (obj *Signature) Arg(name string) *Arg {
	for _, arg := range obj.Args {
		if arg.Name == name {
			return arg
		}
	}
	return nil
}

// ArgNames returns the ordered list of argument names.
func (obj *Signature) ArgNames() []string {
	names := []string{}
	for _, arg := range obj.Args {
		names = append(names, arg.Name)
	}
	return names
}

// Params returns the ordered list of argument names in the form used by
// statically declared parameter lists: optional arguments carry the
// OptionalPrefix marker.
func (obj *Signature) Params() []string {
	params := []string{}
	for _, arg := range obj.Args {
		if arg.Optional {
			params = append(params, OptionalPrefix+arg.Name)
			continue
		}
		params = append(params, arg.Name)
	}
	return params
}

// StripOptional removes the OptionalPrefix marker from a parameter name if it
// is present.
func StripOptional(param string) string {
	return strings.TrimPrefix(param, OptionalPrefix)
}

// IsOptional returns true if the parameter name carries the OptionalPrefix.
func IsOptional(param string) bool {
	return strings.HasPrefix(param, OptionalPrefix)
}
