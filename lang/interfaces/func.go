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

package interfaces

import (
	"github.com/purpleidea/lazygraph/lang/types"
)

// FuncKind is the tag of each function variant. Encoders dispatch on it.
type FuncKind int

// Each FuncKind is one variant of function.
const (
	// KindCatalog is a proxy for an entry of the signature table.
	KindCatalog FuncKind = iota

	// KindUser is a function built from a native callback.
	KindUser

	// KindSaved is a reference to a remotely stored computation graph.
	KindSaved

	// KindValue is a function whose identity is the result of another
	// expression. It is only produced by the decoders.
	KindValue
)

// String returns a readable name for the kind.
func (obj FuncKind) String() string {
	switch obj {
	case KindCatalog:
		return "catalog"
	case KindUser:
		return "user"
	case KindSaved:
		return "saved"
	case KindValue:
		return "value"
	}
	return "unknown"
}

// Func is anything that can be invoked within the graph.
type Func interface {
	Expr // functions can also be passed around as values

	// Kind returns the variant tag of this function.
	Kind() FuncKind

	// Signature returns the declared signature. It may be nil for the
	// KindValue variant whose signature is not known.
	Signature() *types.Signature

	// Apply invokes the function with named arguments. Each argument is
	// promoted to its declared type, and the resulting invocation is then
	// promoted to the declared return type.
	Apply(args map[string]interface{}) (interface{}, error)
}
