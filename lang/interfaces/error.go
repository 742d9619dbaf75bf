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
	"github.com/purpleidea/lazygraph/util"
)

// These errors are raised while binding arguments to a function. They are
// always fatal to the current call.
const (
	// ErrMissingRequiredArgument is returned when a required argument was
	// not supplied. The wrapped message names every missing argument.
	ErrMissingRequiredArgument = util.Error("missing required argument")

	// ErrUnrecognizedArgument is returned when a keyword argument is not
	// present in the function signature.
	ErrUnrecognizedArgument = util.Error("unrecognized argument")

	// ErrTooManyArguments is returned when more positional arguments were
	// given than the function declares.
	ErrTooManyArguments = util.Error("too many arguments")

	// ErrUnexpectedArgument is returned by the argument binder when a
	// keyword style call contains a key which is not a declared parameter.
	ErrUnexpectedArgument = util.Error("unexpected argument")

	// ErrDuplicateArgument is returned when a receiver style call also
	// names the receiver parameter as a keyword.
	ErrDuplicateArgument = util.Error("duplicate argument")
)

// These errors are raised by the decoders. They indicate a malformed or an
// incompatible payload and should never be retried.
const (
	// ErrUnknownFunction is returned when a function name is not found in
	// the signature table.
	ErrUnknownFunction = util.Error("unknown function")

	// ErrUnknownValueRef is returned when a value reference does not name
	// an earlier scope entry.
	ErrUnknownValueRef = util.Error("unknown value reference")

	// ErrDuplicateScopeKey is returned when a scope key appears twice.
	ErrDuplicateScopeKey = util.Error("duplicate scope key")

	// ErrNestedCompoundValue is returned when a compound value is found
	// anywhere other than at the top level.
	ErrNestedCompoundValue = util.Error("nested compound value")

	// ErrUnknownEncodedType is returned for a node with an unknown type
	// tag.
	ErrUnknownEncodedType = util.Error("unknown encoded type")

	// ErrMalformedNode is returned when a node has the right tag but the
	// wrong structure.
	ErrMalformedNode = util.Error("malformed node")

	// ErrCyclicReference is returned when a reference-based graph refers
	// back to a value that is still being decoded.
	ErrCyclicReference = util.Error("cyclic reference")
)

// These errors are raised by the encoders.
const (
	// ErrUnboundVariable is returned when a variable is encoded before it
	// received its name. This happens when a mapping argument escapes the
	// scope of the function that it belongs to.
	ErrUnboundVariable = util.Error("unbound variable")

	// ErrCannotEncode is returned for a value that has no wire form.
	ErrCannotEncode = util.Error("cannot encode value")
)

const (
	// ErrAlreadyBound is returned when a variable is bound a second time
	// to a different name.
	ErrAlreadyBound = util.Error("variable is already bound")

	// ErrCatalogUninitialized is returned when the signature table is used
	// before it was fetched.
	ErrCatalogUninitialized = util.Error("signature table is not initialized")

	// ErrNoSignature is returned when a function without a signature, such
	// as an algorithm-valued result, is called positionally or with a
	// receiver.
	ErrNoSignature = util.Error("function has no signature")
)
