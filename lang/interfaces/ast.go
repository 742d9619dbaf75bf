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

// Package interfaces contains the common interfaces and the shared state of
// the expression graph. The node and function implementations live in the
// ast package, the wire formats in the encoding package.
package interfaces

import (
	"fmt"

	"github.com/purpleidea/lazygraph/lang/types"
)

// Encoder is the recursive legacy encoder which is handed to each Encodable so
// that it can encode its children.
type Encoder interface {
	// Encode returns the legacy wire node of any encodable value.
	Encode(v interface{}) (interface{}, error)
}

// CloudEncoder is the recursive reference-based encoder which is handed to
// each CloudEncodable so that it can encode its children.
type CloudEncoder interface {
	// Value returns the value node to embed for a child. This is either a
	// constantValue node, or a valueReference to a stored node.
	Value(v interface{}) (map[string]interface{}, error)

	// Ref stores the node of a child in the values table and returns its
	// key. Identical nodes share a key.
	Ref(v interface{}) (string, error)
}

// Encodable is implemented by any value which describes itself in the legacy
// wire format. Objects which embed an Expr get this for free.
type Encodable interface {
	Encode(Encoder) (interface{}, error)
}

// CloudEncodable is implemented by any value which describes itself in the
// reference-based wire format. It returns a single value node.
type CloudEncodable interface {
	EncodeCloud(CloudEncoder) (map[string]interface{}, error)
}

// Expr is a node of the expression graph. It is either an invocation of a
// function or a reference to a function argument. Expr values are immutable
// once constructed. Capability wrappers which are returned by promotion
// usually embed an Expr so that they remain encodable.
type Expr interface {
	fmt.Stringer
	Encodable
	CloudEncodable
}

// Finalizer is implemented by values which need to complete their
// construction once they are embedded into an enclosing call. User functions
// with mapping variables use this to bind the names of those variables.
type Finalizer interface {
	Finalize() error
}

// PromoteFunc coerces a value into the wrapper expected for a type name. It
// must be idempotent on values which are already of the right type. Errors
// returned from it are passed to the caller unchanged.
type PromoteFunc func(value interface{}, typ string) (interface{}, error)

// Catalog is the read-only signature table as seen by the expression graph.
type Catalog interface {
	// Lookup returns the signature of the named algorithm. It errors with
	// ErrUnknownFunction if the name is not known.
	Lookup(name string) (*types.Signature, error)
}

// Data is the process-scoped state which is threaded through everything that
// builds or decodes graphs. It replaces what would otherwise be hidden global
// singletons.
type Data struct {
	// Catalog is the signature table used to look up functions by name.
	Catalog Catalog

	// Promoter is the registered type promotion function. If it is nil,
	// then values are passed through unchanged.
	Promoter PromoteFunc

	// Namer reserves the serial numbers of mapping variables. It must be
	// shared by everything that builds graphs for the same request so that
	// generated names never collide.
	Namer *Namer

	// Debug represents if we're running in debug mode or not.
	Debug bool

	// Logf is a logger which should be used.
	Logf func(format string, v ...interface{})
}

// Promote runs the registered promoter, or returns the value unchanged if none
// was registered.
func (obj *Data) Promote(value interface{}, typ string) (interface{}, error) {
	if obj.Promoter == nil {
		return value, nil
	}
	return obj.Promoter(value, typ)
}

// Lookup returns a signature from the catalog.
func (obj *Data) Lookup(name string) (*types.Signature, error) {
	if obj.Catalog == nil {
		return nil, ErrCatalogUninitialized
	}
	return obj.Catalog.Lookup(name)
}

// Printf logs a message if debugging is enabled and a logger is present.
func (obj *Data) Printf(format string, v ...interface{}) {
	if !obj.Debug || obj.Logf == nil {
		return
	}
	obj.Logf(format, v...)
}
