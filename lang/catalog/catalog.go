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

// Package catalog holds the signature table of the remote algorithm catalog.
// The table is fetched once from an external collaborator and then cached for
// the lifetime of the process.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/purpleidea/lazygraph/lang/interfaces"
	"github.com/purpleidea/lazygraph/lang/types"
	"github.com/purpleidea/lazygraph/util/errwrap"
)

// Fetcher is the collaborator which retrieves the signature table. It is
// usually backed by the remote execution service or by a local file.
type Fetcher interface {
	// Fetch returns the normalized signature table keyed by algorithm name.
	Fetch(ctx context.Context) (map[string]*types.Signature, error)
}

// Table is the signature table. It must be initialized with Init before Lookup
// is used. It is safe for concurrent use.
type Table struct {
	// Fetcher retrieves the table on first use.
	Fetcher Fetcher

	// Debug represents if we're running in debug mode or not.
	Debug bool

	// Logf is a logger which should be used.
	Logf func(format string, v ...interface{})

	mutex sync.Mutex
	sigs  map[string]*types.Signature
}

var _ interfaces.Catalog = &Table{} // ensure it meets this expectation

// NewStaticTable builds an already initialized table from a set of signatures.
// Each one is normalized and validated. The map keys are authoritative for the
// signature names.
func NewStaticTable(sigs map[string]*types.Signature) (*Table, error) {
	normalized, err := Normalize(sigs)
	if err != nil {
		return nil, err
	}
	return &Table{
		sigs: normalized,
	}, nil
}

// Init fetches the table if this has not happened yet. Concurrent callers wait
// for the first fetch. If the fetch fails, the table stays uninitialized so a
// later call can try again.
func (obj *Table) Init(ctx context.Context) error {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()

	if obj.sigs != nil {
		return nil // already done
	}
	if obj.Fetcher == nil {
		return fmt.Errorf("no fetcher was specified")
	}

	sigs, err := obj.Fetcher.Fetch(ctx)
	if err != nil {
		return errwrap.Wrapf(err, "could not fetch the signature table")
	}
	normalized, err := Normalize(sigs)
	if err != nil {
		return errwrap.Wrapf(err, "invalid signature table")
	}
	obj.sigs = normalized
	obj.logf("fetched %d signatures", len(normalized))
	return nil
}

// InitAsync runs Init in the background and calls the callback once it is done.
// The callback receives the result of Init.
func (obj *Table) InitAsync(ctx context.Context, callback func(error)) {
	go func() {
		err := obj.Init(ctx)
		if callback != nil {
			callback(err)
		}
	}()
}

// Initialized returns true if the table has been fetched.
func (obj *Table) Initialized() bool {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	return obj.sigs != nil
}

// Reset drops the cached table. This exists for tests only.
func (obj *Table) Reset() {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	obj.sigs = nil
}

// Lookup returns a copy of the signature of the named algorithm.
func (obj *Table) Lookup(name string) (*types.Signature, error) {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()

	if obj.sigs == nil {
		return nil, interfaces.ErrCatalogUninitialized
	}
	sig, exists := obj.sigs[name]
	if !exists {
		return nil, errwrap.Wrapf(interfaces.ErrUnknownFunction, "function `%s`", name)
	}
	return sig.Copy(), nil
}

// Names returns the sorted list of every algorithm name.
func (obj *Table) Names() []string {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()

	names := []string{}
	for name := range obj.sigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Members returns the visible algorithms whose names begin with the prefix,
// keyed by the remainder of their name. For a prefix of `Image.` this returns
// entries such as `select` and `reduceRegion`. Hidden algorithms are skipped.
func (obj *Table) Members(prefix string) map[string]*types.Signature {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()

	result := make(map[string]*types.Signature)
	for name, sig := range obj.sigs {
		if sig.Hidden || !strings.HasPrefix(name, prefix) {
			continue
		}
		member := strings.TrimPrefix(name, prefix)
		if member == "" {
			continue
		}
		result[member] = sig.Copy()
	}
	return result
}

// logf logs if debugging is enabled.
func (obj *Table) logf(format string, v ...interface{}) {
	if !obj.Debug || obj.Logf == nil {
		return
	}
	obj.Logf(format, v...)
}

// Normalize returns a copy of the signature table where each signature carries
// its map key as its name, and has every generic-type suffix stripped. It also
// validates each one and returns every problem found at once.
func Normalize(sigs map[string]*types.Signature) (map[string]*types.Signature, error) {
	if sigs == nil {
		return nil, fmt.Errorf("signature table is nil")
	}

	names := []string{}
	for name := range sigs {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic error order

	var reterr error
	result := make(map[string]*types.Signature)
	for _, name := range names {
		sig := sigs[name]
		if sig == nil {
			reterr = errwrap.Append(reterr, fmt.Errorf("signature of `%s` is nil", name))
			continue
		}
		sig = sig.Copy()
		sig.Name = name
		sig.Normalize()
		if err := sig.Validate(); err != nil {
			reterr = errwrap.Append(reterr, err)
			continue
		}
		result[name] = sig
	}
	if reterr != nil {
		return nil, reterr
	}
	return result, nil
}
