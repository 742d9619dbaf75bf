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

//go:build !root

package catalog

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/purpleidea/lazygraph/lang/interfaces"
	"github.com/purpleidea/lazygraph/lang/types"

	"github.com/spf13/afero"
)

const tableJSON = `{
	"Image.select": {
		"args": [
			{"name": "input", "type": "Image"},
			{"name": "bandSelectors", "type": "List<Object>"},
			{"name": "newNames", "type": "List<String>", "optional": true, "default": null}
		],
		"returns": "Image",
		"description": "Selects bands from an image."
	},
	"Image.constant": {
		"args": [{"name": "value", "type": "Object"}],
		"returns": "Image"
	},
	"Image.hiddenThing": {
		"args": [],
		"returns": "Image",
		"hidden": true
	},
	"Collection.map": {
		"args": [
			{"name": "collection", "type": "FeatureCollection"},
			{"name": "baseAlgorithm", "type": "Algorithm"},
			{"name": "dropNulls", "type": "Boolean", "optional": true, "default": false}
		],
		"returns": "FeatureCollection"
	}
}`

const tableYAML = `
Image.select:
  args:
    - name: input
      type: Image
    - name: bandSelectors
      type: List<Object>
    - name: newNames
      type: List<String>
      optional: true
      default:
        foo: bar
  returns: Image
`

type countingFetcher struct {
	mutex sync.Mutex
	calls int
	fail  bool
}

func (obj *countingFetcher) Fetch(ctx context.Context) (map[string]*types.Signature, error) {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	obj.calls++
	if obj.fail {
		return nil, fmt.Errorf("network is down")
	}
	return ParseJSON([]byte(tableJSON))
}

func TestParseJSON0(t *testing.T) {
	sigs, err := ParseJSON([]byte(tableJSON))
	if err != nil {
		t.Errorf("parse failed: %+v", err)
		return
	}
	sig, exists := sigs["Image.select"]
	if !exists {
		t.Errorf("missing signature")
		return
	}
	if sig.Name != "Image.select" {
		t.Errorf("name was not taken from the key: %s", sig.Name)
	}
	if sig.Args[1].Type != "List" || sig.Args[2].Type != "List" {
		t.Errorf("generic suffixes were not stripped: %s", sig)
	}
	if !sig.Args[2].Optional {
		t.Errorf("optional flag was lost")
	}
}

func TestParseJSON1(t *testing.T) {
	bad := []string{
		`not json`,
		`{"x": {"args": [{"name": "a", "type": "A"}, {"name": "a", "type": "A"}], "returns": "B"}}`,
		`{"x": null}`,
	}
	for index, s := range bad {
		if _, err := ParseJSON([]byte(s)); err == nil {
			t.Errorf("test #%d: expected an error", index)
		}
	}
}

func TestParseYAML0(t *testing.T) {
	sigs, err := ParseYAML([]byte(tableYAML))
	if err != nil {
		t.Errorf("parse failed: %+v", err)
		return
	}
	sig := sigs["Image.select"]
	if sig == nil || len(sig.Args) != 3 {
		t.Errorf("unexpected signature: %+v", sig)
		return
	}
	exp := map[string]interface{}{"foo": "bar"}
	if !reflect.DeepEqual(sig.Args[2].Default, exp) {
		t.Errorf("yaml default was not cleaned: %#v", sig.Args[2].Default)
	}
}

func TestTableLazyInit0(t *testing.T) {
	fetcher := &countingFetcher{}
	table := &Table{Fetcher: fetcher}

	if _, err := table.Lookup("Image.select"); !errors.Is(err, interfaces.ErrCatalogUninitialized) {
		t.Errorf("expected uninitialized error, got: %v", err)
	}

	wg := &sync.WaitGroup{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := table.Init(context.Background()); err != nil {
				t.Errorf("init failed: %+v", err)
			}
		}()
	}
	wg.Wait()

	if fetcher.calls != 1 {
		t.Errorf("expected exactly one fetch, got: %d", fetcher.calls)
	}
	if !table.Initialized() {
		t.Errorf("table is not initialized")
	}
	sig, err := table.Lookup("Image.select")
	if err != nil {
		t.Errorf("lookup failed: %+v", err)
		return
	}
	sig.Args[0].Name = "mutated"
	if again, _ := table.Lookup("Image.select"); again.Args[0].Name != "input" {
		t.Errorf("lookup returned a shared signature")
	}
	if _, err := table.Lookup("Image.nope"); !errors.Is(err, interfaces.ErrUnknownFunction) {
		t.Errorf("expected unknown function, got: %v", err)
	}

	table.Reset()
	if table.Initialized() {
		t.Errorf("reset did not drop the table")
	}
}

func TestTableInitFailure0(t *testing.T) {
	fetcher := &countingFetcher{fail: true}
	table := &Table{Fetcher: fetcher}
	if err := table.Init(context.Background()); err == nil {
		t.Errorf("expected fetch failure")
	}
	fetcher.fail = false
	if err := table.Init(context.Background()); err != nil {
		t.Errorf("second init failed: %+v", err)
	}
	if fetcher.calls != 2 {
		t.Errorf("expected a retry after failure, got %d calls", fetcher.calls)
	}
}

func TestTableInitAsync0(t *testing.T) {
	table := &Table{Fetcher: &countingFetcher{}}
	done := make(chan error)
	table.InitAsync(context.Background(), func(err error) {
		done <- err
	})
	if err := <-done; err != nil {
		t.Errorf("async init failed: %+v", err)
	}
	if !table.Initialized() {
		t.Errorf("table is not initialized")
	}
}

func TestTableMembers0(t *testing.T) {
	sigs, err := ParseJSON([]byte(tableJSON))
	if err != nil {
		t.Errorf("parse failed: %+v", err)
		return
	}
	table, err := NewStaticTable(sigs)
	if err != nil {
		t.Errorf("static table failed: %+v", err)
		return
	}
	members := table.Members("Image.")
	if len(members) != 2 {
		t.Errorf("expected two visible members, got: %d", len(members))
	}
	if _, exists := members["select"]; !exists {
		t.Errorf("missing select member")
	}
	if _, exists := members["hiddenThing"]; exists {
		t.Errorf("hidden member was listed")
	}
	exp := []string{"Collection.map", "Image.constant", "Image.hiddenThing", "Image.select"}
	if names := table.Names(); !reflect.DeepEqual(names, exp) {
		t.Errorf("expected %v, got %v", exp, names)
	}
}

func TestFileFetcher0(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/sigs.yaml", []byte(tableYAML), 0644); err != nil {
		t.Errorf("write failed: %+v", err)
		return
	}
	if err := afero.WriteFile(fs, "/sigs.json", []byte(tableJSON), 0644); err != nil {
		t.Errorf("write failed: %+v", err)
		return
	}

	for _, p := range []string{"/sigs.yaml", "/sigs.json"} {
		table := &Table{Fetcher: &FileFetcher{Fs: fs, Path: p}}
		if err := table.Init(context.Background()); err != nil {
			t.Errorf("init from %s failed: %+v", p, err)
			continue
		}
		if _, err := table.Lookup("Image.select"); err != nil {
			t.Errorf("lookup from %s failed: %+v", p, err)
		}
	}

	table := &Table{Fetcher: &FileFetcher{Fs: fs, Path: "/missing.json"}}
	if err := table.Init(context.Background()); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}
