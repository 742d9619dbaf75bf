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

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/purpleidea/lazygraph/lang/types"
	"github.com/purpleidea/lazygraph/util/errwrap"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// ParseJSON parses a signature table of the form `{name: signature}`. Numbers
// inside of default values are kept as json.Number to preserve precision.
func ParseJSON(data []byte) (map[string]*types.Signature, error) {
	sigs := make(map[string]*types.Signature)
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber() // to preserve number precision
	if err := dec.Decode(&sigs); err != nil {
		return nil, errwrap.Wrapf(err, "invalid JSON signature table")
	}
	return Normalize(sigs)
}

// ParseYAML parses a signature table of the form `{name: signature}` written
// in YAML.
func ParseYAML(data []byte) (map[string]*types.Signature, error) {
	sigs := make(map[string]*types.Signature)
	if err := yaml.Unmarshal(data, &sigs); err != nil {
		return nil, errwrap.Wrapf(err, "invalid YAML signature table")
	}
	for _, sig := range sigs {
		if sig == nil {
			continue // caught by Normalize
		}
		for _, arg := range sig.Args {
			if arg == nil {
				continue
			}
			arg.Default = cleanYAML(arg.Default)
		}
	}
	return Normalize(sigs)
}

// cleanYAML converts the map[interface{}]interface{} values which the YAML
// parser produces into map[string]interface{} so that they can be encoded as
// JSON later on.
func cleanYAML(v interface{}) interface{} {
	switch x := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{})
		for k, val := range x {
			m[fmt.Sprintf("%v", k)] = cleanYAML(val)
		}
		return m
	case []interface{}:
		l := []interface{}{}
		for _, val := range x {
			l = append(l, cleanYAML(val))
		}
		return l
	}
	return v
}

// Parse picks the right parser based on the file name extension. Files ending
// in .yaml or .yml are parsed as YAML, everything else as JSON.
func Parse(filename string, data []byte) (map[string]*types.Signature, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	}
	return ParseJSON(data)
}

// FileFetcher reads the signature table from a file.
type FileFetcher struct {
	// Fs is the filesystem to read from. This is usually an afero.OsFs,
	// or a memory backed one in tests.
	Fs afero.Fs

	// Path is the location of the table.
	Path string
}

// Fetch reads and parses the file.
func (obj *FileFetcher) Fetch(ctx context.Context) (map[string]*types.Signature, error) {
	if obj.Fs == nil {
		return nil, fmt.Errorf("no filesystem was specified")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(obj.Fs, obj.Path)
	if err != nil {
		return nil, errwrap.Wrapf(err, "could not read %s", obj.Path)
	}
	return Parse(obj.Path, data)
}
