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

package funcgen

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/purpleidea/lazygraph/lang/catalog"

	"github.com/spf13/afero"
)

const testTableYAML = `
Image.constant:
  args:
  - name: value
    type: Object
  returns: Image
  description: |
    Creates an image containing a constant value everywhere.
Image.select:
  args:
  - name: input
    type: Image
  - name: bandSelectors
    type: List<Object>
  - name: newNames
    type: List<String>
    optional: true
  returns: Image
Image.reduceRegion:
  args:
  - name: image
    type: Image
  - name: reducer
    type: Reducer
  returns: Dictionary
Image.string:
  args:
  - name: image
    type: Image
  returns: String
Image.internal:
  args:
  - name: image
    type: Image
  returns: Image
  hidden: true
Image.Segmentation.snic:
  args:
  - name: image
    type: Image
  returns: Image
Reducer.sum:
  args: []
  returns: Reducer
`

const testConfigYAML = `
package: capabilities
wrappers:
- type: Image
  exclude:
  - reduceRegion
- type: Reducer
`

func testGenerator(t *testing.T) *Generator {
	sigs, err := catalog.ParseYAML([]byte(testTableYAML))
	if err != nil {
		t.Fatalf("could not parse table: %+v", err)
	}
	table, err := catalog.NewStaticTable(sigs)
	if err != nil {
		t.Fatalf("could not build table: %+v", err)
	}
	config, err := ParseConfig([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("could not parse config: %+v", err)
	}
	return &Generator{
		Config:  config,
		Catalog: table,
		Debug:   testing.Verbose(),
		Logf: func(format string, v ...interface{}) {
			t.Logf("funcgen: "+format, v...)
		},
	}
}

func TestParseConfig0(t *testing.T) {
	config, err := ParseConfig([]byte(testConfigYAML))
	if err != nil {
		t.Errorf("parse failed: %+v", err)
		return
	}
	if config.Package != "capabilities" {
		t.Errorf("unexpected package: %s", config.Package)
	}
	if len(config.Wrappers) != 2 {
		t.Errorf("expected two wrappers, got %d", len(config.Wrappers))
		return
	}
	if p := config.Wrappers[1].Prefix; p != "Reducer." {
		t.Errorf("unexpected default prefix: %s", p)
	}
}

func TestParseConfigErrors0(t *testing.T) {
	testCases := []struct {
		name   string
		config string
	}{
		{"no package", "wrappers:\n- type: Image\n"},
		{"no wrappers", "package: x\n"},
		{"no type", "package: x\nwrappers:\n- prefix: Image\n"},
		{"duplicate", "package: x\nwrappers:\n- type: Image\n- type: Image\n"},
		{"unknown field", "package: x\nfoo: bar\nwrappers:\n- type: Image\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tc.config)); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestRender0(t *testing.T) {
	out, err := testGenerator(t).Render()
	if err != nil {
		t.Errorf("render failed: %+v", err)
		return
	}
	src := string(out)
	if _, err := parser.ParseFile(token.NewFileSet(), "wrappers.go", out, parser.ParseComments); err != nil {
		t.Errorf("generated code does not parse: %+v\n%s", err, src)
		return
	}

	expected := []string{
		"package capabilities",
		"type Image struct {",
		"type Reducer struct {",
		`registry.Register("Image", promoteImage(data))`,
		`registry.Register("Reducer", promoteReducer(data))`,
		"func (obj *Image) Select(args ...interface{}) (interface{}, error) {",
		`return ast.Invoke(obj.Data, "Image.select", obj, args...)`,
		"// Args: (bandSelectors, opt_newNames)",
		"func (obj *Image) SegmentationSnic(",
		"func (obj *Image) StringAlgorithm(",
		"func ImageConstant(data *interfaces.Data, args ...interface{}) (interface{}, error) {",
		"// Creates an image containing a constant value everywhere.",
		`return ast.Invoke(data, "Reducer.sum", nil, args...)`,
	}
	for _, s := range expected {
		if !strings.Contains(src, s) {
			t.Errorf("missing from generated code: %s", s)
		}
	}

	unexpected := []string{
		"ReduceRegion", // excluded
		"Internal",     // hidden
		"func (obj *Image) String(",
	}
	for _, s := range unexpected {
		if strings.Contains(src, s) {
			t.Errorf("unexpected in generated code: %s", s)
		}
	}
	if t.Failed() {
		t.Logf("generated:\n%s", src)
	}
}

func TestRenderDeterministic0(t *testing.T) {
	a, err := testGenerator(t).Render()
	if err != nil {
		t.Errorf("render failed: %+v", err)
		return
	}
	b, err := testGenerator(t).Render()
	if err != nil {
		t.Errorf("render failed: %+v", err)
		return
	}
	if string(a) != string(b) {
		t.Errorf("output is not deterministic")
	}
}

func TestGenerate0(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := testGenerator(t).Generate(fs, "/out/wrappers.go"); err != nil {
		t.Errorf("generate failed: %+v", err)
		return
	}
	data, err := afero.ReadFile(fs, "/out/wrappers.go")
	if err != nil {
		t.Errorf("read failed: %+v", err)
		return
	}
	if !strings.HasPrefix(string(data), "// Code generated by lazygraph gen. DO NOT EDIT.") {
		t.Errorf("missing generated header")
	}
}

func TestGoName0(t *testing.T) {
	testCases := []struct {
		in  string
		out string
	}{
		{"select", "Select"},
		{"reduceRegion", "ReduceRegion"},
		{"Segmentation.snic", "SegmentationSnic"},
		{"FeatureCollection", "FeatureCollection"},
	}
	for _, tc := range testCases {
		if s := goName(tc.in); s != tc.out {
			t.Errorf("goName(%s): expected %s, got %s", tc.in, tc.out, s)
		}
	}
}
