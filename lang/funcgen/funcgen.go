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

// Package funcgen generates typed go wrappers for the capability types of the
// algorithm catalog. Each wrapper embeds an expression and has one method per
// catalog member, so that graphs can be built with ordinary method chains.
package funcgen

import (
	"bytes"
	_ "embed" // embed data with go:embed
	"fmt"
	"go/format"
	"sort"
	"strings"
	"text/template"

	"github.com/purpleidea/lazygraph/lang/types"
	"github.com/purpleidea/lazygraph/util"
	"github.com/purpleidea/lazygraph/util/errwrap"

	"github.com/iancoleman/strcase"
	"github.com/spf13/afero"
)

const wrappersTmplName = "wrappers.go.tpl"

//go:embed templates/wrappers.go.tpl
var wrappersTmplData string

// reserved are the names which a generated method can't use, because the
// wrapper struct already has them.
var reserved = []string{"Expr", "Data", "String", "Encode", "EncodeCloud"}

// Lister returns the signatures of every catalog member which starts with the
// prefix, keyed by the rest of their name. This is usually a *catalog.Table.
type Lister interface {
	Members(prefix string) map[string]*types.Signature
}

// Generator renders the wrappers which a config asks for.
type Generator struct {
	// Config is the generator configuration.
	Config *Config

	// Catalog lists the signatures to generate from.
	Catalog Lister

	// Debug represents if we're running in debug mode or not.
	Debug bool

	// Logf is a logger which should be used.
	Logf func(format string, v ...interface{})
}

type templateInput struct {
	Package  string
	Wrappers []*wrapperInput
}

type wrapperInput struct {
	Name    string // go name of the wrapper struct
	Type    string
	Methods []*method
	Funcs   []*method
}

type method struct {
	Name      string // go name
	Receiver  string // wrapper struct, empty for package functions
	Algorithm string
	Params    string
	Returns   string
	Doc       []string
}

// Render returns the formatted go source of the wrappers.
func (obj *Generator) Render() ([]byte, error) {
	if obj.Config == nil {
		return nil, fmt.Errorf("must specify a config")
	}
	if err := obj.Config.Validate(); err != nil {
		return nil, err
	}
	if obj.Catalog == nil {
		return nil, fmt.Errorf("must specify a catalog")
	}

	input := &templateInput{
		Package: obj.Config.Package,
	}
	for _, w := range obj.Config.Wrappers {
		wi, err := obj.wrapper(w)
		if err != nil {
			return nil, errwrap.Wrapf(err, "wrapper %s", w.Type)
		}
		input.Wrappers = append(input.Wrappers, wi)
	}

	t, err := template.New(wrappersTmplName).Parse(wrappersTmplData)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, input); err != nil {
		return nil, err
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, errwrap.Wrapf(err, "generated invalid code")
	}
	return out, nil
}

// Generate renders the wrappers and writes them to a file.
func (obj *Generator) Generate(fs afero.Fs, path string) error {
	out, err := obj.Render()
	if err != nil {
		return err
	}
	obj.logf("writing: %s", path)
	return afero.WriteFile(fs, path, out, 0644)
}

// wrapper builds the template input of a single capability type.
func (obj *Generator) wrapper(w *Wrapper) (*wrapperInput, error) {
	name := goName(w.Type)
	wi := &wrapperInput{
		Name: name,
		Type: w.Type,
	}
	members := obj.Catalog.Members(w.Prefix)
	names := []string{}
	for k := range members {
		names = append(names, k)
	}
	sort.Strings(names)

	taken := append([]string{}, reserved...)
	for _, member := range names {
		sig := members[member]
		if util.StrInList(member, w.Exclude) || util.StrInList(sig.Name, w.Exclude) {
			obj.logf("excluded: %s", sig.Name)
			continue
		}
		short := goName(member)

		m := &method{
			Algorithm: sig.Name,
			Params:    strings.Join(sig.Params(), ", "),
			Returns:   sig.Returns,
			Doc:       docLines(sig.Description),
		}
		if len(sig.Args) > 0 && sig.Args[0].Type == w.Type {
			for util.StrInList(short, taken) {
				short += "Algorithm"
			}
			taken = append(taken, short)
			m.Name = short
			m.Receiver = name
			m.Params = strings.Join(sig.Params()[1:], ", ")
			wi.Methods = append(wi.Methods, m)
			continue
		}
		m.Name = name + short
		wi.Funcs = append(wi.Funcs, m)
	}
	obj.logf("%s: %d methods, %d functions", w.Type, len(wi.Methods), len(wi.Funcs))
	return wi, nil
}

// goName returns the exported go name of a catalog name.
func goName(s string) string {
	return strcase.ToCamel(strings.ReplaceAll(s, ".", "_"))
}

// docLines splits a description into comment lines.
func docLines(description string) []string {
	lines := []string{}
	for _, line := range strings.Split(strings.TrimSpace(description), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func (obj *Generator) logf(format string, v ...interface{}) {
	if !obj.Debug || obj.Logf == nil {
		return
	}
	obj.Logf(format, v...)
}
