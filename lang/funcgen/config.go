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

package funcgen

import (
	"fmt"
	"strings"

	"github.com/purpleidea/lazygraph/util"
	"github.com/purpleidea/lazygraph/util/errwrap"

	yaml "gopkg.in/yaml.v2"
)

// Config is the generator configuration.
type Config struct {
	// Package is the name of the generated go package.
	Package string `yaml:"package"`

	// Wrappers is the list of capability types to generate wrappers for.
	Wrappers []*Wrapper `yaml:"wrappers"`
}

// Wrapper describes one generated capability type.
type Wrapper struct {
	// Type is the name of the capability type, as used in signatures.
	Type string `yaml:"type"`

	// Prefix selects the catalog members of this type. It defaults to the
	// type name followed by a dot.
	Prefix string `yaml:"prefix,omitempty"`

	// Exclude is a list of algorithm names that we do not want.
	Exclude []string `yaml:"exclude,omitempty"`
}

// ParseConfig parses a generator config. Unknown fields are an error.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, errwrap.Wrapf(err, "invalid config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the config and fills in the default prefixes.
func (obj *Config) Validate() error {
	if obj.Package == "" {
		return fmt.Errorf("empty package name")
	}
	if len(obj.Wrappers) == 0 {
		return fmt.Errorf("no wrappers")
	}
	seen := []string{}
	for i, w := range obj.Wrappers {
		if w == nil || w.Type == "" {
			return fmt.Errorf("wrapper %d has no type", i)
		}
		if util.StrInList(w.Type, seen) {
			return fmt.Errorf("duplicate wrapper: %s", w.Type)
		}
		seen = append(seen, w.Type)
		if w.Prefix == "" {
			w.Prefix = w.Type + "."
		}
		if !strings.HasSuffix(w.Prefix, ".") {
			w.Prefix += "."
		}
	}
	return nil
}
