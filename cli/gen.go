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

package cli

import (
	"context"

	cliUtil "github.com/purpleidea/lazygraph/cli/util"
	"github.com/purpleidea/lazygraph/lang/funcgen"
	"github.com/purpleidea/lazygraph/util/errwrap"

	"github.com/spf13/afero"
)

// GenArgs is the CLI parsing structure and type of the parsed result. This
// particular one contains all the flags for the `gen` subcommand.
type GenArgs struct {
	Signatures string `arg:"--signatures,required" help:"path to the signature table (json or yaml)"`

	Config string `arg:"--config,required" help:"path to the generator config (yaml)"`

	Output string `arg:"--output,required" help:"path of the generated go file"`
}

// Run executes the gen subcommand.
func (obj *GenArgs) Run(ctx context.Context, data *cliUtil.Data) (bool, error) {
	_, table, err := loadTable(ctx, data, obj.Signatures)
	if err != nil {
		return false, err
	}

	b, err := afero.ReadFile(data.Fs, obj.Config)
	if err != nil {
		return false, errwrap.Wrapf(err, "could not read %s", obj.Config)
	}
	config, err := funcgen.ParseConfig(b)
	if err != nil {
		return false, err
	}

	generator := &funcgen.Generator{
		Config:  config,
		Catalog: table,
		Debug:   data.Flags.Debug,
		Logf:    data.Prefixed("funcgen"),
	}
	if err := generator.Generate(data.Fs, obj.Output); err != nil {
		return false, err
	}
	return true, nil
}
