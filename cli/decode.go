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
	"fmt"

	cliUtil "github.com/purpleidea/lazygraph/cli/util"
	"github.com/purpleidea/lazygraph/lang/encoding"
	"github.com/purpleidea/lazygraph/lang/remote"
	"github.com/purpleidea/lazygraph/util"
	"github.com/purpleidea/lazygraph/util/errwrap"

	"github.com/sanity-io/litter"
	"github.com/spf13/afero"
)

// DecodeArgs is the CLI parsing structure and type of the parsed result. This
// particular one contains all the flags for the `decode` subcommand.
type DecodeArgs struct {
	// Input is the path to the encoded graph.
	Input string `arg:"positional,required" help:"path to the encoded graph"`

	Signatures string `arg:"--signatures,required" help:"path to the signature table (json or yaml)"`

	InputFormat string `arg:"--input-format" default:"legacy" help:"wire format of the input: legacy or cloud"`

	Format string `arg:"--format" default:"legacy" help:"wire format of the output: legacy or cloud"`

	Dump bool `arg:"--dump" help:"dump the decoded graph structure"`
}

// Run executes the decode subcommand. It reads the graph, decodes it against
// the signature table, and prints it serialized in the requested format.
func (obj *DecodeArgs) Run(ctx context.Context, data *cliUtil.Data) (bool, error) {
	for _, format := range []string{obj.InputFormat, obj.Format} {
		if !util.StrInList(format, remote.Formats) {
			return false, cliUtil.CliParseError(fmt.Errorf("unknown format: %s", format))
		}
	}

	graphData, _, err := loadTable(ctx, data, obj.Signatures)
	if err != nil {
		return false, err
	}

	b, err := afero.ReadFile(data.Fs, obj.Input)
	if err != nil {
		return false, errwrap.Wrapf(err, "could not read %s", obj.Input)
	}

	var v interface{}
	if obj.InputFormat == remote.FormatCloud {
		v, err = encoding.DecodeCloud(graphData, b)
	} else {
		v, err = encoding.Decode(graphData, b)
	}
	if err != nil {
		return false, errwrap.Wrapf(err, "could not decode %s", obj.Input)
	}

	if obj.Dump {
		fmt.Fprintf(data.Stdout, "%s\n", litter.Sdump(v))
	}

	var out string
	if obj.Format == remote.FormatCloud {
		out, err = encoding.SerializeCloud(v)
	} else {
		out, err = encoding.Serialize(v)
	}
	if err != nil {
		return false, err
	}
	fmt.Fprintf(data.Stdout, "%s\n", out)
	return true, nil
}
