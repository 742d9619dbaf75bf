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
	"sort"

	cliUtil "github.com/purpleidea/lazygraph/cli/util"
)

// SignaturesArgs is the CLI parsing structure and type of the parsed result.
// This particular one contains all the flags for the `signatures` subcommand.
type SignaturesArgs struct {
	Signatures string `arg:"--signatures,required" help:"path to the signature table (json or yaml)"`

	Prefix string `arg:"--prefix" help:"only list the members of this prefix, eg: Image."`
}

// Run executes the signatures subcommand. It prints one signature per line.
func (obj *SignaturesArgs) Run(ctx context.Context, data *cliUtil.Data) (bool, error) {
	_, table, err := loadTable(ctx, data, obj.Signatures)
	if err != nil {
		return false, err
	}

	if obj.Prefix == "" {
		for _, name := range table.Names() {
			sig, err := table.Lookup(name)
			if err != nil {
				return false, err
			}
			fmt.Fprintf(data.Stdout, "%s\n", sig)
		}
		return true, nil
	}

	members := table.Members(obj.Prefix)
	names := []string{}
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(data.Stdout, "%s\n", members[name])
	}
	return true, nil
}
