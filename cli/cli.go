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

// Package cli handles all of the core command line parsing. It's the first
// entry point after the real main function, and it runs the developer tools
// which inspect signature tables and encoded graphs.
package cli

import (
	"context"
	"fmt"
	"os"

	cliUtil "github.com/purpleidea/lazygraph/cli/util"
	"github.com/purpleidea/lazygraph/lang/catalog"
	"github.com/purpleidea/lazygraph/lang/interfaces"
	"github.com/purpleidea/lazygraph/lang/promote"
	"github.com/purpleidea/lazygraph/util/errwrap"

	"github.com/alexflint/go-arg"
)

// CLI is the entry point for using lazygraph normally from the CLI.
func CLI(ctx context.Context, data *cliUtil.Data) error {
	// test for sanity
	if data == nil {
		return fmt.Errorf("this CLI was not run correctly")
	}
	if data.Program == "" || data.Version == "" {
		return fmt.Errorf("program was not compiled correctly")
	}
	if data.Fs == nil {
		return fmt.Errorf("no filesystem was specified")
	}
	if data.Stdout == nil {
		data.Stdout = os.Stdout
	}

	args := Args{}
	args.version = data.Version // copy this in
	args.description = data.Tagline

	config := arg.Config{
		Program: data.Program,
	}
	parser, err := arg.NewParser(config, &args)
	if err != nil {
		// programming error
		return errwrap.Wrapf(err, "cli config error")
	}
	err = parser.Parse(data.Args[1:]) // args[0] is the program name
	if err == arg.ErrHelp {
		parser.WriteHelp(data.Stdout)
		return nil
	}
	if err == arg.ErrVersion {
		fmt.Fprintf(data.Stdout, "%s\n", data.Version) // byon: bring your own newline
		return nil
	}
	if err != nil {
		return cliUtil.CliParseError(err) // consistent errors
	}

	if args.Debug {
		data.Flags.Debug = true
	}

	if ok, err := args.Run(ctx, data); err != nil {
		return err
	} else if ok { // did we activate one of the commands?
		return nil
	}

	// print help if no subcommands are set
	parser.WriteHelp(data.Stdout)

	return nil
}

// Args is the CLI parsing structure and type of the parsed result. This
// particular struct is the top-most one.
type Args struct {
	Debug bool `arg:"--debug" help:"add additional log messages"`

	DecodeCmd *DecodeArgs `arg:"subcommand:decode" help:"decode an encoded graph and serialize it again"`

	SignaturesCmd *SignaturesArgs `arg:"subcommand:signatures" help:"list the signatures of a table"`

	GenCmd *GenArgs `arg:"subcommand:gen" help:"generate capability wrappers from a table"`

	// version is a private handle for our version string.
	version string `arg:"-"` // ignored from parsing

	// description is a private handle for our description string.
	description string `arg:"-"` // ignored from parsing
}

// Version returns the version string. Implementing this signature is part of
// the API for the cli library.
func (obj *Args) Version() string {
	return obj.version
}

// Description returns a description string. Implementing this signature is part
// of the API for the cli library.
func (obj *Args) Description() string {
	return obj.description
}

// Run executes the correct subcommand. It errors if there's ever an error. It
// returns true if we did activate one of the subcommands. It returns false if
// we did not. This information is used so that the top-level parser can return
// usage or help information if no subcommand activates.
func (obj *Args) Run(ctx context.Context, data *cliUtil.Data) (bool, error) {
	if cmd := obj.DecodeCmd; cmd != nil {
		return cmd.Run(ctx, data)
	}

	if cmd := obj.SignaturesCmd; cmd != nil {
		return cmd.Run(ctx, data)
	}

	if cmd := obj.GenCmd; cmd != nil {
		return cmd.Run(ctx, data)
	}

	return false, nil // nobody activated
}

// loadTable reads the signature table from a file and builds the graph state
// around it, with the builtin promoters installed.
func loadTable(ctx context.Context, data *cliUtil.Data, path string) (*interfaces.Data, *catalog.Table, error) {
	table := &catalog.Table{
		Fetcher: &catalog.FileFetcher{
			Fs:   data.Fs,
			Path: path,
		},
		Debug: data.Flags.Debug,
		Logf:  data.Prefixed("catalog"),
	}
	if err := table.Init(ctx); err != nil {
		return nil, nil, err
	}
	graphData := &interfaces.Data{
		Catalog: table,
		Namer:   interfaces.NewNamer(),
		Debug:   data.Flags.Debug,
		Logf:    data.Prefixed("graph"),
	}
	if _, err := promote.Builtin(graphData); err != nil {
		return nil, nil, err
	}
	return graphData, table, nil
}
