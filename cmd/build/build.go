/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package build provides the build command for gdeps.
package build

import (
	"bytes"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/gdeps/builder"
	"bennypowers.dev/gdeps/fs"
	"bennypowers.dev/gdeps/internal/config"
	"bennypowers.dev/gdeps/internal/output"
)

// Cmd is the build command.
var Cmd = &cobra.Command{
	Use:   "build [sources...]",
	Short: "Calculate the ordered sources for Closure inputs and namespaces",
	Long: `Scan source roots for goog.provide, goog.module and goog.require
declarations, resolve the dependencies of the given inputs and namespaces,
and write them in load order, starting with Closure's base.js.

Output modes:
  list      one source path per line (default)
  script    all sources concatenated, goog.module files wrapped
  compiled  the Closure Compiler's output (requires --compiler-jar)

Positional arguments are extra source files scanned alongside the roots.`,
	Example: `  # List the files needed for app.main
  gdeps build --root closure --root src -n app.main

  # Concatenate the dependencies of an entry point
  gdeps build --root closure --root src -i src/main.js -m script -o app.js

  # Compile with the Closure Compiler
  gdeps build --root closure --root src -n app.main -m compiled \
    --compiler-jar compiler.jar -f --compilation_level=ADVANCED`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringSlice("root", nil, "Directory to scan for JavaScript sources (repeatable)")
	Cmd.Flags().StringSliceP("input", "i", nil, "Input file whose dependencies are calculated (repeatable)")
	Cmd.Flags().StringSliceP("namespace", "n", nil, "Namespace whose dependencies are calculated (repeatable)")
	Cmd.Flags().StringP("output-mode", "m", string(builder.ModeList), "Output mode (list, script, compiled)")
	Cmd.Flags().StringP("compiler-jar", "c", "", "Closure Compiler jar for compiled output")
	Cmd.Flags().StringArrayP("compiler-flags", "f", nil, "Flag passed to the Closure Compiler (repeatable)")
	Cmd.Flags().StringArray("jvm-flags", nil, "Flag passed to java (repeatable)")
	config.AddScanFlags(Cmd.Flags())
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()

	scan, err := config.ScanOptions(viper.GetViper())
	if err != nil {
		return err
	}

	opts := builder.Options{
		Roots:         viper.GetStringSlice("root"),
		Inputs:        viper.GetStringSlice("input"),
		ExtraSources:  args,
		Namespaces:    viper.GetStringSlice("namespace"),
		OutputMode:    builder.OutputMode(viper.GetString("output-mode")),
		CompilerJar:   viper.GetString("compiler-jar"),
		CompilerFlags: viper.GetStringSlice("compiler-flags"),
		JVMFlags:      viper.GetStringSlice("jvm-flags"),
		Exclude:       scan.Exclude,
		Parallel:      scan.Parallel,
		Parse:         scan.Parse,
	}

	var buf bytes.Buffer
	if err := builder.Build(cmd.Context(), osfs, opts, &buf); err != nil {
		return err
	}
	return output.WriteTo(osfs, cmd.OutOrStdout(), buf.Bytes())
}
