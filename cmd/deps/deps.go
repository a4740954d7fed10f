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

// Package deps provides the deps command for gdeps.
package deps

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/gdeps/depswriter"
	"bennypowers.dev/gdeps/fs"
	"bennypowers.dev/gdeps/internal/config"
	"bennypowers.dev/gdeps/internal/output"
)

// Cmd is the deps command.
var Cmd = &cobra.Command{
	Use:   "deps [files...]",
	Short: "Write a Closure deps.js file",
	Long: `Scan JavaScript sources and write a deps.js file registering each
file's provides and requires with goog.addDependency, so base.js can load
them on demand.

Deps paths are the paths base.js uses to load each file. Files under
--root keep their path relative to the root; --root-with-prefix adds a
prefix to that path; --path-with-depspath sets the deps path of a single
file. Positional files use their path as given.`,
	Example: `  # Sources under src, loaded relative to closure/goog/base.js
  gdeps deps --root-with-prefix "src ../../src" -o deps.js

  # Map one file explicitly
  gdeps deps --path-with-depspath "vendor/x.js ../../third_party/x.js"`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringSlice("root", nil, "Directory whose sources are keyed by their path relative to it (repeatable)")
	Cmd.Flags().StringArray("root-with-prefix", nil, `"root prefix": sources under root are keyed by prefix plus their relative path (repeatable)`)
	Cmd.Flags().StringArray("path-with-depspath", nil, `"path depspath": a single file keyed by depspath (repeatable)`)
	config.AddScanFlags(Cmd.Flags())
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()

	scan, err := config.ScanOptions(viper.GetViper())
	if err != nil {
		return err
	}
	opts := depswriter.Options{Scan: scan}

	for _, root := range viper.GetStringSlice("root") {
		opts.Roots = append(opts.Roots, depswriter.Mapping{Root: root})
	}
	for _, arg := range viper.GetStringSlice("root-with-prefix") {
		m, err := depswriter.ParseRootWithPrefix(arg)
		if err != nil {
			return fmt.Errorf("--root-with-prefix: %w", err)
		}
		opts.Roots = append(opts.Roots, m)
	}
	for _, arg := range viper.GetStringSlice("path-with-depspath") {
		m, err := depswriter.ParsePathWithDepsPath(arg)
		if err != nil {
			return fmt.Errorf("--path-with-depspath: %w", err)
		}
		opts.Files = append(opts.Files, m)
	}
	for _, path := range args {
		opts.Files = append(opts.Files, depswriter.FileMapping{Path: path, DepsPath: path})
	}

	if len(opts.Roots) == 0 && len(opts.Files) == 0 {
		return fmt.Errorf("nothing to scan: use --root, --root-with-prefix, --path-with-depspath or file arguments")
	}

	sources, err := depswriter.Collect(cmd.Context(), osfs, opts)
	if err != nil {
		return err
	}

	content := depswriter.Header("gdeps") + depswriter.MakeDepsFile(sources)
	return output.WriteTo(osfs, cmd.OutOrStdout(), []byte(content))
}
