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

// Package graph provides the graph command for gdeps.
package graph

import (
	"bytes"
	"errors"
	"log/slog"

	"github.com/dominikbraun/graph/draw"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/gdeps/depstree"
	"bennypowers.dev/gdeps/fs"
	"bennypowers.dev/gdeps/internal/config"
	"bennypowers.dev/gdeps/internal/output"
	"bennypowers.dev/gdeps/treescan"
)

// Cmd is the graph command.
var Cmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the source dependency graph as Graphviz DOT",
	Long: `Scan source roots and write the dependency graph in Graphviz DOT
format. Each vertex is a source file; each edge points from a file to the
file providing a namespace it requires. Requires with no provider are
logged as warnings and left out.`,
	Example: `  # Whole tree
  gdeps graph --root closure --root src | dot -Tsvg > deps.svg

  # Only what app.main needs
  gdeps graph --root closure --root src -n app.main -o main.dot`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringSlice("root", nil, "Directory to scan for JavaScript sources (repeatable)")
	Cmd.Flags().StringSliceP("namespace", "n", nil, "Restrict the graph to the dependencies of these namespaces (repeatable)")
	config.AddScanFlags(Cmd.Flags())
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()

	roots := viper.GetStringSlice("root")
	if len(roots) == 0 && len(args) == 0 {
		return errors.New("--root is required")
	}

	scan, err := config.ScanOptions(viper.GetViper())
	if err != nil {
		return err
	}
	sources, err := treescan.Scan(cmd.Context(), osfs, roots, args, scan)
	if err != nil {
		return err
	}

	tree, err := depstree.New(sources)
	if err != nil {
		return err
	}

	g, missing, err := tree.Graph(viper.GetStringSlice("namespace")...)
	if err != nil {
		return err
	}
	for _, m := range missing {
		slog.Warn("unresolved require", "namespace", m.Namespace, "source", m.RequiredBy.Path)
	}

	var buf bytes.Buffer
	if err := draw.DOT(g, &buf, draw.GraphAttribute("rankdir", "LR")); err != nil {
		return err
	}
	return output.WriteTo(osfs, cmd.OutOrStdout(), buf.Bytes())
}
