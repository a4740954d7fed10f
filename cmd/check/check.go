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

// Package check provides the check command for gdeps.
package check

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"bennypowers.dev/gdeps/depstree"
	"bennypowers.dev/gdeps/fs"
	"bennypowers.dev/gdeps/internal/config"
	"bennypowers.dev/gdeps/internal/output"
	"bennypowers.dev/gdeps/treescan"
)

// Cmd is the check command.
var Cmd = &cobra.Command{
	Use:   "check",
	Short: "Report duplicate provides, missing namespaces and cycles",
	Long: `Scan source roots and validate the whole tree at once: every namespace
provided more than once, every goog.require with no provider, and every
circular dependency is reported. Exits non-zero when problems are found.`,
	Example: `  # Validate a project
  gdeps check --root closure --root src

  # Machine-readable report
  gdeps check --root src --format json`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringSlice("root", nil, "Directory to scan for JavaScript sources (repeatable)")
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json, yaml)")
	Cmd.Flags().Bool("no-color", false, "Disable colored output")
	config.AddScanFlags(Cmd.Flags())
}

// Problem is one finding in a check report.
type Problem struct {
	Kind      string   `json:"kind" yaml:"kind"`
	Namespace string   `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Sources   []string `json:"sources,omitempty" yaml:"sources,omitempty"`
	Path      []string `json:"path,omitempty" yaml:"path,omitempty"`
	Message   string   `json:"message" yaml:"message"`
}

// Report is the result of checking a tree.
type Report struct {
	Sources  int       `json:"sources" yaml:"sources"`
	Problems []Problem `json:"problems" yaml:"problems"`
}

func run(cmd *cobra.Command, args []string) error {
	osfs := fs.NewOSFileSystem()

	if viper.GetBool("no-color") {
		color.NoColor = true
	}

	format := viper.GetString("format")
	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q: must be 'text', 'json' or 'yaml'", format)
	}

	roots := viper.GetStringSlice("root")
	if len(roots) == 0 {
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

	report := NewReport(len(sources), depstree.Check(sources))

	var buf bytes.Buffer
	switch format {
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(report)
	case "yaml":
		err = yaml.NewEncoder(&buf).Encode(report)
	default:
		RenderText(&buf, report)
	}
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	if err := output.WriteTo(osfs, cmd.OutOrStdout(), buf.Bytes()); err != nil {
		return err
	}
	if n := len(report.Problems); n > 0 {
		return fmt.Errorf("%d problems found", n)
	}
	return nil
}

// NewReport converts resolver errors into report entries.
func NewReport(sourceCount int, problems []error) Report {
	report := Report{Sources: sourceCount, Problems: []Problem{}}
	for _, err := range problems {
		p := Problem{Message: err.Error()}

		var mpErr *depstree.MultipleProvideError
		var nfErr *depstree.NamespaceNotFoundError
		var cdErr *depstree.CircularDependencyError
		switch {
		case errors.As(err, &mpErr):
			p.Kind = "duplicate-provide"
			p.Namespace = mpErr.Namespace
			for _, src := range mpErr.Sources {
				p.Sources = append(p.Sources, src.Path)
			}
		case errors.As(err, &nfErr):
			p.Kind = "missing-namespace"
			p.Namespace = nfErr.Namespace
			if nfErr.RequiredBy != nil {
				p.Sources = []string{nfErr.RequiredBy.Path}
			}
		case errors.As(err, &cdErr):
			p.Kind = "circular-dependency"
			p.Path = cdErr.Path
		default:
			p.Kind = "error"
		}

		report.Problems = append(report.Problems, p)
	}
	return report
}

// RenderText writes the report as a table followed by a colored summary.
func RenderText(w io.Writer, report Report) {
	if len(report.Problems) > 0 {
		tbl := table.NewWriter()
		tbl.SetStyle(table.StyleLight)
		tbl.AppendHeader(table.Row{"Problem", "Namespace", "Details"})
		for _, p := range report.Problems {
			details := strings.Join(p.Sources, "\n")
			if len(p.Path) > 0 {
				details = strings.Join(p.Path, " -> ")
			}
			tbl.AppendRow(table.Row{p.Kind, p.Namespace, details})
		}
		fmt.Fprintln(w, tbl.Render())
		color.New(color.FgRed).Fprintf(w, "%d problems found in %d sources\n", len(report.Problems), report.Sources)
		return
	}
	color.New(color.FgGreen).Fprintf(w, "No problems found in %d sources\n", report.Sources)
}
