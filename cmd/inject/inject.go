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

// Package inject provides the inject command for gdeps.
package inject

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/gdeps/depstree"
	"bennypowers.dev/gdeps/fs"
	"bennypowers.dev/gdeps/inject"
	"bennypowers.dev/gdeps/internal/config"
	"bennypowers.dev/gdeps/treescan"
)

// Cmd is the inject command.
var Cmd = &cobra.Command{
	Use:   "inject",
	Short: "Write ordered Closure script tags into HTML files in-place",
	Long: `Find goog.require calls in the inline scripts of HTML files and write
a <script src> tag for every dependency, base.js first, just before the
first requiring script.

The tags live between <!-- gdeps:begin --> and <!-- gdeps:end --> comments;
later runs replace that block. Pages without goog.require are left alone.`,
	Example: `  # Inject script tags into all HTML files
  gdeps inject --root closure --root src --glob "www/**/*.html"

  # Absolute URLs from a base directory
  gdeps inject --root closure --root src --glob "www/**/*.html" \
    --base-dir . --template "/static/{path}"

  # Dry run to see what would change
  gdeps inject --root src --glob "www/**/*.html" --dry-run`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringSlice("root", nil, "Directory to scan for JavaScript sources (repeatable)")
	Cmd.Flags().String("glob", "", "Glob pattern to match HTML files (required)")
	Cmd.Flags().String("template", "", "URL template with {path} and {name} (default: path relative to each HTML file)")
	Cmd.Flags().String("base-dir", ".", "Directory {path} and --skip patterns are relative to")
	Cmd.Flags().StringSlice("skip", nil, "Glob patterns, relative to --base-dir, for HTML files to leave alone")
	Cmd.Flags().Bool("dry-run", false, "Show what would change without modifying files")
	Cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
	config.AddScanFlags(Cmd.Flags())
}

func run(cmd *cobra.Command, args []string) error {
	start := time.Now()
	osfs := fs.NewOSFileSystem()
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	// Collect files from glob pattern
	globPattern := viper.GetString("glob")
	if globPattern == "" {
		return errors.New("--glob is required")
	}

	matches, err := doublestar.FilepathGlob(globPattern)
	if err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}

	if len(matches) == 0 {
		fmt.Fprintln(stderr, "Warning: no files matched the glob pattern")
		return nil
	}

	// Deduplicate by absolute path
	seen := make(map[string]struct{})
	var files []string
	for _, match := range matches {
		absPath, err := filepath.Abs(match)
		if err != nil {
			return fmt.Errorf("invalid file path %q: %w", match, err)
		}
		if _, exists := seen[absPath]; !exists {
			seen[absPath] = struct{}{}
			files = append(files, absPath)
		}
	}

	// Absolute roots so script URLs can be computed relative to each page
	var roots []string
	for _, root := range viper.GetStringSlice("root") {
		abs, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("invalid root %q: %w", root, err)
		}
		roots = append(roots, abs)
	}
	if len(roots) == 0 {
		return errors.New("--root is required")
	}

	scan, err := config.ScanOptions(viper.GetViper())
	if err != nil {
		return err
	}
	sources, err := treescan.Scan(cmd.Context(), osfs, roots, nil, scan)
	if err != nil {
		return err
	}
	tree, err := depstree.New(sources)
	if err != nil {
		return err
	}

	dryRun := viper.GetBool("dry-run")
	format := viper.GetString("format")

	opts := inject.Options{
		Exclude:  viper.GetStringSlice("skip"),
		Template: viper.GetString("template"),
		BaseDir:  viper.GetString("base-dir"),
		Parallel: scan.Parallel,
		DryRun:   dryRun,
	}

	results := inject.InjectBatch(osfs, tree, files, opts)

	// Collect results
	var stats inject.Stats
	encoder := json.NewEncoder(stdout)
	for result := range results {
		stats.Add(result)
		switch {
		case result.Error != "":
			if format == "json" {
				if err := encoder.Encode(result); err != nil {
					return fmt.Errorf("writing result for %s: %w", result.File, err)
				}
			} else {
				fmt.Fprintf(stderr, "Error: %s: %s\n", result.File, result.Error)
			}
		case result.Modified:
			if format == "json" {
				if err := encoder.Encode(result); err != nil {
					return fmt.Errorf("writing result for %s: %w", result.File, err)
				}
			} else if dryRun {
				action := "would update"
				if result.Inserted {
					action = "would insert into"
				}
				fmt.Fprintf(stdout, "%s %s\n", action, result.File)
			}
		}
	}
	stats.Duration = time.Since(start).Milliseconds()

	// Output summary
	if format == "json" {
		if err := encoder.Encode(stats); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	} else if dryRun {
		fmt.Fprintf(stdout, "\nDry run: %d files would be modified (%d updated, %d new), %d unchanged, %d errors\n",
			stats.Updated+stats.Inserted, stats.Updated, stats.Inserted, stats.Skipped, stats.Errors)
	} else {
		fmt.Fprintf(stdout, "Injected: %d files modified (%d updated, %d new), %d unchanged, %d errors\n",
			stats.Updated+stats.Inserted, stats.Updated, stats.Inserted, stats.Skipped, stats.Errors)
	}

	if stats.Errors == stats.Total {
		return fmt.Errorf("all %d files failed", stats.Errors)
	}

	return nil
}
