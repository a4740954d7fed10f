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
// Package depswriter renders Closure deps.js files, which register each
// source's provides and requires with goog.addDependency.
package depswriter

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"bennypowers.dev/gdeps/fs"
	"bennypowers.dev/gdeps/source"
	"bennypowers.dev/gdeps/treescan"
)

// Header returns the comment deps.js files start with.
func Header(generator string) string {
	return fmt.Sprintf("// This file was autogenerated by %s.\n// Please do not edit.\n", generator)
}

// MakeDepsFile renders one goog.addDependency line per source, sorted by
// deps path. Sources that neither provide nor require anything are left out.
func MakeDepsFile(sources map[string]*source.Source) string {
	var b strings.Builder
	for _, depsPath := range slices.Sorted(maps.Keys(sources)) {
		src := sources[depsPath]
		if len(src.Provides) == 0 && len(src.Requires) == 0 {
			continue
		}
		b.WriteString(depsLine(depsPath, src))
	}
	return b.String()
}

func depsLine(depsPath string, src *source.Source) string {
	line := fmt.Sprintf("goog.addDependency(%s, %s, %s",
		quote(depsPath),
		list(slices.Sorted(slices.Values(src.Provides))),
		list(slices.Sorted(slices.Values(src.Requires))),
	)
	if src.IsGoogModule {
		line += ", {'module': 'goog'}"
	}
	return line + ");\n"
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)

func quote(s string) string {
	return "'" + quoteReplacer.Replace(s) + "'"
}

func list(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = quote(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Mapping places the sources found below Root at Prefix in deps.js paths.
type Mapping struct {
	Root   string
	Prefix string
}

// FileMapping places a single file at DepsPath.
type FileMapping struct {
	Path     string
	DepsPath string
}

// ParseRootWithPrefix parses a "root prefix" argument.
func ParseRootWithPrefix(arg string) (Mapping, error) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return Mapping{}, fmt.Errorf("%q must be of the form \"root prefix\"", arg)
	}
	return Mapping{Root: fields[0], Prefix: fields[1]}, nil
}

// ParsePathWithDepsPath parses a "path depspath" argument.
func ParsePathWithDepsPath(arg string) (FileMapping, error) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return FileMapping{}, fmt.Errorf("%q must be of the form \"path depspath\"", arg)
	}
	return FileMapping{Path: fields[0], DepsPath: fields[1]}, nil
}

// Options configures Collect.
type Options struct {
	// Roots are scanned and keyed by the path relative to each root plus its prefix.
	Roots []Mapping
	// Files are scanned individually and keyed by their deps path.
	Files []FileMapping
	// Scan configures the tree walk and scanner.
	Scan treescan.Options
}

// Collect scans every mapping and returns sources keyed by deps path.
// When two mappings produce the same deps path the later one wins.
func Collect(ctx context.Context, fsys fs.FileSystem, opts Options) (map[string]*source.Source, error) {
	var files, depsPaths []string

	for _, m := range opts.Roots {
		found, err := treescan.FindFiles(fsys, m.Root, opts.Scan)
		if err != nil {
			return nil, err
		}
		for _, file := range found {
			rel, err := filepath.Rel(filepath.Clean(m.Root), file)
			if err != nil {
				return nil, err
			}
			files = append(files, file)
			depsPaths = append(depsPaths, path.Join(filepath.ToSlash(m.Prefix), filepath.ToSlash(rel)))
		}
	}
	for _, fm := range opts.Files {
		files = append(files, fm.Path)
		depsPaths = append(depsPaths, filepath.ToSlash(fm.DepsPath))
	}

	sources, err := treescan.ScanFiles(ctx, fsys, files, opts.Scan)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*source.Source, len(sources))
	for i, src := range sources {
		if prev, ok := result[depsPaths[i]]; ok {
			slog.Warn("deps path mapped twice, keeping the later file",
				"depsPath", depsPaths[i], "previous", prev.Path, "file", src.Path)
		}
		result[depsPaths[i]] = src
	}
	return result, nil
}
