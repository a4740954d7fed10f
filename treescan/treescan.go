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
// Package treescan walks directory trees for JavaScript files and scans
// them into sources in parallel.
package treescan

import (
	"context"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"bennypowers.dev/gdeps/fs"
	"bennypowers.dev/gdeps/source"
)

// DefaultInclude matches every JavaScript file below a root.
const DefaultInclude = "**/*.js"

// Options configures a tree scan.
type Options struct {
	// Include is the doublestar pattern files must match, relative to the root.
	// Defaults to DefaultInclude.
	Include string
	// Exclude lists doublestar patterns, relative to the root, for files to skip.
	Exclude []string
	// Parallel is the number of scanning workers.
	// Defaults to runtime.NumCPU() if <= 0.
	Parallel int
	// Parse scans one file. Defaults to source.Parse.
	Parse source.ParseFunc
}

// FindFiles returns the files below root that match the include pattern and
// none of the exclude patterns. Directories whose names start with a dot
// are not entered. Paths are returned in walk order.
func FindFiles(fsys fs.FileSystem, root string, opts Options) ([]string, error) {
	include := opts.Include
	if include == "" {
		include = DefaultInclude
	}
	if !doublestar.ValidatePattern(include) {
		return nil, fmt.Errorf("invalid include pattern %q", include)
	}
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	root = filepath.Clean(root)
	if !fsys.Exists(root) {
		return nil, fmt.Errorf("scanning %s: %w", root, iofs.ErrNotExist)
	}
	var files []string

	err := iofs.WalkDir(fsys, root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return iofs.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if ok, _ := doublestar.Match(include, rel); !ok {
			return nil
		}
		for _, pattern := range opts.Exclude {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	return files, nil
}

// Scan finds the JavaScript files below every root, adds the extra files,
// and scans each distinct absolute path once, keeping the first spelling
// seen. Sources are returned sorted by path.
func Scan(ctx context.Context, fsys fs.FileSystem, roots []string, extra []string, opts Options) ([]*source.Source, error) {
	seen := make(map[string]struct{})
	var paths []string
	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", path, err)
		}
		if _, ok := seen[abs]; !ok {
			seen[abs] = struct{}{}
			paths = append(paths, path)
		}
		return nil
	}

	for _, root := range roots {
		slog.Debug("scanning root", "root", root)
		files, err := FindFiles(fsys, root, opts)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			if err := add(file); err != nil {
				return nil, err
			}
		}
	}
	for _, file := range extra {
		if err := add(filepath.Clean(file)); err != nil {
			return nil, err
		}
	}

	slices.Sort(paths)
	return ScanFiles(ctx, fsys, paths, opts)
}

// ScanFiles scans paths with a pool of workers. The result keeps the
// order of paths. The first failure cancels the remaining work.
func ScanFiles(ctx context.Context, fsys fs.FileSystem, paths []string, opts Options) ([]*source.Source, error) {
	parse := opts.Parse
	if parse == nil {
		parse = source.Parse
	}
	parallel := opts.Parallel
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	sources := make([]*source.Source, len(paths))
	jobs := make(chan int, len(paths))

	var wg sync.WaitGroup
	for range parallel {
		wg.Go(func() {
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				src, err := source.ParseFile(fsys, paths[i], parse)
				if err != nil {
					cancel(err)
					continue
				}
				sources[i] = src
			}
		})
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	return sources, nil
}
