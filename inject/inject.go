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
// Package inject writes dependency-ordered Closure script tags into HTML
// pages. Each page's inline goog.require calls are resolved through a
// shared dependency tree, and the result is kept in a managed block that
// later runs replace in place.
package inject

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"bennypowers.dev/gdeps/builder"
	"bennypowers.dev/gdeps/depstree"
	"bennypowers.dev/gdeps/fs"
	"bennypowers.dev/gdeps/source"
)

// Options configures the inject command.
type Options struct {
	// Exclude lists doublestar patterns, relative to BaseDir, for pages to leave alone.
	Exclude []string
	// Template is the URL template for script src values.
	// When empty, URLs are relative to each page's directory.
	Template string
	// BaseDir is the directory {path} is relative to. Defaults to ".".
	BaseDir string
	// Parallel is the number of parallel workers for batch mode.
	Parallel int
	// DryRun prevents writing files when true.
	DryRun bool
}

// Result holds the result of injecting into a single file.
type Result struct {
	File       string   `json:"file"`
	Modified   bool     `json:"modified"`
	Inserted   bool     `json:"inserted,omitempty"` // true if a new block was added, false if replaced
	Namespaces []string `json:"namespaces,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Stats holds aggregate statistics from an inject operation.
type Stats struct {
	Total    int   `json:"total"`
	Updated  int   `json:"updated"`
	Inserted int   `json:"inserted"`
	Skipped  int   `json:"skipped"`
	Errors   int   `json:"errors"`
	Duration int64 `json:"duration_ms"`
}

// Add counts one result.
func (s *Stats) Add(r Result) {
	s.Total++
	switch {
	case r.Error != "":
		s.Errors++
	case !r.Modified:
		s.Skipped++
	case r.Inserted:
		s.Inserted++
	default:
		s.Updated++
	}
}

// injector holds what every page in a batch shares.
type injector struct {
	fsys     fs.FileSystem
	tree     *depstree.DepsTree
	base     *source.Source
	template *Template
	baseDir  string
	opts     Options
}

// InjectBatch injects script tags into multiple HTML files in parallel.
// Results arrive in completion order; the channel closes when all files
// are done.
func InjectBatch(fsys fs.FileSystem, tree *depstree.DepsTree, files []string, opts Options) <-chan Result {
	results := make(chan Result, len(files))

	go func() {
		defer close(results)

		inj, err := newInjector(fsys, tree, opts)
		if err != nil {
			for _, file := range files {
				results <- Result{File: file, Error: err.Error()}
			}
			return
		}

		parallel := opts.Parallel
		if parallel <= 0 {
			parallel = runtime.NumCPU()
		}

		jobs := make(chan string, len(files))

		var wg sync.WaitGroup
		for range parallel {
			wg.Go(func() {
				for file := range jobs {
					results <- inj.injectFile(file)
				}
			})
		}

		for _, file := range files {
			jobs <- file
		}
		close(jobs)

		wg.Wait()
	}()

	return results
}

func newInjector(fsys fs.FileSystem, tree *depstree.DepsTree, opts Options) (*injector, error) {
	inj := &injector{fsys: fsys, tree: tree, opts: opts}

	if opts.Template != "" {
		tmpl, err := ParseTemplate(opts.Template)
		if err != nil {
			return nil, err
		}
		inj.template = tmpl
	}

	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = "."
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	inj.baseDir = abs

	base, err := builder.FindBase(tree.Sources())
	if err != nil {
		return nil, err
	}
	inj.base = base

	return inj, nil
}

// injectFile processes a single HTML file and inserts or updates its block.
func (inj *injector) injectFile(htmlFile string) Result {
	result := Result{File: htmlFile}

	if inj.excluded(htmlFile) {
		return result
	}

	content, err := inj.fsys.ReadFile(htmlFile)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	p, err := scanPage(htmlFile, content)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if len(p.Requires) == 0 {
		return result
	}
	result.Namespaces = p.Requires

	deps, err := inj.tree.Dependencies(p.Requires...)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	urls := make([]string, 0, len(deps)+1)
	seen := make(map[*source.Source]bool, len(deps)+1)
	for _, src := range append([]*source.Source{inj.base}, deps...) {
		if seen[src] {
			continue
		}
		seen[src] = true
		url, err := inj.url(htmlFile, src.Path)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		urls = append(urls, url)
	}

	block := renderBlock(urls, p.Indent)

	var newContent []byte
	if p.HasBlock {
		newContent = append(newContent, content[:p.BlockStart]...)
		newContent = append(newContent, block...)
		newContent = append(newContent, content[p.BlockEnd:]...)
	} else {
		newContent = append(newContent, content[:p.InsertAt]...)
		newContent = append(newContent, block...)
		newContent = append(newContent, '\n')
		newContent = append(newContent, p.Indent...)
		newContent = append(newContent, content[p.InsertAt:]...)
		result.Inserted = true
	}

	if string(newContent) == string(content) {
		result.Inserted = false
		return result
	}
	result.Modified = true

	if !inj.opts.DryRun {
		if err := inj.fsys.WriteFile(htmlFile, newContent, 0644); err != nil {
			result.Error = err.Error()
			return result
		}
	}

	return result
}

func (inj *injector) excluded(htmlFile string) bool {
	if len(inj.opts.Exclude) == 0 {
		return false
	}
	rel, err := relSlash(inj.baseDir, htmlFile)
	if err != nil {
		return false
	}
	for _, pattern := range inj.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// url returns the script src for the source at srcPath as seen from htmlFile.
func (inj *injector) url(htmlFile, srcPath string) (string, error) {
	if inj.template == nil {
		return relSlash(filepath.Dir(htmlFile), srcPath)
	}
	rel, err := relSlash(inj.baseDir, srcPath)
	if err != nil {
		return "", err
	}
	return inj.template.Expand(rel), nil
}

// relSlash returns target relative to dir as a slash path. Both are made
// absolute first.
func relSlash(dir, target string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absDir, absTarget)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
