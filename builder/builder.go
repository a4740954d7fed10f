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
// Package builder calculates the sources needed for a set of Closure
// inputs and writes them as a file list, a concatenated script, or
// compiled output.
package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"bennypowers.dev/gdeps/depstree"
	"bennypowers.dev/gdeps/fs"
	"bennypowers.dev/gdeps/jscompiler"
	"bennypowers.dev/gdeps/source"
	"bennypowers.dev/gdeps/treescan"
)

// OutputMode selects what Build writes.
type OutputMode string

const (
	// ModeList writes one source path per line.
	ModeList OutputMode = "list"
	// ModeScript writes the sources concatenated.
	ModeScript OutputMode = "script"
	// ModeCompiled writes the Closure Compiler's output.
	ModeCompiled OutputMode = "compiled"
)

var (
	ErrInputNotFound     = errors.New("input file not found in scanned sources")
	ErrNoNamespaces      = errors.New("no namespaces found, use --input or --namespace")
	ErrNoBaseFile        = errors.New("no Closure base.js file found")
	ErrUnknownOutputMode = errors.New("unknown output mode")
	ErrNoCompilerJar     = errors.New("--compiler-jar is required for compiled output")
)

// MultipleBaseFilesError reports more than one Closure base file.
type MultipleBaseFilesError struct {
	Paths []string
}

func (e *MultipleBaseFilesError) Error() string {
	return "more than one Closure base.js file found: " + strings.Join(e.Paths, ", ")
}

// Compiler compiles an ordered list of source paths.
type Compiler interface {
	Compile(ctx context.Context, sourcePaths []string) ([]byte, error)
}

// Options configures Build.
type Options struct {
	// Roots are scanned for JavaScript files.
	Roots []string
	// Inputs are files whose provides (or requires) seed the build.
	Inputs []string
	// ExtraSources are scanned in addition to the roots.
	ExtraSources []string
	// Namespaces seed the build directly.
	Namespaces []string
	// OutputMode defaults to ModeList.
	OutputMode OutputMode
	// CompilerJar is required for ModeCompiled.
	CompilerJar string
	// CompilerFlags are passed to the Closure Compiler.
	CompilerFlags []string
	// JVMFlags are passed to java.
	JVMFlags []string
	// Exclude lists doublestar patterns skipped while scanning roots.
	Exclude []string
	// Parallel is the number of scanning workers.
	Parallel int
	// Parse scans one file. Defaults to source.Parse.
	Parse source.ParseFunc
	// Compiler overrides the jar-based compiler.
	Compiler Compiler
}

// Resolve scans the configured sources and returns the base file followed
// by every dependency of the inputs and namespaces, in load order.
func Resolve(ctx context.Context, fsys fs.FileSystem, opts Options) ([]*source.Source, error) {
	slog.Info("scanning paths", "roots", len(opts.Roots), "extra", len(opts.ExtraSources))
	sources, err := treescan.Scan(ctx, fsys, opts.Roots, opts.ExtraSources, treescan.Options{
		Exclude:  opts.Exclude,
		Parallel: opts.Parallel,
		Parse:    opts.Parse,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("sources scanned", "count", len(sources))

	slog.Info("building dependency tree")
	tree, err := depstree.New(sources)
	if err != nil {
		return nil, err
	}

	namespaces, providerless, err := inputNamespaces(sources, opts)
	if err != nil {
		return nil, err
	}
	if len(namespaces) == 0 && len(providerless) == 0 {
		return nil, ErrNoNamespaces
	}

	base, err := FindBase(sources)
	if err != nil {
		return nil, err
	}

	deps, err := tree.Dependencies(namespaces...)
	if err != nil {
		return nil, err
	}
	// Provide-less inputs have no namespace to resolve, so their requires
	// are resolved instead and the input itself goes last.
	for _, input := range providerless {
		inputDeps, err := tree.Dependencies(input.Requires...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", input.Path, err)
		}
		deps = append(deps, inputDeps...)
		deps = append(deps, input)
	}

	return dedupe(append([]*source.Source{base}, deps...)), nil
}

// Build resolves the configured inputs and writes the result to w.
func Build(ctx context.Context, fsys fs.FileSystem, opts Options, w io.Writer) error {
	mode := opts.OutputMode
	if mode == "" {
		mode = ModeList
	}
	compiler, err := compilerFor(mode, opts)
	if err != nil {
		return err
	}

	deps, err := Resolve(ctx, fsys, opts)
	if err != nil {
		return err
	}

	var out []byte
	switch mode {
	case ModeList:
		out = renderList(deps)
	case ModeScript:
		out = renderScript(deps)
	case ModeCompiled:
		paths := make([]string, len(deps))
		for i, src := range deps {
			paths[i] = src.Path
		}
		slog.Info("compiling", "sources", len(paths))
		out, err = compiler.Compile(ctx, paths)
		if err != nil {
			return err
		}
	}

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	slog.Info("wrote output", "mode", mode, "sources", len(deps), "size", humanize.Bytes(uint64(len(out))))
	return nil
}

func compilerFor(mode OutputMode, opts Options) (Compiler, error) {
	switch mode {
	case ModeList, ModeScript:
		return nil, nil
	case ModeCompiled:
		if opts.Compiler != nil {
			return opts.Compiler, nil
		}
		if opts.CompilerJar == "" {
			return nil, ErrNoCompilerJar
		}
		return &jscompiler.Compiler{
			JarPath:  opts.CompilerJar,
			JVMFlags: opts.JVMFlags,
			Flags:    opts.CompilerFlags,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOutputMode, mode)
	}
}

// inputNamespaces collects the provides of every input plus the requested
// namespaces. Inputs that provide nothing are returned separately.
func inputNamespaces(sources []*source.Source, opts Options) ([]string, []*source.Source, error) {
	byPath := make(map[string]*source.Source, len(sources))
	for _, src := range sources {
		abs, err := filepath.Abs(src.Path)
		if err != nil {
			return nil, nil, err
		}
		byPath[abs] = src
	}

	var namespaces []string
	var providerless []*source.Source
	for _, input := range opts.Inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			return nil, nil, err
		}
		src, ok := byPath[abs]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrInputNotFound, input)
		}
		if len(src.Provides) == 0 {
			providerless = append(providerless, src)
			continue
		}
		namespaces = append(namespaces, src.Provides...)
	}

	return append(namespaces, opts.Namespaces...), providerless, nil
}

// FindBase returns the single Closure base file among sources.
func FindBase(sources []*source.Source) (*source.Source, error) {
	var bases []*source.Source
	for _, src := range sources {
		if src.IsBase {
			bases = append(bases, src)
		}
	}
	switch len(bases) {
	case 0:
		return nil, ErrNoBaseFile
	case 1:
		return bases[0], nil
	default:
		paths := make([]string, len(bases))
		for i, b := range bases {
			paths[i] = b.Path
		}
		return nil, &MultipleBaseFilesError{Paths: paths}
	}
}

func dedupe(sources []*source.Source) []*source.Source {
	seen := make(map[*source.Source]bool, len(sources))
	result := sources[:0]
	for _, src := range sources {
		if !seen[src] {
			seen[src] = true
			result = append(result, src)
		}
	}
	return result
}

func renderList(deps []*source.Source) []byte {
	var b strings.Builder
	for _, src := range deps {
		b.WriteString(src.Path)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func renderScript(deps []*source.Source) []byte {
	var b strings.Builder
	for _, src := range deps {
		if src.IsGoogModule {
			b.Write(source.WrapGoogModule(src.Content()))
		} else {
			b.Write(src.Content())
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}
