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
// Package source scans JavaScript files for Closure Library dependency
// declarations: goog.provide, goog.module and goog.require.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"slices"

	"bennypowers.dev/gdeps/fs"
)

// GoogNamespace is the namespace implicitly provided by Closure's base.js.
const GoogNamespace = "goog"

// baseLinePrefix identifies Closure's base.js. The line starts at column 0.
const baseLinePrefix = "var goog = goog || {};"

// provideGoogTag marks a base file in newer Closure releases.
const provideGoogTag = "@provideGoog"

// ErrBaseDeclares is returned when a base file provides or requires namespaces.
var ErrBaseDeclares = errors.New("base files should not provide or require namespaces")

// Source is a scanned JavaScript file paired with its declared namespaces.
type Source struct {
	// Path is the path the file was read from.
	Path string
	// Provides lists goog.provide and goog.module namespaces in declaration order.
	Provides []string
	// Requires lists goog.require namespaces in declaration order.
	Requires []string
	// IsGoogModule is true when the file declares goog.module.
	IsGoogModule bool
	// IsBase is true for Closure's base.js, which implicitly provides goog.
	IsBase bool

	content []byte
}

// ParseFunc builds a Source from a file's path and content.
type ParseFunc func(path string, content []byte) (*Source, error)

// Content returns the raw file content.
func (s *Source) Content() []byte {
	return s.content
}

// String returns the path, so a Source prints usefully in logs and errors.
func (s *Source) String() string {
	return s.Path
}


var (
	blockCommentPattern = regexp.MustCompile(`(?s)/\*.*?\*/`)
	providePattern      = regexp.MustCompile(`^\s*goog\.provide\(\s*['"]([^'"]+)['"]\s*\)`)
	modulePattern       = regexp.MustCompile(`^\s*goog\.module\(\s*['"]([^'"]+)['"]\s*\)`)
	requirePattern      = regexp.MustCompile(`^\s*(?:(?:var|let|const)\s+[\w$,:{}\s]*\s*=\s*)?goog\.require\(\s*['"]([^'"]+)['"]\s*\)`)
)

// Parse scans content line by line with anchored regular expressions.
// Block comments are blanked first; line comments never match because
// every expression is anchored at the start of the line.
func Parse(path string, content []byte) (*Source, error) {
	src := &Source{Path: path, content: content}

	comments := blockCommentPattern.FindAll(content, -1)
	stripped := stripBlockComments(content)

	for line := range bytes.Lines(stripped) {
		if m := providePattern.FindSubmatch(line); m != nil {
			src.addProvide(string(m[1]))
		}
		if m := modulePattern.FindSubmatch(line); m != nil {
			src.addProvide(string(m[1]))
			src.IsGoogModule = true
		}
		if m := requirePattern.FindSubmatch(line); m != nil {
			src.addRequire(string(m[1]))
		}
	}

	provideGoog := false
	for _, comment := range comments {
		if bytes.Contains(comment, []byte(provideGoogTag)) {
			provideGoog = true
			break
		}
	}

	if err := src.markBase(provideGoog, hasBaseLine(stripped)); err != nil {
		return nil, err
	}
	return src, nil
}

// ParseFile reads path from fsys and scans it with parse.
func ParseFile(fsys fs.FileSystem, path string, parse ParseFunc) (*Source, error) {
	content, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}
	src, err := parse(path, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// ParserByName returns the scanner registered under name.
// The empty name selects the regular expression scanner.
func ParserByName(name string) (ParseFunc, error) {
	switch name {
	case "", "regexp":
		return Parse, nil
	case "tree-sitter", "ast":
		return ParseAST, nil
	default:
		return nil, fmt.Errorf("unknown scanner %q: must be 'regexp' or 'tree-sitter'", name)
	}
}

// WrapGoogModule wraps a goog.module body so it can be concatenated with
// plain scripts. The newline terminates a trailing line comment.
func WrapGoogModule(content []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(`goog.loadModule(function(exports) {'use strict';`)
	buf.Write(content)
	buf.WriteString("\n;return exports});\n")
	return buf.Bytes()
}

// markBase flags the source as Closure's base file when content carries
// the base line or provideGoog is set, and adds the implicit goog provide.
func (s *Source) markBase(provideGoog, baseLine bool) error {
	if !provideGoog && !baseLine {
		return nil
	}
	if len(s.Provides) > 0 || len(s.Requires) > 0 {
		return ErrBaseDeclares
	}
	s.IsBase = true
	s.Provides = []string{GoogNamespace}
	return nil
}

// stripBlockComments blanks every block comment, keeping its newlines so
// line numbers do not move.
func stripBlockComments(content []byte) []byte {
	return blockCommentPattern.ReplaceAllFunc(content, func(comment []byte) []byte {
		return bytes.Repeat([]byte{'\n'}, bytes.Count(comment, []byte{'\n'}))
	})
}

// hasBaseLine expects content with block comments already stripped.
func hasBaseLine(content []byte) bool {
	for line := range bytes.Lines(content) {
		if bytes.HasPrefix(line, []byte(baseLinePrefix)) {
			return true
		}
	}
	return false
}

func (s *Source) addProvide(namespace string) {
	if !slices.Contains(s.Provides, namespace) {
		s.Provides = append(s.Provides, namespace)
	}
}

func (s *Source) addRequire(namespace string) {
	if !slices.Contains(s.Requires, namespace) {
		s.Requires = append(s.Requires, namespace)
	}
}
