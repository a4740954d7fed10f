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
package source

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	tsTypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

//go:embed queries/closure.scm
var closureQuerySource string

// The TypeScript grammar is a superset of JavaScript, so it reads both
// plain Closure scripts and annotated goog.module files.
var typescript = ts.NewLanguage(tsTypescript.LanguageTypescript())

var parserPool = sync.Pool{
	New: func() any {
		parser := ts.NewParser()
		if err := parser.SetLanguage(typescript); err != nil {
			panic("failed to set TypeScript language: " + err.Error())
		}
		return parser
	},
}

func getParser() *ts.Parser {
	return parserPool.Get().(*ts.Parser)
}

func putParser(p *ts.Parser) {
	p.Reset()
	parserPool.Put(p)
}

var (
	closureQuery     *ts.Query
	closureQueryOnce sync.Once
	closureQueryErr  error
)

// getClosureQuery compiles the embedded query once per process.
// Queries are safe for concurrent use by separate cursors.
func getClosureQuery() (*ts.Query, error) {
	closureQueryOnce.Do(func() {
		q, qerr := ts.NewQuery(typescript, closureQuerySource)
		if qerr != nil {
			closureQueryErr = fmt.Errorf("failed to parse closure query: %w", qerr)
			return
		}
		closureQuery = q
	})
	return closureQuery, closureQueryErr
}

// ParseAST scans content with a tree-sitter syntax tree instead of line
// expressions. Calls are found anywhere in the file, and text inside
// comments or string literals can never be mistaken for a declaration.
func ParseAST(path string, content []byte) (*Source, error) {
	query, err := getClosureQuery()
	if err != nil {
		return nil, err
	}

	parser := getParser()
	defer putParser(parser)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", path)
	}
	defer tree.Close()

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	src := &Source{Path: path, content: content}
	provideGoog := false

	matches := cursor.Matches(query, tree.RootNode(), content)
	captureNames := query.CaptureNames()

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		var object, method, namespace string
		for _, capture := range match.Captures {
			text := capture.Node.Utf8Text(content)
			switch captureNames[capture.Index] {
			case "call.object":
				object = text
			case "call.method":
				method = text
			case "call.namespace":
				namespace = text
			case "comment":
				if strings.Contains(text, provideGoogTag) {
					provideGoog = true
				}
			}
		}

		if object != "goog" || namespace == "" {
			continue
		}
		switch method {
		case "provide":
			src.addProvide(namespace)
		case "module":
			src.addProvide(namespace)
			src.IsGoogModule = true
		case "require":
			src.addRequire(namespace)
		}
	}

	if err := src.markBase(provideGoog, hasBaseLine(stripBlockComments(content))); err != nil {
		return nil, err
	}
	return src, nil
}
