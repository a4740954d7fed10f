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
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"bennypowers.dev/gdeps/testutil"
)

type expectedSource struct {
	Provides     []string `json:"provides"`
	Requires     []string `json:"requires"`
	IsGoogModule bool     `json:"is_goog_module"`
	IsBase       bool     `json:"is_base"`
}

func checkSource(t *testing.T, src *Source, exp expectedSource) {
	t.Helper()
	if !slices.Equal(src.Provides, exp.Provides) {
		t.Errorf("Expected provides %v, got %v", exp.Provides, src.Provides)
	}
	if !slices.Equal(src.Requires, exp.Requires) {
		t.Errorf("Expected requires %v, got %v", exp.Requires, src.Requires)
	}
	if src.IsGoogModule != exp.IsGoogModule {
		t.Errorf("Expected IsGoogModule=%v, got %v", exp.IsGoogModule, src.IsGoogModule)
	}
	if src.IsBase != exp.IsBase {
		t.Errorf("Expected IsBase=%v, got %v", exp.IsBase, src.IsBase)
	}
}

func TestParse(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "source/scan", "/test")

	var expected expectedSource
	if err := json.Unmarshal(testutil.LoadFixtureFile(t, "source/scan/expected.json"), &expected); err != nil {
		t.Fatalf("Failed to parse expected.json: %v", err)
	}

	for name, parse := range map[string]ParseFunc{"regexp": Parse, "tree-sitter": ParseAST} {
		t.Run(name, func(t *testing.T) {
			src, err := ParseFile(mfs, "/test/module.js", parse)
			if err != nil {
				t.Fatalf("ParseFile failed: %v", err)
			}
			if src.Path != "/test/module.js" {
				t.Errorf("Expected path /test/module.js, got %q", src.Path)
			}
			checkSource(t, src, expected)
		})
	}
}

func TestParse_Declarations(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected expectedSource
	}{
		{
			name:     "provide and require",
			content:  "goog.provide('a.b');\ngoog.require('c.d');\n",
			expected: expectedSource{Provides: []string{"a.b"}, Requires: []string{"c.d"}},
		},
		{
			name:     "goog.module",
			content:  "goog.module('a.mod');\nconst dom = goog.require('goog.dom');\n",
			expected: expectedSource{Provides: []string{"a.mod"}, Requires: []string{"goog.dom"}, IsGoogModule: true},
		},
		{
			name:     "commented out",
			content:  "// goog.provide('nope');\n/*\ngoog.require('nope.either');\n*/\n",
			expected: expectedSource{},
		},
		{
			name:     "two statements on a line keeps the first",
			content:  "goog.provide('one'); goog.provide('two');\n",
			expected: expectedSource{Provides: []string{"one"}},
		},
		{
			name:     "base line",
			content:  "var goog = goog || {}; // Identifies this file as the Closure base.\n",
			expected: expectedSource{Provides: []string{GoogNamespace}, IsBase: true},
		},
		{
			name:     "provideGoog annotation",
			content:  "/** @provideGoog */\nvar goog = {};\n",
			expected: expectedSource{Provides: []string{GoogNamespace}, IsBase: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Parse("test.js", []byte(tt.content))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			checkSource(t, src, tt.expected)
		})
	}
}

func TestParseAST_FindsCallsAnywhere(t *testing.T) {
	content := "goog.provide('one'); goog.provide('two');\n" +
		"function load() { goog.require('inner.dep'); }\n" +
		"var s = \"goog.require('in.string')\";\n"

	src, err := ParseAST("test.js", []byte(content))
	if err != nil {
		t.Fatalf("ParseAST failed: %v", err)
	}
	checkSource(t, src, expectedSource{
		Provides: []string{"one", "two"},
		Requires: []string{"inner.dep"},
	})
}

func TestParse_BaseFile(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "closure/simple", "/test")

	for name, parse := range map[string]ParseFunc{"regexp": Parse, "tree-sitter": ParseAST} {
		t.Run(name, func(t *testing.T) {
			src, err := ParseFile(mfs, "/test/closure/goog/base.js", parse)
			if err != nil {
				t.Fatalf("ParseFile failed: %v", err)
			}
			checkSource(t, src, expectedSource{Provides: []string{GoogNamespace}, IsBase: true})
		})
	}
}

func TestParse_BaseFileWithDeclarations(t *testing.T) {
	content := "var goog = goog || {};\ngoog.provide('not.allowed');\n"

	for name, parse := range map[string]ParseFunc{"regexp": Parse, "tree-sitter": ParseAST} {
		t.Run(name, func(t *testing.T) {
			_, err := parse("base.js", []byte(content))
			if !errors.Is(err, ErrBaseDeclares) {
				t.Errorf("Expected ErrBaseDeclares, got %v", err)
			}
		})
	}
}

func TestParse_BaseLineInBlockComment(t *testing.T) {
	content := "/*\nvar goog = goog || {};\n*/\ngoog.provide('app.docs');\n"

	for name, parse := range map[string]ParseFunc{"regexp": Parse, "tree-sitter": ParseAST} {
		t.Run(name, func(t *testing.T) {
			src, err := parse("docs.js", []byte(content))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			checkSource(t, src, expectedSource{Provides: []string{"app.docs"}})
		})
	}
}

func TestParseFile_MissingFile(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "source/scan", "/test")

	if _, err := ParseFile(mfs, "/test/missing.js", Parse); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestParserByName(t *testing.T) {
	for _, name := range []string{"", "regexp", "tree-sitter", "ast"} {
		if _, err := ParserByName(name); err != nil {
			t.Errorf("ParserByName(%q) failed: %v", name, err)
		}
	}

	_, err := ParserByName("esprima")
	if err == nil || !strings.Contains(err.Error(), "unknown scanner") {
		t.Errorf("Expected unknown scanner error, got %v", err)
	}
}

func TestWrapGoogModule(t *testing.T) {
	wrapped := string(WrapGoogModule([]byte("goog.module('m');\n// trailing")))

	expected := "goog.loadModule(function(exports) {'use strict';goog.module('m');\n// trailing\n;return exports});\n"
	if wrapped != expected {
		t.Errorf("Unexpected wrapper:\n%s", wrapped)
	}
}
