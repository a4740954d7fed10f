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
package depswriter

import (
	"context"
	"strings"
	"testing"

	"bennypowers.dev/gdeps/source"
	"bennypowers.dev/gdeps/testutil"
	"bennypowers.dev/gdeps/treescan"
)

func mustParse(t *testing.T, name, content string) *source.Source {
	t.Helper()
	src, err := source.Parse(name, []byte(content))
	if err != nil {
		t.Fatalf("Parse %s failed: %v", name, err)
	}
	return src
}

func TestMakeDepsFile_Golden(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "closure/simple", "/test")

	sources, err := Collect(context.Background(), mfs, Options{
		Roots: []Mapping{
			{Root: "/test/app", Prefix: "../../app"},
			{Root: "/test/closure/goog"},
		},
	})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	actual := []byte(Header("gdeps") + MakeDepsFile(sources))
	testutil.UpdateGoldenFile(t, "depswriter/simple.golden.js", actual)
	expected := testutil.LoadGoldenFile(t, "depswriter/simple.golden.js")
	if expected != nil && string(actual) != string(expected) {
		t.Errorf("deps.js mismatch\nexpected:\n%s\nactual:\n%s", expected, actual)
	}
}

func TestMakeDepsFile(t *testing.T) {
	tests := []struct {
		name     string
		sources  map[string]*source.Source
		expected string
	}{
		{
			name: "sorted provides and requires",
			sources: map[string]*source.Source{
				"a.js": mustParse(t, "a.js", "goog.provide('z');\ngoog.provide('a');\ngoog.require('y');\ngoog.require('b');\n"),
			},
			expected: "goog.addDependency('a.js', ['a', 'z'], ['b', 'y']);\n",
		},
		{
			name: "goog.module flag",
			sources: map[string]*source.Source{
				"m.js": mustParse(t, "m.js", "goog.module('m');\n"),
			},
			expected: "goog.addDependency('m.js', ['m'], [], {'module': 'goog'});\n",
		},
		{
			name: "no declarations",
			sources: map[string]*source.Source{
				"plain.js": mustParse(t, "plain.js", "console.log('hi');\n"),
			},
			expected: "",
		},
		{
			name: "escaping",
			sources: map[string]*source.Source{
				`it's\odd.js`: mustParse(t, "odd.js", "goog.provide('odd');\n"),
			},
			expected: `goog.addDependency('it\'s\\odd.js', ['odd'], []);` + "\n",
		},
		{
			name: "sorted by deps path",
			sources: map[string]*source.Source{
				"b.js": mustParse(t, "b.js", "goog.provide('b');\n"),
				"a.js": mustParse(t, "a.js", "goog.provide('a');\n"),
			},
			expected: "goog.addDependency('a.js', ['a'], []);\ngoog.addDependency('b.js', ['b'], []);\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MakeDepsFile(tt.sources); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestMakeDepsFile_Stable(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "closure/simple", "/test")
	opts := Options{Roots: []Mapping{{Root: "/test"}}, Scan: treescan.Options{Parallel: 4}}

	first, err := Collect(context.Background(), mfs, opts)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	expected := MakeDepsFile(first)

	for range 5 {
		sources, err := Collect(context.Background(), mfs, opts)
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if got := MakeDepsFile(sources); got != expected {
			t.Fatalf("Output changed between runs:\n%s\n---\n%s", expected, got)
		}
	}
}

func TestParseRootWithPrefix(t *testing.T) {
	m, err := ParseRootWithPrefix("src/app ../../app")
	if err != nil {
		t.Fatalf("ParseRootWithPrefix failed: %v", err)
	}
	if m.Root != "src/app" || m.Prefix != "../../app" {
		t.Errorf("Unexpected mapping: %+v", m)
	}

	for _, arg := range []string{"src/app", "a b c", ""} {
		if _, err := ParseRootWithPrefix(arg); err == nil {
			t.Errorf("Expected error for %q", arg)
		}
	}
}

func TestParsePathWithDepsPath(t *testing.T) {
	m, err := ParsePathWithDepsPath("lib/x.js  third_party/x.js")
	if err != nil {
		t.Fatalf("ParsePathWithDepsPath failed: %v", err)
	}
	if m.Path != "lib/x.js" || m.DepsPath != "third_party/x.js" {
		t.Errorf("Unexpected mapping: %+v", m)
	}

	if _, err := ParsePathWithDepsPath("lib/x.js"); err == nil {
		t.Error("Expected error for a single field")
	}
}

func TestCollect_LaterMappingWins(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "closure/simple", "/test")

	sources, err := Collect(context.Background(), mfs, Options{
		Files: []FileMapping{
			{Path: "/test/app/main.js", DepsPath: "app.js"},
			{Path: "/test/app/util.js", DepsPath: "app.js"},
		},
	})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(sources) != 1 {
		t.Fatalf("Expected 1 source, got %d", len(sources))
	}
	if got := sources["app.js"].Path; got != "/test/app/util.js" {
		t.Errorf("Expected the later file to win, got %s", got)
	}
}

func TestCollect_RootPrefix(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "closure/simple", "/test")

	sources, err := Collect(context.Background(), mfs, Options{
		Roots: []Mapping{{Root: "/test/closure/goog", Prefix: "lib/closure"}},
	})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	for _, want := range []string{"lib/closure/base.js", "lib/closure/dom/dom.js"} {
		if _, ok := sources[want]; !ok {
			t.Errorf("Expected deps path %s in %v", want, keys(sources))
		}
	}
}

func keys(sources map[string]*source.Source) string {
	var b strings.Builder
	for k := range sources {
		b.WriteString(k)
		b.WriteString(" ")
	}
	return b.String()
}
