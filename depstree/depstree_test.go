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
package depstree

import (
	"context"
	"errors"
	"path"
	"slices"
	"testing"

	"bennypowers.dev/gdeps/source"
	"bennypowers.dev/gdeps/testutil"
	"bennypowers.dev/gdeps/treescan"
)

func scanFixture(t *testing.T, fixture string) []*source.Source {
	t.Helper()
	mfs := testutil.NewFixtureFS(t, fixture, "/test")
	sources, err := treescan.Scan(context.Background(), mfs, []string{"/test"}, nil, treescan.Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	return sources
}

func mustParse(t *testing.T, name, content string) *source.Source {
	t.Helper()
	src, err := source.Parse(name, []byte(content))
	if err != nil {
		t.Fatalf("Parse %s failed: %v", name, err)
	}
	return src
}

func paths(sources []*source.Source) []string {
	result := make([]string, len(sources))
	for i, src := range sources {
		result[i] = path.Base(src.Path)
	}
	return result
}

// assertOrdered fails if any source appears before a provider it requires.
func assertOrdered(t *testing.T, tree *DepsTree, deps []*source.Source) {
	t.Helper()
	position := make(map[*source.Source]int, len(deps))
	for i, src := range deps {
		if _, dup := position[src]; dup {
			t.Errorf("Source %s appears more than once", src.Path)
		}
		position[src] = i
	}
	for i, src := range deps {
		for _, req := range src.Requires {
			provider, ok := tree.Provider(req)
			if !ok {
				t.Fatalf("No provider for %s", req)
			}
			j, ok := position[provider]
			if !ok {
				t.Errorf("%s requires %s but %s is missing from the result", src.Path, req, provider.Path)
				continue
			}
			if j >= i {
				t.Errorf("%s (at %d) must come after its dependency %s (at %d)", src.Path, i, provider.Path, j)
			}
		}
	}
}

func TestDependencies(t *testing.T) {
	tree, err := New(scanFixture(t, "closure/simple"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	deps, err := tree.Dependencies("app.main")
	if err != nil {
		t.Fatalf("Dependencies failed: %v", err)
	}

	expected := []string{"string.js", "util.js", "array.js", "dom.js", "main.js"}
	if got := paths(deps); !slices.Equal(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
	assertOrdered(t, tree, deps)
}

func TestDependencies_EveryNamespace(t *testing.T) {
	tree, err := New(scanFixture(t, "closure/simple"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for _, ns := range tree.Namespaces() {
		deps, err := tree.Dependencies(ns)
		if err != nil {
			t.Fatalf("Dependencies(%s) failed: %v", ns, err)
		}
		assertOrdered(t, tree, deps)

		provider, _ := tree.Provider(ns)
		if deps[len(deps)-1] != provider {
			t.Errorf("Expected %s last for %s, got %s", provider.Path, ns, deps[len(deps)-1].Path)
		}
	}
}

func TestDependencies_NoDuplicates(t *testing.T) {
	tree, err := New(scanFixture(t, "closure/simple"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	deps, err := tree.Dependencies("app.util", "app.util", "goog.string", "goog.string.Unicode")
	if err != nil {
		t.Fatalf("Dependencies failed: %v", err)
	}

	expected := []string{"string.js", "util.js"}
	if got := paths(deps); !slices.Equal(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestNew_MultipleProvide(t *testing.T) {
	_, err := New(scanFixture(t, "closure/duplicate"))
	if !errors.Is(err, ErrMultipleProvide) {
		t.Fatalf("Expected ErrMultipleProvide, got %v", err)
	}

	var mpErr *MultipleProvideError
	if !errors.As(err, &mpErr) {
		t.Fatalf("Expected *MultipleProvideError, got %T", err)
	}
	if mpErr.Namespace != "dup.ns" {
		t.Errorf("Expected namespace dup.ns, got %q", mpErr.Namespace)
	}
	if got := paths(mpErr.Sources); !slices.Equal(got, []string{"a.js", "b.js"}) {
		t.Errorf("Expected sources [a.js b.js], got %v", got)
	}
}

func TestDependencies_NamespaceNotFound(t *testing.T) {
	tree, err := New(scanFixture(t, "closure/missing"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	t.Run("requested", func(t *testing.T) {
		_, err := tree.Dependencies("missing.ok", "no.such.namespace")
		var nfErr *NamespaceNotFoundError
		if !errors.As(err, &nfErr) {
			t.Fatalf("Expected *NamespaceNotFoundError, got %v", err)
		}
		if nfErr.Namespace != "no.such.namespace" || nfErr.RequiredBy != nil {
			t.Errorf("Unexpected error details: %+v", nfErr)
		}
	})

	t.Run("required", func(t *testing.T) {
		_, err := tree.Dependencies("missing.a")
		if !errors.Is(err, ErrNamespaceNotFound) {
			t.Fatalf("Expected ErrNamespaceNotFound, got %v", err)
		}
		var nfErr *NamespaceNotFoundError
		errors.As(err, &nfErr)
		if nfErr.Namespace != "missing.nowhere" {
			t.Errorf("Expected missing.nowhere, got %q", nfErr.Namespace)
		}
		if nfErr.RequiredBy == nil || path.Base(nfErr.RequiredBy.Path) != "a.js" {
			t.Errorf("Expected RequiredBy a.js, got %v", nfErr.RequiredBy)
		}
	})

	t.Run("unreached", func(t *testing.T) {
		if _, err := tree.Dependencies("missing.ok"); err != nil {
			t.Errorf("Expected unrelated broken source to be ignored, got %v", err)
		}
	})
}

func TestDependencies_CircularDependency(t *testing.T) {
	tree, err := New(scanFixture(t, "closure/cycle"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = tree.Dependencies("cycle.a")
	if !errors.Is(err, ErrCircularDependency) {
		t.Fatalf("Expected ErrCircularDependency, got %v", err)
	}

	var cdErr *CircularDependencyError
	errors.As(err, &cdErr)
	expected := []string{"cycle.a", "cycle.b", "cycle.c", "cycle.a"}
	if !slices.Equal(cdErr.Path, expected) {
		t.Errorf("Expected path %v, got %v", expected, cdErr.Path)
	}
	if cdErr.Error() != "circular dependency: cycle.a -> cycle.b -> cycle.c -> cycle.a" {
		t.Errorf("Unexpected message: %s", cdErr.Error())
	}
}

func TestDependencies_TwoSourceCycle(t *testing.T) {
	a := mustParse(t, "a.js", "goog.provide('a');\ngoog.require('b');\n")
	b := mustParse(t, "b.js", "goog.provide('b');\ngoog.require('a');\n")
	entry := mustParse(t, "entry.js", "goog.provide('entry');\ngoog.require('b');\n")

	tree, err := New([]*source.Source{a, b, entry})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = tree.Dependencies("entry")
	var cdErr *CircularDependencyError
	if !errors.As(err, &cdErr) {
		t.Fatalf("Expected *CircularDependencyError, got %v", err)
	}
	if expected := []string{"b", "a", "b"}; !slices.Equal(cdErr.Path, expected) {
		t.Errorf("Expected path %v, got %v", expected, cdErr.Path)
	}
}

func TestDependencies_Diamond(t *testing.T) {
	top := mustParse(t, "top.js", "goog.provide('top');\ngoog.require('left');\ngoog.require('right');\n")
	left := mustParse(t, "left.js", "goog.provide('left');\ngoog.require('bottom');\n")
	right := mustParse(t, "right.js", "goog.provide('right');\ngoog.require('bottom');\n")
	bottom := mustParse(t, "bottom.js", "goog.provide('bottom');\n")

	tree, err := New([]*source.Source{top, left, right, bottom})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	deps, err := tree.Dependencies("top")
	if err != nil {
		t.Fatalf("Dependencies failed: %v", err)
	}
	expected := []string{"bottom.js", "left.js", "right.js", "top.js"}
	if got := paths(deps); !slices.Equal(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestCheck(t *testing.T) {
	sources := append(scanFixture(t, "closure/cycle"), scanFixture(t, "closure/missing")...)
	sources = append(sources, scanFixture(t, "closure/duplicate")...)

	problems := Check(sources)

	var kinds []string
	for _, p := range problems {
		switch {
		case errors.Is(p, ErrMultipleProvide):
			kinds = append(kinds, "duplicate")
		case errors.Is(p, ErrNamespaceNotFound):
			kinds = append(kinds, "missing")
		case errors.Is(p, ErrCircularDependency):
			kinds = append(kinds, "cycle")
		}
	}

	// goog is provided by all three base files.
	expected := []string{"duplicate", "duplicate", "missing", "cycle"}
	if !slices.Equal(kinds, expected) {
		t.Fatalf("Expected %v, got %v: %v", expected, kinds, problems)
	}

	var mpErr *MultipleProvideError
	errors.As(problems[0], &mpErr)
	if mpErr.Namespace != "dup.ns" || len(mpErr.Sources) != 2 {
		t.Errorf("Unexpected duplicate: %v", mpErr)
	}
	errors.As(problems[1], &mpErr)
	if mpErr.Namespace != "goog" || len(mpErr.Sources) != 3 {
		t.Errorf("Unexpected duplicate: %v", mpErr)
	}

	var cdErr *CircularDependencyError
	errors.As(problems[3], &cdErr)
	if expected := []string{"cycle.a", "cycle.b", "cycle.c", "cycle.a"}; !slices.Equal(cdErr.Path, expected) {
		t.Errorf("Expected cycle %v, got %v", expected, cdErr.Path)
	}
}

func TestCheck_Clean(t *testing.T) {
	if problems := Check(scanFixture(t, "closure/simple")); len(problems) != 0 {
		t.Errorf("Expected no problems, got %v", problems)
	}
}

func TestCheck_CycleReportedOnce(t *testing.T) {
	a := mustParse(t, "a.js", "goog.provide('a');\ngoog.require('b');\n")
	b := mustParse(t, "b.js", "goog.provide('b');\ngoog.require('a');\n")
	c := mustParse(t, "c.js", "goog.provide('c');\ngoog.require('b');\n")

	problems := Check([]*source.Source{c, b, a})
	if len(problems) != 1 {
		t.Fatalf("Expected 1 problem, got %v", problems)
	}
	var cdErr *CircularDependencyError
	if !errors.As(problems[0], &cdErr) {
		t.Fatalf("Expected *CircularDependencyError, got %v", problems[0])
	}
	if expected := []string{"a", "b", "a"}; !slices.Equal(cdErr.Path, expected) {
		t.Errorf("Expected %v, got %v", expected, cdErr.Path)
	}
}
