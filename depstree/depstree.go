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
// Package depstree resolves Closure namespaces to a dependency-ordered
// list of sources.
package depstree

import (
	"slices"

	"bennypowers.dev/gdeps/source"
)

// DepsTree maps every provided namespace to the one source providing it.
type DepsTree struct {
	sources  []*source.Source
	provides map[string]*source.Source
}

// New builds a tree over sources. Construction fails with a
// *MultipleProvideError as soon as a namespace has a second provider.
// Unresolvable requires are not reported here; Dependencies reports the
// ones a resolution reaches, and Check reports all of them.
func New(sources []*source.Source) (*DepsTree, error) {
	tree := &DepsTree{
		sources:  sources,
		provides: make(map[string]*source.Source),
	}

	for _, src := range sources {
		for _, ns := range src.Provides {
			if existing, ok := tree.provides[ns]; ok {
				return nil, &MultipleProvideError{
					Namespace: ns,
					Sources:   []*source.Source{existing, src},
				}
			}
			tree.provides[ns] = src
		}
	}

	return tree, nil
}

// Sources returns the sources the tree was built from.
func (t *DepsTree) Sources() []*source.Source {
	return t.sources
}

// Provider returns the source providing namespace.
func (t *DepsTree) Provider(namespace string) (*source.Source, bool) {
	src, ok := t.provides[namespace]
	return src, ok
}

// Namespaces returns every provided namespace, sorted.
func (t *DepsTree) Namespaces() []string {
	namespaces := make([]string, 0, len(t.provides))
	for ns := range t.provides {
		namespaces = append(namespaces, ns)
	}
	slices.Sort(namespaces)
	return namespaces
}

// Dependencies returns the sources needed for namespaces, each after
// everything it requires. Each source appears once no matter how many
// times it is reached.
func (t *DepsTree) Dependencies(namespaces ...string) ([]*source.Source, error) {
	r := &resolution{
		tree:   t,
		done:   make(map[*source.Source]bool),
		onPath: make(map[string]bool),
	}
	for _, ns := range namespaces {
		if err := r.resolve(ns, nil); err != nil {
			return nil, err
		}
	}
	return r.order, nil
}

// resolution holds the state of one depth-first walk.
type resolution struct {
	tree   *DepsTree
	order  []*source.Source
	done   map[*source.Source]bool
	path   []string
	onPath map[string]bool
}

func (r *resolution) resolve(ns string, requiredBy *source.Source) error {
	if r.onPath[ns] {
		cycle := append(slices.Clone(r.path), ns)
		return &CircularDependencyError{Path: cycle[slices.Index(cycle, ns):]}
	}

	src, ok := r.tree.provides[ns]
	if !ok {
		return &NamespaceNotFoundError{Namespace: ns, RequiredBy: requiredBy}
	}
	// A finished source cannot reach the current path: if it could, the
	// cycle would have been found while it was being resolved.
	if r.done[src] {
		return nil
	}

	r.path = append(r.path, ns)
	r.onPath[ns] = true

	for _, req := range src.Requires {
		if err := r.resolve(req, src); err != nil {
			return err
		}
	}

	r.path = r.path[:len(r.path)-1]
	delete(r.onPath, ns)

	if !r.done[src] {
		r.done[src] = true
		r.order = append(r.order, src)
	}
	return nil
}
