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
	"errors"

	"github.com/dominikbraun/graph"

	"bennypowers.dev/gdeps/source"
)

// Graph returns the source graph: one vertex per source path and an edge
// from every source to the provider of each namespace it requires. With
// namespaces given, only their dependency closure is included. Requires
// with no provider do not fail the graph; they are returned alongside it.
func (t *DepsTree) Graph(namespaces ...string) (graph.Graph[string, string], []*NamespaceNotFoundError, error) {
	sources := t.sources
	if len(namespaces) > 0 {
		deps, err := t.Dependencies(namespaces...)
		if err != nil {
			return nil, nil, err
		}
		sources = deps
	}

	g := graph.New(graph.StringHash, graph.Directed())
	included := make(map[*source.Source]bool, len(sources))
	for _, src := range sources {
		included[src] = true
		if err := g.AddVertex(src.Path, vertexAttributes(src)...); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, nil, err
		}
	}

	var missing []*NamespaceNotFoundError
	for _, src := range sources {
		for _, req := range src.Requires {
			provider, ok := t.provides[req]
			if !ok {
				missing = append(missing, &NamespaceNotFoundError{Namespace: req, RequiredBy: src})
				continue
			}
			if !included[provider] {
				continue
			}
			if err := g.AddEdge(src.Path, provider.Path); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, nil, err
			}
		}
	}

	return g, missing, nil
}

func vertexAttributes(src *source.Source) []func(*graph.VertexProperties) {
	switch {
	case src.IsBase:
		return []func(*graph.VertexProperties){graph.VertexAttribute("style", "bold")}
	case src.IsGoogModule:
		return []func(*graph.VertexProperties){graph.VertexAttribute("shape", "box")}
	default:
		return nil
	}
}
