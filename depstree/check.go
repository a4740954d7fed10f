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
	"slices"
	"strings"

	"bennypowers.dev/gdeps/source"
)

// Check validates a whole corpus instead of stopping at the first problem.
// It returns a *MultipleProvideError per namespace with several providers,
// a *NamespaceNotFoundError per unresolved require, and a
// *CircularDependencyError per distinct cycle, in that order.
func Check(sources []*source.Source) []error {
	var problems []error

	providers := make(map[string][]*source.Source)
	for _, src := range sources {
		for _, ns := range src.Provides {
			providers[ns] = append(providers[ns], src)
		}
	}

	namespaces := make([]string, 0, len(providers))
	for ns := range providers {
		namespaces = append(namespaces, ns)
	}
	slices.Sort(namespaces)

	for _, ns := range namespaces {
		if len(providers[ns]) > 1 {
			problems = append(problems, &MultipleProvideError{Namespace: ns, Sources: providers[ns]})
		}
	}

	for _, src := range sources {
		for _, req := range src.Requires {
			if _, ok := providers[req]; !ok {
				problems = append(problems, &NamespaceNotFoundError{Namespace: req, RequiredBy: src})
			}
		}
	}

	for _, cycle := range findCycles(namespaces, providers) {
		problems = append(problems, &CircularDependencyError{Path: cycle})
	}

	return problems
}

// findCycles walks the namespace graph (each namespace points at the
// requires of its first provider) and returns each cycle once, rotated
// to start at its smallest namespace.
func findCycles(namespaces []string, providers map[string][]*source.Source) [][]string {
	const (
		unvisited = iota
		visiting
		visited
	)

	state := make(map[string]int, len(namespaces))
	seen := make(map[string]bool)
	var cycles [][]string
	var path []string

	var visit func(ns string)
	visit = func(ns string) {
		state[ns] = visiting
		path = append(path, ns)

		for _, req := range providers[ns][0].Requires {
			if _, ok := providers[req]; !ok {
				continue
			}
			switch state[req] {
			case unvisited:
				visit(req)
			case visiting:
				cycle := canonicalCycle(path[slices.Index(path, req):])
				key := strings.Join(cycle, "\x00")
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}

		path = path[:len(path)-1]
		state[ns] = visited
	}

	for _, ns := range namespaces {
		if state[ns] == unvisited {
			visit(ns)
		}
	}

	return cycles
}

// canonicalCycle rotates members so the smallest namespace comes first and
// closes the cycle by repeating it at the end.
func canonicalCycle(members []string) []string {
	start := slices.Index(members, slices.Min(members))
	cycle := make([]string, 0, len(members)+1)
	cycle = append(cycle, members[start:]...)
	cycle = append(cycle, members[:start]...)
	return append(cycle, cycle[0])
}
