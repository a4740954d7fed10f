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
	"fmt"
	"strings"

	"bennypowers.dev/gdeps/source"
)

// Sentinel errors matched by the typed errors below through errors.Is.
var (
	ErrMultipleProvide    = errors.New("namespace provided more than once")
	ErrNamespaceNotFound  = errors.New("namespace not found")
	ErrCircularDependency = errors.New("circular dependency")
)

// MultipleProvideError reports a namespace provided by more than one source.
type MultipleProvideError struct {
	Namespace string
	Sources   []*source.Source
}

func (e *MultipleProvideError) Error() string {
	paths := make([]string, len(e.Sources))
	for i, src := range e.Sources {
		paths[i] = src.Path
	}
	return fmt.Sprintf("namespace %q provided more than once in sources: %s",
		e.Namespace, strings.Join(paths, ", "))
}

func (e *MultipleProvideError) Is(target error) bool {
	return target == ErrMultipleProvide
}

// NamespaceNotFoundError reports a namespace no source provides.
// RequiredBy is nil when the namespace was requested directly.
type NamespaceNotFoundError struct {
	Namespace  string
	RequiredBy *source.Source
}

func (e *NamespaceNotFoundError) Error() string {
	if e.RequiredBy == nil {
		return fmt.Sprintf("namespace %q not found", e.Namespace)
	}
	return fmt.Sprintf("namespace %q not found, required by %s", e.Namespace, e.RequiredBy.Path)
}

func (e *NamespaceNotFoundError) Is(target error) bool {
	return target == ErrNamespaceNotFound
}

// CircularDependencyError reports a cycle. Path starts and ends with the
// same namespace, e.g. [a b a].
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	return "circular dependency: " + strings.Join(e.Path, " -> ")
}

func (e *CircularDependencyError) Is(target error) bool {
	return target == ErrCircularDependency
}
