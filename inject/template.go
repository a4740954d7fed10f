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
package inject

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Template represents a script URL template with variable placeholders.
// Supported variables:
//   - {path} - Slash path of the source relative to the base directory
//   - {name} - File name of the source
type Template struct {
	pattern   string
	variables []string
}

var variablePattern = regexp.MustCompile(`\{(\w*)\}`)

// ParseTemplate parses a URL template pattern.
func ParseTemplate(pattern string) (*Template, error) {
	if pattern == "" {
		return nil, fmt.Errorf("template pattern cannot be empty")
	}

	var variables []string
	for _, match := range variablePattern.FindAllStringSubmatch(pattern, -1) {
		switch match[1] {
		case "path", "name":
			variables = append(variables, match[1])
		default:
			return nil, fmt.Errorf("unknown template variable: {%s}", match[1])
		}
	}

	return &Template{pattern: pattern, variables: variables}, nil
}

// Expand substitutes variables for the source at relPath.
func (t *Template) Expand(relPath string) string {
	result := strings.ReplaceAll(t.pattern, "{path}", relPath)
	return strings.ReplaceAll(result, "{name}", path.Base(relPath))
}

// Variables returns the variables used in the template.
func (t *Template) Variables() []string {
	return t.variables
}
