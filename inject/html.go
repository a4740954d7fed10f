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
	"bytes"
	"errors"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"bennypowers.dev/gdeps/source"
)

// Markers delimit the block of script tags gdeps manages in a page.
const (
	BeginMarker = "gdeps:begin"
	EndMarker   = "gdeps:end"
)

// page describes what was found while tokenizing an HTML document.
// Offsets are byte positions in the original content.
type page struct {
	// Requires lists goog.require namespaces from inline scripts, in order.
	Requires []string
	// BlockStart and BlockEnd span an existing managed block, markers included.
	BlockStart, BlockEnd int
	HasBlock             bool
	// InsertAt is the start of the first inline script with requires.
	InsertAt int
	// Indent is the whitespace preceding the block or insertion point.
	Indent string
}

// scanPage tokenizes content, locating the managed block and collecting
// requires from inline scripts.
func scanPage(name string, content []byte) (*page, error) {
	p := &page{InsertAt: -1, BlockStart: -1}
	z := html.NewTokenizer(bytes.NewReader(content))

	offset := 0
	inScript := false
	inline := false
	scriptStart := 0
	var body strings.Builder

	for {
		tt := z.Next()
		start := offset
		offset += len(z.Raw())

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, err
			}
			if p.BlockStart >= 0 && !p.HasBlock {
				return nil, errors.New("unterminated <!-- " + BeginMarker + " --> block")
			}
			return p, nil

		case html.CommentToken:
			switch strings.TrimSpace(string(z.Text())) {
			case BeginMarker:
				p.BlockStart = start
				p.Indent = indentBefore(content, start)
			case EndMarker:
				if p.BlockStart >= 0 && !p.HasBlock {
					p.BlockEnd = offset
					p.HasBlock = true
				}
			}

		case html.StartTagToken:
			tag, hasAttr := z.TagName()
			if string(tag) != "script" {
				continue
			}
			inScript = true
			inline = true
			scriptStart = start
			body.Reset()
			for hasAttr {
				var key []byte
				key, _, hasAttr = z.TagAttr()
				if string(key) == "src" {
					inline = false
				}
			}

		case html.TextToken:
			if inScript {
				body.Write(z.Text())
			}

		case html.EndTagToken:
			tag, _ := z.TagName()
			if string(tag) != "script" || !inScript {
				continue
			}
			inScript = false
			if !inline {
				continue
			}
			src, err := source.Parse(name, []byte(body.String()))
			if err != nil || len(src.Requires) == 0 {
				continue
			}
			if p.InsertAt < 0 {
				p.InsertAt = scriptStart
				if p.BlockStart < 0 {
					p.Indent = indentBefore(content, scriptStart)
				}
			}
			for _, ns := range src.Requires {
				if !slices.Contains(p.Requires, ns) {
					p.Requires = append(p.Requires, ns)
				}
			}
		}
	}
}

// indentBefore returns the whitespace between the previous newline and
// offset, or "" when something other than whitespace precedes offset on
// its line.
func indentBefore(content []byte, offset int) string {
	i := offset
	for i > 0 && (content[i-1] == ' ' || content[i-1] == '\t') {
		i--
	}
	if i > 0 && content[i-1] != '\n' {
		return ""
	}
	return string(content[i:offset])
}

// renderBlock renders the managed block for urls. The first line carries
// no indent because the block replaces or precedes already-indented text.
func renderBlock(urls []string, indent string) string {
	var b strings.Builder
	b.WriteString("<!-- " + BeginMarker + " -->\n")
	for _, url := range urls {
		b.WriteString(indent)
		b.WriteString(`<script src="`)
		b.WriteString(html.EscapeString(url))
		b.WriteString(`"></script>`)
		b.WriteByte('\n')
	}
	b.WriteString(indent)
	b.WriteString("<!-- " + EndMarker + " -->")
	return b.String()
}
