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
package output

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"

	"bennypowers.dev/gdeps/internal/mapfs"
)

func TestWriteTo_Stdout(t *testing.T) {
	t.Cleanup(viper.Reset)

	var buf bytes.Buffer
	mfs := mapfs.New()
	if err := WriteTo(mfs, &buf, []byte("a.js\n")); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if buf.String() != "a.js\n" {
		t.Errorf("Expected content on stdout, got %q", buf.String())
	}
	if len(mfs.Files()) != 0 {
		t.Errorf("Expected no files written, got %v", mfs.Files())
	}
}

func TestWriteTo_File(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("output", "/out/deps.js")

	var buf bytes.Buffer
	mfs := mapfs.New()
	mfs.AddDir("/out", 0755)
	if err := WriteTo(mfs, &buf, []byte("deps\n")); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("Expected nothing on stdout, got %q", buf.String())
	}
	content, err := mfs.ReadFile("/out/deps.js")
	if err != nil {
		t.Fatalf("Expected output file: %v", err)
	}
	if string(content) != "deps\n" {
		t.Errorf("Unexpected file content %q", content)
	}
}
