package mirror

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00"

func TestIsTextFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{name: "page.html", content: "<!DOCTYPE html><html><head></head><body>hi</body></html>", want: true},
		{name: "data.json", content: `{"tiles": ["//qhrenderpicoss.kujiale.com/r/a.jpg"]}`, want: true},
		{name: "app.js", content: "var a = 'https://cdn.kujiale.com/x.png';\n", want: true},
		{name: "notes", content: "plain text without an extension\n", want: true},
		{name: "tile.png", content: pngHeader + "https://cdn.kujiale.com/a.jpg", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			writeFile(t, path, tt.content)

			got, err := IsTextFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsTextFile_Missing(t *testing.T) {
	_, err := IsTextFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestReadText_InvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.txt")
	writeFile(t, path, "caf\xe9 ok")

	got, err := readText(path)
	require.NoError(t, err)
	assert.Equal(t, "caf\uFFFD ok", got)
}
