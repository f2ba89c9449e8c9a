package mirror

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func TestFinalize_NoDesign(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "cloud", "other", "index.html"), "<html></html>")

	id, err := Finalize(root, discardLogger())
	assert.ErrorIs(t, err, ErrDesignNotFound)
	assert.Empty(t, id)
	assert.NoFileExists(t, filepath.Join(root, "index.html"))
}

func TestFinalize_SmallestIDWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "cloud", "design", "B2", "airoaming", "index.html"), "b")
	writeFile(t, filepath.Join(root, "cloud", "design", "A1", "airoaming", "index.html"), "a")
	// pages below the viewer directory are not design entries
	writeFile(t, filepath.Join(root, "cloud", "design", "00", "airoaming", "extra", "index.html"), "nested")
	writeFile(t, filepath.Join(root, "cloud", "design", "01", "airoaming", "main.html"), "other")

	ids, err := FindDesignIDs(root, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2"}, ids)

	id, err := Finalize(root, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, "A1", id)

	page := readFile(t, filepath.Join(root, "index.html"))
	assert.Contains(t, page, `content="0; url=/cloud/design/A1/airoaming/"`)
	assert.Contains(t, page, `href="/cloud/design/A1/airoaming/"`)
}

func TestFindDesignIDs_AnyDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "cloud", "design", "B2", "airoaming", "index.html"), "b")
	writeFile(t, filepath.Join(root, "www.kujiale.com", "cloud", "design", "0A", "airoaming", "index.html"), "nested")
	writeFile(t, filepath.Join(root, "x", "cloud", "design", "B2", "airoaming", "index.html"), "duplicate")

	ids, err := FindDesignIDs(root, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"0A", "B2"}, ids)
}

func TestFindDesignIDs_SkipsUnreadableDirectories(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "cloud", "design", "B2", "airoaming", "index.html"), "b")
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "cloud", "design", "A1", "airoaming", "index.html"), "a")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	ids, err := FindDesignIDs(root, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"B2"}, ids)
}

func TestFindDesignIDs_MissingRoot(t *testing.T) {
	_, err := FindDesignIDs(filepath.Join(t.TempDir(), "missing"), discardLogger())
	assert.Error(t, err)
}

func TestFinalize_Overwrites(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.html"), "old entry")
	writeFile(t, filepath.Join(root, "cloud", "design", "3FO4K", "airoaming", "index.html"), "viewer")

	id, err := Finalize(root, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, "3FO4K", id)
	assert.NotContains(t, readFile(t, filepath.Join(root, "index.html")), "old entry")
}

func TestRedirectPage(t *testing.T) {
	page, err := RedirectPage("/cloud/design/3FO4K/airoaming/")
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(page, []byte("<!DOCTYPE html>")))

	doc, err := html.Parse(bytes.NewReader(page))
	require.NoError(t, err)

	var refresh, href, charset string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Meta:
				for _, a := range n.Attr {
					switch a.Key {
					case "charset":
						charset = a.Val
					case "content":
						refresh = a.Val
					}
				}
			case atom.A:
				for _, a := range n.Attr {
					if a.Key == "href" {
						href = a.Val
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	assert.Equal(t, "UTF-8", charset)
	assert.Equal(t, "0; url=/cloud/design/3FO4K/airoaming/", refresh)
	assert.Equal(t, "/cloud/design/3FO4K/airoaming/", href)
}
