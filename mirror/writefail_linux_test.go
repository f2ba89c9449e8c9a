//go:build linux

package mirror

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// limitFileSize caps the size of files this process may write until the test ends.
// The runtime ignores SIGXFSZ, so oversized writes fail with EFBIG.
func limitFileSize(t *testing.T, limit uint64) {
	t.Helper()

	var prev syscall.Rlimit
	require.NoError(t, syscall.Getrlimit(syscall.RLIMIT_FSIZE, &prev))
	require.NoError(t, syscall.Setrlimit(syscall.RLIMIT_FSIZE, &syscall.Rlimit{Cur: limit, Max: prev.Max}))
	t.Cleanup(func() {
		_ = syscall.Setrlimit(syscall.RLIMIT_FSIZE, &prev)
	})
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestMirror_ProcessFile_WriteFailureKeepsFile(t *testing.T) {
	server := newAssetServer(t)
	root := t.TempDir()
	m := newTestMirror(t, root, server, nil)

	path := filepath.Join(root, "app.js")
	original := "var a = '//panoimgoss.kujiale.com/a.jpg';\n" + strings.Repeat("// padding line\n", 1000)
	writeFile(t, path, original)
	require.NoError(t, os.Chmod(path, 0o600))

	limitFileSize(t, 4096)

	queue := NewQueue()
	rewritten, err := m.ProcessFile(path, queue)
	require.Error(t, err)
	assert.ErrorIs(t, err, syscall.EFBIG)
	assert.False(t, rewritten)

	assert.Equal(t, original, readFile(t, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.Equal(t, []string{"app.js"}, dirNames(t, root), "no partial files left behind")
}

func TestFinalize_WriteFailureKeepsPreviousEntry(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.html"), "old entry")
	writeFile(t, filepath.Join(root, "cloud", "design", "3FO4K", "airoaming", "index.html"), "viewer")

	limitFileSize(t, 64)

	id, err := Finalize(root, discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, syscall.EFBIG)
	assert.Empty(t, id)

	assert.Equal(t, "old entry", readFile(t, filepath.Join(root, "index.html")))
	assert.ElementsMatch(t, []string{"index.html", "cloud"}, dirNames(t, root))
}

func TestMirror_Run_RedirectWriteFailureIsNotFatal(t *testing.T) {
	server := newAssetServer(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.html"), "old entry")
	writeFile(t, filepath.Join(root, "cloud", "design", "3FO4K", "airoaming", "index.html"), "<html><body>viewer</body></html>")

	limitFileSize(t, 64)

	summary, err := newTestMirror(t, root, server, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.DesignID)
	assert.Equal(t, "old entry", readFile(t, filepath.Join(root, "index.html")))
}

func TestDownloader_Fetch_WriteFailureLeavesNoFile(t *testing.T) {
	server := newAssetServer(t)
	root := t.TempDir()
	d := NewDownloaderWithClient(testConfig(root), server.client(t), discardLogger(), nil)

	local := filepath.Join(root, "qhrenderpicoss.kujiale.com", "r", "a.jpg")

	limitFileSize(t, 16)

	status, err := d.Fetch(context.Background(), "https://qhrenderpicoss.kujiale.com/r/a.jpg", local)
	assert.Equal(t, FetchFailed, status)
	assert.ErrorIs(t, err, syscall.EFBIG)
	assert.NoFileExists(t, local)
	assert.Empty(t, dirNames(t, filepath.Dir(local)))
}
