package mirror

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// rewriteTransport sends every request to target while keeping the
// original Host header, so CDN URLs can be answered by a test server.
type rewriteTransport struct {
	target *url.URL
	base   http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	return t.base.RoundTrip(r)
}

// assetServer answers every request with "<host><path>?<query>" and records
// what it was asked for.
type assetServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*http.Request
	status   int
}

func newAssetServer(t *testing.T) *assetServer {
	t.Helper()

	s := &assetServer{status: http.StatusOK}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Clone(r.Context()))
		status := s.status
		s.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_, _ = io.WriteString(w, r.Host+r.URL.Path+"?"+r.URL.RawQuery)
	}))
	t.Cleanup(s.Close)

	return s
}

func (s *assetServer) client(t *testing.T) *http.Client {
	t.Helper()

	target, err := url.Parse(s.URL)
	require.NoError(t, err)

	return &http.Client{Transport: &rewriteTransport{target: target, base: s.Client().Transport}}
}

func (s *assetServer) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *assetServer) setStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(root string) *Config {
	cfg := DefaultConfig()
	cfg.Root = root
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
