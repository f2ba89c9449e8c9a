package mirror

import (
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Server serves a mirror tree the way the rewritten pages expect: CDN
// references arrive as /<domain>/<path> and resolve to the downloaded files.
type Server struct {
	config *Config
	mapper PathMapper
	logger *slog.Logger
}

// NewServer creates a handler serving the mirror under config.Root
func NewServer(config *Config, logger *slog.Logger) *Server {
	return &Server{
		config: config,
		mapper: NewPathMapper(config),
		logger: loggerOrDefault(logger),
	}
}

// Translate maps a request URL path and raw query to a file in the mirror
func (s *Server) Translate(urlPath, rawQuery string) string {
	rel := strings.TrimPrefix(urlPath, "/")
	domain, rest, _ := strings.Cut(rel, "/")

	if !strings.HasSuffix(domain, s.config.Domains.BaseSuffix) {
		return s.resolveDir(s.mapper.join("", rel, ""))
	}

	// The captured app keeps query strings only for CDN assets it fetched itself
	if domain == s.config.Domains.Main || contains(s.config.Domains.DownloadExcluded, domain) {
		rawQuery = ""
	}
	// Browsers escape '|' in the processing directives we stored verbatim
	rawQuery = strings.ReplaceAll(rawQuery, "%7C", "|")

	return s.resolveDir(s.mapper.join(domain, rest, rawQuery))
}

// resolveDir serves a directory through its index.html
func (s *Server) resolveDir(p string) string {
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return filepath.Join(p, "index.html")
	}
	return p
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Connection", "keep-alive")

	localFile := s.Translate(r.URL.Path, r.URL.RawQuery)

	f, err := os.Open(localFile)
	if err != nil {
		s.logger.Info("miss", "method", r.Method, "url", r.URL.String(), "path", localFile)
		if r.Method == http.MethodPost {
			// The app posts to endpoints with no offline equivalent; an empty reply keeps it going
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	s.logger.Info("hit", "method", r.Method, "url", r.URL.String(), "path", localFile)

	if r.Method == http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
	} else if ct := mime.TypeByExtension(path.Ext(r.URL.Path)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}

	// ServeContent sniffs the type when no header was set above
	http.ServeContent(w, r, "", info.ModTime(), f)
}
