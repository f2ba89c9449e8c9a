package mirror

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// querySeparator joins a file name and its sanitized query string.
const querySeparator = "__"

var querySanitizer = strings.NewReplacer("/", "_", ":", "_", "?", "_")

// PathMapper maps asset URLs to files under the mirror root
type PathMapper struct {
	Root       string
	MainDomain string
}

// NewPathMapper creates a PathMapper for the configured root and main domain
func NewPathMapper(config *Config) PathMapper {
	return PathMapper{
		Root:       config.Root,
		MainDomain: config.Domains.Main,
	}
}

// Map returns the local path for u. It performs no I/O.
func (m PathMapper) Map(u *url.URL) string {
	return m.join(u.Host, u.Path, u.RawQuery)
}

// MapString parses rawURL, accepting protocol-relative form, and maps it
func (m PathMapper) MapString(rawURL string) (string, error) {
	u, err := parseAssetURL(rawURL)
	if err != nil {
		return "", err
	}
	return m.Map(u), nil
}

// join builds the local path from an already decoded path
func (m PathMapper) join(host, decodedPath, rawQuery string) string {
	// Cleaning against "/" drops any ".." that would climb out of the root
	p := path.Clean("/" + decodedPath)
	if p == "/" || strings.HasSuffix(decodedPath, "/") {
		p = path.Join(p, "index.html")
	}
	p = strings.TrimPrefix(p, "/")

	if rawQuery != "" {
		p += querySeparator + querySanitizer.Replace(rawQuery)
	}

	if host != "" && host != m.MainDomain {
		p = host + "/" + p
	}

	return filepath.Join(m.Root, filepath.FromSlash(p))
}

// parseAssetURL parses an absolute or protocol-relative asset URL. A '%'
// that does not start a valid escape is taken literally.
func parseAssetURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(requestURL(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse %q: missing host", rawURL)
	}
	return u, nil
}

// requestURL is the form of rawURL sent on the wire
func requestURL(rawURL string) string {
	return escapeStrayPercent(absoluteURL(rawURL))
}

// absoluteURL gives protocol-relative references an https scheme
func absoluteURL(rawURL string) string {
	if strings.HasPrefix(rawURL, "//") {
		return "https:" + rawURL
	}
	return rawURL
}

// escapeStrayPercent turns every '%' not followed by two hex digits into "%25"
func escapeStrayPercent(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && !(i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
