package mirror

import (
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// IsTextFile sniffs the content of path and reports whether it is text or JSON
func IsTextFile(path string) (bool, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return false, err
	}
	return isTextMIME(mtype), nil
}

func isTextMIME(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") || m.Is("application/json") {
			return true
		}
	}
	return false
}

// readText reads path as UTF-8, replacing invalid byte sequences with U+FFFD
func readText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	decoded, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}

	return string(decoded), nil
}
