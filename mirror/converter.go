package mirror

import (
	"strings"
)

// Converter rewrites CDN references into root-relative paths for offline serving
type Converter struct {
	domains Domains
}

// NewConverter creates a new Converter instance
func NewConverter(domains Domains) *Converter {
	return &Converter{domains: domains}
}

// Rewrite returns content with every non-excluded reference turned from
// https://host/path or //host/path into /host/path. Only the matched spans
// are touched, so text that merely repeats a match elsewhere is left alone.
func (c *Converter) Rewrite(content string, refs []Reference) string {
	var b strings.Builder
	b.Grow(len(content))

	last := 0
	for _, ref := range refs {
		if c.domains.ExcludedFromRewrite(ref.Domain) {
			continue
		}
		b.WriteString(content[last:ref.Start])
		b.WriteString(rootRelative(ref.Text))
		last = ref.End
	}
	b.WriteString(content[last:])

	return b.String()
}

// rootRelative drops the scheme and one of the two leading slashes
func rootRelative(ref string) string {
	ref = strings.TrimPrefix(ref, "https:")
	return strings.TrimPrefix(ref, "/")
}
