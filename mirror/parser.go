package mirror

import (
	"regexp"
)

// Reference is one CDN URL found in a text file
type Reference struct {
	Text   string // Matched text, e.g. "//cdn.example.com/a.jpg?x=1"
	Domain string // Host part of the match
	Start  int    // Byte offset of the match in the content
	End    int
}

// Parser finds CDN references in text content
type Parser struct {
	domains Domains
	pattern *regexp.Regexp
}

// NewParser creates a Parser matching every subdomain of the base suffix
func NewParser(domains Domains) *Parser {
	// (https: or nothing)//<sub><suffix>/<path and query up to whitespace, quote or bracket>
	expr := `(?:https:)?//([^/]+` + regexp.QuoteMeta(domains.BaseSuffix) + `)/[^\s"'\)\]]+`
	return &Parser{
		domains: domains,
		pattern: regexp.MustCompile(expr),
	}
}

// Parse returns every reference in content in order of appearance
func (p *Parser) Parse(content string) []Reference {
	matches := p.pattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}

	refs := make([]Reference, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, Reference{
			Text:   content[m[0]:m[1]],
			Domain: content[m[2]:m[3]],
			Start:  m[0],
			End:    m[1],
		})
	}
	return refs
}

// Collect adds the references that belong to the render data domain to queue,
// in absolute https form. It returns how many were new to the queue.
func (p *Parser) Collect(refs []Reference, queue *Queue) int {
	added := 0
	for _, ref := range refs {
		if !p.domains.Queueable(ref.Domain) {
			continue
		}
		if queue.Add(absoluteURL(ref.Text)) {
			added++
		}
	}
	return added
}
