package mirror

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// designEntry matches the captured viewer page of a design anywhere below the mirror root.
var designEntry = regexp.MustCompile(`(?:^|/)cloud/design/([^/]+)/airoaming/index\.html$`)

// FindDesignIDs returns the ids of every design whose viewer page is in the
// mirror, sorted and without duplicates. Unreadable directories below root
// are logged and skipped.
func FindDesignIDs(root string, logger *slog.Logger) ([]string, error) {
	logger = loggerOrDefault(logger)
	var ids []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if m := designEntry.FindStringSubmatch(filepath.ToSlash(rel)); m != nil {
			ids = append(ids, m[1])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// Finalize writes <root>/index.html redirecting to the mirrored design viewer.
// When several designs are mirrored the smallest id wins. A failed write
// leaves any previous index.html in place.
func Finalize(root string, logger *slog.Logger) (string, error) {
	ids, err := FindDesignIDs(root, logger)
	if err != nil {
		return "", fmt.Errorf("search designs: %w", err)
	}
	if len(ids) == 0 {
		return "", ErrDesignNotFound
	}

	id := ids[0]
	page, err := RedirectPage("/cloud/design/" + id + "/airoaming/")
	if err != nil {
		return "", err
	}

	if _, err := writeAtomic(filepath.Join(root, "index.html"), bytes.NewReader(page), 0o644); err != nil {
		return "", fmt.Errorf("write redirect: %w", err)
	}

	return id, nil
}

// RedirectPage renders an HTML page that immediately redirects to target and
// links to it for clients that ignore meta refresh.
func RedirectPage(target string) ([]byte, error) {
	head := element(atom.Head,
		element(atom.Meta).withAttr("charset", "UTF-8"),
		element(atom.Meta).withAttr("http-equiv", "refresh").withAttr("content", "0; url="+target),
	)
	body := element(atom.Body,
		&node{&html.Node{Type: html.TextNode, Data: "Redirecting to "}},
		element(atom.A, &node{&html.Node{Type: html.TextNode, Data: target}}).withAttr("href", target),
	)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(element(atom.Html, head, body).Node)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render redirect page: %w", err)
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

type node struct {
	*html.Node
}

func element(a atom.Atom, children ...*node) *node {
	n := &node{&html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}}
	for _, c := range children {
		n.AppendChild(c.Node)
	}
	return n
}

func (n *node) withAttr(key, val string) *node {
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	return n
}
