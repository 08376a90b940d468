package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Body is the parsed HTML payload of one message: the goquery document
// for anchor iteration plus the flattened leaf-text fragments used as
// the date/status scan target. Fragments are materialized once per
// message, in document order.
type Body struct {
	doc       *goquery.Document
	fragments []string
}

// ParseBody normalizes a raw HTML payload and parses it. Residual
// quoted-printable artifacts (soft line breaks, =3D escapes) are
// stripped first so that mail clients which hand us the encoded form
// and those which pre-decode both land on the same document.
func ParseBody(raw string) (*Body, error) {
	norm := NormalizeBody(raw)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(norm))
	if err != nil {
		return nil, fmt.Errorf("parse html body: %w", err)
	}

	b := &Body{doc: doc}
	b.shred()
	return b, nil
}

// NormalizeBody strips carriage returns, quoted-printable soft breaks
// and =3D escapes, then slices out the substring bounded by the
// outermost <body> markup when one is present.
func NormalizeBody(raw string) string {
	s := strings.ReplaceAll(raw, "\r", "")
	s = strings.ReplaceAll(s, "=\n", "")
	s = strings.ReplaceAll(s, "=3D", "=")

	if start := strings.Index(s, "<body"); start >= 0 {
		if end := strings.LastIndex(s, "</body>"); end > start {
			s = s[start : end+len("</body>")]
		}
	}
	return s
}

// shred walks the document depth-first and collects every non-blank
// text node as one fragment, so mixed-content elements (text beside a
// tracking pixel or icon) still contribute their text. The result is
// the "shredded" view the date resolver scans.
func (b *Body) shred() {
	var frags []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if txt := strings.Join(strings.Fields(c.Data), " "); txt != "" {
					frags = append(frags, txt)
				}
			case html.ElementNode:
				if c.Data == "style" || c.Data == "script" {
					continue
				}
				walk(c)
			}
		}
	}
	for _, n := range b.doc.Find("body").Nodes {
		walk(n)
	}
	b.fragments = frags
}

// Fragments returns the flattened leaf-text sequence in document order.
func (b *Body) Fragments() []string {
	return b.fragments
}

// EachAnchor iterates anchor elements in document order, passing the
// href and the collapsed visible text. Returning false stops the walk.
func (b *Body) EachAnchor(fn func(href, text string) bool) {
	b.doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return true
		}
		text := strings.Join(strings.Fields(sel.Text()), " ")
		return fn(href, text)
	})
}
