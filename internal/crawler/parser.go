package crawler

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Link is a link candidate found in an HTML document.
type Link struct {
	// Tag is the element the link came from: "a", "link", "script" or "img".
	Tag string

	// Raw is the attribute value exactly as written, possibly empty.
	Raw string
}

// linkSource names an element and the attribute that carries its URL.
type linkSource struct {
	tag  string
	attr string
}

// linkSources lists the only elements scanned for links, in scan order.
// Forms, iframes, inline styles, CSS imports and meta refresh are not followed.
var linkSources = []linkSource{
	{tag: "a", attr: "href"},
	{tag: "link", attr: "href"},
	{tag: "script", attr: "src"},
	{tag: "img", attr: "src"},
}

// DiscoverLinks parses an HTML body and returns its link candidates.
//
// Candidates are grouped by element kind in the order a, link, script, img,
// and are in document order within each kind. An element without the
// attribute yields a candidate with an empty Raw value.
//
// The body is decoded to UTF-8 using the charset from contentType or from
// the document itself. An empty body yields no links and no error.
//
// Design decision: We use goquery on top of golang.org/x/net/html because:
//  1. The HTML5 parser builds a best-effort tree from malformed markup
//  2. Selector queries return matches in document order
func DiscoverLinks(body []byte, contentType string) ([]Link, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	root, err := html.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	links := make([]Link, 0)
	for _, src := range linkSources {
		doc.Find(src.tag).Each(func(_ int, s *goquery.Selection) {
			links = append(links, Link{
				Tag: src.tag,
				Raw: s.AttrOr(src.attr, ""),
			})
		})
	}
	return links, nil
}

// IsHTML reports whether a Content-Type header value is compatible with
// text/html. Wildcard types "text/*" and "*/*" are compatible; parameters
// such as charset are ignored, including malformed ones like "charset=".
// An empty value or a malformed media type is not HTML.
func IsHTML(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil && !errors.Is(err, mime.ErrInvalidMediaParameter) {
		return false
	}

	switch mediaType {
	case "text/html", "text/*", "*/*":
		return true
	default:
		return false
	}
}
