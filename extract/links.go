package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// productPathMarker is the path fragment identifying a product-detail link.
const productPathMarker = "/ip/"

// relatedLinks snapshots the rendered HTML and pulls product-detail anchors
// out of it. A static parse is enough here: no interaction is needed, and
// it keeps the browser round-trips down to one.
func (e *Engine) relatedLinks(page Page) []string {
	html, err := page.HTML()
	if err != nil {
		return nil
	}
	return RelatedLinks(html)
}

// RelatedLinks returns every anchor destination containing the
// product-detail path marker, query strings stripped, deduplicated.
// Set semantics: the result order carries no meaning.
func RelatedLinks(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find(`a[href*="` + productPathMarker + `"]`).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		href = stripQuery(href)
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		links = append(links, href)
	})
	return links
}

// stripQuery drops everything from the first '?' on.
func stripQuery(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}
