package extract

import (
	"strings"
	"time"
)

// Strategy is one named way to read a field off the page.
type Strategy struct {
	Name     string
	Selector string
}

// Chain is the ordered selector-fallback list for one text field.
// Candidates are tried in declared order; the first yielding non-empty text
// wins and later candidates are never consulted. Exhaustion yields Default.
type Chain struct {
	Field      string
	Strategies []Strategy
	Default    string
}

// run executes the chain against the page. The bool reports whether any
// strategy matched; false means the default was used.
func (c Chain) run(page Page, timeout time.Duration) (string, bool) {
	for _, s := range c.Strategies {
		if err := page.WaitVisible(s.Selector, timeout); err != nil {
			continue
		}
		text, err := page.Text(s.Selector)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return text, true
		}
	}
	return c.Default, false
}

var titleChain = Chain{
	Field: "title",
	Strategies: []Strategy{
		{Name: "product-title", Selector: "h1.prod-ProductTitle"},
		{Name: "schema-name", Selector: `h1[itemprop="name"]`},
	},
	Default: "N/A",
}

var priceChain = Chain{
	Field: "price",
	Strategies: []Strategy{
		{Name: "schema-price", Selector: `span[itemprop="price"]`},
		{Name: "automation-price", Selector: `span[data-automation-id="product-price"]`},
		{Name: "price-characteristic", Selector: "span.price-characteristic"},
		{Name: "testid-price", Selector: `div[data-testid="price"] span`},
	},
}

// selectorGroup is one candidate source of variant labels (colors, sizes).
// Unlike a Chain, a group match collects every element's text, and groups
// are never merged: the first group with any non-empty match wins outright.
type selectorGroup struct {
	Name     string
	Selector string
}

var colorGroups = []selectorGroup{
	{Name: "tile-buttons", Selector: `ul[data-tl-id*="color"] button span`},
	{Name: "tile-labels", Selector: `ul[data-tl-id*="color"] label span`},
	{Name: "picker-labels", Selector: `div[data-automation-id="color-picker"] label span`},
	{Name: "aria-color", Selector: `[aria-label*="Color"]`},
	{Name: "checked-swatch", Selector: `button[aria-checked="true"] span`},
	{Name: "schema-color", Selector: `[itemprop="color"]`},
}

var sizeGroups = []selectorGroup{
	{Name: "tile-buttons", Selector: `ul[data-tl-id*="size"] button span`},
	{Name: "tile-labels", Selector: `ul[data-tl-id*="size"] label span`},
	{Name: "picker-labels", Selector: `div[data-automation-id="size-picker"] label`},
	{Name: "aria-size", Selector: `[aria-label*="Size"]`},
	{Name: "checked-swatch", Selector: `button[aria-checked="true"] span`},
}

// colorAltSelector is the last-resort color source: swatchless pages often
// carry the color name only in image alt text.
const colorAltSelector = `img[alt*="color" i]`

// collectGroup returns the deduplicated texts of the first group yielding
// any non-empty match, applying keep (when non-nil) before dedup.
func collectGroup(page Page, groups []selectorGroup, keep func(string) bool) []string {
	for _, g := range groups {
		texts, err := page.TextAll(g.Selector)
		if err != nil {
			continue
		}
		out := dedupTrimmed(texts, keep)
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// dedupTrimmed trims, filters, and deduplicates by exact string equality,
// preserving first-seen order.
func dedupTrimmed(values []string, keep func(string) bool) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if keep != nil && !keep(v) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
