package extract

import (
	"context"
	"strconv"
	"strings"
)

const (
	gallerySelector    = `div[data-testid="media-gallery"]`
	thumbnailSelector  = `img[data-testid="media-gallery-thumbnail-image"]`
	mainImageSelector  = gallerySelector + " img"
	aboutPanelSelector = "div.dangerous-html.mb3"
)

func (e *Engine) title(page Page) string {
	text, _ := titleChain.run(page, e.cfg.TitleTimeout)
	return text
}

// price runs the price chain and normalizes the match. An unparsable price
// is kept as raw text rather than failing the task.
func (e *Engine) price(page Page) (float64, string) {
	text, ok := priceChain.run(page, e.cfg.SelectorTimeout)
	if !ok {
		return 0, ""
	}
	return ParsePrice(text)
}

// ParsePrice strips the currency symbol and thousands separators and parses
// the remainder as a decimal. When parsing fails, the trimmed original text
// is returned as the raw price and the numeric value stays 0.
func ParsePrice(text string) (float64, string) {
	cleaned := strings.ReplaceAll(text, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, strings.TrimSpace(text)
	}
	return v, ""
}

// images walks up to MaxImages gallery thumbnails: click one, let the main
// image swap in, read its URL. Duplicate URLs are dropped, encounter order
// is kept.
func (e *Engine) images(ctx context.Context, page Page) []string {
	if err := page.ScrollIntoView(gallerySelector); err != nil {
		return nil
	}
	e.settle(ctx)

	n, err := page.Count(thumbnailSelector)
	if err != nil || n == 0 {
		return nil
	}
	if n > e.cfg.MaxImages {
		n = e.cfg.MaxImages
	}

	var urls []string
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		if err := page.ClickNth(thumbnailSelector, i); err != nil {
			continue
		}
		e.settle(ctx)

		src, err := page.Attr(mainImageSelector, "src")
		if err != nil || src == "" {
			continue
		}
		if _, dup := seen[src]; dup {
			continue
		}
		seen[src] = struct{}{}
		urls = append(urls, src)
	}
	return urls
}

func (e *Engine) colors(page Page) []string {
	if found := collectGroup(page, colorGroups, nil); len(found) > 0 {
		return found
	}
	if alts, err := page.AttrAll(colorAltSelector, "alt"); err == nil {
		if found := dedupTrimmed(alts, nil); len(found) > 0 {
			return found
		}
	}
	return []string{"N/A"}
}

func (e *Engine) sizes(page Page) []string {
	// "Select" is the picker placeholder, not a size.
	keep := func(s string) bool { return !strings.EqualFold(s, "select") }
	if found := collectGroup(page, sizeGroups, keep); len(found) > 0 {
		return found
	}
	return []string{"N/A"}
}

// about scrolls the description panel into view and collects its paragraph
// texts in document order, dropping empty ones.
func (e *Engine) about(ctx context.Context, page Page) []string {
	if err := page.ScrollIntoView(aboutPanelSelector); err != nil {
		return nil
	}
	e.settle(ctx)

	if err := page.WaitVisible(aboutPanelSelector, e.cfg.SelectorTimeout); err != nil {
		return nil
	}
	texts, err := page.TextAll(aboutPanelSelector + " p")
	if err != nil {
		return nil
	}

	var bullets []string
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			bullets = append(bullets, t)
		}
	}
	return bullets
}
