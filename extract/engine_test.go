package extract

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage is a scripted Page implementation. Selectors are opaque keys:
// a selector "exists" when any of the maps mention it.
type fakePage struct {
	texts   map[string]string
	textAll map[string][]string
	attrs   map[string]map[string]string
	attrAll map[string]map[string][]string
	html    string

	// thumbSrcs[i] becomes the main image src after ClickNth(thumb, i).
	thumbSrcs []string
	mainSrc   string

	waited  []string
	clicked []string
}

func newFakePage() *fakePage {
	return &fakePage{
		texts:   map[string]string{},
		textAll: map[string][]string{},
		attrs:   map[string]map[string]string{},
		attrAll: map[string]map[string][]string{},
	}
}

func (f *fakePage) has(selector string) bool {
	if _, ok := f.texts[selector]; ok {
		return true
	}
	if _, ok := f.textAll[selector]; ok {
		return true
	}
	if _, ok := f.attrs[selector]; ok {
		return true
	}
	return false
}

func (f *fakePage) WaitVisible(selector string, _ time.Duration) error {
	f.waited = append(f.waited, selector)
	if !f.has(selector) {
		return fmt.Errorf("fake: no element for %q", selector)
	}
	return nil
}

func (f *fakePage) Text(selector string) (string, error) {
	t, ok := f.texts[selector]
	if !ok {
		return "", fmt.Errorf("fake: no text for %q", selector)
	}
	return t, nil
}

func (f *fakePage) TextAll(selector string) ([]string, error) {
	return f.textAll[selector], nil
}

func (f *fakePage) Attr(selector, name string) (string, error) {
	if selector == mainImageSelector && name == "src" {
		return f.mainSrc, nil
	}
	if m, ok := f.attrs[selector]; ok {
		return m[name], nil
	}
	return "", fmt.Errorf("fake: no element for %q", selector)
}

func (f *fakePage) AttrAll(selector, name string) ([]string, error) {
	if m, ok := f.attrAll[selector]; ok {
		return m[name], nil
	}
	return nil, nil
}

func (f *fakePage) Count(selector string) (int, error) {
	if selector == thumbnailSelector {
		return len(f.thumbSrcs), nil
	}
	return len(f.textAll[selector]), nil
}

func (f *fakePage) ClickNth(selector string, n int) error {
	f.clicked = append(f.clicked, fmt.Sprintf("%s#%d", selector, n))
	if selector == thumbnailSelector && n < len(f.thumbSrcs) {
		f.mainSrc = f.thumbSrcs[n]
	}
	return nil
}

func (f *fakePage) ScrollIntoView(selector string) error {
	if selector == gallerySelector && len(f.thumbSrcs) == 0 {
		return fmt.Errorf("fake: no gallery")
	}
	return nil
}

func (f *fakePage) HTML() (string, error) {
	return f.html, nil
}

func testEngine() *Engine {
	return New(Config{
		SelectorTimeout: time.Millisecond,
		TitleTimeout:    time.Millisecond,
		SettleDelay:     0,
		MaxImages:       5,
	})
}

func TestTitleChainFallbackOrder(t *testing.T) {
	page := newFakePage()
	// Only the second candidate matches.
	page.texts[`h1[itemprop="name"]`] = "Mainstays Folding Chair"

	got := testEngine().title(page)
	assert.Equal(t, "Mainstays Folding Chair", got)

	// The first candidate must have been tried before the second.
	require.GreaterOrEqual(t, len(page.waited), 2)
	assert.Equal(t, "h1.prod-ProductTitle", page.waited[0])
	assert.Equal(t, `h1[itemprop="name"]`, page.waited[1])
}

func TestTitleChainStopsAtFirstMatch(t *testing.T) {
	page := newFakePage()
	page.texts["h1.prod-ProductTitle"] = "First"
	page.texts[`h1[itemprop="name"]`] = "Second"

	got := testEngine().title(page)
	assert.Equal(t, "First", got)
	assert.Equal(t, []string{"h1.prod-ProductTitle"}, page.waited)
}

func TestTitleChainDefault(t *testing.T) {
	got := testEngine().title(newFakePage())
	assert.Equal(t, "N/A", got)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantRaw string
	}{
		{"$1,234.50", 1234.50, ""},
		{"$19.99", 19.99, ""},
		{" 1,000 ", 1000, ""},
		{"7", 7, ""},
		{"Contact for price", 0, "Contact for price"},
		{"  Contact for price  ", 0, "Contact for price"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, raw := ParsePrice(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRaw, raw)
		})
	}
}

func TestPriceUnparsableKeepsRawText(t *testing.T) {
	page := newFakePage()
	page.texts[`span[itemprop="price"]`] = "Contact for price"

	price, raw := testEngine().price(page)
	assert.Zero(t, price)
	assert.Equal(t, "Contact for price", raw)
}

func TestImagesDeduplicate(t *testing.T) {
	page := newFakePage()
	page.thumbSrcs = []string{
		"https://i.example.com/a.jpg",
		"https://i.example.com/b.jpg",
		"https://i.example.com/a.jpg", // same image twice
	}

	got := testEngine().images(context.Background(), page)
	assert.Equal(t, []string{
		"https://i.example.com/a.jpg",
		"https://i.example.com/b.jpg",
	}, got)
}

func TestImagesCappedAtMax(t *testing.T) {
	page := newFakePage()
	for i := 0; i < 8; i++ {
		page.thumbSrcs = append(page.thumbSrcs, fmt.Sprintf("https://i.example.com/%d.jpg", i))
	}

	got := testEngine().images(context.Background(), page)
	assert.Len(t, got, 5)
	assert.Len(t, page.clicked, 5)
}

func TestImagesNoGallery(t *testing.T) {
	got := testEngine().images(context.Background(), newFakePage())
	assert.Empty(t, got)
}

func TestColorsFirstGroupWinsNoMerge(t *testing.T) {
	page := newFakePage()
	page.textAll[`ul[data-tl-id*="color"] button span`] = []string{"Red", "Blue", "Red"}
	page.textAll[`[itemprop="color"]`] = []string{"Green"}

	got := testEngine().colors(page)
	assert.Equal(t, []string{"Red", "Blue"}, got)
}

func TestColorsAltTextFallback(t *testing.T) {
	page := newFakePage()
	page.attrAll[colorAltSelector] = map[string][]string{
		"alt": {"Ocean Blue color swatch", " Ocean Blue color swatch ", "Moss Green color swatch"},
	}

	got := testEngine().colors(page)
	assert.Equal(t, []string{"Ocean Blue color swatch", "Moss Green color swatch"}, got)
}

func TestColorsSentinelWhenNothingFound(t *testing.T) {
	got := testEngine().colors(newFakePage())
	assert.Equal(t, []string{"N/A"}, got)
}

func TestSizesFilterPlaceholder(t *testing.T) {
	page := newFakePage()
	page.textAll[`ul[data-tl-id*="size"] button span`] = []string{"Select", "S", "M", "select", "L"}

	got := testEngine().sizes(page)
	assert.Equal(t, []string{"S", "M", "L"}, got)
}

func TestSizesSentinelWhenOnlyPlaceholder(t *testing.T) {
	page := newFakePage()
	page.textAll[`ul[data-tl-id*="size"] button span`] = []string{"Select"}

	got := testEngine().sizes(page)
	assert.Equal(t, []string{"N/A"}, got)
}

func TestAboutBulletsTrimAndOrder(t *testing.T) {
	page := newFakePage()
	page.textAll[aboutPanelSelector] = []string{"panel"} // panel exists
	page.textAll[aboutPanelSelector+" p"] = []string{
		"  Sturdy steel frame  ",
		"",
		"Easy to clean",
		"   ",
	}

	got := testEngine().about(context.Background(), page)
	assert.Equal(t, []string{"Sturdy steel frame", "Easy to clean"}, got)
}

func TestRelatedLinksStripQueryAndDedup(t *testing.T) {
	html := `<html><body>
		<a href="https://www.example.com/ip/widget/123?tid=5">a</a>
		<a href="https://www.example.com/ip/widget/123?tid=9">b</a>
		<a href="https://www.example.com/ip/gadget/456">c</a>
		<a href="https://www.example.com/cp/category/789">not a product</a>
	</body></html>`

	got := RelatedLinks(html)
	assert.ElementsMatch(t, []string{
		"https://www.example.com/ip/widget/123",
		"https://www.example.com/ip/gadget/456",
	}, got)
}

func TestExtractFullSequence(t *testing.T) {
	page := newFakePage()
	page.texts["h1.prod-ProductTitle"] = "Folding Chair"
	page.texts[`span[itemprop="price"]`] = "$1,234.50"
	page.thumbSrcs = []string{"https://i.example.com/a.jpg"}
	page.textAll[`ul[data-tl-id*="color"] button span`] = []string{"Red"}
	page.textAll[`ul[data-tl-id*="size"] button span`] = []string{"Select", "M"}
	page.textAll[aboutPanelSelector] = []string{"panel"}
	page.textAll[aboutPanelSelector+" p"] = []string{"Lightweight"}
	page.html = `<a href="/ip/123?ref=x">rel</a>`

	target := Target{
		TaskID:     "task-1",
		ClientName: "acme",
		Category:   "furniture",
		URL:        "https://www.example.com/ip/chair/1",
	}
	p, err := testEngine().Extract(context.Background(), page, target)
	require.NoError(t, err)

	assert.Equal(t, "task-1", p.TaskID)
	assert.Equal(t, "acme", p.ClientName)
	assert.Equal(t, "furniture", p.Category)
	assert.Equal(t, target.URL, p.ProductURL)
	assert.Equal(t, "Folding Chair", p.Title)
	assert.Equal(t, 1234.50, p.Price)
	assert.Empty(t, p.RawPrice)
	assert.Equal(t, []string{"https://i.example.com/a.jpg"}, p.Images)
	assert.Equal(t, []string{"Red"}, p.Colors)
	assert.Equal(t, []string{"M"}, p.Sizes)
	assert.Equal(t, []string{"Lightweight"}, p.AboutThisItem)
	assert.Equal(t, []string{"/ip/123"}, p.RelatedLinks)
	assert.False(t, p.ScrapedAt.IsZero())
}

func TestExtractCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testEngine().Extract(ctx, newFakePage(), Target{TaskID: "t"})
	assert.ErrorIs(t, err, context.Canceled)
}
