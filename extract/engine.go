package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/harvest/models"
)

// Page is the browser capability surface the engine drives. The scraper
// package provides the live implementation; tests use a scripted fake.
type Page interface {
	// WaitVisible blocks until an element matching selector is visible,
	// or the timeout elapses.
	WaitVisible(selector string, timeout time.Duration) error

	// Text returns the trimmed text of the first element matching selector.
	Text(selector string) (string, error)

	// TextAll returns the text of every element matching selector.
	TextAll(selector string) ([]string, error)

	// Attr returns the named attribute of the first element matching selector.
	Attr(selector, name string) (string, error)

	// AttrAll returns the named attribute of every element matching selector.
	AttrAll(selector, name string) ([]string, error)

	// Count reports how many elements currently match selector.
	Count(selector string) (int, error)

	// ClickNth clicks the n-th (0-based) element matching selector.
	ClickNth(selector string, n int) error

	// ScrollIntoView scrolls the first element matching selector into view.
	ScrollIntoView(selector string) error

	// HTML returns the current rendered page source.
	HTML() (string, error)
}

// Target identifies the task a product belongs to.
type Target struct {
	TaskID     string
	ClientName string
	Category   string
	URL        string
}

// Config tunes the engine's waits.
type Config struct {
	// SelectorTimeout bounds each wait-for-selector step.
	SelectorTimeout time.Duration

	// TitleTimeout bounds the title chain. It runs first and absorbs the
	// initial render, so it gets a longer budget.
	TitleTimeout time.Duration

	// SettleDelay is the pause after scrolls and thumbnail clicks.
	SettleDelay time.Duration

	// MaxImages caps the gallery thumbnail walk.
	MaxImages int
}

// Engine extracts product fields from a loaded page by running ordered
// selector-fallback chains. A chain exhausting all its candidates is not an
// error: the field takes its documented default and extraction continues.
type Engine struct {
	cfg Config
}

// New creates an Engine, applying defaults for unset config fields.
func New(cfg Config) *Engine {
	if cfg.SelectorTimeout <= 0 {
		cfg.SelectorTimeout = 10 * time.Second
	}
	if cfg.TitleTimeout <= 0 {
		cfg.TitleTimeout = 15 * time.Second
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 5
	}
	return &Engine{cfg: cfg}
}

// Extract pulls all product fields off the page in a fixed sequence:
// title → price → images → colors → sizes → about → related links.
// The order matters: the image and about steps establish scroll positions
// that later steps rely on.
//
// The only errors returned are context cancellation; every field-level
// failure degrades to that field's default.
func (e *Engine) Extract(ctx context.Context, page Page, t Target) (*models.Product, error) {
	p := &models.Product{
		ClientName: t.ClientName,
		Category:   t.Category,
		TaskID:     t.TaskID,
		ProductURL: t.URL,
		ScrapedAt:  time.Now().UTC(),
	}

	p.Title = e.title(page)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.Price, p.RawPrice = e.price(page)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.Images = e.images(ctx, page)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.Colors = e.colors(page)
	p.Sizes = e.sizes(page)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.AboutThisItem = e.about(ctx, page)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.RelatedLinks = e.relatedLinks(page)

	slog.Debug("extraction finished",
		"task_id", t.TaskID,
		"title", p.Title,
		"images", len(p.Images),
		"related_links", len(p.RelatedLinks),
	)
	return p, nil
}

// settle pauses for the configured delay, cutting short on cancellation.
func (e *Engine) settle(ctx context.Context) {
	if e.cfg.SettleDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(e.cfg.SettleDelay):
	}
}
