package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/harvest/models"
)

// elementTimeout bounds single element lookups that are not part of an
// explicit wait (Text, Attr, ScrollIntoView). Fallback chains do their own
// waiting first, so these lookups should hit or miss fast.
const elementTimeout = 2 * time.Second

// Session is one task's exclusive view of a browser page. It implements
// the extraction engine's page capability interface and must be released
// with Close on every exit path.
//
// Lifecycle of Open (order matters):
//
//  1. Acquire page from the pool
//  2. Stealth injection (before navigation, or it never takes effect)
//  3. Referer header + hijack mount (before navigation, same reason)
//  4. Navigate with the request context bound
//  5. Wait for the DOM to stabilise, then settle
//  6. CAPTCHA gate: bounded wait for external resolution
func (b *Browser) Open(ctx context.Context, target string) (*Session, error) {
	b.activePages.Add(1)

	page, acquireErr := b.pagePool.Get(func() (*rod.Page, error) {
		return b.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		b.activePages.Add(-1)
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	s := &Session{
		browser: b,
		raw:     page,
		page:    page.Context(ctx),
	}

	if b.browserCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// A plausible Referer cuts down on challenge pages.
	if u, parseErr := url.Parse(target); parseErr == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{
				"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
			},
		}.Call(page)
	}

	s.router = setupHijack(page, b.scrapeCfg.BlockedResourceTypes)

	if navErr := s.page.Navigate(target); navErr != nil {
		s.Close()
		return nil, categorizeError(navErr, "navigation to product page failed")
	}

	if stableErr := s.page.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr,
		)
	}
	s.settle(ctx, b.scrapeCfg.SettleDelay)

	if err := awaitChallenge(ctx, s, target, b.scrapeCfg.CaptchaTimeout, b.scrapeCfg.CaptchaPoll); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// Session wraps a pooled rod page. raw keeps the page reference without the
// request context so cleanup still works after the context expires.
type Session struct {
	browser *Browser
	raw     *rod.Page
	page    *rod.Page
	router  *rod.HijackRouter
	closed  bool
}

// Close releases the page back to the pool. Safe to call more than once;
// every Open exit path must reach it before the terminal status write.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	if s.router != nil {
		_ = s.router.Stop()
	}
	// about:blank drops the loaded DOM so pooled pages don't hoard memory.
	if navErr := s.raw.Navigate("about:blank"); navErr != nil {
		slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
	}
	s.browser.pagePool.Put(s.raw)
	s.browser.activePages.Add(-1)
}

func (s *Session) WaitVisible(selector string, timeout time.Duration) error {
	el, err := s.page.Timeout(timeout).Element(selector)
	if err != nil {
		return err
	}
	return el.WaitVisible()
}

func (s *Session) Text(selector string) (string, error) {
	el, err := s.page.Timeout(elementTimeout).Element(selector)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (s *Session) TextAll(selector string) ([]string, error) {
	els, err := s.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(els))
	for _, el := range els {
		t, textErr := el.Text()
		if textErr != nil {
			continue
		}
		texts = append(texts, t)
	}
	return texts, nil
}

func (s *Session) Attr(selector, name string) (string, error) {
	el, err := s.page.Timeout(elementTimeout).Element(selector)
	if err != nil {
		return "", err
	}
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

func (s *Session) AttrAll(selector, name string) ([]string, error) {
	els, err := s.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(els))
	for _, el := range els {
		v, attrErr := el.Attribute(name)
		if attrErr != nil || v == nil {
			continue
		}
		values = append(values, *v)
	}
	return values, nil
}

func (s *Session) Count(selector string) (int, error) {
	els, err := s.page.Elements(selector)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

func (s *Session) ClickNth(selector string, n int) error {
	els, err := s.page.Elements(selector)
	if err != nil {
		return err
	}
	if n < 0 || n >= len(els) {
		return fmt.Errorf("scraper: element %q index %d out of range (%d found)", selector, n, len(els))
	}
	el := els[n]
	_ = el.ScrollIntoView()
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *Session) ScrollIntoView(selector string) error {
	el, err := s.page.Timeout(elementTimeout).Element(selector)
	if err != nil {
		return err
	}
	return el.ScrollIntoView()
}

func (s *Session) HTML() (string, error) {
	return s.page.HTML()
}

func (s *Session) settle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// categorizeError wraps raw errors into typed ScrapeErrors so the task
// boundary can record a meaningful failure cause.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "task canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
