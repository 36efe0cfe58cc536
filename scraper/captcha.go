package scraper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/harvest/models"
)

// challengeMarker identifies an anti-bot interstitial in the page source.
const challengeMarker = "captcha"

// HasChallenge reports whether the page source shows a CAPTCHA/anti-bot
// challenge instead of product content.
func HasChallenge(html string) bool {
	return strings.Contains(strings.ToLower(html), challengeMarker)
}

// pageSource is the only capability the CAPTCHA gate needs from a session.
type pageSource interface {
	HTML() (string, error)
}

// awaitChallenge is the CAPTCHA gate. A detected challenge needs a human
// to resolve it in the (non-headless) browser, so the session polls the
// page until the challenge clears. The wait is bounded by timeout and the
// task context so a stuck challenge cannot starve the worker pool.
func awaitChallenge(ctx context.Context, src pageSource, target string, timeout, poll time.Duration) error {
	html, err := src.HTML()
	if err != nil {
		return categorizeError(err, "failed to read page source")
	}
	if !HasChallenge(html) {
		return nil
	}

	if timeout <= 0 {
		return models.NewScrapeError(
			models.ErrCodeCaptchaBlocked,
			"captcha challenge detected and waiting is disabled",
			nil,
		)
	}

	slog.Warn("captcha challenge detected, waiting for external resolution",
		"url", target,
		"timeout", timeout,
	)

	if poll <= 0 {
		poll = 5 * time.Second
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return models.NewScrapeError(
				models.ErrCodeCaptchaBlocked,
				"captcha challenge unresolved at task cancellation",
				ctx.Err(),
			)
		case <-deadline.C:
			return models.NewScrapeError(
				models.ErrCodeCaptchaBlocked,
				"captcha challenge not resolved within timeout",
				nil,
			)
		case <-ticker.C:
			html, err := src.HTML()
			if err != nil {
				continue
			}
			if !HasChallenge(html) {
				slog.Info("captcha challenge resolved, resuming extraction", "url", target)
				return nil
			}
		}
	}
}
