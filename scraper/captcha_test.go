package scraper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/harvest/models"
)

const (
	challengePage = `<div class="re-Captcha">Verify you are human</div>`
	productPage   = `<h1 class="prod-ProductTitle">Blue Shirt</h1>`
)

// scriptedSource serves page snapshots in order; the last one repeats.
type scriptedSource struct {
	mu    sync.Mutex
	pages []string
}

func (s *scriptedSource) HTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pages) > 1 {
		p := s.pages[0]
		s.pages = s.pages[1:]
		return p, nil
	}
	return s.pages[0], nil
}

func TestHasChallenge(t *testing.T) {
	assert.True(t, HasChallenge(`<div class="re-Captcha">Verify you are human</div>`))
	assert.True(t, HasChallenge(`<iframe src="https://challenge.example/CAPTCHA/frame"></iframe>`))
	assert.False(t, HasChallenge(`<h1 class="prod-ProductTitle">Blue Shirt</h1>`))
	assert.False(t, HasChallenge(""))
}

func TestAwaitChallengeClearPage(t *testing.T) {
	src := &scriptedSource{pages: []string{productPage}}

	err := awaitChallenge(context.Background(), src, "https://shop.example/ip/1", time.Minute, time.Minute)
	assert.NoError(t, err)
}

func TestAwaitChallengeResolvedBeforeTimeout(t *testing.T) {
	// Two polls still blocked, then the human clears it.
	src := &scriptedSource{pages: []string{challengePage, challengePage, challengePage, productPage}}

	err := awaitChallenge(context.Background(), src, "https://shop.example/ip/1",
		time.Second, time.Millisecond)
	assert.NoError(t, err)
}

func TestAwaitChallengeTimeoutFails(t *testing.T) {
	src := &scriptedSource{pages: []string{challengePage}}

	err := awaitChallenge(context.Background(), src, "https://shop.example/ip/1",
		20*time.Millisecond, 5*time.Millisecond)

	var scrapeErr *models.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, models.ErrCodeCaptchaBlocked, scrapeErr.Code)
}

func TestAwaitChallengeCancelledContext(t *testing.T) {
	src := &scriptedSource{pages: []string{challengePage}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := awaitChallenge(ctx, src, "https://shop.example/ip/1", time.Minute, time.Minute)

	var scrapeErr *models.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, models.ErrCodeCaptchaBlocked, scrapeErr.Code)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAwaitChallengeWaitDisabled(t *testing.T) {
	src := &scriptedSource{pages: []string{challengePage}}

	err := awaitChallenge(context.Background(), src, "https://shop.example/ip/1", 0, time.Second)

	var scrapeErr *models.ScrapeError
	require.ErrorAs(t, err, &scrapeErr)
	assert.Equal(t, models.ErrCodeCaptchaBlocked, scrapeErr.Code)
}

func TestCategorizeError(t *testing.T) {
	deadline := categorizeError(context.DeadlineExceeded, "navigation to product page failed")
	assert.Equal(t, models.ErrCodeTimeout, deadline.Code)

	cancelled := categorizeError(context.Canceled, "navigation to product page failed")
	assert.Equal(t, models.ErrCodeTimeout, cancelled.Code)

	wrapped := categorizeError(errors.New("net::ERR_NAME_NOT_RESOLVED"), "navigation to product page failed")
	require.Equal(t, models.ErrCodeNavigation, wrapped.Code)
	assert.Contains(t, wrapped.Error(), "NAVIGATION_FAILED")
}
