package serp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/backoff"
	"github.com/sells-group/lead-engine/internal/model"
)

// consentSelectors are tried in order to dismiss the Google consent
// interstitial. The IDs cover the two button variants, the text matches
// cover regional layouts.
var consentSelectors = []string{
	`#L2AGLb`,
	`#W0wltc`,
	`//button[.//div[contains(text(),"Accept all")]]`,
	`//button[contains(text(),"Accept all")]`,
	`//button[contains(text(),"I agree")]`,
	`//button[contains(text(),"Accept")]`,
}

// BrowserBackend fetches Google result pages through a headless browser.
// Google serves challenge interstitials to plain HTTP clients almost
// immediately; a real browser engine with realistic pacing lasts far
// longer.
type BrowserBackend struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	policy      backoff.Policy
	pageTimeout time.Duration
	paceMin     time.Duration
	paceMax     time.Duration
	consented   bool
}

// BrowserOption configures a BrowserBackend.
type BrowserOption func(*BrowserBackend)

// WithBrowserChallengePolicy overrides the challenge retry schedule.
func WithBrowserChallengePolicy(p backoff.Policy) BrowserOption {
	return func(b *BrowserBackend) { b.policy = p }
}

// WithPacing overrides the inter-fetch delay bounds.
func WithPacing(min, max time.Duration) BrowserOption {
	return func(b *BrowserBackend) { b.paceMin, b.paceMax = min, max }
}

// NewBrowserBackend launches the headless browser allocator. Close must be
// called to release the browser.
func NewBrowserBackend(headless bool, opts ...BrowserOption) *BrowserBackend {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1366, 768),
		chromedp.UserAgent(userAgents[0]),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	b := &BrowserBackend{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		policy:      backoff.Challenge(),
		pageTimeout: 40 * time.Second,
		paceMin:     2 * time.Second,
		paceMax:     6 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BrowserBackend) Name() model.BackendID { return model.BackendGoogle }

// FetchPage fetches one result page. Page indexes are zero-based; Google
// paginates with the start offset.
func (b *BrowserBackend) FetchPage(ctx context.Context, query model.SearchQuery, page int) (*Page, bool, error) {
	if err := pace(ctx, b.paceMin, b.paceMax); err != nil {
		return nil, false, err
	}

	target := fmt.Sprintf("https://www.google.com/search?q=%s&start=%d&hl=en",
		url.QueryEscape(query.Text), page*10)

	policy := b.policy
	if policy.ShouldRetry == nil {
		policy.ShouldRetry = browserRetryable
	}

	var html string
	err := backoff.Do(ctx, policy, "google fetch", func(ctx context.Context) error {
		body, err := b.render(ctx, target)
		if err != nil {
			return err
		}
		if DetectChallenge(body) {
			zap.L().Warn("google served a challenge page", zap.Int("page", page))
			return ErrChallenged
		}
		html = body
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrChallenged) {
			return nil, false, ErrChallenged
		}
		return nil, false, eris.Wrap(err, "serp: google fetch")
	}

	hasNext := strings.Contains(html, `id="pnnext"`)
	return &Page{Backend: model.BackendGoogle, Query: query, Index: page, HTML: html}, hasNext, nil
}

// render navigates a fresh tab to target and returns the settled DOM.
func (b *BrowserBackend) render(ctx context.Context, target string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.allocCtx)
	defer cancelTab()
	runCtx, cancelRun := context.WithTimeout(tabCtx, b.pageTimeout)
	defer cancelRun()

	// Propagate job cancellation into the browser run.
	go func() {
		select {
		case <-ctx.Done():
			cancelRun()
		case <-runCtx.Done():
		}
	}()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body"),
		b.acceptConsent(),
		chromedp.Sleep(1500*time.Millisecond),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// Tab crashes and navigation timeouts are worth a bounded retry;
		// a fresh tab usually recovers.
		return "", backoff.MarkTransient(eris.Wrap(err, "rendering page"))
	}
	return html, nil
}

// browserRetryable is the default retry filter: challenges follow the slow
// challenge schedule, render failures are transient.
func browserRetryable(err error) bool {
	return errors.Is(err, ErrChallenged) || backoff.IsTransient(err)
}

// acceptConsent clicks through the consent interstitial once per browser
// session. Every selector is best effort: most sessions never see the
// dialog.
func (b *BrowserBackend) acceptConsent() chromedp.ActionFunc {
	return func(ctx context.Context) error {
		if b.consented {
			return nil
		}
		for _, sel := range consentSelectors {
			clickCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			var err error
			if strings.HasPrefix(sel, "//") {
				err = chromedp.Run(clickCtx, chromedp.Click(sel, chromedp.BySearch))
			} else {
				err = chromedp.Run(clickCtx, chromedp.Click(sel, chromedp.ByQuery))
			}
			cancel()
			if err == nil {
				zap.L().Debug("dismissed consent dialog", zap.String("selector", sel))
				b.consented = true
				return nil
			}
		}
		b.consented = true
		return nil
	}
}

// Close tears down the browser allocator.
func (b *BrowserBackend) Close() {
	b.allocCancel()
}
