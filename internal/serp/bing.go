package serp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-engine/internal/backoff"
	"github.com/sells-group/lead-engine/internal/model"
)

// maxPageBytes caps how much of a result page is read. Real SERPs fit
// comfortably; anything larger is padding or an attack.
const maxPageBytes = 2 << 20

// HTTPBackend fetches Bing result pages over plain HTTP. Bing tolerates
// cookie-preset consent and serves full result markup without JavaScript,
// which keeps this backend cheap relative to the browser one.
type HTTPBackend struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	policy  backoff.Policy
}

// HTTPOption configures an HTTPBackend.
type HTTPOption func(*HTTPBackend)

// WithBaseURL points the backend at an alternate host. Used in tests.
func WithBaseURL(u string) HTTPOption {
	return func(b *HTTPBackend) { b.baseURL = u }
}

// WithChallengePolicy overrides the challenge retry schedule.
func WithChallengePolicy(p backoff.Policy) HTTPOption {
	return func(b *HTTPBackend) { b.policy = p }
}

// WithRateLimit overrides the request pacing limiter.
func WithRateLimit(l *rate.Limiter) HTTPOption {
	return func(b *HTTPBackend) { b.limiter = l }
}

// NewHTTPBackend builds the Bing backend.
func NewHTTPBackend(opts ...HTTPOption) *HTTPBackend {
	b := &HTTPBackend{
		client: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
				MaxIdleConnsPerHost:   2,
			},
		},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		baseURL: "https://www.bing.com",
		policy:  backoff.Challenge(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *HTTPBackend) Name() model.BackendID { return model.BackendBing }

// FetchPage fetches one result page. Page indexes are zero-based; Bing
// paginates with the 1-based offset of the first result.
func (b *HTTPBackend) FetchPage(ctx context.Context, query model.SearchQuery, page int) (*Page, bool, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	target := fmt.Sprintf("%s/search?q=%s&first=%d&count=10",
		b.baseURL, url.QueryEscape(query.Text), page*10+1)

	policy := b.policy
	if policy.ShouldRetry == nil {
		policy.ShouldRetry = func(err error) bool {
			return errors.Is(err, ErrChallenged) || backoff.IsTransient(err)
		}
	}

	var html string
	err := backoff.Do(ctx, policy, "bing fetch", func(ctx context.Context) error {
		body, err := b.get(ctx, target)
		if err != nil {
			return err
		}
		if DetectChallenge(body) {
			zap.L().Warn("bing served a challenge page", zap.Int("page", page))
			return ErrChallenged
		}
		html = body
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrChallenged) {
			return nil, false, ErrChallenged
		}
		return nil, false, eris.Wrap(err, "serp: bing fetch")
	}

	hasNext := strings.Contains(html, "sb_pagN")
	return &Page{Backend: model.BackendBing, Query: query, Index: page, HTML: html}, hasNext, nil
}

func (b *HTTPBackend) get(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", eris.Wrap(err, "building request")
	}
	req.Header.Set("User-Agent", randomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	// Pre-set consent so Bing skips the cookie banner entirely.
	req.Header.Set("Cookie", "SRCHHPGUSR=SRCHLANG=en; BCP=AD=1&AL=1&SM=1")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", backoff.MarkTransient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		return "", ErrChallenged
	}
	if resp.StatusCode >= 500 {
		return "", backoff.MarkTransient(eris.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return "", eris.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", backoff.MarkTransient(eris.Wrap(err, "reading body"))
	}
	return string(data), nil
}

// Close releases idle connections.
func (b *HTTPBackend) Close() {
	b.client.CloseIdleConnections()
}
