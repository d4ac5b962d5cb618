// Package enrich visits lead candidate pages to fill in contact fields the
// search snippet did not surface. A bounded worker pool walks a short list
// of likely contact paths per lead and stops early once the lead is
// saturated.
package enrich

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/pattern"
)

// maxBodyBytes caps page reads. Contact data lives near the top of a page.
const maxBodyBytes = 512 << 10

// defaultPaths are the site paths tried per lead, in order. The empty path
// is the page the lead already pointed at.
var defaultPaths = []string{"", "/contact", "/contact-us", "/about", "/about-us"}

// Config tunes a Pool. Zero values take defaults.
type Config struct {
	// Workers bounds concurrent leads in flight. Default 10.
	Workers int
	// PerRequestTimeout bounds each page fetch. Default 5s.
	PerRequestTimeout time.Duration
	// Paths overrides the per-lead path list.
	Paths []string
	// Stopped is polled between tasks and between paths; when it returns
	// true the pool drains and Run returns.
	Stopped func() bool
}

// Pool enriches leads with bounded concurrency.
type Pool struct {
	workers int
	timeout time.Duration
	paths   []string
	stopped func() bool
	client  *http.Client
}

// NewPool builds a Pool from cfg.
func NewPool(cfg Config) *Pool {
	p := &Pool{
		workers: cfg.Workers,
		timeout: cfg.PerRequestTimeout,
		paths:   cfg.Paths,
		stopped: cfg.Stopped,
	}
	if p.workers <= 0 {
		p.workers = 10
	}
	if p.timeout <= 0 {
		p.timeout = 5 * time.Second
	}
	if len(p.paths) == 0 {
		p.paths = defaultPaths
	}
	if p.stopped == nil {
		p.stopped = func() bool { return false }
	}
	p.client = &http.Client{
		Timeout: p.timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   p.timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: p.timeout,
			MaxIdleConnsPerHost: 2,
		},
	}
	return p
}

// Run enriches every lead in place. onDone is invoked once per lead as its
// task finishes, including leads skipped for lack of a candidate URL.
// Individual failures are logged and swallowed; Run only returns an error
// when the context ends.
func (p *Pool) Run(ctx context.Context, leads []*model.Lead, onDone func(*model.Lead)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, lead := range leads {
		if p.stopped() || gctx.Err() != nil {
			break
		}
		lead := lead
		if !lead.CandidateURL().Set() {
			if onDone != nil {
				onDone(lead)
			}
			continue
		}
		g.Go(func() error {
			p.enrichLead(gctx, lead)
			if onDone != nil {
				onDone(lead)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// enrichLead walks the path list for one lead, merging whatever each page
// yields. Saturated leads exit early.
func (p *Pool) enrichLead(ctx context.Context, lead *model.Lead) {
	base := strings.TrimRight(lead.CandidateURL().Value(), "/")
	for _, path := range p.paths {
		if p.stopped() || ctx.Err() != nil {
			return
		}
		if saturated(lead) {
			return
		}
		html, err := p.fetch(ctx, base+path)
		if err != nil {
			zap.L().Debug("enrichment fetch failed",
				zap.String("identity", lead.Identity),
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		mergePage(lead, html)
	}
}

// saturated reports whether further fetching can add nothing: the lead has
// an email and a profile on every tracked platform.
func saturated(lead *model.Lead) bool {
	if !lead.Email.Set() {
		return false
	}
	for platform := range pattern.SocialPatterns {
		if !lead.Social(platform).Set() {
			return false
		}
	}
	return true
}

func (p *Pool) fetch(ctx context.Context, target string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return "", eris.Wrap(err, "enrich: building request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "enrich: fetch")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", eris.Errorf("enrich: status %d for %s", resp.StatusCode, target)
	}
	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "text") {
		return "", eris.Errorf("enrich: non-html content type %q", ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", eris.Wrap(err, "enrich: reading body")
	}
	return string(data), nil
}
