// Package serp fetches and parses search engine result pages. Backends hide
// the transport (plain HTTP vs headless browser); the parser recovers
// results through an ordered chain of fallback strategies.
package serp

import (
	"context"
	"math/rand"
	"time"

	"github.com/sells-group/lead-engine/internal/model"
)

// Page is one fetched result page, raw HTML included.
type Page struct {
	Backend model.BackendID
	Query   model.SearchQuery
	Index   int
	HTML    string
}

// Backend fetches result pages for queries. FetchPage returns the page, a
// flag telling whether the engine advertises a next page, and an error.
// ErrChallenged means the backend was blocked even after challenge retries;
// callers should abandon the query, not the job.
type Backend interface {
	Name() model.BackendID
	FetchPage(ctx context.Context, query model.SearchQuery, page int) (*Page, bool, error)
	Close()
}

// userAgents is rotated across requests so repeated fetches do not present
// an identical fingerprint.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

func randomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// pace sleeps a bounded random duration between min and max, returning
// early if the context ends. Engines tolerate slow clients and ban fast
// ones.
func pace(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
