// Package job orchestrates one discovery job: plan queries, fetch and parse
// result pages, extract and deduplicate leads, enrich them, and drive the
// job state machine. A job terminates exactly once, in completed, failed or
// stopped, and its partial results survive every exit path.
package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/dedupe"
	"github.com/sells-group/lead-engine/internal/enrich"
	"github.com/sells-group/lead-engine/internal/extract"
	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/queryplan"
	"github.com/sells-group/lead-engine/internal/serp"
)

// Progress phase boundaries. Search (fetch + inline parse) owns the first
// 60 points, result consolidation the next 15, enrichment 20 and the final
// transition the last 5.
const (
	pctPlanned     = 2
	pctSearchEnd   = 60
	pctParseEnd    = 75
	pctEnrichEnd   = 95
	pctDone        = 100
	defaultMaxPage = 3
)

// ProgressFunc receives progress updates. pct is -1 for message-only
// updates. Calls are serialized: the next update is not computed until the
// previous call returns. The sink must not call Stop synchronously.
type ProgressFunc func(message string, pct int)

// Config assembles a Controller.
type Config struct {
	// ID names the job; empty generates a UUID.
	ID      string
	Request model.Request
	// Backends lists the enabled search backends. Required.
	Backends []serp.Backend
	// MaxPages bounds pagination per query when the request does not.
	MaxPages int
	// Enrich tunes the enrichment pool. The Stopped hook is overwritten.
	Enrich enrich.Config
	// OnProgress, when set, observes every progress update.
	OnProgress ProgressFunc
}

// Controller runs one job.
type Controller struct {
	id        string
	req       model.Request
	backends  map[model.BackendID]serp.Backend
	planner   *queryplan.Planner
	parser    *serp.Parser
	extractor extract.Extractor
	relevance *extract.RelevanceFilter
	dedup     *dedupe.Deduplicator
	maxPages  int
	enrichCfg enrich.Config
	sink      ProgressFunc

	stopFlag atomic.Bool

	// sinkMu serializes progress updates end to end: the pct computation
	// under mu and the sink call happen under one critical section, so
	// concurrent enrichment callbacks cannot interleave deliveries.
	sinkMu sync.Mutex

	mu        sync.Mutex
	state     model.JobState
	enriching bool
}

// New builds a Controller for one request. The controller owns the
// backends from here on and closes them when Run returns.
func New(cfg Config) (*Controller, error) {
	if err := cfg.Request.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Backends) == 0 {
		return nil, eris.New("job: at least one backend required")
	}

	ids := make([]model.BackendID, 0, len(cfg.Backends))
	byID := make(map[model.BackendID]serp.Backend, len(cfg.Backends))
	for _, b := range cfg.Backends {
		ids = append(ids, b.Name())
		byID[b.Name()] = b
	}

	planner, err := queryplan.New(cfg.Request.Mode, ids)
	if err != nil {
		return nil, err
	}

	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	maxPages := cfg.MaxPages
	if cfg.Request.MaxPages > 0 {
		maxPages = cfg.Request.MaxPages
	}
	if maxPages <= 0 {
		maxPages = defaultMaxPage
	}

	// Open-web sweeps have no host filter, so keyword relevance is the
	// only thing standing between the extractor and listicle noise.
	var relevance *extract.RelevanceFilter
	if cfg.Request.Mode == model.ModeOpenWebSearch {
		relevance = extract.NewRelevanceFilter(cfg.Request.Keyword)
	}

	return &Controller{
		id:        id,
		req:       cfg.Request,
		backends:  byID,
		planner:   planner,
		parser:    serp.NewParser(cfg.Request.Mode),
		extractor: extract.ForMode(cfg.Request.Mode),
		relevance: relevance,
		dedup:     dedupe.New(),
		maxPages:  maxPages,
		enrichCfg: cfg.Enrich,
		sink:      cfg.OnProgress,
		state: model.JobState{
			ID:        id,
			Request:   cfg.Request,
			Status:    model.StatusRunning,
			Leads:     []model.Lead{},
			StartedAt: time.Now().UTC(),
		},
	}, nil
}

// ID returns the job id.
func (c *Controller) ID() string { return c.id }

// Stop requests a cooperative stop. The job finishes its in-flight unit of
// work, keeps every lead collected so far, and transitions to stopped.
func (c *Controller) Stop() {
	if c.stopFlag.CompareAndSwap(false, true) {
		zap.L().Info("stop requested", zap.String("job", c.id))
		c.report("stop requested, finishing current work", -1)
	}
}

func (c *Controller) stopping(ctx context.Context) bool {
	return c.stopFlag.Load() || ctx.Err() != nil
}

// State returns a snapshot of the job.
func (c *Controller) State() model.JobState {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.state
	snap.Leads = c.leadValuesLocked()
	return snap
}

// PartialLeads returns the leads collected so far, valid at any point in
// the job's life.
func (c *Controller) PartialLeads() []model.Lead {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leadValuesLocked()
}

// leadValuesLocked materializes the current lead list as values. During
// enrichment and after termination the frozen c.state.Leads snapshot is
// authoritative; workers mutate the live pointers, so readers must never
// touch those mid-pass.
func (c *Controller) leadValuesLocked() []model.Lead {
	if c.enriching || c.state.Status.Terminal() {
		out := make([]model.Lead, len(c.state.Leads))
		copy(out, c.state.Leads)
		return out
	}
	ptrs := c.dedup.Leads()
	out := make([]model.Lead, 0, len(ptrs))
	for _, p := range ptrs {
		out = append(out, *p)
	}
	return out
}

// Run executes the job to a terminal state. It never returns an error: all
// failures land in the job state.
func (c *Controller) Run(ctx context.Context) {
	defer func() {
		for _, b := range c.backends {
			b.Close()
		}
		if r := recover(); r != nil {
			zap.L().Error("job panicked", zap.String("job", c.id), zap.Any("panic", r))
			c.finish(model.StatusFailed, "internal error during search", fmt.Sprintf("%v", r))
		}
	}()

	zap.L().Info("job started",
		zap.String("job", c.id),
		zap.String("mode", string(c.req.Mode)),
		zap.String("keyword", c.req.Keyword),
		zap.String("location", c.req.Location))

	c.report("planning queries", pctPlanned)
	queries := c.planner.Plan(c.req.Keyword, c.req.Location)
	c.updateStats(func(s *model.EngineStats) {
		s.QueriesTotal = len(queries)
		s.Phase = "search"
	})

	if stopped := c.search(ctx, queries); stopped {
		c.finish(model.StatusStopped, "stopped during search", "")
		return
	}

	leads := c.dedup.Leads()
	if len(leads) == 0 {
		c.report("search finished", pctParseEnd)
		c.finish(model.StatusCompleted, "no results found for this search", "")
		return
	}
	c.report(fmt.Sprintf("collected %d unique leads, enriching", len(leads)), pctParseEnd)

	if stopped := c.enrichLeads(ctx, leads); stopped {
		c.finish(model.StatusStopped, "stopped during enrichment", "")
		return
	}

	c.finish(model.StatusCompleted, fmt.Sprintf("found %d leads", len(leads)), "")
}

// search runs every planned query, parsing and admitting leads inline. It
// returns true when a stop or cancellation interrupted the sweep.
func (c *Controller) search(ctx context.Context, queries []model.SearchQuery) (stopped bool) {
	for i, q := range queries {
		if c.stopping(ctx) {
			return true
		}
		backend, ok := c.backends[q.Backend]
		if !ok {
			continue
		}
		if interrupted := c.runQuery(ctx, backend, q); interrupted {
			return true
		}
		c.updateStats(func(s *model.EngineStats) { s.QueriesDone = i + 1 })
		pct := pctPlanned + (pctSearchEnd-pctPlanned)*(i+1)/len(queries)
		c.report(fmt.Sprintf("searched %d/%d queries, %d leads so far",
			i+1, len(queries), c.dedup.Len()), pct)
	}
	return false
}

// runQuery paginates one query on one backend. A challenged or otherwise
// failing query is abandoned without affecting the rest of the sweep.
func (c *Controller) runQuery(ctx context.Context, backend serp.Backend, q model.SearchQuery) (interrupted bool) {
	for page := 0; page < c.maxPages; page++ {
		if c.stopping(ctx) {
			return true
		}
		pg, hasNext, err := backend.FetchPage(ctx, q, page)
		if err != nil {
			if ctx.Err() != nil {
				return true
			}
			if errors.Is(err, serp.ErrChallenged) {
				zap.L().Warn("query abandoned after challenge",
					zap.String("job", c.id),
					zap.String("backend", string(backend.Name())),
					zap.String("query", q.Text))
			} else {
				zap.L().Warn("query fetch failed",
					zap.String("job", c.id),
					zap.String("backend", string(backend.Name())),
					zap.Int("page", page),
					zap.Error(err))
			}
			return false
		}

		results := c.parser.Parse(pg)
		c.updateStats(func(s *model.EngineStats) {
			s.PagesFetched++
			s.ResultsParsed += len(results)
			if s.ResultsByBackend == nil {
				s.ResultsByBackend = map[string]int{}
			}
			s.ResultsByBackend[string(backend.Name())] += len(results)
		})

		for _, raw := range results {
			if c.relevance != nil && !c.relevance.Relevant(raw.Title, raw.Snippet, raw.URL) {
				continue
			}
			lead, ok := c.extractor.Extract(raw)
			if !ok {
				continue
			}
			c.updateStats(func(s *model.EngineStats) { s.LeadsExtracted++ })
			if !c.dedup.Admit(lead) {
				c.updateStats(func(s *model.EngineStats) { s.DuplicatesSeen++ })
			}
		}

		if !hasNext {
			return false
		}
	}
	return false
}

// enrichLeads runs the enrichment pool over the admitted leads. It returns
// true when a stop or cancellation interrupted the pass.
func (c *Controller) enrichLeads(ctx context.Context, leads []*model.Lead) (stopped bool) {
	// Freeze a value snapshot for readers: each worker owns its lead
	// pointer until its onDone fires, so readers only ever see copies
	// taken after the writes finished.
	index := make(map[string]int, len(leads))
	snapshot := make([]model.Lead, 0, len(leads))
	for i, l := range leads {
		index[l.Identity] = i
		snapshot = append(snapshot, *l)
	}
	c.mu.Lock()
	c.state.Leads = snapshot
	c.enriching = true
	c.state.Stats.EnrichTotal = len(leads)
	c.state.Stats.Phase = "enrich"
	c.mu.Unlock()

	cfg := c.enrichCfg
	cfg.Stopped = func() bool { return c.stopping(ctx) }
	pool := enrich.NewPool(cfg)

	var done atomic.Int32
	err := pool.Run(ctx, leads, func(lead *model.Lead) {
		n := int(done.Add(1))
		c.mu.Lock()
		if i, ok := index[lead.Identity]; ok {
			c.state.Leads[i] = *lead
		}
		c.state.Stats.EnrichDone = n
		c.mu.Unlock()
		pct := pctParseEnd + (pctEnrichEnd-pctParseEnd)*n/len(leads)
		c.report(fmt.Sprintf("enriched %d/%d leads", n, len(leads)), pct)
	})
	if err != nil && ctx.Err() == nil {
		zap.L().Warn("enrichment ended early", zap.String("job", c.id), zap.Error(err))
	}
	return c.stopping(ctx)
}

// finish transitions the job to a terminal state. The first transition
// wins; later calls are ignored.
func (c *Controller) finish(status model.JobStatus, message, errMsg string) {
	c.sinkMu.Lock()
	defer c.sinkMu.Unlock()

	c.mu.Lock()
	if c.state.Status.Terminal() {
		c.mu.Unlock()
		return
	}
	// Freeze the lead list before flipping status so the terminal
	// snapshot path reads a populated slice.
	ptrs := c.dedup.Leads()
	leads := make([]model.Lead, 0, len(ptrs))
	for _, p := range ptrs {
		leads = append(leads, *p)
	}
	c.state.Leads = leads
	c.state.Status = status
	c.state.Message = message
	c.state.Error = errMsg
	c.state.Progress = pctDone
	c.state.Stats.Phase = string(status)
	sink := c.sink
	c.mu.Unlock()

	zap.L().Info("job finished",
		zap.String("job", c.id),
		zap.String("status", string(status)),
		zap.Int("leads", len(leads)),
		zap.String("message", message))
	if sink != nil {
		sink(message, pctDone)
	}
}

// report updates the job message and progress. pct -1 leaves progress
// untouched; otherwise progress is clamped to be non-decreasing.
func (c *Controller) report(message string, pct int) {
	c.sinkMu.Lock()
	defer c.sinkMu.Unlock()

	c.mu.Lock()
	if c.state.Status.Terminal() {
		c.mu.Unlock()
		return
	}
	c.state.Message = message
	if pct >= 0 {
		if pct > pctDone {
			pct = pctDone
		}
		if pct > c.state.Progress {
			c.state.Progress = pct
		}
		pct = c.state.Progress
	}
	sink := c.sink
	c.mu.Unlock()

	if sink != nil {
		sink(message, pct)
	}
}

func (c *Controller) updateStats(fn func(*model.EngineStats)) {
	c.mu.Lock()
	fn(&c.state.Stats)
	c.mu.Unlock()
}
