// Package dedupe keeps the per-job set of admitted leads. Admission is
// first write wins on identity; later duplicates are dropped regardless of
// how complete they are, because the enrichment pass fills gaps anyway.
package dedupe

import (
	"sync"

	"github.com/sells-group/lead-engine/internal/model"
)

// Deduplicator is safe for concurrent use.
type Deduplicator struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	leads []*model.Lead
}

// New returns an empty Deduplicator.
func New() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Admit adds the lead if its identity is unseen. Leads with an empty
// identity are always rejected.
func (d *Deduplicator) Admit(lead *model.Lead) bool {
	if lead == nil || lead.Identity == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.seen[lead.Identity]; dup {
		return false
	}
	d.seen[lead.Identity] = struct{}{}
	d.leads = append(d.leads, lead)
	return true
}

// Len returns the number of admitted leads.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.leads)
}

// Leads returns a snapshot of the admitted leads in admission order. The
// slice is a copy; the pointed-to leads are shared.
func (d *Deduplicator) Leads() []*model.Lead {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*model.Lead, len(d.leads))
	copy(out, d.leads)
	return out
}
