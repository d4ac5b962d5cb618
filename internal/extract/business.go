package extract

import (
	"net/url"
	"strings"

	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/pattern"
)

// businessExtractor builds leads from open-web results. Identity is the
// site's registrable domain so every page of one business collapses into
// one lead.
type businessExtractor struct{}

func (e *businessExtractor) Extract(raw model.RawResult) (*model.Lead, bool) {
	u, err := url.Parse(raw.URL)
	if err != nil || u.Host == "" {
		return nil, false
	}
	host := strings.ToLower(u.Host)
	if pattern.SkippableDomain(host) {
		return nil, false
	}
	domain := strings.TrimPrefix(host, "www.")
	if !strings.Contains(domain, ".") {
		return nil, false
	}

	lead := &model.Lead{Identity: domain}
	lead.Website = model.NewField(u.Scheme + "://" + host)
	lead.Source = model.NewField(domain)

	if name := nameFromTitle(raw.Title); name != "" {
		lead.DisplayName = model.NewField(name)
		lead.Company = model.NewField(name)
	}
	// Snippet fast path: many SERP snippets already surface the contact
	// line, which saves an enrichment fetch entirely.
	if email, ok := firstEmail(raw.Snippet, raw.Title); ok {
		lead.Email = model.NewField(email)
	}
	if phone, ok := firstPhone(raw.Snippet); ok {
		lead.Phone = model.NewField(phone)
	}
	if raw.Snippet != "" {
		lead.Bio = model.NewField(strings.TrimSpace(raw.Snippet))
	}
	return lead, true
}
