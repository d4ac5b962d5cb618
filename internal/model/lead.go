// Package model defines the data types shared across the lead discovery engine.
package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Mode selects which kind of leads a job discovers and how queries are built.
type Mode string

const (
	// ModeProfileSearch finds individual profiles (handles) on a social platform.
	ModeProfileSearch Mode = "profile_search"
	// ModeBusinessSearch finds businesses via open-web contact-oriented queries.
	ModeBusinessSearch Mode = "business_search"
	// ModeListingSearch finds company listing pages on a professional platform.
	ModeListingSearch Mode = "listing_search"
	// ModeOpenWebSearch casts the widest net: any site exposing contact data.
	ModeOpenWebSearch Mode = "open_web_search"
)

// ParseMode converts a string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "profile_search", "profiles":
		return ModeProfileSearch, nil
	case "business_search", "business":
		return ModeBusinessSearch, nil
	case "listing_search", "listings", "companies":
		return ModeListingSearch, nil
	case "open_web_search", "open_web", "web":
		return ModeOpenWebSearch, nil
	default:
		return "", eris.Errorf("unknown mode: %q (valid: profile_search, business_search, listing_search, open_web_search)", s)
	}
}

// BackendID identifies a search backend implementation.
type BackendID string

const (
	BackendBing   BackendID = "bing"
	BackendGoogle BackendID = "google"
)

// SearchQuery is one backend-specific query produced by the planner.
// Immutable once built; ordering only matters for progress reporting.
type SearchQuery struct {
	Text    string    `json:"text"`
	Backend BackendID `json:"backend"`
}

// RawResult is one record recovered from a SERP page. URL is the only field
// guaranteed non-empty; the lowest-fidelity parse strategy yields URL-only
// records.
type RawResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Lead is one discovered entity. Identity is the dedup key: a platform
// handle, a canonical listing URL, or a registrable domain depending on mode.
type Lead struct {
	Identity string `json:"identity"`

	DisplayName Field `json:"display_name"`
	Title       Field `json:"title"`
	Company     Field `json:"company"`
	CompanyURL  Field `json:"company_url"`
	Location    Field `json:"location"`
	Email       Field `json:"email"`
	Phone       Field `json:"phone"`
	Website     Field `json:"website"`
	ProfileURL  Field `json:"profile_url"`
	Bio         Field `json:"bio"`
	Category    Field `json:"category"`
	Address     Field `json:"address"`
	Industry    Field `json:"industry"`
	CompanySize Field `json:"company_size"`
	Rating      Field `json:"rating"`
	Reviews     Field `json:"reviews"`
	Followers   Field `json:"followers"`

	Socials map[string]Field `json:"socials,omitempty"`

	// Source names the backend or site that produced the lead.
	Source Field `json:"source"`
}

// Social returns the lead's profile URL for a platform, if known.
func (l *Lead) Social(platform string) Field {
	if l.Socials == nil {
		return Field{}
	}
	return l.Socials[platform]
}

// SetSocial records a social profile URL, never overwriting a set value.
func (l *Lead) SetSocial(platform, url string) {
	if l.Socials == nil {
		l.Socials = make(map[string]Field)
	}
	if !l.Socials[platform].Set() {
		l.Socials[platform] = NewField(url)
	}
}

// CandidateURL returns the page enrichment should visit for this lead:
// the website when known, otherwise the company URL, otherwise nothing.
// Profile URLs are deliberately excluded: the platforms behind them block
// plain fetches, and the SERP snippet already carried their public data.
func (l *Lead) CandidateURL() Field {
	if l.Website.Set() {
		return l.Website
	}
	if l.CompanyURL.Set() {
		return l.CompanyURL
	}
	return Field{}
}

// JobStatus is the lifecycle state of a discovery job.
type JobStatus string

const (
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusStopped   JobStatus = "stopped"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusStopped
}

// Request is the job request supplied by the external collaborator.
type Request struct {
	Keyword  string `json:"keyword"`
	Location string `json:"location"`
	Mode     Mode   `json:"mode"`
	// MaxPages bounds SERP pagination per query. Zero means the default.
	MaxPages int `json:"max_pages,omitempty"`
}

// Validate checks request invariants. Keyword may be empty for
// location-only modes; location is always required.
func (r Request) Validate() error {
	if r.Location == "" {
		return eris.New("request: location is required")
	}
	if _, err := ParseMode(string(r.Mode)); err != nil {
		return eris.Wrap(err, "request")
	}
	return nil
}

// EngineStats holds free-form observability counters for one job.
// Never consulted for control flow.
type EngineStats struct {
	QueriesTotal     int            `json:"queries_total"`
	QueriesDone      int            `json:"queries_done"`
	PagesFetched     int            `json:"pages_fetched"`
	ResultsByBackend map[string]int `json:"results_by_backend,omitempty"`
	ResultsParsed    int            `json:"results_parsed"`
	LeadsExtracted   int            `json:"leads_extracted"`
	DuplicatesSeen   int            `json:"duplicates_seen"`
	EnrichTotal      int            `json:"enrich_total"`
	EnrichDone       int            `json:"enrich_done"`
	Phase            string         `json:"phase"`
}

// JobState is the snapshot handed to the external collaborator. Leads may
// be non-empty even in failed/stopped states: partial results are never
// discarded.
type JobState struct {
	ID        string      `json:"id"`
	Request   Request     `json:"request"`
	Status    JobStatus   `json:"status"`
	Progress  int         `json:"progress"`
	Message   string      `json:"message"`
	Leads     []Lead      `json:"leads"`
	Error     string      `json:"error,omitempty"`
	StartedAt time.Time   `json:"started_at"`
	Stats     EngineStats `json:"stats"`
}
