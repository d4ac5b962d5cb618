// Package queryplan expands a (keyword, location, mode) request into the
// ordered set of backend queries a job will run. Planning is pure: no
// network, no clock, deterministic output for a given input.
package queryplan

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-engine/internal/model"
)

//go:embed synonyms.yaml
var synonymsYAML []byte

var (
	synonymsOnce sync.Once
	synonymTable map[string][]string
	synonymsErr  error
)

func loadSynonyms() (map[string][]string, error) {
	synonymsOnce.Do(func() {
		synonymTable = make(map[string][]string)
		synonymsErr = yaml.Unmarshal(synonymsYAML, &synonymTable)
		if synonymsErr != nil {
			synonymsErr = eris.Wrap(synonymsErr, "queryplan: parsing synonym table")
		}
	})
	return synonymTable, synonymsErr
}

// maxSynonyms caps keyword expansion so one broad industry term cannot
// explode the query count.
const maxSynonyms = 15

// maxQueries caps the total plan size per job.
const maxQueries = 30

// roleGroups are OR-joined batches of decision-maker titles for profile
// searches. Each group becomes one query so a single page of results is
// not dominated by one title.
var roleGroups = [][]string{
	{"CEO", "Founder", "Co-Founder"},
	{"Director", "Managing Director", "Executive Director"},
	{"Manager", "General Manager", "Operations Manager"},
	{"VP", "COO", "CFO", "CTO"},
	{"Head of", "Partner", "Owner"},
	{"CMO", "Marketing Director"},
	{"Consultant", "Advisor"},
	{"Entrepreneur", "Business Development", "Sales Director"},
}

// freeMailDomains seed the email-hint queries for profile mode: pages that
// show a free-mail address in their bio are the ones worth finding.
var freeMailDomains = []string{
	"@gmail.com", "@hotmail.com", "@yahoo.com",
	"@outlook.com", "@icloud.com", "@live.com", "@mail.com",
}

// contactHints are appended to open-web queries to bias results toward
// pages that expose contact data.
var contactHints = []string{"contact", "email", "phone"}

// genericSuffixes extend a keyword with no synonym-table entry.
var genericSuffixes = []string{"services", "companies", "agency"}

// Planner builds the query plan for one mode.
type Planner struct {
	mode     model.Mode
	backends []model.BackendID
}

// New returns a Planner for mode. backends lists the enabled backends in
// preference order; queries are spread across them round-robin.
func New(mode model.Mode, backends []model.BackendID) (*Planner, error) {
	if len(backends) == 0 {
		return nil, eris.New("queryplan: at least one backend required")
	}
	if _, err := loadSynonyms(); err != nil {
		return nil, err
	}
	return &Planner{mode: mode, backends: backends}, nil
}

// Plan expands the request into ordered backend queries. The slice is never
// empty for a valid request: every mode has at least a base query.
func (p *Planner) Plan(keyword, location string) []model.SearchQuery {
	keyword = strings.TrimSpace(keyword)
	location = strings.TrimSpace(location)

	var texts []string
	switch p.mode {
	case model.ModeProfileSearch:
		texts = p.profileQueries(keyword, location)
	case model.ModeListingSearch:
		texts = p.listingQueries(keyword, location)
	case model.ModeBusinessSearch:
		texts = p.businessQueries(keyword, location)
	case model.ModeOpenWebSearch:
		texts = p.openWebQueries(keyword, location)
	}
	if len(texts) > maxQueries {
		texts = texts[:maxQueries]
	}

	queries := make([]model.SearchQuery, 0, len(texts))
	for i, text := range texts {
		queries = append(queries, model.SearchQuery{
			Text:    text,
			Backend: p.backends[i%len(p.backends)],
		})
	}
	return queries
}

func (p *Planner) profileQueries(keyword, location string) []string {
	base := strings.TrimSpace(fmt.Sprintf("%q %q", keyword, location))
	if keyword == "" {
		base = fmt.Sprintf("%q", location)
	}

	texts := []string{"site:instagram.com " + base}

	// Free-mail hints in chunks of three keep each query under engine
	// operator limits while still covering every domain.
	for i := 0; i < len(freeMailDomains); i += 3 {
		end := i + 3
		if end > len(freeMailDomains) {
			end = len(freeMailDomains)
		}
		texts = append(texts, "site:instagram.com "+base+" "+orJoin(freeMailDomains[i:end]))
	}

	for _, group := range roleGroups {
		texts = append(texts, "site:instagram.com "+base+" "+orJoin(group))
	}
	return texts
}

func (p *Planner) listingQueries(keyword, location string) []string {
	syns := ExpandKeyword(keyword)
	if len(syns) == 0 {
		return []string{fmt.Sprintf("site:linkedin.com/company %q", location)}
	}
	var texts []string
	for _, syn := range syns {
		texts = append(texts, fmt.Sprintf("site:linkedin.com/company %q %q", syn, location))
	}
	return texts
}

func (p *Planner) businessQueries(keyword, location string) []string {
	syns := ExpandKeyword(keyword)
	if len(syns) == 0 {
		return []string{
			fmt.Sprintf("businesses in %s", location),
			fmt.Sprintf("%q business contact email", location),
		}
	}
	var texts []string
	for _, syn := range syns {
		texts = append(texts,
			fmt.Sprintf("%s in %s", syn, location),
			fmt.Sprintf("%q %q contact email", syn, location),
		)
	}
	return texts
}

func (p *Planner) openWebQueries(keyword, location string) []string {
	base := strings.TrimSpace(keyword + " " + location)
	texts := make([]string, 0, len(contactHints)+2)
	for _, hint := range contactHints {
		texts = append(texts, base+" "+hint)
	}
	texts = append(texts, base+` "@gmail.com" OR "@yahoo.com" OR "@hotmail.com"`)
	if keyword != "" {
		texts = append(texts, fmt.Sprintf("intitle:%q %s", keyword, location))
	}
	return texts
}

// ExpandKeyword returns the keyword plus its synonyms, capped. Keywords
// present in the synonym table (substring match) use the table; anything
// else gets generic suffix variants.
func ExpandKeyword(keyword string) []string {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}
	out := []string{keyword}
	seen := map[string]struct{}{strings.ToLower(keyword): {}}

	add := func(s string) {
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup || len(out) >= maxSynonyms {
			return
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}

	table, err := loadSynonyms()
	if err == nil {
		lower := strings.ToLower(keyword)
		var matched []string
		for industry := range table {
			if strings.Contains(lower, industry) {
				matched = append(matched, industry)
			}
		}
		sort.Strings(matched)
		for _, industry := range matched {
			for _, s := range table[industry] {
				add(s)
			}
		}
	}

	if len(out) == 1 {
		if !strings.HasSuffix(keyword, "s") {
			add(keyword + "s")
		}
		for _, suffix := range genericSuffixes {
			add(keyword + " " + suffix)
		}
	}
	return out
}

func orJoin(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(quoted, " OR ")
}
