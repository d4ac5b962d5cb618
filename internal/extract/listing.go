package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/lead-engine/internal/model"
)

var companySlugRe = regexp.MustCompile(`linkedin\.com/company/([\w\-%.]+)`)

var (
	followersRe = regexp.MustCompile(`([\d][\d,.]*)\s+followers`)
	employeesRe = regexp.MustCompile(`([\d][\d,]*(?:\s*[-–]\s*[\d,]+)?\+?)\s+employees`)
	locationRe  = regexp.MustCompile(`(?i)(?:located in|headquartered in|based in)\s+([A-Z][^.|\n]{2,60})`)
)

// listingExtractor builds leads from company listing results. Identity is
// the canonical listing URL.
type listingExtractor struct{}

func (e *listingExtractor) Extract(raw model.RawResult) (*model.Lead, bool) {
	m := companySlugRe.FindStringSubmatch(raw.URL)
	if m == nil {
		return nil, false
	}
	slug := strings.ToLower(strings.TrimRight(m[1], "./"))
	if slug == "" {
		return nil, false
	}
	canonical := "linkedin.com/company/" + slug

	lead := &model.Lead{Identity: canonical}
	lead.ProfileURL = model.NewField("https://www." + canonical)
	lead.SetSocial("linkedin", lead.ProfileURL.Value())
	lead.Source = model.NewField("linkedin")

	if name := listingName(raw.Title); name != "" {
		lead.Company = model.NewField(name)
		lead.DisplayName = model.NewField(name)
	}
	if fm := followersRe.FindStringSubmatch(raw.Snippet); fm != nil {
		lead.Followers = model.NewField(fm[1])
	}
	if em := employeesRe.FindStringSubmatch(raw.Snippet); em != nil {
		lead.CompanySize = model.NewField(strings.TrimSpace(em[1]))
	}
	if lm := locationRe.FindStringSubmatch(raw.Snippet); lm != nil {
		lead.Location = model.NewField(strings.TrimSpace(lm[1]))
	}
	if ind := industryFromSnippet(raw.Snippet); ind != "" {
		lead.Industry = model.NewField(ind)
	}
	if raw.Snippet != "" {
		lead.Bio = model.NewField(strings.TrimSpace(raw.Snippet))
	}
	return lead, true
}

// listingName strips the platform suffix from a listing title.
func listingName(title string) string {
	title = strings.TrimSpace(title)
	for _, suffix := range []string{"| LinkedIn", "- LinkedIn", "– LinkedIn"} {
		title = strings.TrimSpace(strings.TrimSuffix(title, suffix))
	}
	return nameFromTitle(title)
}

// industryFromSnippet reads the leading industry phrase in snippets shaped
// like "Acme Corp | IT Services and IT Consulting | 1,024 followers ...".
func industryFromSnippet(snippet string) string {
	parts := strings.Split(snippet, " | ")
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" || followersRe.MatchString(part) || employeesRe.MatchString(part) {
			continue
		}
		if len(part) < 80 {
			return part
		}
	}
	return ""
}
