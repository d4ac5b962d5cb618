package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/lead-engine/internal/model"
)

var usernameRe = regexp.MustCompile(`instagram\.com/([\w][\w.\-]{0,29})`)

// profilePathBlacklist lists path segments that look like usernames but
// are platform features.
var profilePathBlacklist = map[string]struct{}{
	"p": {}, "explore": {}, "reel": {}, "reels": {}, "stories": {},
	"tv": {}, "accounts": {}, "about": {}, "legal": {}, "developer": {},
	"directory": {}, "terms": {}, "privacy": {}, "s": {}, "static": {},
	"nametag": {}, "direct": {}, "lite": {},
}

// rolePatterns are matched in order against the result text; the most
// specific titles come first so "Co-Founder" is not reported as "Founder".
var rolePatterns = []string{
	"Co-Founder", "Founder & CEO", "Founder", "CEO", "CFO", "CTO", "COO",
	"CMO", "Managing Director", "Executive Director", "Sales Director",
	"Marketing Director", "Director", "General Manager", "Operations Manager",
	"Manager", "Head of", "Owner", "Partner", "Consultant", "Advisor",
	"Coach", "Entrepreneur",
}

var companyRe = regexp.MustCompile(`(?:\bat\b|@)\s+([A-Z][^.·\-\n,|]{2,60})`)

var snippetURLRe = regexp.MustCompile(`https?://[^\s"'<>)]+`)

// profileExtractor builds leads from social profile results. Identity is
// the platform username.
type profileExtractor struct{}

func (e *profileExtractor) Extract(raw model.RawResult) (*model.Lead, bool) {
	m := usernameRe.FindStringSubmatch(raw.URL)
	if m == nil {
		return nil, false
	}
	username := strings.ToLower(strings.TrimRight(m[1], "."))
	if _, blocked := profilePathBlacklist[username]; blocked {
		return nil, false
	}

	lead := &model.Lead{Identity: username}
	lead.ProfileURL = model.NewField("https://instagram.com/" + username)
	lead.SetSocial("instagram", lead.ProfileURL.Value())
	lead.Source = model.NewField("instagram")

	if name := displayNameFromProfileTitle(raw.Title); name != "" {
		lead.DisplayName = model.NewField(name)
	}
	if email, ok := firstEmail(raw.Title, raw.Snippet); ok {
		lead.Email = model.NewField(email)
	}

	text := raw.Title + " " + raw.Snippet
	if role := matchRole(text); role != "" {
		lead.Title = model.NewField(role)
	}
	if cm := companyRe.FindStringSubmatch(raw.Snippet); cm != nil {
		company := strings.TrimSpace(cm[1])
		// "@ gmail.com" style fragments slip through the anchor; real
		// company names do not look like hostnames.
		if !strings.Contains(company, ".") {
			lead.Company = model.NewField(company)
		}
	}

	// A non-platform URL in the snippet is usually the person's business
	// site.
	for _, u := range snippetURLRe.FindAllString(raw.Snippet, -1) {
		if !strings.Contains(u, "instagram.com") {
			lead.CompanyURL = model.NewField(strings.TrimRight(u, "./"))
			break
		}
	}

	if raw.Snippet != "" {
		lead.Bio = model.NewField(strings.TrimSpace(raw.Snippet))
	}
	return lead, true
}

// displayNameFromProfileTitle recovers the human name from titles shaped
// like "Alice Doe (@alice.fit) • Instagram photos and videos".
func displayNameFromProfileTitle(title string) string {
	title = strings.TrimSpace(title)
	if i := strings.Index(title, "(@"); i > 0 {
		return strings.TrimSpace(title[:i])
	}
	name := nameFromTitle(title)
	if strings.EqualFold(name, "instagram") || name == "" {
		return ""
	}
	return name
}

// matchRole returns the first role pattern present in text, preserving the
// canonical casing of the pattern list.
func matchRole(text string) string {
	lower := strings.ToLower(text)
	for _, role := range rolePatterns {
		if strings.Contains(lower, strings.ToLower(role)) {
			return role
		}
	}
	return ""
}
