// Package score buckets leads by contact completeness. The engine never
// consults scores; they exist for presentation.
package score

import (
	"github.com/sells-group/lead-engine/internal/model"
)

// Bucket labels.
const (
	Strong = "strong"
	Medium = "medium"
	Weak   = "weak"
)

// Bucket rates a lead for a mode. Direct contact channels dominate: an
// email is worth more than any amount of profile metadata, and a phone or
// website keeps a lead workable. Profile leads lean on socials instead of
// a website since the profile itself is the touchpoint.
func Bucket(lead model.Lead, mode model.Mode) string {
	points := 0
	if lead.Email.Set() {
		points += 3
	}
	if lead.Phone.Set() {
		points += 2
	}
	switch mode {
	case model.ModeProfileSearch, model.ModeListingSearch:
		if len(lead.Socials) > 1 {
			points += 1
		}
		if lead.CompanyURL.Set() || lead.Website.Set() {
			points += 1
		}
	default:
		if lead.Website.Set() {
			points += 1
		}
		if len(lead.Socials) > 0 {
			points += 1
		}
	}

	switch {
	case points >= 4:
		return Strong
	case points >= 2:
		return Medium
	default:
		return Weak
	}
}

// Tally counts leads per bucket.
func Tally(leads []model.Lead, mode model.Mode) map[string]int {
	out := map[string]int{Strong: 0, Medium: 0, Weak: 0}
	for _, l := range leads {
		out[Bucket(l, mode)]++
	}
	return out
}
