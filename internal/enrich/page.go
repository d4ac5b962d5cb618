package enrich

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/pattern"
)

// maxPhones caps how many numbers one page can contribute.
const maxPhones = 3

// mergePage extracts contact data from one page and merges it into the
// lead. Set fields are never downgraded; only follower and rating counts
// may be overwritten, page metadata being more authoritative than a search
// snippet.
func mergePage(lead *model.Lead, html string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return
	}

	mergeAnchors(lead, doc)
	mergeText(lead, doc, html)
	mergeMeta(lead, doc)
	mergeJSONLD(lead, doc)
}

func mergeAnchors(lead *model.Lead, doc *goquery.Document) {
	var phones []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		switch {
		case strings.HasPrefix(href, "mailto:"):
			addr := strings.TrimPrefix(href, "mailto:")
			if i := strings.Index(addr, "?"); i >= 0 {
				addr = addr[:i]
			}
			if pattern.ValidEmail(addr) {
				setIfUnset(&lead.Email, strings.ToLower(addr))
			}
		case strings.HasPrefix(href, "tel:"):
			num := pattern.CleanPhone(strings.TrimPrefix(href, "tel:"))
			if pattern.ValidPhone(num) && len(phones) < maxPhones {
				phones = appendUnique(phones, num)
			}
		default:
			if platform, ok := pattern.MatchSocial(href); ok {
				lead.SetSocial(platform, href)
			}
		}
	})

	setPhones(lead, phones)
}

func mergeText(lead *model.Lead, doc *goquery.Document, html string) {
	text := doc.Text()

	if !lead.Email.Set() {
		for _, m := range pattern.EmailRe.FindAllString(text, -1) {
			if pattern.ValidEmail(m) {
				lead.Email = model.NewField(strings.ToLower(m))
				break
			}
		}
	}

	if !lead.Phone.Set() {
		var phones []string
		for _, m := range pattern.PhoneRe.FindAllString(text, -1) {
			if len(phones) >= maxPhones {
				break
			}
			if pattern.ValidPhone(m) {
				phones = appendUnique(phones, pattern.CleanPhone(m))
			}
		}
		setPhones(lead, phones)
	}

	// Social links hidden in scripts or data attributes never surface as
	// anchors; scan the raw source for the ones still missing.
	for platform, re := range pattern.SocialPatterns {
		if lead.Social(platform).Set() {
			continue
		}
		if m := re.FindString(html); m != "" {
			if !strings.HasPrefix(m, "http") {
				m = "https://" + m
			}
			lead.SetSocial(platform, m)
		}
	}
}

func mergeMeta(lead *model.Lead, doc *goquery.Document) {
	if !lead.DisplayName.Set() || !lead.Company.Set() {
		title := strings.TrimSpace(doc.Find("title").First().Text())
		if name := titleBeforeSeparator(title); name != "" {
			setIfUnset(&lead.DisplayName, name)
			setIfUnset(&lead.Company, name)
		}
	}
	if !lead.Bio.Set() {
		if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
			desc = strings.TrimSpace(desc)
			if desc != "" {
				lead.Bio = model.NewField(desc)
			}
		}
	}
}

// ldDocument covers the JSON-LD shapes worth reading: LocalBusiness and
// Organization blocks with postal address, phone and rating data.
type ldDocument struct {
	Name      string `json:"name"`
	Telephone string `json:"telephone"`
	Address   struct {
		StreetAddress   string `json:"streetAddress"`
		AddressLocality string `json:"addressLocality"`
		AddressRegion   string `json:"addressRegion"`
		PostalCode      string `json:"postalCode"`
	} `json:"address"`
	AggregateRating struct {
		RatingValue json.Number `json:"ratingValue"`
		ReviewCount json.Number `json:"reviewCount"`
	} `json:"aggregateRating"`
}

func mergeJSONLD(lead *model.Lead, doc *goquery.Document) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var ld ldDocument
		if err := json.Unmarshal([]byte(sel.Text()), &ld); err != nil {
			return
		}
		if ld.Telephone != "" {
			num := pattern.CleanPhone(ld.Telephone)
			if pattern.ValidPhone(num) {
				setIfUnset(&lead.Phone, num)
			}
		}
		parts := make([]string, 0, 4)
		for _, p := range []string{
			ld.Address.StreetAddress, ld.Address.AddressLocality,
			ld.Address.AddressRegion, ld.Address.PostalCode,
		} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			setIfUnset(&lead.Address, strings.Join(parts, ", "))
		}
		// Structured rating data overrides snippet guesses.
		if v := ld.AggregateRating.RatingValue.String(); v != "" {
			lead.Rating = model.NewField(v)
		}
		if v := ld.AggregateRating.ReviewCount.String(); v != "" {
			lead.Reviews = model.NewField(v)
		}
	})
}

func titleBeforeSeparator(title string) string {
	for _, sep := range []string{" | ", " - ", " — ", " – "} {
		if i := strings.Index(title, sep); i > 0 {
			return strings.TrimSpace(title[:i])
		}
	}
	return strings.TrimSpace(title)
}

func setIfUnset(f *model.Field, v string) {
	if !f.Set() && v != "" {
		*f = model.NewField(v)
	}
}

func setPhones(lead *model.Lead, phones []string) {
	if len(phones) == 0 {
		return
	}
	setIfUnset(&lead.Phone, strings.Join(phones, ", "))
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
