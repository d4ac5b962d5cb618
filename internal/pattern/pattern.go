// Package pattern holds the shared regexes, blacklists and validators used
// by SERP parsing, lead extraction and enrichment. Everything here is pure
// and stateless.
package pattern

import (
	"regexp"
	"strings"
)

var (
	// EmailRe matches addresses loosely; ValidEmail applies the blacklist.
	EmailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// PhoneRe matches international and US-style numbers with common
	// separators. Candidates still go through ValidPhone.
	PhoneRe = regexp.MustCompile(`\+?\d[\d\s().\-]{5,18}\d`)
)

// SocialPatterns maps a platform name to a regex matching profile URLs on
// that platform. Listing and share paths are excluded where the platform
// distinguishes them.
var SocialPatterns = map[string]*regexp.Regexp{
	"facebook":  regexp.MustCompile(`(?i)facebook\.com/(?:[\w.\-]+)`),
	"instagram": regexp.MustCompile(`(?i)instagram\.com/(?:[\w.\-]+)`),
	"twitter":   regexp.MustCompile(`(?i)(?:twitter|x)\.com/(?:[\w]+)`),
	"linkedin":  regexp.MustCompile(`(?i)linkedin\.com/(?:in|company)/(?:[\w\-%]+)`),
	"youtube":   regexp.MustCompile(`(?i)youtube\.com/(?:@?[\w.\-]+|channel/[\w\-]+)`),
	"tiktok":    regexp.MustCompile(`(?i)tiktok\.com/@[\w.\-]+`),
	"pinterest": regexp.MustCompile(`(?i)pinterest\.com/[\w\-]+`),
}

// emailDomainBlacklist rejects placeholder, tracking and platform-internal
// addresses that show up in page source but never belong to the lead.
var emailDomainBlacklist = map[string]struct{}{
	"example.com":           {},
	"test.com":              {},
	"email.com":             {},
	"domain.com":            {},
	"yoursite.com":          {},
	"company.com":           {},
	"website.com":           {},
	"sentry.io":             {},
	"wixpress.com":          {},
	"w3.org":                {},
	"schema.org":            {},
	"googleapis.com":        {},
	"googleusercontent.com": {},
	"gstatic.com":           {},
}

// assetExtensions catch false positives like "logo@2x.png" that satisfy the
// email regex.
var assetExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".js", ".css"}

// SkipDomains lists hosts the open-web mode never treats as leads: search
// engines, social platforms, marketplaces, knowledge bases and CDNs.
var SkipDomains = []string{
	"google.", "bing.com", "yahoo.com", "duckduckgo.com",
	"facebook.com", "instagram.com", "twitter.com", "x.com",
	"linkedin.com", "youtube.com", "tiktok.com", "pinterest.com",
	"reddit.com", "wikipedia.org", "wikihow.com", "quora.com",
	"amazon.", "ebay.", "etsy.com", "alibaba.com",
	"yelp.com", "tripadvisor.", "glassdoor.", "indeed.",
	"apple.com", "microsoft.com", "play.google.com",
	"cloudflare.com", "gstatic.com", "googleusercontent.com",
	"medium.com", "github.com", "blogspot.", "wordpress.com",
}

// ValidEmail reports whether s looks like a real contact address: matches
// the email shape, is not on a placeholder domain, and is not an asset
// filename in disguise.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	if !EmailRe.MatchString(s) || EmailRe.FindString(s) != s {
		return false
	}
	for _, ext := range assetExtensions {
		if strings.HasSuffix(s, ext) {
			return false
		}
	}
	at := strings.LastIndex(s, "@")
	domain := s[at+1:]
	if _, banned := emailDomainBlacklist[domain]; banned {
		return false
	}
	return true
}

// CleanPhone strips everything but digits and a leading plus.
func CleanPhone(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone reports whether s cleans down to a plausible phone number.
// Fewer than 7 digits is a fragment, more than 15 is a tracking ID.
func ValidPhone(s string) bool {
	cleaned := CleanPhone(s)
	digits := strings.TrimPrefix(cleaned, "+")
	if len(digits) < 7 || len(digits) > 15 {
		return false
	}
	// Timestamps and prices sneak through the regex as all-same or
	// sequential digits less often than 7+ digit runs do, but a leading
	// zero-run is always junk.
	if strings.HasPrefix(digits, "0000") {
		return false
	}
	return true
}

// MatchSocial returns the platform name for a social profile URL, or ok
// false when the URL matches no tracked platform.
func MatchSocial(url string) (string, bool) {
	for platform, re := range SocialPatterns {
		if re.MatchString(url) {
			return platform, true
		}
	}
	return "", false
}

// SkippableDomain reports whether host belongs to a platform the open-web
// mode excludes from leads.
func SkippableDomain(host string) bool {
	host = strings.ToLower(host)
	for _, d := range SkipDomains {
		if strings.Contains(host, d) {
			return true
		}
	}
	return false
}
