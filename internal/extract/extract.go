// Package extract turns raw search results into candidate leads. Each mode
// has its own extractor; all of them are tolerant of malformed input and
// never error, they just decline the record.
package extract

import (
	"strings"

	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/pattern"
)

// Extractor converts one raw result into a lead. ok is false when the
// result is not a lead for this mode (wrong path shape, skip-listed host,
// unusable URL).
type Extractor interface {
	Extract(raw model.RawResult) (*model.Lead, bool)
}

// ForMode returns the extractor for a mode.
func ForMode(mode model.Mode) Extractor {
	switch mode {
	case model.ModeProfileSearch:
		return &profileExtractor{}
	case model.ModeListingSearch:
		return &listingExtractor{}
	default:
		return &businessExtractor{}
	}
}

// titleSeparators split a page title into "name" and "boilerplate". The
// first separator found wins.
var titleSeparators = []string{" | ", " - ", " — ", " – "}

// nameFromTitle returns the part of a page title before the first
// separator.
func nameFromTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, sep := range titleSeparators {
		if i := strings.Index(title, sep); i > 0 {
			return strings.TrimSpace(title[:i])
		}
	}
	return title
}

// firstEmail returns the first valid address found in the given texts.
func firstEmail(texts ...string) (string, bool) {
	for _, t := range texts {
		for _, m := range pattern.EmailRe.FindAllString(t, -1) {
			if pattern.ValidEmail(m) {
				return strings.ToLower(m), true
			}
		}
	}
	return "", false
}

// firstPhone returns the first valid phone number found in the given
// texts, cleaned.
func firstPhone(texts ...string) (string, bool) {
	for _, t := range texts {
		for _, m := range pattern.PhoneRe.FindAllString(t, -1) {
			if pattern.ValidPhone(m) {
				return pattern.CleanPhone(m), true
			}
		}
	}
	return "", false
}
