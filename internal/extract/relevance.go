package extract

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/search"
)

// RelevanceFilter drops raw results whose text has nothing to do with the
// requested keyword. Open-web queries pull in directories and listicles;
// requiring at least one keyword term keeps the extractor fed with real
// candidates. Matching is case and diacritic insensitive.
type RelevanceFilter struct {
	matcher *search.Matcher
	terms   []string
}

// NewRelevanceFilter builds a filter for keyword. An empty keyword yields
// a pass-everything filter.
func NewRelevanceFilter(keyword string) *RelevanceFilter {
	terms := strings.Fields(strings.TrimSpace(keyword))
	kept := terms[:0]
	for _, t := range terms {
		// Single-letter and stop-ish tokens match everything.
		if len(t) > 2 {
			kept = append(kept, t)
		}
	}
	return &RelevanceFilter{
		matcher: search.New(language.English, search.IgnoreCase, search.IgnoreDiacritics),
		terms:   kept,
	}
}

// Relevant reports whether any keyword term occurs in the result's title,
// snippet or URL.
func (f *RelevanceFilter) Relevant(title, snippet, url string) bool {
	if len(f.terms) == 0 {
		return true
	}
	haystack := title + " " + snippet + " " + url
	for _, term := range f.terms {
		if start, _ := f.matcher.IndexString(haystack, term); start >= 0 {
			return true
		}
	}
	return false
}
