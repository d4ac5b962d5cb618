package serp

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/pattern"
)

// maxResultsPerPage bounds what the low-fidelity strategies can return so a
// pathological page cannot flood the extractor.
const maxResultsPerPage = 50

// Parser recovers results from a fetched page through an ordered chain of
// strategies. Strategy N runs only when strategy N-1 produced nothing:
// higher strategies yield richer records (title + snippet), lower ones
// degrade gracefully down to URL-only records.
//
// Parser is not safe for concurrent use; the job controller parses pages
// sequentially.
type Parser struct {
	mode        model.Mode
	targetHosts []string
	trace       []string
}

// NewParser builds the parser for a mode. Profile and listing modes filter
// results to their platform hosts; business and open-web modes accept any
// host outside the skip list.
func NewParser(mode model.Mode) *Parser {
	var hosts []string
	switch mode {
	case model.ModeProfileSearch:
		hosts = []string{"instagram.com"}
	case model.ModeListingSearch:
		hosts = []string{"linkedin.com"}
	}
	return &Parser{mode: mode, targetHosts: hosts}
}

type strategy struct {
	name string
	fn   func(*Page, *goquery.Document) []model.RawResult
}

// Parse runs the strategy chain over one page.
func (p *Parser) Parse(page *Page) []model.RawResult {
	p.trace = p.trace[:0]

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		zap.L().Debug("unparseable page html", zap.Error(err))
		return nil
	}

	strategies := []strategy{
		{"containers", p.parseContainers},
		{"anchors", p.parseAnchors},
		{"regex", p.parseRegex},
	}
	for _, s := range strategies {
		p.trace = append(p.trace, s.name)
		results := s.fn(page, doc)
		if len(results) > 0 {
			zap.L().Debug("page parsed",
				zap.String("strategy", s.name),
				zap.Int("results", len(results)),
				zap.Int("page", page.Index))
			return results
		}
	}
	return nil
}

// Trace returns the strategy names attempted by the last Parse call, in
// order.
func (p *Parser) Trace() []string {
	out := make([]string, len(p.trace))
	copy(out, p.trace)
	return out
}

// parseContainers reads the engine's structured result blocks.
func (p *Parser) parseContainers(page *Page, doc *goquery.Document) []model.RawResult {
	var results []model.RawResult
	seen := map[string]struct{}{}

	add := func(href, title, snippet string) {
		u, ok := p.accept(href)
		if !ok {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		results = append(results, model.RawResult{
			URL:     u,
			Title:   strings.TrimSpace(title),
			Snippet: strings.TrimSpace(snippet),
		})
	}

	switch page.Backend {
	case model.BackendGoogle:
		doc.Find("div.g").Each(func(_ int, sel *goquery.Selection) {
			href, _ := sel.Find("a[href]").First().Attr("href")
			title := sel.Find("h3").First().Text()
			snippet := sel.Find(".VwiC3b").First().Text()
			if snippet == "" {
				snippet = sel.Find(".IsZvec, .aCOpRe, .lyLwlc").First().Text()
			}
			add(href, title, snippet)
		})
	case model.BackendBing:
		doc.Find("li.b_algo").Each(func(_ int, sel *goquery.Selection) {
			link := sel.Find("h2 a").First()
			href, _ := link.Attr("href")
			snippet := sel.Find(".b_caption p").First().Text()
			if snippet == "" {
				snippet = sel.Find("p").First().Text()
			}
			add(href, link.Text(), snippet)
		})
	}
	return results
}

// parseAnchors scans every anchor on the page, keeping those that pass the
// mode's host filter. The snippet is pulled from the nearest enclosing
// block with meaningful text.
func (p *Parser) parseAnchors(page *Page, doc *goquery.Document) []model.RawResult {
	var results []model.RawResult
	seen := map[string]struct{}{}

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		u, ok := p.accept(href)
		if !ok {
			return true
		}
		if _, dup := seen[u]; dup {
			return true
		}
		seen[u] = struct{}{}

		title := strings.TrimSpace(sel.Find("h3").First().Text())
		if title == "" {
			title = strings.TrimSpace(sel.Text())
		}
		results = append(results, model.RawResult{
			URL:     u,
			Title:   title,
			Snippet: ancestorSnippet(sel, title),
		})
		return len(results) < maxResultsPerPage
	})
	return results
}

// ancestorSnippet climbs the anchor's ancestors looking for a block whose
// text extends beyond the link's own label.
func ancestorSnippet(sel *goquery.Selection, title string) string {
	node := sel
	for depth := 0; depth < 3; depth++ {
		node = node.Parent()
		if node.Length() == 0 {
			break
		}
		text := strings.Join(strings.Fields(node.Text()), " ")
		if len(text) > len(title)+20 {
			if len(text) > 300 {
				text = text[:300]
			}
			return text
		}
	}
	return ""
}

var genericURLRe = regexp.MustCompile(`https?://[^\s"'<>\\]+`)

// parseRegex is the last resort: scan the raw HTML for target URLs and
// emit URL-only records.
func (p *Parser) parseRegex(page *Page, _ *goquery.Document) []model.RawResult {
	var results []model.RawResult
	seen := map[string]struct{}{}

	for _, match := range genericURLRe.FindAllString(page.HTML, -1) {
		raw := html.UnescapeString(strings.TrimRight(match, ".,;)"))
		u, ok := p.accept(raw)
		if !ok {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		results = append(results, model.RawResult{URL: u})
		if len(results) >= maxResultsPerPage {
			break
		}
	}
	return results
}

// accept normalizes a candidate href and applies the mode's host filter.
// Google redirect wrappers are unwrapped first.
func (p *Parser) accept(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return "", false
	}
	href = unwrapRedirect(href)

	u, err := url.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	host := strings.ToLower(u.Host)

	if len(p.targetHosts) > 0 {
		matched := false
		for _, th := range p.targetHosts {
			if host == th || strings.HasSuffix(host, "."+th) {
				matched = true
				break
			}
		}
		if !matched {
			return "", false
		}
	} else if pattern.SkippableDomain(host) {
		return "", false
	}
	return u.String(), true
}

// unwrapRedirect extracts the destination from Google's /url?q= and
// Bing's ck/a redirect wrappers where possible.
func unwrapRedirect(href string) string {
	if strings.HasPrefix(href, "/url?") || strings.Contains(href, "google.com/url?") {
		if q := strings.Index(href, "?"); q >= 0 {
			if vals, err := url.ParseQuery(href[q+1:]); err == nil {
				for _, key := range []string{"q", "url"} {
					if dest := vals.Get(key); strings.HasPrefix(dest, "http") {
						return dest
					}
				}
			}
		}
	}
	return href
}
