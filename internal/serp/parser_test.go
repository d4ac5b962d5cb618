package serp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-engine/internal/model"
)

const googleResultHTML = `<html><body>
<div class="g">
  <a href="/url?q=https://instagram.com/alice.fit&sa=U"><h3>Alice Doe (@alice.fit)</h3></a>
  <div class="VwiC3b">Personal trainer in Miami. Contact: alice@gmail.com</div>
</div>
<div class="g">
  <a href="https://www.instagram.com/bob_lifts"><h3>Bob (@bob_lifts)</h3></a>
  <div class="VwiC3b">Strength coach. DM for rates.</div>
</div>
<div class="g">
  <a href="https://www.pinterest.com/fitideas"><h3>Fitness ideas</h3></a>
  <div class="VwiC3b">Board of workout pins.</div>
</div>
</body></html>`

func TestParseContainersGoogle(t *testing.T) {
	p := NewParser(model.ModeProfileSearch)
	page := &Page{Backend: model.BackendGoogle, HTML: googleResultHTML}

	results := p.Parse(page)
	require.Len(t, results, 2)
	assert.Equal(t, "https://instagram.com/alice.fit", results[0].URL)
	assert.Equal(t, "Alice Doe (@alice.fit)", results[0].Title)
	assert.Contains(t, results[0].Snippet, "alice@gmail.com")
	assert.Equal(t, "https://www.instagram.com/bob_lifts", results[1].URL)
}

func TestParseShortCircuitsOnFirstStrategy(t *testing.T) {
	p := NewParser(model.ModeProfileSearch)
	page := &Page{Backend: model.BackendGoogle, HTML: googleResultHTML}

	require.NotEmpty(t, p.Parse(page))
	assert.Equal(t, []string{"containers"}, p.Trace())
}

func TestParseFallsBackToAnchors(t *testing.T) {
	// No result containers, but target-domain anchors exist.
	html := `<html><body>
	<div class="card">
	  <a href="https://instagram.com/carol.yoga">Carol Yoga</a>
	  <span>Yoga instructor, Miami Beach. Classes and private sessions available.</span>
	</div>
	</body></html>`

	p := NewParser(model.ModeProfileSearch)
	results := p.Parse(&Page{Backend: model.BackendGoogle, HTML: html})

	require.Len(t, results, 1)
	assert.Equal(t, "https://instagram.com/carol.yoga", results[0].URL)
	assert.Equal(t, "Carol Yoga", results[0].Title)
	assert.Contains(t, results[0].Snippet, "Yoga instructor")
	assert.Equal(t, []string{"containers", "anchors"}, p.Trace())
}

func TestParseRegexLastResort(t *testing.T) {
	// Obfuscated markup where URLs only appear inside script text.
	html := `<html><body><script>
	var data = {"u":"https://instagram.com/dave.chef","v":"https://instagram.com/dave.chef"};
	</script></body></html>`

	p := NewParser(model.ModeProfileSearch)
	results := p.Parse(&Page{Backend: model.BackendGoogle, HTML: html})

	require.Len(t, results, 1)
	assert.Equal(t, "https://instagram.com/dave.chef", results[0].URL)
	assert.Empty(t, results[0].Title)
	assert.Equal(t, []string{"containers", "anchors", "regex"}, p.Trace())
}

func TestParseBingContainers(t *testing.T) {
	html := `<html><body><ol>
	<li class="b_algo">
	  <h2><a href="https://acmeplumbing.com/">Acme Plumbing | Austin TX</a></h2>
	  <div class="b_caption"><p>24/7 emergency plumbing. Call (512) 555-0100.</p></div>
	</li>
	</ol></body></html>`

	p := NewParser(model.ModeBusinessSearch)
	results := p.Parse(&Page{Backend: model.BackendBing, HTML: html})

	require.Len(t, results, 1)
	assert.Equal(t, "https://acmeplumbing.com/", results[0].URL)
	assert.Equal(t, "Acme Plumbing | Austin TX", results[0].Title)
	assert.Contains(t, results[0].Snippet, "(512) 555-0100")
}

func TestParseOpenWebSkipsPlatformDomains(t *testing.T) {
	html := `<html><body>
	<div class="g"><a href="https://en.wikipedia.org/wiki/Plumbing"><h3>Plumbing</h3></a>
	<div class="VwiC3b">Plumbing is any system...</div></div>
	<div class="g"><a href="https://austindrains.com/contact"><h3>Austin Drains</h3></a>
	<div class="VwiC3b">Email info@austindrains.com</div></div>
	</body></html>`

	p := NewParser(model.ModeOpenWebSearch)
	results := p.Parse(&Page{Backend: model.BackendGoogle, HTML: html})

	require.Len(t, results, 1)
	assert.Equal(t, "https://austindrains.com/contact", results[0].URL)
}

func TestParseEmptyPage(t *testing.T) {
	p := NewParser(model.ModeProfileSearch)
	results := p.Parse(&Page{Backend: model.BackendGoogle, HTML: "<html><body></body></html>"})
	assert.Empty(t, results)
	assert.Equal(t, []string{"containers", "anchors", "regex"}, p.Trace())
}

func TestUnwrapRedirect(t *testing.T) {
	assert.Equal(t, "https://acme.com/x",
		unwrapRedirect("/url?q=https://acme.com/x&sa=U&ved=abc"))
	assert.Equal(t, "https://acme.com/x",
		unwrapRedirect("https://www.google.com/url?url=https://acme.com/x"))
	assert.Equal(t, "https://acme.com/x", unwrapRedirect("https://acme.com/x"))
}

func TestDetectChallenge(t *testing.T) {
	assert.True(t, DetectChallenge(`<html>Our systems have detected unusual traffic from your network.</html>`))
	assert.True(t, DetectChallenge(`<div class="g-recaptcha" data-sitekey="x"></div>`))
	assert.True(t, DetectChallenge(`<title>Attention Required! | Cloudflare</title>`))
	assert.False(t, DetectChallenge(googleResultHTML))
}
