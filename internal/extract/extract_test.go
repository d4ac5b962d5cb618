package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-engine/internal/model"
)

func TestProfileExtract(t *testing.T) {
	e := ForMode(model.ModeProfileSearch)
	lead, ok := e.Extract(model.RawResult{
		URL:     "https://www.instagram.com/Alice.Fit?ref=serp",
		Title:   "Alice Doe (@alice.fit) • Instagram photos and videos",
		Snippet: "Founder at Fit Studio Miami. Bookings: alice.doe@gmail.com. More at https://fitstudio.com",
	})
	require.True(t, ok)

	assert.Equal(t, "alice.fit", lead.Identity)
	assert.Equal(t, "Alice Doe", lead.DisplayName.Value())
	assert.Equal(t, "alice.doe@gmail.com", lead.Email.Value())
	assert.Equal(t, "Founder", lead.Title.Value())
	assert.Equal(t, "Fit Studio Miami", lead.Company.Value())
	assert.Equal(t, "https://fitstudio.com", lead.CompanyURL.Value())
	assert.Equal(t, "https://instagram.com/alice.fit", lead.ProfileURL.Value())
	assert.Equal(t, "instagram", lead.Source.Value())
}

func TestProfileExtractIdentityIgnoresQuery(t *testing.T) {
	e := ForMode(model.ModeProfileSearch)

	a, ok := e.Extract(model.RawResult{URL: "https://instagram.com/alice"})
	require.True(t, ok)
	b, ok := e.Extract(model.RawResult{URL: "https://instagram.com/alice?ref=x"})
	require.True(t, ok)

	assert.Equal(t, a.Identity, b.Identity)
}

func TestProfileExtractRejectsPlatformPaths(t *testing.T) {
	e := ForMode(model.ModeProfileSearch)
	for _, u := range []string{
		"https://instagram.com/p",
		"https://instagram.com/explore",
		"https://instagram.com/reels",
		"https://instagram.com/accounts",
		"https://instagram.com/privacy",
	} {
		_, ok := e.Extract(model.RawResult{URL: u})
		assert.False(t, ok, u)
	}
}

func TestProfileExtractRejectsNonPlatformURL(t *testing.T) {
	e := ForMode(model.ModeProfileSearch)
	_, ok := e.Extract(model.RawResult{URL: "https://acme.com/alice"})
	assert.False(t, ok)
}

func TestProfileExtractMinimalRecord(t *testing.T) {
	e := ForMode(model.ModeProfileSearch)
	lead, ok := e.Extract(model.RawResult{URL: "https://instagram.com/bob_lifts"})
	require.True(t, ok)
	assert.Equal(t, "bob_lifts", lead.Identity)
	assert.False(t, lead.DisplayName.Set())
	assert.False(t, lead.Email.Set())
	assert.Equal(t, "N/A", lead.Email.String())
}

func TestMatchRoleMostSpecificFirst(t *testing.T) {
	assert.Equal(t, "Co-Founder", matchRole("Jane, Co-Founder of Acme"))
	assert.Equal(t, "Managing Director", matchRole("managing director at Acme"))
	assert.Equal(t, "", matchRole("just a bio with no titles"))
}

func TestListingExtract(t *testing.T) {
	e := ForMode(model.ModeListingSearch)
	lead, ok := e.Extract(model.RawResult{
		URL:     "https://www.linkedin.com/company/Acme-Plumbing/?trk=serp",
		Title:   "Acme Plumbing | LinkedIn",
		Snippet: "Acme Plumbing | Construction | 1,204 followers on LinkedIn. Headquartered in Austin, Texas | 11-50 employees",
	})
	require.True(t, ok)

	assert.Equal(t, "linkedin.com/company/acme-plumbing", lead.Identity)
	assert.Equal(t, "Acme Plumbing", lead.Company.Value())
	assert.Equal(t, "1,204", lead.Followers.Value())
	assert.Equal(t, "11-50", lead.CompanySize.Value())
	assert.Equal(t, "Construction", lead.Industry.Value())
	assert.Equal(t, "linkedin", lead.Source.Value())
	assert.Equal(t, "https://www.linkedin.com/company/acme-plumbing", lead.Social("linkedin").Value())
}

func TestListingExtractRejectsPersonProfiles(t *testing.T) {
	e := ForMode(model.ModeListingSearch)
	_, ok := e.Extract(model.RawResult{URL: "https://linkedin.com/in/jane-doe"})
	assert.False(t, ok)
}

func TestBusinessExtract(t *testing.T) {
	e := ForMode(model.ModeBusinessSearch)
	lead, ok := e.Extract(model.RawResult{
		URL:     "https://www.austindrains.com/contact",
		Title:   "Austin Drains - Drain Cleaning in Austin, TX",
		Snippet: "Call (512) 555-0100 or email info@austindrains.com for a free quote.",
	})
	require.True(t, ok)

	assert.Equal(t, "austindrains.com", lead.Identity)
	assert.Equal(t, "Austin Drains", lead.Company.Value())
	assert.Equal(t, "https://www.austindrains.com", lead.Website.Value())
	assert.Equal(t, "info@austindrains.com", lead.Email.Value())
	assert.Equal(t, "5125550100", lead.Phone.Value())
}

func TestBusinessExtractCollapsesPagesOfOneSite(t *testing.T) {
	e := ForMode(model.ModeOpenWebSearch)

	a, ok := e.Extract(model.RawResult{URL: "https://acme.com/contact"})
	require.True(t, ok)
	b, ok := e.Extract(model.RawResult{URL: "https://www.acme.com/about-us"})
	require.True(t, ok)

	assert.Equal(t, a.Identity, b.Identity)
}

func TestBusinessExtractSkipsPlatforms(t *testing.T) {
	e := ForMode(model.ModeOpenWebSearch)
	_, ok := e.Extract(model.RawResult{URL: "https://www.yelp.com/biz/acme-plumbing"})
	assert.False(t, ok)
}

func TestNameFromTitle(t *testing.T) {
	assert.Equal(t, "Acme Plumbing", nameFromTitle("Acme Plumbing | Austin TX"))
	assert.Equal(t, "Acme Plumbing", nameFromTitle("Acme Plumbing - Home"))
	assert.Equal(t, "Acme Plumbing", nameFromTitle("Acme Plumbing — Contact"))
	assert.Equal(t, "No Separator Here", nameFromTitle("No Separator Here"))
}
