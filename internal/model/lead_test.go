package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want Mode
	}{
		{"profile_search", ModeProfileSearch},
		{"profiles", ModeProfileSearch},
		{"business_search", ModeBusinessSearch},
		{"listing_search", ModeListingSearch},
		{"open_web_search", ModeOpenWebSearch},
		{"web", ModeOpenWebSearch},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseMode("telepathy")
	assert.Error(t, err)
}

func TestRequestValidate(t *testing.T) {
	ok := Request{Keyword: "plumber", Location: "Austin, TX", Mode: ModeBusinessSearch}
	assert.NoError(t, ok.Validate())

	noLocation := Request{Keyword: "plumber", Mode: ModeBusinessSearch}
	assert.Error(t, noLocation.Validate())

	badMode := Request{Location: "Austin, TX", Mode: Mode("nope")}
	assert.Error(t, badMode.Validate())

	// Keyword is optional: some modes search by location alone.
	noKeyword := Request{Location: "Austin, TX", Mode: ModeOpenWebSearch}
	assert.NoError(t, noKeyword.Validate())
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusStopped.Terminal())
}

func TestLeadSetSocialNeverOverwrites(t *testing.T) {
	var l Lead
	l.SetSocial("instagram", "https://instagram.com/alice")
	l.SetSocial("instagram", "https://instagram.com/impostor")
	assert.Equal(t, "https://instagram.com/alice", l.Social("instagram").Value())
}

func TestLeadCandidateURL(t *testing.T) {
	var l Lead
	assert.False(t, l.CandidateURL().Set())

	l.CompanyURL = NewField("https://acme.example.org")
	assert.Equal(t, "https://acme.example.org", l.CandidateURL().Value())

	l.Website = NewField("https://acme.com")
	assert.Equal(t, "https://acme.com", l.CandidateURL().Value())
}
