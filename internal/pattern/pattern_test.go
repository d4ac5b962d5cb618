package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	valid := []string{
		"info@acmeplumbing.com",
		"Jane.Doe+leads@mail.co.uk",
		"owner@sub.domain.io",
	}
	for _, e := range valid {
		assert.True(t, ValidEmail(e), e)
	}

	invalid := []string{
		"not-an-email",
		"user@example.com",       // placeholder domain
		"errors@sentry.io",       // tracking domain
		"hello@wixpress.com",     // platform internal
		"logo@2x.png",            // asset filename
		"icon@3x.webp",           // asset filename
		"bundle.min@cdn.site.js", // asset filename
		"a@b",                    // no TLD
	}
	for _, e := range invalid {
		assert.False(t, ValidEmail(e), e)
	}
}

func TestValidEmailRequiresFullMatch(t *testing.T) {
	// A string containing an email is not itself an email.
	assert.False(t, ValidEmail("contact us at info@acme.com today"))
}

func TestCleanPhone(t *testing.T) {
	assert.Equal(t, "+15125550100", CleanPhone("+1 (512) 555-0100"))
	assert.Equal(t, "5125550100", CleanPhone("512.555.0100"))
	assert.Equal(t, "4420794600", CleanPhone("44 20 7946 00"))
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("+1 (512) 555-0100"))
	assert.True(t, ValidPhone("020 7946 0958"))
	assert.False(t, ValidPhone("12345"))              // too short
	assert.False(t, ValidPhone("12345678901234567"))  // too long
	assert.False(t, ValidPhone("0000 123 456"))       // zero run
}

func TestMatchSocial(t *testing.T) {
	cases := map[string]string{
		"https://www.facebook.com/acmeplumbing":     "facebook",
		"https://instagram.com/alice.doe":           "instagram",
		"https://twitter.com/acme":                  "twitter",
		"https://x.com/acme":                        "twitter",
		"https://linkedin.com/in/jane-doe":          "linkedin",
		"https://www.linkedin.com/company/acme-llc": "linkedin",
		"https://youtube.com/@acmetv":               "youtube",
		"https://www.tiktok.com/@acme.shop":         "tiktok",
		"https://pinterest.com/acmedesign":          "pinterest",
	}
	for url, want := range cases {
		got, ok := MatchSocial(url)
		assert.True(t, ok, url)
		assert.Equal(t, want, got, url)
	}

	_, ok := MatchSocial("https://acme.com/about")
	assert.False(t, ok)
}

func TestSkippableDomain(t *testing.T) {
	assert.True(t, SkippableDomain("www.yelp.com"))
	assert.True(t, SkippableDomain("en.wikipedia.org"))
	assert.True(t, SkippableDomain("maps.google.co.uk"))
	assert.False(t, SkippableDomain("acmeplumbing.com"))
}
