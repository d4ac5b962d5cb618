package serp

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrChallenged marks a query abandoned because the engine kept serving a
// bot challenge after all backoff attempts.
var ErrChallenged = eris.New("serp: backend served a bot challenge")

// challengePhrases appear in interstitial pages served instead of results.
var challengePhrases = []string{
	"unusual traffic",
	"our systems have detected",
	"are you a robot",
	"confirm you are a human",
	"verify you are human",
	"recaptcha",
	"g-recaptcha",
	"hcaptcha",
	"cf-browser-verification",
	"cf-chl-",
	"attention required! | cloudflare",
	"checking if the site connection is secure",
	"enable javascript and cookies to continue",
}

// DetectChallenge reports whether the HTML is a bot challenge page rather
// than a result page.
func DetectChallenge(html string) bool {
	lower := strings.ToLower(html)
	for _, phrase := range challengePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
