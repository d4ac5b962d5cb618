package serp

import (
	"errors"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/lead-engine/internal/backoff"
)

func TestBrowserRetryableClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"challenge", ErrChallenged, true},
		{"wrapped challenge", eris.Wrap(ErrChallenged, "serp: google fetch"), true},
		{"render failure", backoff.MarkTransient(eris.New("rendering page: tab crashed")), true},
		{"wrapped render failure", eris.Wrap(backoff.MarkTransient(errors.New("navigation timeout")), "serp: google fetch"), true},
		{"permanent", errors.New("malformed target url"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, browserRetryable(tt.err))
		})
	}
}

func TestBrowserBackendOptions(t *testing.T) {
	policy := backoff.Policy{MaxAttempts: 1}
	b := NewBrowserBackend(true,
		WithBrowserChallengePolicy(policy),
		WithPacing(time.Millisecond, 2*time.Millisecond),
	)
	defer b.Close()

	assert.Equal(t, 1, b.policy.MaxAttempts)
	assert.Equal(t, time.Millisecond, b.paceMin)
	assert.Equal(t, 2*time.Millisecond, b.paceMax)
}
