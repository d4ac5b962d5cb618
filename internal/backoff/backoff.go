// Package backoff provides retry policies for transient failures and for
// search-engine bot challenges. Waits are context-aware: cancellation
// aborts a sleep immediately.
package backoff

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Policy describes a retry schedule. When Step is non-zero the wait grows
// linearly (Initial + Step per completed attempt); otherwise it grows by
// Multiplier. JitterMin/JitterMax add a uniform random delay on top.
type Policy struct {
	MaxAttempts int
	Initial     time.Duration
	Step        time.Duration
	Multiplier  float64
	Max         time.Duration
	JitterMin   time.Duration
	JitterMax   time.Duration

	// ShouldRetry filters errors; nil retries everything.
	ShouldRetry func(error) bool
}

// Transient returns a default policy for flaky network operations.
func Transient() Policy {
	return Policy{
		MaxAttempts: 3,
		Initial:     500 * time.Millisecond,
		Multiplier:  2,
		Max:         10 * time.Second,
		ShouldRetry: IsTransient,
	}
}

// Challenge returns the policy used when a backend serves a bot challenge.
// The schedule is deliberately slow: engines lift soft blocks after tens of
// seconds, and hammering them converts a soft block into a hard one.
func Challenge() Policy {
	return Policy{
		MaxAttempts: 3,
		Initial:     15 * time.Second,
		Step:        15 * time.Second,
		JitterMin:   5 * time.Second,
		JitterMax:   15 * time.Second,
	}
}

// wait computes the delay before retry number attempt (0-based count of
// completed attempts).
func (p Policy) wait(attempt int) time.Duration {
	var d time.Duration
	if p.Step > 0 {
		d = p.Initial + time.Duration(attempt)*p.Step
	} else {
		d = p.Initial
		for i := 0; i < attempt; i++ {
			d = time.Duration(float64(d) * p.Multiplier)
		}
	}
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}
	if p.JitterMax > p.JitterMin {
		d += p.JitterMin + time.Duration(rand.Int63n(int64(p.JitterMax-p.JitterMin)))
	}
	return d
}

// Do runs fn up to MaxAttempts times, sleeping per the policy between
// attempts. It returns nil on the first success, the context error if the
// context ends during a wait, and the last attempt error otherwise.
func Do(ctx context.Context, p Policy, op string, fn func(context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if p.ShouldRetry != nil && !p.ShouldRetry(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts-1 {
			break
		}
		d := p.wait(attempt)
		zap.L().Debug("retrying after backoff",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", d),
			zap.Error(lastErr))
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return eris.Wrapf(lastErr, "%s: retries exhausted after %d attempts", op, p.MaxAttempts)
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// MarkTransient tags err as retryable.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err carries the transient tag anywhere in its
// chain.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
