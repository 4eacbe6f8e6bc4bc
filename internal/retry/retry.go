// Package retry runs network calls under a bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
)

// Policy is a bounded exponential backoff.
type Policy struct {
	Attempts      int
	InitialDelay  time.Duration
	BackoffFactor float64
}

// DefaultPolicy makes three attempts, waiting 1s then 1.5s.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, InitialDelay: time.Second, BackoffFactor: 1.5}
}

func (p Policy) delay(attempt int) time.Duration {
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 1
	}
	return time.Duration(float64(p.InitialDelay) * math.Pow(factor, float64(attempt)))
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns it at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do calls fn until it succeeds, returns a Permanent error or the policy is
// exhausted. Earlier failures are logged; the last one is returned.
func Do[T any](ctx context.Context, p Policy, what string, fn func(context.Context) (T, error)) (T, error) {
	attempts := max(p.Attempts, 1)
	var zero T
	var lastErr error
	for i := 0; i < attempts; i++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			log.Debug().Err(perm.err).Str("op", what).Int("attempt", i+1).Msg("operation failed permanently")
			return zero, fmt.Errorf("%s: %w", what, perm.err)
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		backoff := p.delay(i)
		log.Warn().Err(err).Str("op", what).Int("attempt", i+1).Int("of", attempts).
			Dur("backoff", backoff).Msg("operation failed, retrying")
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}
	}
	log.Error().Err(lastErr).Str("op", what).Int("attempts", attempts).Msg("operation failed")
	return zero, fmt.Errorf("%s failed after %d attempts: %w", what, attempts, lastErr)
}
