// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry provides the retry policy applied to provider calls.
// Stages receive a Policy value instead of hard-coding their own loops,
// so attempt ceilings and backoff are configurable and testable.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/pdiddy/report-engine/pkg/types"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = time.Second
)

// Policy describes how many times to attempt an operation and how long to
// wait between attempts. The zero value uses the defaults (3 attempts,
// 1s base).
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BackoffBase is the base duration for exponential backoff. The wait
	// before retry n is 2^(n-1) * BackoffBase.
	BackoffBase time.Duration
}

// FromConfig builds a Policy from a stage's RetryConfig.
func FromConfig(cfg types.RetryConfig) Policy {
	return Policy{MaxAttempts: cfg.MaxAttempts, BackoffBase: cfg.BackoffBase}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = defaultBackoffBase
	}
	return p
}

// backoff returns the wait before the given retry (1-based).
func (p Policy) backoff(retry int) time.Duration {
	return time.Duration(math.Pow(2, float64(retry-1))) * p.BackoffBase
}

// StatusError reports a non-2xx HTTP response from a provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("provider returned HTTP %d", e.Code)
	}
	return fmt.Sprintf("provider returned HTTP %d: %s", e.Code, e.Body)
}

// Transient reports whether the status is worth retrying: rate limiting
// or a server-side failure.
func (e *StatusError) Transient() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an error as not retryable. Do returns it immediately
// without consuming further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs fn up to p.MaxAttempts times, sleeping with exponential backoff
// between attempts. A non-transient StatusError or an error marked
// Permanent stops the loop early. If the context is cancelled during a
// backoff wait, Do returns ctx.Err().
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	p = p.normalized()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff(attempt - 1)):
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		var status *StatusError
		if errors.As(err, &status) && !status.Transient() {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("after %d attempts: %w", p.MaxAttempts, lastErr)
}
