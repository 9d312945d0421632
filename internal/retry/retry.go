// Package retry wraps single remote calls with bounded exponential
// backoff. It is deliberately decoupled from what the wrapped operation
// does; callers pick the policy per call site.
package retry

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"nba-alumni-digest/internal/metrics"
)

// Policy bounds the retry loop for one wrapped operation.
type Policy struct {
	// MaxAttempts is the total number of attempts, counting the first.
	MaxAttempts int
	// BaseDelay is doubled after every failed attempt.
	BaseDelay time.Duration
	// MaxJitter adds a uniform random component to each backoff delay.
	MaxJitter time.Duration
}

// transienter is implemented by errors that know whether a retry is
// worth it, e.g. upstream status errors.
type transienter interface {
	Transient() bool
}

// Transient classifies failures worth retrying: upstream statuses that
// signal overload, network timeouts, connection resets, and truncated
// response bodies. Everything else propagates immediately.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	var t transienter
	if errors.As(err, &t) {
		return t.Transient()
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return false
}

// Do runs op up to p.MaxAttempts times, sleeping
// BaseDelay*2^(attempt-1) plus jitter between attempts. Non-transient
// failures propagate without retry; after exhausting attempts the last
// transient failure is returned. No attempt result is cached.
func Do[T any](ctx context.Context, p Policy, label string, op func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	// A non-positive budget still means one attempt; returning the zero
	// T with a nil error would be a fake success.
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		out, err := op()
		if err == nil {
			return out, nil
		}
		if !Transient(err) {
			return zero, err
		}
		lastErr = err
		metrics.RecordRetry(label)

		if attempt == p.MaxAttempts {
			break
		}

		delay := p.backoff(attempt)
		log.Warn().
			Str("operation", label).
			Int("attempt", attempt).
			Int("max_attempts", p.MaxAttempts).
			Dur("backoff", delay).
			Err(err).
			Msg("Transient failure, retrying after backoff")

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	log.Warn().
		Str("operation", label).
		Int("attempts", p.MaxAttempts).
		Err(lastErr).
		Msg("Retry attempts exhausted")
	return zero, lastErr
}

func (p Policy) backoff(attempt int) time.Duration {
	delay := p.BaseDelay * time.Duration(1<<uint(attempt-1))
	if p.MaxJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.MaxJitter)))
	}
	return delay
}
