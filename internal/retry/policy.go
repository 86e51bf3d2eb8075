// Package retry provides the bounded retry policy shared by the outbound
// adapters (generative model, nutrition analysis, vector index, image
// generation).
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Policy describes how many times an operation is attempted and how long to
// wait between attempts.
type Policy struct {
	Name        string
	MaxAttempts int
	// Delays[i] is the wait before retry i+1. The last entry repeats.
	Delays []time.Duration
	// Retryable reports whether err may be retried. Nil retries everything.
	Retryable func(err error) bool
	// DelayFor overrides Delays for a given error. retry is 0-based.
	DelayFor func(err error, retry int) time.Duration

	logger *zap.Logger
}

// New returns a policy that retries every error.
func New(name string, maxAttempts int, delays ...time.Duration) Policy {
	return Policy{Name: name, MaxAttempts: maxAttempts, Delays: delays}
}

// WithRetryable returns a copy of p using fn as the retry predicate.
func (p Policy) WithRetryable(fn func(error) bool) Policy {
	p.Retryable = fn
	return p
}

// WithDelayFor returns a copy of p using fn to pick per-error delays.
func (p Policy) WithDelayFor(fn func(err error, retry int) time.Duration) Policy {
	p.DelayFor = fn
	return p
}

// WithLogger returns a copy of p that logs retries to l.
func (p Policy) WithLogger(l *zap.Logger) Policy {
	p.logger = l
	return p
}

// WithoutDelay returns a copy of p with every wait removed.
func (p Policy) WithoutDelay() Policy {
	p.Delays = nil
	p.DelayFor = nil
	return p
}

// Do runs op until it succeeds, returns a non-retryable error, the attempt
// budget is spent, or ctx is done. The last error from op is returned.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	attempt := 0

	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		if p.logger == nil {
			return
		}
		p.logger.Warn("retrying after failure",
			zap.String("policy", p.Name),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.MaxAttempts),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	sched := &schedule{policy: &p, lastErr: &lastErr}
	return backoff.RetryNotify(operation, backoff.WithContext(sched, ctx), notify)
}

func (p *Policy) delay(err error, retry int) time.Duration {
	if p.DelayFor != nil {
		return p.DelayFor(err, retry)
	}
	return Schedule(p.Delays, retry)
}

// Schedule returns delays[retry], repeating the last entry. An empty
// schedule yields zero.
func Schedule(delays []time.Duration, retry int) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	if retry >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[retry]
}

// schedule adapts a Policy to backoff.BackOff.
type schedule struct {
	policy  *Policy
	lastErr *error
	retries int
}

func (s *schedule) NextBackOff() time.Duration {
	if s.retries+1 >= s.policy.MaxAttempts {
		return backoff.Stop
	}
	d := s.policy.delay(*s.lastErr, s.retries)
	s.retries++
	return d
}

func (s *schedule) Reset() {
	s.retries = 0
}
