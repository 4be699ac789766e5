// Package retry runs an operation under a bounded, fixed-delay retry policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned (wrapped) when every attempt failed.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Sleeper pauses between attempts. It returns early with ctx.Err() on
// cancellation.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the real-time Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Policy is a bounded retry with a constant pause between attempts.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Sleep       Sleeper
}

// Option configures a Policy.
type Option func(*Policy)

func WithMaxAttempts(n int) Option { return func(p *Policy) { p.MaxAttempts = n } }

func WithDelay(d time.Duration) Option { return func(p *Policy) { p.Delay = d } }

func WithSleeper(s Sleeper) Option { return func(p *Policy) { p.Sleep = s } }

// New returns a policy of 3 attempts, 1s apart, adjusted by opts.
func New(opts ...Option) Policy {
	p := Policy{MaxAttempts: 3, Delay: time.Second, Sleep: ContextSleep}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Do calls fn until it succeeds, the attempts run out, or ctx is done.
// There is no pause after the final attempt. The attempt number passed to fn
// starts at 1.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = fn(ctx, attempt); lastErr == nil {
			return nil
		}
		if attempt < attempts {
			if err := sleep(ctx, p.Delay); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, lastErr)
}
