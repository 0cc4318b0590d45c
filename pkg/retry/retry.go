package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/gqlwire/gqlwire/pkg/graphql"
)

// Policy controls how many times a transport call is attempted and how long
// to wait between attempts.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration
	// Multiplier grows the delay after each failed attempt.
	Multiplier float64
	// Jitter randomizes each delay by up to +/- Jitter fraction of itself,
	// spreading out retries from callers that failed at the same moment.
	// 0 disables jitter; 0.5 means a delay varies by up to half.
	Jitter float64
}

// DefaultPolicy returns the policy used when none is configured:
// 3 attempts, 100ms initial backoff doubling up to 5s, half jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.5,
	}
}

// Func is one transport attempt.
type Func func(ctx context.Context) (*graphql.Response, error)

// Do invokes fn up to p.MaxAttempts times, retrying only when the returned
// error is a *graphql.TransportError. Any other error, and any response
// (errors envelope included), is returned immediately.
//
// On exhausting all attempts Do returns the last transport error unchanged,
// so the final failure carries the last underlying cause. Context
// cancellation during a backoff wait aborts with ctx.Err().
func (p Policy) Do(ctx context.Context, fn Func) (*graphql.Response, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := p.InitialBackoff
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := fn(ctx)
		if err == nil {
			return resp, nil
		}

		var te *graphql.TransportError
		if !errors.As(err, &te) {
			return nil, err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if wait := p.jittered(delay); wait > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		delay = p.next(delay)
	}
	return nil, lastErr
}

// jittered applies the jitter fraction to a delay.
func (p Policy) jittered(d time.Duration) time.Duration {
	if d <= 0 || p.Jitter <= 0 {
		return d
	}
	// Spread the delay across [d*(1-Jitter), d*(1+Jitter)].
	spread := float64(d) * p.Jitter
	return time.Duration(float64(d) - spread + rand.Float64()*2*spread)
}

// next grows the delay for the following attempt.
func (p Policy) next(d time.Duration) time.Duration {
	if d <= 0 {
		return p.InitialBackoff
	}
	mult := p.Multiplier
	if mult <= 1 {
		return d
	}
	grown := time.Duration(float64(d) * mult)
	if p.MaxBackoff > 0 && grown > p.MaxBackoff {
		return p.MaxBackoff
	}
	return grown
}
