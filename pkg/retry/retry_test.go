package retry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gqlwire/gqlwire/pkg/graphql"
)

// fastPolicy keeps waits out of the test run.
func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2}
}

func TestDoRetriesTransportErrors(t *testing.T) {
	calls := 0
	_, err := fastPolicy(3).Do(context.Background(), func(ctx context.Context) (*graphql.Response, error) {
		calls++
		return nil, &graphql.TransportError{URL: "http://x", StatusCode: 503}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls, "transport must be invoked exactly MaxAttempts times")

	var te *graphql.TransportError
	require.ErrorAs(t, err, &te, "exhaustion must surface the last transport error, not a wrapper")
	assert.Equal(t, 503, te.StatusCode)
}

func TestDoReturnsLastCause(t *testing.T) {
	statuses := []int{500, 502, 503}
	i := 0
	_, err := fastPolicy(3).Do(context.Background(), func(ctx context.Context) (*graphql.Response, error) {
		e := &graphql.TransportError{URL: "http://x", StatusCode: statuses[i]}
		i++
		return nil, e
	})

	var te *graphql.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 503, te.StatusCode)
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	want := &graphql.Response{Data: json.RawMessage(`{"ok":true}`)}
	got, err := fastPolicy(5).Do(context.Background(), func(ctx context.Context) (*graphql.Response, error) {
		calls++
		if calls < 3 {
			return nil, &graphql.TransportError{URL: "http://x", Err: errors.New("refused")}
		}
		return want, nil
	})

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 3, calls)
}

func TestDoDoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	semantic := &graphql.ExecutionError{Errors: []graphql.Error{{Message: "boom"}}}
	_, err := fastPolicy(5).Do(context.Background(), func(ctx context.Context) (*graphql.Response, error) {
		calls++
		return nil, semantic
	})

	assert.Equal(t, 1, calls, "semantic errors must not be retried")
	var execErr *graphql.ExecutionError
	assert.ErrorAs(t, err, &execErr)
}

func TestDoSingleAttemptFloor(t *testing.T) {
	calls := 0
	_, err := Policy{MaxAttempts: 0}.Do(context.Background(), func(ctx context.Context) (*graphql.Response, error) {
		calls++
		return nil, &graphql.TransportError{URL: "http://x"}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoContextCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 3, InitialBackoff: time.Minute}

	done := make(chan error, 1)
	go func() {
		_, err := policy.Do(ctx, func(ctx context.Context) (*graphql.Response, error) {
			return nil, &graphql.TransportError{URL: "http://x"}
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not abort on context cancellation")
	}
}

func TestJitteredStaysInRange(t *testing.T) {
	p := Policy{Jitter: 0.5}
	base := 100 * time.Millisecond
	for i := 0; i < 100; i++ {
		d := p.jittered(base)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}

	assert.Equal(t, base, Policy{}.jittered(base), "zero jitter leaves the delay untouched")
}

func TestNextGrowsAndCaps(t *testing.T) {
	p := Policy{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond, Multiplier: 2}

	d := p.next(100 * time.Millisecond)
	assert.Equal(t, 200*time.Millisecond, d)
	d = p.next(d)
	assert.Equal(t, 300*time.Millisecond, d)
	d = p.next(d)
	assert.Equal(t, 300*time.Millisecond, d)
}
