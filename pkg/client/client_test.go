package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gqlwire/gqlwire/internal/gqltest"
	"github.com/gqlwire/gqlwire/pkg/client"
	"github.com/gqlwire/gqlwire/pkg/graphql"
	"github.com/gqlwire/gqlwire/pkg/retry"
)

// fastRetry keeps backoff waits out of the test run.
var fastRetry = retry.Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2}

func TestExecuteReturnsEnvelope(t *testing.T) {
	srv := gqltest.NewServer(t)
	srv.Enqueue(&graphql.Response{Data: json.RawMessage(`{"books":[{"id":1,"title":"1984"}]}`)})

	c := client.New(srv.URL())
	resp, err := c.Execute(context.Background(), `{ books { id title } }`, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"books":[{"id":1,"title":"1984"}]}`, string(resp.Data))
	assert.Equal(t, 1, srv.Calls())
}

func TestExecuteCachedHitSkipsTransport(t *testing.T) {
	srv := gqltest.NewServer(t)
	srv.Enqueue(&graphql.Response{Data: json.RawMessage(`{"books":[]}`)})

	c := client.New(srv.URL())
	query := `{ books { id } }`

	first, err := c.ExecuteCached(context.Background(), query, nil)
	require.NoError(t, err)
	second, err := c.ExecuteCached(context.Background(), query, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, srv.Calls(), "the second call must be served from the cache")
	assert.Equal(t, 1, c.CacheLen())
}

func TestExecuteCachedKeyIgnoresVariableOrder(t *testing.T) {
	srv := gqltest.NewServer(t)
	srv.Enqueue(&graphql.Response{Data: json.RawMessage(`{"ok":true}`)})

	c := client.New(srv.URL())
	query := `query Q($a: Int, $b: Int) { x(a: $a, b: $b) }`

	_, err := c.ExecuteCached(context.Background(), query, map[string]interface{}{"a": 1, "b": 2})
	require.NoError(t, err)
	_, err = c.ExecuteCached(context.Background(), query, map[string]interface{}{"b": 2, "a": 1})
	require.NoError(t, err)

	assert.Equal(t, 1, srv.Calls())
}

func TestExecuteCachedStoresErrorEnvelopes(t *testing.T) {
	srv := gqltest.NewServer(t)
	srv.Enqueue(&graphql.Response{Errors: []graphql.Error{{Message: "nope"}}})

	c := client.New(srv.URL())
	query := `{ broken }`

	first, err := c.ExecuteCached(context.Background(), query, nil)
	require.NoError(t, err)
	require.True(t, first.HasErrors())

	second, err := c.ExecuteCached(context.Background(), query, nil)
	require.NoError(t, err)
	assert.True(t, second.HasErrors())
	assert.Equal(t, 1, srv.Calls(), "GraphQL-level failures are cached as-is")
}

func TestExecuteCachedSkipsStoreOnTransportError(t *testing.T) {
	srv := gqltest.NewServer(t)
	srv.EnqueueStatus(http.StatusBadGateway)
	srv.Enqueue(&graphql.Response{Data: json.RawMessage(`{"ok":true}`)})

	c := client.New(srv.URL())
	query := `{ books }`

	_, err := c.ExecuteCached(context.Background(), query, nil)
	var te *graphql.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 0, c.CacheLen(), "nothing is stored on a transport failure")

	resp, err := c.ExecuteCached(context.Background(), query, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Data))
	assert.Equal(t, 2, srv.Calls())
}

func TestExecuteCachedEncodingError(t *testing.T) {
	srv := gqltest.NewServer(t)
	c := client.New(srv.URL())

	_, err := c.ExecuteCached(context.Background(), `{ x }`, map[string]interface{}{"bad": make(chan int)})
	var encErr *graphql.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, 0, srv.Calls())
}

func TestExecuteCachedEviction(t *testing.T) {
	srv := gqltest.NewServer(t)
	srv.HandleFunc(func(req *graphql.Request) *graphql.Response {
		return &graphql.Response{Data: json.RawMessage(`{}`)}
	})

	c := client.New(srv.URL(), client.WithCacheSize(2))
	queries := []string{`{ a }`, `{ b }`, `{ c }`}
	for _, q := range queries {
		_, err := c.ExecuteCached(context.Background(), q, nil)
		require.NoError(t, err)
	}
	require.Equal(t, 3, srv.Calls())

	// `{ a }` was evicted; the others are still hits.
	for _, q := range []string{`{ b }`, `{ c }`} {
		_, err := c.ExecuteCached(context.Background(), q, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, srv.Calls())

	_, err := c.ExecuteCached(context.Background(), `{ a }`, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, srv.Calls())
}

func TestExecuteWithRetryExhaustsAttempts(t *testing.T) {
	srv := gqltest.NewServer(t)
	for i := 0; i < 3; i++ {
		srv.EnqueueStatus(http.StatusServiceUnavailable)
	}

	c := client.New(srv.URL(), client.WithRetryPolicy(fastRetry))
	_, err := c.ExecuteWithRetry(context.Background(), `{ books }`, nil, 3)

	var te *graphql.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
	assert.Equal(t, 3, srv.Calls(), "transport must be invoked exactly maxAttempts times")
}

func TestExecuteWithRetryRecovers(t *testing.T) {
	srv := gqltest.NewServer(t)
	srv.EnqueueStatus(http.StatusBadGateway)
	srv.Enqueue(&graphql.Response{Data: json.RawMessage(`{"ok":true}`)})

	c := client.New(srv.URL(), client.WithRetryPolicy(fastRetry))
	resp, err := c.ExecuteWithRetry(context.Background(), `{ books }`, nil, 3)

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Data))
	assert.Equal(t, 2, srv.Calls())
}

func TestExecuteWithRetryDoesNotRetrySemanticErrors(t *testing.T) {
	srv := gqltest.NewServer(t)
	srv.HandleFunc(func(req *graphql.Request) *graphql.Response {
		return &graphql.Response{
			Data:   json.RawMessage(`{"book":null}`),
			Errors: []graphql.Error{{Message: "boom"}},
		}
	})

	c := client.New(srv.URL(), client.WithRetryPolicy(fastRetry))
	_, err := c.ExecuteWithRetry(context.Background(), `{ book }`, nil, 5)

	var execErr *graphql.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 1, srv.Calls(), "semantic errors get exactly one attempt")
	assert.True(t, execErr.PartialData(), "partial data must remain observable")
}

func TestExecuteBatch(t *testing.T) {
	srv := gqltest.NewServer(t)
	srv.HandleFunc(func(req *graphql.Request) *graphql.Response {
		return &graphql.Response{Data: json.RawMessage(`{"q":"` + req.OperationName + `"}`)}
	})

	c := client.New(srv.URL())
	reqs := []*graphql.Request{
		{Query: `query A { a }`, OperationName: "A"},
		{Query: `query B { b }`, OperationName: "B"},
	}
	envelopes, err := c.ExecuteBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, envelopes, 2)
	assert.JSONEq(t, `{"q":"A"}`, string(envelopes[0].Data))
	assert.JSONEq(t, `{"q":"B"}`, string(envelopes[1].Data))
	assert.Equal(t, 1, srv.Calls())
}

func TestSubscribeEndToEnd(t *testing.T) {
	srv := gqltest.NewServer(t)
	srv.SetScript(gqltest.Script{
		Events: []interface{}{
			map[string]interface{}{"bookAdded": map[string]interface{}{"id": 10}},
		},
	})

	c := client.New(srv.URL(), client.WithWebSocketEndpoint(srv.WSURL()))
	sess, events, err := c.Subscribe(context.Background(), `subscription { bookAdded { id } }`, nil)
	require.NoError(t, err)
	defer func() { _ = sess.Close() }()

	var got []string
	for payload := range events {
		got = append(got, string(payload))
	}
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"bookAdded":{"id":10}}`, got[0])
	assert.NoError(t, sess.Err())
}

func TestSubscribeWithoutWSEndpoint(t *testing.T) {
	c := client.New("http://example.invalid/graphql")
	_, _, err := c.Subscribe(context.Background(), `subscription { x }`, nil)
	assert.ErrorIs(t, err, client.ErrNoWebSocketEndpoint)
}
