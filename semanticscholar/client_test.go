package semanticscholar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"literature-survey/config"
)

// testClient baut einen Client gegen einen Test-Server, praktisch ohne
// Pacing, damit die Tests nicht künstlich warten.
func testClient(baseURL string, maxAttempts int) *Client {
	cfg := &config.Config{
		GraphBaseURL:           baseURL,
		RecommendationsBaseURL: baseURL,
		HTTPTimeoutSeconds:     5,
		MaxAttempts:            maxAttempts,
		PaperBatchSize:         500,
		AuthorBatchSize:        1000,
		RequestsPerSecond:      10000,
	}
	c := NewClient(cfg, zap.NewNop())
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func TestCallRetriesOnRateLimitAndHonorsRetryAfter(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := testClient(server.URL, 3)
	start := time.Now()

	var out map[string]bool
	err := client.call(context.Background(), http.MethodGet, server.URL+"/x", nil, nil, &out)

	require.NoError(t, err)
	assert.True(t, out["ok"])
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestCallRetriesOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := testClient(server.URL, 3)
	err := client.call(context.Background(), http.MethodGet, server.URL+"/x", nil, nil, nil)

	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCallRetriesAfterTimeout(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// Erste Antwort kommt erst nach dem Client-Timeout.
			time.Sleep(time.Second)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := testClient(server.URL, 3)
	client.httpClient.Timeout = 200 * time.Millisecond

	start := time.Now()
	var out map[string]bool
	err := client.call(context.Background(), http.MethodGet, server.URL+"/x", nil, nil, &out)

	require.NoError(t, err)
	assert.True(t, out["ok"])
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	// Zwischen den Versuchen liegt die feste Timeout-Pause.
	assert.GreaterOrEqual(t, time.Since(start), timeoutRetryDelay)
}

func TestCallGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := testClient(server.URL, 2)
	err := client.call(context.Background(), http.MethodGet, server.URL+"/x", nil, nil, nil)

	var transient *TransientError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, http.StatusServiceUnavailable, transient.Status)
	assert.Equal(t, 2, transient.Attempts)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCallDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(server.URL, 5)
	err := client.call(context.Background(), http.MethodGet, server.URL+"/x", nil, nil, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestCallSendsAPIKeyHeader(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := testClient(server.URL, 1)
	client.cfg.SemanticScholarAPIKey = "geheim"

	err := client.call(context.Background(), http.MethodGet, server.URL+"/x", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "geheim", gotKey)
}

func TestCallStopsWhenContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	client := testClient(server.URL, 5)
	err := client.call(ctx, http.MethodGet, server.URL+"/x", nil, nil, nil)

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
