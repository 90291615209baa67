package httpclient

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"backoffice/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient() *Client {
	return New("maystro", Config{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}, nil, nil)
}

func TestClient_GetJSON_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token abc", r.Header.Get("Authorization"))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := fastClient().GetJSON(t.Context(), srv.URL, http.Header{"Authorization": {"Token abc"}}, &out)

	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_GetJSON_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := fastClient().GetJSON(t.Context(), srv.URL, nil, &struct{}{})

	require.ErrorIs(t, err, ports.ErrRateLimited)
	assert.EqualValues(t, 3, calls.Load(), "one attempt plus two retries")
}

func TestClient_GetJSON_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := fastClient().GetJSON(t.Context(), srv.URL, nil, &struct{}{})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, "bad token", statusErr.Body)
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_GetJSON_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	err := fastClient().GetJSON(t.Context(), srv.URL, nil, &struct{}{})

	require.ErrorContains(t, err, "decode response")
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Zero(t, parseRetryAfter("", now))
	assert.Equal(t, 3*time.Second, parseRetryAfter("3", now))
	assert.Equal(t, maxRetryAfter, parseRetryAfter("3600", now))
	assert.Equal(t, 30*time.Second, parseRetryAfter(now.Add(30*time.Second).Format(http.TimeFormat), now))
	assert.Zero(t, parseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
	assert.Zero(t, parseRetryAfter("soon", now))
}

func TestRetryAfterBackOff_UsesLongerHint(t *testing.T) {
	b := &retryAfterBackOff{BackOff: constant(10 * time.Millisecond)}

	assert.Equal(t, 10*time.Millisecond, b.NextBackOff())
	b.hint = time.Second
	assert.Equal(t, time.Second, b.NextBackOff())
}

type constant time.Duration

func (c constant) NextBackOff() time.Duration { return time.Duration(c) }
func (c constant) Reset()                     {}
