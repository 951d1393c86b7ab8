package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teracrafts/pulsekit-go/types"
)

func fastPolicy(maxRetries int) *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:        maxRetries,
		BaseDelay:         time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func newTestClient(url string, policy *RetryPolicy) *Client {
	return New(&Config{
		Endpoint:       url,
		PersonalAPIKey: "personal-key",
		Timeout:        time.Second,
		Retry:          policy,
		Logger:         &types.NullLogger{},
	})
}

func TestPostSuccess(t *testing.T) {
	var gotBody map[string]any
	var gotUA, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"status": 1})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, fastPolicy(0))

	var out map[string]any
	err := c.Post(context.Background(), "/batch/", map[string]any{"api_key": "k"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "k", gotBody["api_key"])
	assert.Equal(t, float64(1), out["status"])
	assert.Equal(t, "application/json", gotContentType)
	assert.Contains(t, gotUA, "pulsekit-go/")
}

func TestGetSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, fastPolicy(0))
	require.NoError(t, c.Get(context.Background(), "/api/feature_flag", nil))
	assert.Equal(t, "Bearer personal-key", gotAuth)
}

func TestPostDoesNotSendBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, fastPolicy(0))
	require.NoError(t, c.Post(context.Background(), "/decide/", map[string]any{}, nil))
	assert.Empty(t, gotAuth)
}

func TestServerErrorRetriedToCap(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, fastPolicy(3))
	err := c.Post(context.Background(), "/batch/", map[string]any{}, nil)

	require.Error(t, err)
	assert.Equal(t, int32(4), attempts.Load()) // initial attempt + 3 retries

	var serr *types.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusInternalServerError, serr.StatusCode)
}

func TestBadRequestNeverRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad api key"}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, fastPolicy(3))
	err := c.Post(context.Background(), "/batch/", map[string]any{}, nil)

	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())

	var serr *types.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "bad api key", serr.Message)
	assert.False(t, serr.Recoverable())
}

func TestTooManyRequestsRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, fastPolicy(3))
	err := c.Post(context.Background(), "/batch/", map[string]any{}, nil)

	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestStatusTextFallbackForEmptyErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, fastPolicy(0))
	err := c.Post(context.Background(), "/batch/", map[string]any{}, nil)

	var serr *types.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusText(http.StatusServiceUnavailable), serr.Message)
}

func TestConnectionFailureIsRetryableNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from now on

	c := newTestClient(srv.URL, fastPolicy(1))
	err := c.Post(context.Background(), "/batch/", map[string]any{}, nil)

	var serr *types.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, types.ErrNetwork, serr.Code)
	assert.True(t, serr.Recoverable())
}

func TestTimeoutIsRetryable(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(&Config{
		Endpoint:   srv.URL,
		Timeout:    20 * time.Millisecond,
		Retry:      fastPolicy(1),
		HTTPClient: &http.Client{Timeout: 20 * time.Millisecond},
		Logger:     &types.NullLogger{},
	})
	err := c.Post(context.Background(), "/batch/", map[string]any{}, nil)

	require.Error(t, err)
	assert.Equal(t, int32(2), attempts.Load())

	var serr *types.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, types.ErrNetworkTimeout, serr.Code)
}

func TestMarshalFailureIsPermanent(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, fastPolicy(3))
	err := c.Post(context.Background(), "/batch/", map[string]any{"bad": func() {}}, nil)

	require.Error(t, err)
	assert.Equal(t, int32(0), attempts.Load())

	var serr *types.Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, types.ErrConfigInvalidMessage, serr.Code)
}
