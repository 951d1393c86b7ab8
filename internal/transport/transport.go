// Package transport contains the retrying HTTP client used for all
// pulsekit API calls. It knows nothing about queues or feature flags.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/teracrafts/pulsekit-go/internal/version"
	"github.com/teracrafts/pulsekit-go/types"
)

// Config contains HTTP client configuration.
type Config struct {
	Endpoint       string
	PersonalAPIKey string
	Timeout        time.Duration
	Retry          *RetryPolicy
	HTTPClient     *http.Client
	Logger         types.Logger
}

// Client performs HTTP calls against the pulsekit API with a per-instance
// retry policy.
type Client struct {
	endpoint       string
	personalAPIKey string
	client         *http.Client
	retry          *RetryPolicy
	logger         types.Logger
}

// errorBody is the error envelope returned with non-2xx responses.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// New creates a new transport client.
func New(config *Config) *Client {
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	retry := config.Retry
	if retry == nil {
		retry = DefaultRetryPolicy()
	}

	logger := config.Logger
	if logger == nil {
		logger = &types.NullLogger{}
	}

	return &Client{
		endpoint:       config.Endpoint,
		personalAPIKey: config.PersonalAPIKey,
		client:         client,
		retry:          retry,
		logger:         logger,
	}
}

// Post performs a POST request with a JSON body. A non-nil out is filled
// from the response body on success.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.request(ctx, http.MethodPost, path, body, out, false)
}

// Get performs a GET request authorized with the personal API key.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.request(ctx, http.MethodGet, path, nil, out, true)
}

// request performs an HTTP request with retries per the retry policy.
func (c *Client) request(ctx context.Context, method, path string, body, out any, authorized bool) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return types.NewErrorWithCause(types.ErrConfigInvalidMessage, "failed to marshal request body", err)
		}
		payload = encoded
	}

	var lastErr error

	for attempt := 0; ; attempt++ {
		err := c.doRequest(ctx, method, path, payload, out, authorized)
		if err == nil {
			return nil
		}

		lastErr = err

		if !c.retry.Retryable(err) || attempt >= c.retry.MaxRetries {
			break
		}

		delay := c.retry.Backoff(attempt + 1)

		c.logger.Debug("Retrying request",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.retry.MaxRetries,
			"delay", delay,
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return types.NewErrorWithCause(types.ErrNetworkTimeout, "request canceled", ctx.Err())
		case <-time.After(delay):
		}
	}

	return lastErr
}

// doRequest performs a single HTTP request.
func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte, out any, authorized bool) error {
	url := c.endpoint + path

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return types.NewErrorWithCause(types.ErrConfigInvalidMessage, "failed to create request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.SDKName+"/"+version.SDKVersion)
	if authorized {
		req.Header.Set("Authorization", "Bearer "+c.personalAPIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return types.NewErrorWithCause(types.ErrNetworkTimeout, "request timed out", err)
		}
		return types.NewErrorWithCause(types.ErrNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.NewErrorWithCause(types.ErrNetwork, "failed to read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return types.NewErrorWithCause(types.ErrNetwork, "failed to decode response body", err)
		}
	}

	return nil
}

// statusError translates a non-2xx response into an Error carrying the
// server's error message, falling back to the status text.
func statusError(statusCode int, body []byte) *types.Error {
	var envelope errorBody
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return types.StatusError(statusCode, envelope.Error.Message)
	}
	return types.StatusError(statusCode, http.StatusText(statusCode))
}

// isTimeout reports whether err is a timeout establishing or completing a
// request. Timeouts are treated as retryable network errors.
func isTimeout(err error) bool {
	for err != nil {
		if t, ok := err.(interface{ Timeout() bool }); ok && t.Timeout() {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
