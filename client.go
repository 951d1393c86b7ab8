package pulsekit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/teracrafts/pulsekit-go/internal/flags"
	"github.com/teracrafts/pulsekit-go/internal/queue"
	"github.com/teracrafts/pulsekit-go/internal/transport"
)

// Client is the pulsekit SDK client. It buffers analytics messages for
// batched delivery and resolves feature flags against a background-refreshed
// cache. A Client is safe for concurrent use.
type Client struct {
	config    *Config
	logger    Logger
	transport *transport.Client
	queue     *queue.Queue
	poller    *flags.Poller

	mu     sync.Mutex
	closed bool
}

// Batch is one delivered HTTP payload, passed to flush completions for
// introspection.
type Batch = queue.Batch

// New creates a new client for the given project API key.
func New(apiKey string, opts ...Option) (*Client, error) {
	config := DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(config)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	var logger Logger
	if config.Logger != nil {
		logger = config.Logger
	} else if config.Debug {
		logger = NewDefaultLogger(true)
	} else {
		logger = &NullLogger{}
	}

	tr := transport.New(&transport.Config{
		Endpoint:       config.Endpoint,
		PersonalAPIKey: config.PersonalAPIKey,
		Timeout:        config.Timeout,
		Retry: &transport.RetryPolicy{
			MaxRetries:        config.Retries,
			BaseDelay:         time.Second,
			MaxDelay:          30 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            100 * time.Millisecond,
		},
		HTTPClient: config.HTTPClient,
		Logger:     logger,
	})

	c := &Client{
		config:    config,
		logger:    logger,
		transport: tr,
		queue: queue.New(&queue.Config{
			APIKey:        config.APIKey,
			FlushAt:       config.FlushAt,
			FlushInterval: config.FlushInterval,
			Disabled:      config.Disabled,
			Transport:     tr,
			Logger:        logger,
		}),
	}

	if config.PersonalAPIKey != "" && !config.Disabled {
		c.poller = flags.NewPoller(&flags.PollerConfig{
			APIToken:          config.APIKey,
			Interval:          config.PollingInterval,
			BackoffMultiplier: 2.0,
			MaxInterval:       5 * time.Minute,
			Transport:         tr,
			Logger:            logger,
		})
		c.poller.Start()
	}

	logger.Info("pulsekit client created", "disabled", config.Disabled)

	return c, nil
}

// Enqueue validates and normalizes a message and appends it to the delivery
// queue. It never blocks: delivery outcome is reported through the
// message's Completion callback. Invalid messages fail fast with a
// configuration error.
func (c *Client) Enqueue(msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	api, completion := msg.apiMessage()

	if encoded, err := json.Marshal(api); err == nil && len(encoded) > maxMessageBytes {
		c.logger.Warn("Message exceeds the recommended size limit and may be rejected",
			"event", api["event"],
			"bytes", len(encoded),
		)
	}

	c.queue.Enqueue(api, completion)
	return nil
}

// FeatureFlagPayload describes one flag check.
type FeatureFlagPayload struct {
	Key        string
	DistinctID string

	// DefaultResult is returned verbatim when the flag is unknown.
	DefaultResult bool

	// Groups scopes the check to group memberships. Group rules are not
	// cached client-side, so any group-scoped check goes to the server.
	Groups map[string]string
}

// IsFeatureEnabled resolves a feature flag for a distinct id. Simple flags
// resolve locally from the cached definitions; complex or group-scoped
// flags go through the remote decide endpoint. Requires a personal API key.
func (c *Client) IsFeatureEnabled(ctx context.Context, payload FeatureFlagPayload) (bool, error) {
	if c.poller == nil {
		return payload.DefaultResult, NewError(ErrConfigMissingPersonalAPIKey,
			"a personal API key is required for feature flag operations")
	}
	return c.poller.IsFeatureEnabled(ctx, payload.Key, payload.DistinctID, payload.DefaultResult, payload.Groups)
}

// ReloadFeatureFlags forces a refresh of the flag definition cache.
func (c *Client) ReloadFeatureFlags(ctx context.Context) error {
	if c.poller == nil {
		return NewError(ErrConfigMissingPersonalAPIKey,
			"a personal API key is required for feature flag operations")
	}
	return c.poller.Load(ctx, true)
}

// Flush synchronously attempts one delivery of up to FlushAt queued
// messages and returns the delivery error, if any.
func (c *Client) Flush() error {
	var result error
	c.queue.Flush(func(_ *Batch, err error) {
		result = err
	})
	return result
}

// FlushWithBatch is like Flush but also hands the delivered batch to the
// completion for introspection.
func (c *Client) FlushWithBatch(completion func(*Batch, error)) {
	c.queue.Flush(completion)
}

// Shutdown stops the poller and the flush timer, drains remaining messages,
// and waits for in-flight work or ctx expiry. An HTTP call already
// dispatched is not canceled.
func (c *Client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.logger.Debug("Closing client")

	if c.poller != nil {
		c.poller.Stop()
	}

	err := c.queue.Shutdown(ctx)

	c.logger.Info("pulsekit client closed")
	return err
}

// Close shuts the client down with a 30 second deadline.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return c.Shutdown(ctx)
}
