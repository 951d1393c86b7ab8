package pulsekit

import (
	"net/http"
	"time"
)

const (
	// DefaultEndpoint is the default pulsekit API host.
	DefaultEndpoint = "https://app.pulsekit.dev"

	// DefaultFlushAt is the queue length that triggers an immediate flush.
	DefaultFlushAt = 20

	// DefaultFlushInterval is the idle interval after which queued messages
	// are flushed regardless of queue length.
	DefaultFlushInterval = 10 * time.Second

	// DefaultPollingInterval is the interval between flag definition
	// refreshes.
	DefaultPollingInterval = 30 * time.Second

	// DefaultTimeout is the per-call HTTP timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultRetries is the number of retries after a failed delivery
	// attempt.
	DefaultRetries = 3

	// SDKVersion is the current SDK version.
	SDKVersion = "1.0.0"
)

// Config configures the pulsekit client.
type Config struct {
	// APIKey is the project ingestion key (required).
	APIKey string

	// Endpoint is the API host. Paths (/batch/, /decide/, /api/feature_flag)
	// are appended to it.
	Endpoint string

	// PersonalAPIKey authorizes flag-definition retrieval and remote
	// decisions. Without it, feature flag operations are unavailable.
	PersonalAPIKey string

	// FlushAt is the queue length that triggers an immediate flush.
	// Clamped to a minimum of 1.
	FlushAt int

	// FlushInterval is the one-shot idle timer armed after an enqueue that
	// does not trigger an immediate flush. Zero disables the timer.
	FlushInterval time.Duration

	// PollingInterval is the interval between background flag refreshes.
	PollingInterval time.Duration

	// Timeout is the per-call HTTP timeout. A timed-out attempt counts as a
	// retryable network error.
	Timeout time.Duration

	// Retries is the number of retries after the initial delivery attempt.
	Retries int

	// Disabled turns the client into a silent no-op: completions fire with
	// no error and no network traffic ever occurs.
	Disabled bool

	// Debug enables debug logging on the default logger.
	Debug bool

	// Logger is a custom logger implementation.
	Logger Logger

	// HTTPClient overrides the underlying HTTP client. Its timeout takes
	// precedence over Timeout.
	HTTPClient *http.Client
}

// DefaultConfig returns a config with default values.
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:          apiKey,
		Endpoint:        DefaultEndpoint,
		FlushAt:         DefaultFlushAt,
		FlushInterval:   DefaultFlushInterval,
		PollingInterval: DefaultPollingInterval,
		Timeout:         DefaultTimeout,
		Retries:         DefaultRetries,
	}
}

// Validate validates the config and fills in defaults.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return NewError(ErrConfigMissingAPIKey, "API key is required")
	}

	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}

	if c.FlushAt < 1 {
		c.FlushAt = 1
	}

	if c.FlushInterval < 0 {
		return NewError(ErrConfigInvalidInterval, "flush interval must not be negative")
	}

	if c.PollingInterval < time.Second {
		c.PollingInterval = DefaultPollingInterval
	}

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	if c.Retries < 0 {
		c.Retries = 0
	}

	return nil
}

// Option is a function that modifies the Config.
type Option func(*Config)

// WithEndpoint sets the API host.
func WithEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

// WithPersonalAPIKey sets the personal API key used for feature flag
// operations.
func WithPersonalAPIKey(key string) Option {
	return func(c *Config) {
		c.PersonalAPIKey = key
	}
}

// WithFlushAt sets the queue length that triggers an immediate flush.
func WithFlushAt(n int) Option {
	return func(c *Config) {
		c.FlushAt = n
	}
}

// WithFlushInterval sets the idle flush interval. Zero disables the timer.
func WithFlushInterval(d time.Duration) Option {
	return func(c *Config) {
		c.FlushInterval = d
	}
}

// WithPollingInterval sets the flag refresh interval.
func WithPollingInterval(d time.Duration) Option {
	return func(c *Config) {
		c.PollingInterval = d
	}
}

// WithTimeout sets the per-call HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithRetries sets the number of retries after a failed attempt.
func WithRetries(n int) Option {
	return func(c *Config) {
		c.Retries = n
	}
}

// WithDisabled disables the client entirely (kill switch).
func WithDisabled() Option {
	return func(c *Config) {
		c.Disabled = true
	}
}

// WithDebug enables debug logging.
func WithDebug() Option {
	return func(c *Config) {
		c.Debug = true
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}
