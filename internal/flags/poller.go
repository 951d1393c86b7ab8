package flags

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/teracrafts/pulsekit-go/internal/transport"
	"github.com/teracrafts/pulsekit-go/types"
)

// PollerConfig contains poller configuration.
type PollerConfig struct {
	// APIToken is the project ingestion key, sent as the token of decide
	// calls. The personal API key authorizing definition fetches lives on
	// the transport.
	APIToken string

	Interval          time.Duration
	BackoffMultiplier float64
	MaxInterval       time.Duration

	Transport *transport.Client
	Logger    types.Logger
}

// DefaultPollerConfig returns the default poller configuration.
func DefaultPollerConfig() *PollerConfig {
	return &PollerConfig{
		Interval:          30 * time.Second,
		BackoffMultiplier: 2.0,
		MaxInterval:       5 * time.Minute,
	}
}

// Poller owns the refresh timer for the flag cache and resolves flag checks
// against it, falling back to the remote decide endpoint for complex or
// group-scoped flags.
//
// Refresh failures are logged and the previous cache generation is retained;
// they never propagate to a caller awaiting a flag check.
type Poller struct {
	apiToken  string
	transport *transport.Client
	cache     *Cache
	logger    types.Logger

	interval          time.Duration
	backoffMultiplier float64
	maxInterval       time.Duration

	mu                sync.Mutex
	currentInterval   time.Duration
	consecutiveErrors int
	running           bool
	stopCh            chan struct{}
	wg                sync.WaitGroup
}

// decideRequest is the body of a remote decision call.
type decideRequest struct {
	DistinctID string            `json:"distinct_id"`
	Groups     map[string]string `json:"groups,omitempty"`
	Token      string            `json:"token"`
}

// decideResponse is the decide endpoint's answer. featureFlags is a list of
// enabled flag keys; newer servers return a map of key to value instead,
// where false disables the flag.
type decideResponse struct {
	FeatureFlags enabledFlags `json:"featureFlags"`
}

type enabledFlags map[string]bool

func (f *enabledFlags) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err == nil {
		out := make(map[string]bool, len(keys))
		for _, k := range keys {
			out[k] = true
		}
		*f = out
		return nil
	}

	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	out := make(map[string]bool, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case bool:
			out[k] = val
		case string:
			out[k] = val != ""
		default:
			out[k] = v != nil
		}
	}
	*f = out
	return nil
}

// NewPoller creates a new poller. It does not start polling; call Start.
func NewPoller(config *PollerConfig) *Poller {
	interval := config.Interval
	if interval <= 0 {
		interval = DefaultPollerConfig().Interval
	}
	backoff := config.BackoffMultiplier
	if backoff <= 1 {
		backoff = DefaultPollerConfig().BackoffMultiplier
	}
	maxInterval := config.MaxInterval
	if maxInterval < interval {
		maxInterval = DefaultPollerConfig().MaxInterval
	}
	logger := config.Logger
	if logger == nil {
		logger = &types.NullLogger{}
	}

	return &Poller{
		apiToken:          config.APIToken,
		transport:         config.Transport,
		cache:             NewCache(),
		logger:            logger,
		interval:          interval,
		backoffMultiplier: backoff,
		maxInterval:       maxInterval,
		currentInterval:   interval,
		stopCh:            make(chan struct{}),
	}
}

// Cache exposes the poller's flag cache.
func (p *Poller) Cache() *Cache {
	return p.cache
}

// Start begins background refreshing: one eager load, then a recurring
// interval with error backoff.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.mu.Unlock()

	p.logger.Debug("Flag polling started", "interval", p.interval)

	p.wg.Add(1)
	go p.run()
}

// Stop cancels the refresh timer and waits for an in-flight poll. No
// network activity occurs after Stop returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Debug("Flag polling stopped")
}

// IsActive reports whether the background refresh loop is running.
func (p *Poller) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Load fetches the current flag definitions and atomically replaces the
// cache. Unless force is set, a loaded cache short-circuits. On failure the
// previous definitions are retained and the error is both logged and
// returned; background callers ignore it.
func (p *Poller) Load(ctx context.Context, force bool) error {
	if !force && p.cache.Loaded() {
		return nil
	}

	var resp definitionsResponse
	if err := p.transport.Get(ctx, "/api/feature_flag", &resp); err != nil {
		p.logger.Warn("Failed to refresh feature flags, keeping previous definitions", "error", err.Error())
		p.onError()
		return err
	}

	p.cache.Replace(resp.Results)
	p.onSuccess()
	p.logger.Debug("Feature flags refreshed", "count", len(resp.Results))
	return nil
}

// IsFeatureEnabled resolves flag key for distinctID. Unknown flags return
// defaultResult without error. Simple flags resolve locally; complex flags
// and any group-scoped check go through the decide endpoint, since group
// membership rules are not cached client-side.
func (p *Poller) IsFeatureEnabled(ctx context.Context, key, distinctID string, defaultResult bool, groups map[string]string) (bool, error) {
	if key == "" {
		return defaultResult, types.NewError(types.ErrConfigInvalidMessage, "flag key is required")
	}
	if distinctID == "" {
		return defaultResult, types.NewError(types.ErrConfigInvalidMessage, "distinct id is required")
	}

	if !p.cache.Loaded() {
		// A failed load leaves the cache empty; the unknown-key path below
		// then returns the caller's default.
		_ = p.Load(ctx, true)
	}

	def, ok := p.cache.Lookup(key)
	if !ok {
		return defaultResult, nil
	}

	if def.IsSimpleFlag && len(groups) == 0 {
		if !def.Active {
			return false, nil
		}
		rollout := 100.0
		if def.RolloutPercentage != nil {
			rollout = *def.RolloutPercentage
		}
		return SimpleFlagEnabled(key, distinctID, rollout), nil
	}

	return p.decide(ctx, key, distinctID, groups)
}

// decide issues one remote decision call and reports whether key is in the
// response's enabled set.
func (p *Poller) decide(ctx context.Context, key, distinctID string, groups map[string]string) (bool, error) {
	req := decideRequest{
		DistinctID: distinctID,
		Groups:     groups,
		Token:      p.apiToken,
	}

	var resp decideResponse
	if err := p.transport.Post(ctx, "/decide/", req, &resp); err != nil {
		return false, err
	}

	return resp.FeatureFlags[key], nil
}

// run is the background refresh loop.
func (p *Poller) run() {
	defer p.wg.Done()

	p.poll()

	for {
		p.mu.Lock()
		delay := p.currentInterval
		p.mu.Unlock()

		select {
		case <-p.stopCh:
			return
		case <-time.After(delay):
			p.poll()
		}
	}
}

// poll executes one refresh, isolating panics from the loop.
func (p *Poller) poll() {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Flag poll panic recovered", "error", r)
			p.onError()
		}
	}()

	_ = p.Load(context.Background(), true)
}

// onSuccess resets the refresh interval after a successful poll.
func (p *Poller) onSuccess() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.consecutiveErrors = 0
	p.currentInterval = p.interval
}

// onError backs the refresh interval off, capped at maxInterval.
func (p *Poller) onError() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.consecutiveErrors++
	next := time.Duration(float64(p.currentInterval) * p.backoffMultiplier)
	if next > p.maxInterval {
		next = p.maxInterval
	}
	p.currentInterval = next

	p.logger.Debug("Flag polling backoff",
		"interval", p.currentInterval,
		"consecutive_errors", p.consecutiveErrors,
	)
}

// CurrentInterval returns the effective refresh interval, including any
// error backoff.
func (p *Poller) CurrentInterval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentInterval
}
