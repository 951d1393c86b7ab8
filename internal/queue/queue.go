// Package queue buffers analytics messages and ships them in batches.
//
// The queue is FIFO; a flush drains at most FlushAt messages from the head
// and delivers them as one batch. Flush triggering, in priority order: the
// first-ever enqueue flushes immediately to surface connectivity problems
// early, reaching FlushAt flushes immediately, and otherwise a one-shot
// idle timer is armed if none is pending. A pending timer is never reset
// by later enqueues.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/teracrafts/pulsekit-go/internal/transport"
	"github.com/teracrafts/pulsekit-go/types"
)

// Batch is one HTTP payload: an ordered group of drained messages.
// It is immutable once constructed.
type Batch struct {
	APIKey string             `json:"api_key"`
	Events []types.APIMessage `json:"batch"`
}

// queuedEvent pairs a message with its completion callback. The completion
// is invoked exactly once, when the message's delivery attempt resolves.
type queuedEvent struct {
	message    types.APIMessage
	completion func(error)
}

// Config contains queue configuration.
type Config struct {
	APIKey        string
	FlushAt       int
	FlushInterval time.Duration

	// Disabled silently no-ops every operation: completions fire with no
	// error and no network traffic ever occurs.
	Disabled bool

	Transport *transport.Client
	Logger    types.Logger
}

// Queue is an ordered in-memory buffer of pending analytics messages.
type Queue struct {
	apiKey        string
	flushAt       int
	flushInterval time.Duration
	disabled      bool
	transport     *transport.Client
	logger        types.Logger

	mu        sync.Mutex
	events    []queuedEvent
	timer     *time.Timer
	unflushed bool
	flushing  bool
	closed    bool
	inflight  sync.WaitGroup
}

// New creates a new queue.
func New(config *Config) *Queue {
	flushAt := config.FlushAt
	if flushAt < 1 {
		flushAt = 1
	}

	logger := config.Logger
	if logger == nil {
		logger = &types.NullLogger{}
	}

	return &Queue{
		apiKey:        config.APIKey,
		flushAt:       flushAt,
		flushInterval: config.FlushInterval,
		disabled:      config.Disabled,
		transport:     config.Transport,
		logger:        logger,
		events:        make([]queuedEvent, 0, flushAt),
		unflushed:     true,
	}
}

// Enqueue appends a message to the tail of the queue and returns
// immediately. The completion, if non-nil, is invoked exactly once with the
// outcome of the message's delivery.
func (q *Queue) Enqueue(message types.APIMessage, completion func(error)) {
	if q.disabled {
		if completion != nil {
			go completion(nil)
		}
		return
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		if completion != nil {
			go completion(types.NewError(types.ErrClientClosed, "client is closed"))
		}
		return
	}

	q.events = append(q.events, queuedEvent{message: message, completion: completion})
	size := len(q.events)

	first := q.unflushed
	q.unflushed = false

	immediate := first || size >= q.flushAt
	if !immediate && q.timer == nil && q.flushInterval > 0 {
		q.armTimerLocked()
	}
	q.mu.Unlock()

	q.logger.Debug("Message enqueued", "queue_size", size)

	if immediate {
		go q.Flush(nil)
	}
}

// Flush drains up to FlushAt messages from the head of the queue and
// attempts one delivery. On success every drained completion is invoked
// with nil, then the flush completion receives the batch. On failure the
// same error goes to every drained completion and the flush completion;
// undrained messages stay queued for a future flush.
//
// A racing Flush while another is draining resolves immediately with no
// batch; delivery of batches from overlapping flushes is not ordered
// relative to each other.
func (q *Queue) Flush(completion func(*Batch, error)) {
	q.mu.Lock()
	q.stopTimerLocked()

	if q.disabled || len(q.events) == 0 || q.flushing {
		q.mu.Unlock()
		if completion != nil {
			completion(nil, nil)
		}
		return
	}

	q.flushing = true
	n := q.flushAt
	if n > len(q.events) {
		n = len(q.events)
	}
	drained := make([]queuedEvent, n)
	copy(drained, q.events[:n])
	q.events = append(q.events[:0], q.events[n:]...)
	q.inflight.Add(1)
	q.mu.Unlock()

	defer q.inflight.Done()

	batch := &Batch{APIKey: q.apiKey, Events: make([]types.APIMessage, n)}
	for i, ev := range drained {
		batch.Events[i] = ev.message
	}

	err := q.transport.Post(context.Background(), "/batch/", batch, nil)

	q.mu.Lock()
	q.flushing = false
	remaining := len(q.events)
	if remaining > 0 && q.timer == nil && q.flushInterval > 0 && !q.closed {
		q.armTimerLocked()
	}
	q.mu.Unlock()

	if err != nil {
		q.logger.Warn("Batch delivery failed", "count", n, "error", err.Error())
	} else {
		q.logger.Debug("Batch delivered", "count", n)
	}

	for _, ev := range drained {
		if ev.completion != nil {
			ev.completion(err)
		}
	}
	if completion != nil {
		completion(batch, err)
	}
}

// Size returns the number of queued messages.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Shutdown stops the flush timer, drains the queue, and waits for in-flight
// flushes. Enqueues after Shutdown resolve with ErrClientClosed.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.stopTimerLocked()
	q.mu.Unlock()

	for {
		q.mu.Lock()
		empty := len(q.events) == 0
		busy := q.flushing
		q.mu.Unlock()

		if empty {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if busy {
			// Another flush holds the in-flight marker; let it resolve.
			time.Sleep(10 * time.Millisecond)
			continue
		}
		q.Flush(nil)
	}

	done := make(chan struct{})
	go func() {
		q.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// armTimerLocked starts the one-shot idle flush timer. Caller holds q.mu.
func (q *Queue) armTimerLocked() {
	q.timer = time.AfterFunc(q.flushInterval, func() {
		q.mu.Lock()
		q.timer = nil
		q.mu.Unlock()
		q.Flush(nil)
	})
}

// stopTimerLocked cancels a pending flush timer. Caller holds q.mu.
// Idempotent if none is set.
func (q *Queue) stopTimerLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}
