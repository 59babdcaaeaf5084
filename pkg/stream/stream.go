// Package stream implements the per-observer outbound transport: replay of
// a run's buffered history followed by live bus events, framed as SSE,
// with periodic keep-alives and idempotent teardown.
package stream

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/manroop79/coding-arena/pkg/agent"
	"github.com/manroop79/coding-arena/pkg/run"
	"github.com/manroop79/coding-arena/pkg/sse"
)

const (
	// eventName is the SSE event type every real event is framed under.
	eventName = "agent_event"

	defaultHeartbeat     = 15 * time.Second
	defaultAttachRetries = 10
	defaultAttachDelay   = 50 * time.Millisecond

	// queueSize is the per-observer live event backlog. Events past a
	// full queue are dropped with an error log rather than blocking the
	// appending goroutine.
	queueSize = 256
)

// envelope is the payload of every framed event.
type envelope struct {
	RunID string      `json:"runId"`
	Event agent.Event `json:"event"`
}

// Option configures a Streamer.
type Option func(*Streamer)

// WithHeartbeat overrides the keep-alive interval.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Streamer) {
		if d > 0 {
			s.heartbeat = d
		}
	}
}

// WithAttachRetry overrides the creation-race retry policy.
func WithAttachRetry(retries int, delay time.Duration) Option {
	return func(s *Streamer) {
		s.attachRetries = retries
		s.attachDelay = delay
	}
}

// Streamer serves observer connections for runs held by a registry.
type Streamer struct {
	registry *run.Registry
	logger   *zap.Logger

	heartbeat     time.Duration
	attachRetries int
	attachDelay   time.Duration
}

// New creates a Streamer over the given registry.
func New(registry *run.Registry, logger *zap.Logger, opts ...Option) *Streamer {
	s := &Streamer{
		registry:      registry,
		logger:        logger,
		heartbeat:     defaultHeartbeat,
		attachRetries: defaultAttachRetries,
		attachDelay:   defaultAttachDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WaitForRun confirms the run exists, polling briefly to tolerate the
// small race between run creation and the observer's first connection
// attempt. Returns run.ErrNotFound once the retry window is exhausted.
func (s *Streamer) WaitForRun(ctx context.Context, runID string) error {
	if s.registry.Has(runID) {
		return nil
	}

	for i := 0; i < s.attachRetries; i++ {
		select {
		case <-time.After(s.attachDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if s.registry.Has(runID) {
			return nil
		}
	}

	return run.ErrNotFound{ID: runID}
}

// Stream writes the observer protocol to w until ctx is cancelled or a
// write fails (the disconnect signal when w backs a connection pipe):
// a connection comment, the full history sorted by timestamp ascending,
// then live events in arrival order, with keep-alive comments on the
// heartbeat interval. The bus subscription is released exactly once on
// the way out regardless of which trigger ended the stream.
func (s *Streamer) Stream(ctx context.Context, runID string, w io.Writer) error {
	queue := make(chan agent.Event, queueSize)

	unsubscribe := s.registry.Bus().Subscribe(runID, func(ev agent.Event) {
		select {
		case queue <- ev:
		default:
			s.logger.Error("observer queue full, event dropped",
				zap.String("run_id", runID),
				zap.String("event_id", ev.ID),
			)
		}
	})
	defer unsubscribe()

	if err := sse.WriteComment(w, "connected"); err != nil {
		return err
	}

	// Events appended between the subscription above and this snapshot
	// land in both; replayed ids are remembered so the live loop can skip
	// the overlap instead of delivering twice.
	history, err := s.registry.SortedEvents(runID)
	if err != nil {
		return err
	}
	replayed := make(map[string]bool, len(history))
	for _, ev := range history {
		if err := s.writeEvent(w, runID, ev); err != nil {
			return err
		}
		replayed[ev.ID] = true
	}

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-queue:
			if replayed[ev.ID] {
				delete(replayed, ev.ID)
				continue
			}
			if err := s.writeEvent(w, runID, ev); err != nil {
				return err
			}
		case <-ticker.C:
			if err := sse.WriteComment(w, "heartbeat"); err != nil {
				return err
			}
		}
	}
}

func (s *Streamer) writeEvent(w io.Writer, runID string, ev agent.Event) error {
	payload, err := json.Marshal(envelope{RunID: runID, Event: ev})
	if err != nil {
		s.logger.Error("failed to serialize event",
			zap.String("run_id", runID),
			zap.String("event_id", ev.ID),
			zap.Error(err),
		)
		return nil
	}

	return sse.WriteEvent(w, eventName, payload)
}
