package run

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/manroop79/coding-arena/pkg/agent"
)

// adapterQueueSize bounds each adapter's in-flight event backlog so a slow
// append path applies backpressure to the producer rather than growing
// memory.
const adapterQueueSize = 16

// Orchestrator drains agent adapters concurrently into the registry,
// isolating each adapter's failure from its siblings.
type Orchestrator struct {
	registry *Registry
	logger   *zap.Logger
}

// NewOrchestrator creates an orchestrator appending through registry.
func NewOrchestrator(registry *Registry, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		logger:   logger,
	}
}

// StartAgents runs every adapter concurrently and returns once all of
// their event sequences have been fully drained or failed. Callers that
// must not block — the submission handler — invoke it in a detached
// goroutine; its failures surface only through logs and synthesized error
// events.
func (o *Orchestrator) StartAgents(ctx context.Context, run *Run, adapters []agent.Adapter, input agent.RunInput) {
	input.RunID = run.ID

	var wg sync.WaitGroup
	for _, a := range adapters {
		a := a
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.drainAdapter(ctx, a, run.ID, input)
		}()
	}
	wg.Wait()

	o.logger.Debug("all adapters drained", zap.String("run_id", run.ID))
}

// drainAdapter consumes one adapter's event sequence to completion,
// funneling every event through AppendEvent. A returned error or panic is
// converted into a synthesized terminal error event attributed to the
// adapter; it never propagates to sibling adapters.
func (o *Orchestrator) drainAdapter(ctx context.Context, a agent.Adapter, runID string, input agent.RunInput) {
	events := make(chan agent.Event, adapterQueueSize)
	errc := make(chan error, 1)

	go func() {
		defer close(events)
		defer func() {
			if r := recover(); r != nil {
				errc <- fmt.Errorf("adapter panicked: %v", r)
			}
		}()
		errc <- a.Run(ctx, input, events)
	}()

	for ev := range events {
		if ev.AgentID == "" {
			ev.AgentID = a.ID()
		}
		if _, err := o.registry.AppendEvent(runID, ev); err != nil {
			o.logger.Error("failed to append agent event",
				zap.String("run_id", runID),
				zap.String("agent", a.ID()),
				zap.Error(err),
			)
		}
	}

	if err := <-errc; err != nil {
		o.logger.Warn("adapter terminated abnormally",
			zap.String("run_id", runID),
			zap.String("agent", a.ID()),
			zap.Error(err),
		)

		synthesized := agent.NewError(a.ID(), agent.ErrAgent, err.Error())
		if _, appendErr := o.registry.AppendEvent(runID, synthesized); appendErr != nil {
			o.logger.Error("failed to append synthesized error event",
				zap.String("run_id", runID),
				zap.String("agent", a.ID()),
				zap.Error(appendErr),
			)
		}
	}
}
