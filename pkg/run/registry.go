// Package run holds the process-lifetime run registry, the per-run event
// bus, and the orchestrator that drains agent adapters into the registry.
package run

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/manroop79/coding-arena/pkg/agent"
)

// Run is one submitted task plus its accumulated multi-agent event
// history. Prompt, Attachments, and Agents are immutable after creation;
// only the per-agent event lists grow, and only through
// Registry.AppendEvent.
type Run struct {
	ID            string                   `json:"id"`
	CreatedAt     int64                    `json:"createdAt"`
	Prompt        string                   `json:"prompt"`
	Attachments   []agent.AttachmentMeta   `json:"attachments"`
	Agents        []string                 `json:"agents"`
	EventsByAgent map[string][]agent.Event `json:"eventsByAgent"`
}

// Registry is the process-wide store of runs and the single choke point
// every event passes through. It is constructed once at process start and
// injected; tests build a fresh instance per test.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*Run

	bus    *Bus
	logger *zap.Logger
}

// NewRegistry creates an empty registry publishing to bus.
func NewRegistry(bus *Bus, logger *zap.Logger) *Registry {
	return &Registry{
		runs:   make(map[string]*Run),
		bus:    bus,
		logger: logger,
	}
}

// Bus exposes the registry's event bus for subscribers.
func (r *Registry) Bus() *Bus {
	return r.bus
}

// CreateRun allocates a run with an empty event list per requested agent
// id and stores it.
func (r *Registry) CreateRun(prompt string, attachments []agent.AttachmentMeta, agentIDs []string) *Run {
	eventsByAgent := make(map[string][]agent.Event, len(agentIDs))
	for _, id := range agentIDs {
		eventsByAgent[id] = []agent.Event{}
	}

	run := &Run{
		ID:            uuid.NewString(),
		CreatedAt:     agent.Now(),
		Prompt:        prompt,
		Attachments:   attachments,
		Agents:        agentIDs,
		EventsByAgent: eventsByAgent,
	}

	r.mu.Lock()
	r.runs[run.ID] = run
	r.mu.Unlock()

	r.logger.Debug("run created",
		zap.String("run_id", run.ID),
		zap.Strings("agents", agentIDs),
	)

	return run
}

// Has reports whether a run exists.
func (r *Registry) Has(runID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.runs[runID]
	return ok
}

// AppendEvent enriches ev (assigning id and timestamp exactly once, iff
// the producer left them empty), appends it to its agent's event list —
// creating the list when the agent id was not pre-registered, which lets
// an adapter emit under a relabeled id — and broadcasts it on the bus.
// The broadcast happens while the registry lock is held so the stored
// history order and the live order seen by subscribers can never diverge.
func (r *Registry) AppendEvent(runID string, ev agent.Event) (agent.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[runID]
	if !ok {
		return agent.Event{}, ErrNotFound{ID: runID}
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = agent.Now()
	}

	run.EventsByAgent[ev.AgentID] = append(run.EventsByAgent[ev.AgentID], ev)

	r.bus.Broadcast(runID, ev)

	return ev, nil
}

// Snapshot returns a deep copy of the run safe for serialization while
// adapters keep appending, or ErrNotFound.
func (r *Registry) Snapshot(runID string) (*Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[runID]
	if !ok {
		return nil, ErrNotFound{ID: runID}
	}

	events := make(map[string][]agent.Event, len(run.EventsByAgent))
	for id, list := range run.EventsByAgent {
		copied := make([]agent.Event, len(list))
		copy(copied, list)
		events[id] = copied
	}

	return &Run{
		ID:            run.ID,
		CreatedAt:     run.CreatedAt,
		Prompt:        run.Prompt,
		Attachments:   append([]agent.AttachmentMeta(nil), run.Attachments...),
		Agents:        append([]string(nil), run.Agents...),
		EventsByAgent: events,
	}, nil
}

// SortedEvents returns a flat copy of every agent's events for the run,
// sorted by timestamp ascending. The stable sort keeps same-timestamp
// events in a deterministic order for history replay.
func (r *Registry) SortedEvents(runID string) ([]agent.Event, error) {
	r.mu.RLock()
	run, ok := r.runs[runID]
	if !ok {
		r.mu.RUnlock()
		return nil, ErrNotFound{ID: runID}
	}

	// Flatten in declared agent order first, then any relabeled agents,
	// so the stable sort has a deterministic input order.
	var events []agent.Event
	seen := make(map[string]bool, len(run.Agents))
	for _, id := range run.Agents {
		events = append(events, run.EventsByAgent[id]...)
		seen[id] = true
	}
	extra := make([]string, 0)
	for id := range run.EventsByAgent {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		events = append(events, run.EventsByAgent[id]...)
	}
	r.mu.RUnlock()

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})

	return events, nil
}

// List returns a snapshot of all runs' ids.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.runs))
	for id := range r.runs {
		ids = append(ids, id)
	}
	return ids
}

// Reset drops all runs. Used for test isolation.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = make(map[string]*Run)
}
