package agent

import (
	"context"

	"github.com/manroop79/coding-arena/pkg/config"
)

// AttachmentMeta describes one uploaded file accompanying a run. It is
// created at submission time and never mutated; agents only read it.
type AttachmentMeta struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Path string `json:"path,omitempty"`
}

// RunInput carries everything an adapter needs to process one run.
type RunInput struct {
	RunID        string           `json:"runId"`
	Prompt       string           `json:"prompt"`
	Attachments  []AttachmentMeta `json:"attachments"`
	WorkspaceDir string           `json:"workspaceDir"`
	UploadDir    string           `json:"uploadDir"`
}

// Adapter is the contract every agent worker implements. Adapters are
// stateless singletons: no per-run mutable fields.
//
// Run emits events onto out in order, suspending between sends as needed
// (network reads, simulated delays). It must not close out — the caller
// owns the channel. By convention the sequence opens with a
// status{connecting} event and terminates with status{done} or an error
// event; the orchestrator does not enforce this, but downstream state
// machines rely on it. Returning a non-nil error marks abnormal
// termination: the orchestrator synthesizes a terminal error event on the
// adapter's behalf.
type Adapter interface {
	ID() string
	DisplayName() string

	// Available reports whether the adapter's backend is usable under the
	// given configuration (typically: its credential is present).
	Available(cfg *config.Config) bool

	Run(ctx context.Context, input RunInput, out chan<- Event) error
}

// Emit sends ev on out unless ctx is done, returning ctx.Err() in that
// case. Adapters use it so a cancelled run never blocks a producer.
func Emit(ctx context.Context, out chan<- Event, ev Event) error {
	select {
	case out <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Relay drains src.Run into out with every event re-tagged to agentID, so
// an adapter delegating to a fallback presents a single coherent stream
// under its own identity.
func Relay(ctx context.Context, src Adapter, agentID string, input RunInput, out chan<- Event) error {
	inner := make(chan Event, 16)
	errc := make(chan error, 1)

	go func() {
		defer close(inner)
		errc <- src.Run(ctx, input, inner)
	}()

	for ev := range inner {
		ev.AgentID = agentID
		if err := Emit(ctx, out, ev); err != nil {
			// Drain the producer so it can finish and the goroutine exits.
			for range inner {
			}
			<-errc
			return err
		}
	}

	return <-errc
}
