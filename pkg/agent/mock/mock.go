// Package mock provides the deterministic scripted reference adapter. It
// stands in for any backend that is not configured and doubles as a test
// fixture: the sequence shape is fixed, only timestamps and diff baselines
// vary between runs.
package mock

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/manroop79/coding-arena/pkg/agent"
	"github.com/manroop79/coding-arena/pkg/config"
	"github.com/manroop79/coding-arena/pkg/diff"
)

const (
	agentID     = agent.MockAgentID
	displayName = "Mock Agent"

	// previewSourceLimit bounds which attachments get content previews.
	previewSourceLimit = 200_000

	stubFilePath    = "workspace/main.go"
	stubFileContent = "// TODO: implement run start\nfunc handler() {}\n"
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithStepDelay overrides the pause between scripted events. Tests pass 0.
func WithStepDelay(d time.Duration) Option {
	return func(a *Adapter) {
		a.stepDelay = d
	}
}

// Adapter emits a fixed scripted sequence: connecting, streaming, an
// optional attachment preview message, a narrative message, a tool call
// pending/succeeded pair, a file diff, a closing message, done.
type Adapter struct {
	diffs     *diff.Store
	stepDelay time.Duration
}

// New creates the reference adapter sharing the given diff baseline store.
func New(diffs *diff.Store, opts ...Option) *Adapter {
	a := &Adapter{
		diffs:     diffs,
		stepDelay: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) ID() string          { return agentID }
func (a *Adapter) DisplayName() string { return displayName }

// Available always reports true; the mock needs no credentials.
func (a *Adapter) Available(_ *config.Config) bool { return true }

func (a *Adapter) Run(ctx context.Context, input agent.RunInput, out chan<- agent.Event) error {
	emit := func(ev agent.Event) error {
		return agent.Emit(ctx, out, ev)
	}

	if err := emit(agent.NewStatus(agentID, agent.StatusConnecting, "")); err != nil {
		return err
	}
	if err := a.pause(ctx); err != nil {
		return err
	}

	if err := emit(agent.NewStatus(agentID, agent.StatusStreaming, "Starting")); err != nil {
		return err
	}

	if len(input.Attachments) > 0 {
		if err := emit(agent.NewMessage(agentID, attachmentMessage(input.Attachments))); err != nil {
			return err
		}
		if err := a.pause(ctx); err != nil {
			return err
		}
	}

	prompt := input.Prompt
	if len(prompt) > 80 {
		prompt = prompt[:80]
	}
	if err := emit(agent.NewMessage(agentID, "Thinking about: "+prompt)); err != nil {
		return err
	}
	if err := a.pause(ctx); err != nil {
		return err
	}

	callID := agentID + "-call-1"
	args := map[string]any{"query": "find related files"}
	if err := emit(agent.NewToolCall(agentID, callID, "search_codebase", args, agent.ToolPending)); err != nil {
		return err
	}
	if err := a.pause(ctx); err != nil {
		return err
	}

	succeeded := agent.NewToolCall(agentID, callID, "search_codebase", args, agent.ToolSucceeded)
	succeeded.ResultSummary = "Found 3 candidate files."
	if err := emit(succeeded); err != nil {
		return err
	}
	if err := a.pause(ctx); err != nil {
		return err
	}

	diffText := a.diffs.ComputeDiff(agentID, stubFilePath, stubFileContent)
	if err := emit(agent.NewFileDiff(agentID, stubFilePath, diffText, "Added TODO comment and handler stub")); err != nil {
		return err
	}
	if err := a.pause(ctx); err != nil {
		return err
	}

	if err := emit(agent.NewMessage(agentID, "Implemented initial changes and emitted diff.")); err != nil {
		return err
	}

	return emit(agent.NewStatus(agentID, agent.StatusDone, "Finished"))
}

func (a *Adapter) pause(ctx context.Context) error {
	if a.stepDelay <= 0 {
		return nil
	}
	select {
	case <-time.After(a.stepDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// attachmentMessage lists attachment names and, when the first attachment
// is a small on-disk text file, includes a word summary and a short
// content preview. Read failures degrade to the name listing.
func attachmentMessage(attachments []agent.AttachmentMeta) string {
	names := make([]string, len(attachments))
	for i, att := range attachments {
		names[i] = att.Name
	}

	lines := []string{"Attachments received: " + strings.Join(names, ", ")}

	first := attachments[0]
	if first.Path != "" && strings.HasPrefix(first.Type, "text") && first.Size < previewSourceLimit {
		if content, err := os.ReadFile(first.Path); err == nil {
			text := string(content)

			words := strings.Fields(text)
			if len(words) > 0 {
				summary := strings.Join(words[:min(len(words), 40)], " ")
				if len(words) > 40 {
					summary += " …"
				}
				lines = append(lines, "Summary: "+summary)
			}

			preview := text
			if len(preview) > 400 {
				preview = preview[:400]
			}
			if preview != "" {
				lines = append(lines, fmt.Sprintf("Preview:\n%s", preview))
			}
		}
	}

	return strings.Join(lines, "\n\n")
}
