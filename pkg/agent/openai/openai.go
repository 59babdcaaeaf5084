// Package openai implements the OpenAI-backed agent adapter. When a key is
// configured it streams chat completions and translates text deltas into
// message chunk events; otherwise it reports the fallback and relays the
// scripted reference sequence under its own id.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/manroop79/coding-arena/pkg/agent"
	"github.com/manroop79/coding-arena/pkg/config"
	"github.com/manroop79/coding-arena/pkg/diff"
	"github.com/manroop79/coding-arena/pkg/sse"
)

const (
	agentID     = "openai-agent"
	displayName = "OpenAI Coding Agent"

	defaultBaseURL = "https://api.openai.com/v1"

	outputFilePath = "artifacts/openai-output.txt"
)

// Option configures an Adapter.
type Option func(*Adapter)

// WithBaseURL overrides the API base URL. Tests point it at a local server.
func WithBaseURL(u string) Option {
	return func(a *Adapter) {
		a.baseURL = u
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = c
	}
}

// Adapter streams OpenAI chat completions as agent events.
type Adapter struct {
	cfg      *config.Config
	diffs    *diff.Store
	fallback agent.Adapter

	baseURL    string
	httpClient *http.Client
}

// New creates the OpenAI adapter. fallback supplies the scripted sequence
// relayed when no key is configured or the stream cannot be opened.
func New(cfg *config.Config, diffs *diff.Store, fallback agent.Adapter, opts ...Option) *Adapter {
	a := &Adapter{
		cfg:      cfg,
		diffs:    diffs,
		fallback: fallback,
		baseURL:  defaultBaseURL,
		httpClient: &http.Client{
			// Model responses can be slow, especially with long outputs
			Timeout: 5 * time.Minute,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) ID() string          { return agentID }
func (a *Adapter) DisplayName() string { return displayName }

// Available reports whether an OpenAI API key is configured.
func (a *Adapter) Available(cfg *config.Config) bool {
	return cfg != nil && cfg.OpenAI.APIKey != ""
}

func (a *Adapter) Run(ctx context.Context, input agent.RunInput, out chan<- agent.Event) error {
	if err := agent.Emit(ctx, out, agent.NewStatus(agentID, agent.StatusConnecting, "")); err != nil {
		return err
	}

	if !a.Available(a.cfg) {
		ev := agent.NewError(agentID, agent.ErrAgent, "OPENAI_API_KEY missing — falling back to mock-agent")
		if err := agent.Emit(ctx, out, ev); err != nil {
			return err
		}
		return agent.Relay(ctx, a.fallback, agentID, input, out)
	}

	if err := a.stream(ctx, input, out); err != nil {
		ev := agent.NewError(agentID, agent.ErrAgent, err.Error())
		if emitErr := agent.Emit(ctx, out, ev); emitErr != nil {
			return emitErr
		}
		return agent.Relay(ctx, a.fallback, agentID, input, out)
	}

	return nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Stream   bool          `json:"stream"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// stream opens the completions call and pumps deltas into events. A
// returned error means the stream could not be opened; once the stream is
// live, failures are reported as error events instead.
func (a *Adapter) stream(ctx context.Context, input agent.RunInput, out chan<- agent.Event) error {
	system := "Answer the user concisely. If attachments are missing, proceed without them."
	if attCtx := agent.BuildAttachmentContext(input.Attachments); attCtx != "" {
		system = "You can see attachment contents provided below. Use them to answer the user's request.\n\n" + attCtx
	}

	body, err := json.Marshal(chatRequest{
		Model:  a.cfg.OpenAI.Model,
		Stream: true,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: input.Prompt},
		},
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.OpenAI.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("OpenAI request failed (%d): %s", resp.StatusCode, detail)
	}

	if err := agent.Emit(ctx, out, agent.NewStatus(agentID, agent.StatusStreaming, "")); err != nil {
		return err
	}

	var fullText bytes.Buffer
	reader := sse.NewReader(resp.Body)

	for {
		ev, err := reader.Next()
		if err != nil {
			emitted := agent.NewError(agentID, agent.ErrAgent, fmt.Sprintf("reading OpenAI stream: %v", err))
			if emitErr := agent.Emit(ctx, out, emitted); emitErr != nil {
				return emitErr
			}
			break
		}
		if ev == nil || ev.Data == "[DONE]" {
			break
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			emitted := agent.NewError(agentID, agent.ErrAgent, "Failed to parse OpenAI stream chunk")
			if emitErr := agent.Emit(ctx, out, emitted); emitErr != nil {
				return emitErr
			}
			continue
		}

		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}

		delta := chunk.Choices[0].Delta.Content
		fullText.WriteString(delta)
		if err := agent.Emit(ctx, out, agent.NewMessage(agentID, delta)); err != nil {
			return err
		}
	}

	finalText := fullText.String()
	if finalText == "" {
		finalText = "No generated content captured from OpenAI for this run."
	}

	diffText := a.diffs.ComputeDiff(agentID, outputFilePath, finalText)
	fd := agent.NewFileDiff(agentID, outputFilePath, diffText, "OpenAI synthesized output")
	if err := agent.Emit(ctx, out, fd); err != nil {
		return err
	}

	// Terminal status exactly once.
	return agent.Emit(ctx, out, agent.NewStatus(agentID, agent.StatusDone, ""))
}
