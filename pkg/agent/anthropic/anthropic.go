// Package anthropic implements the Claude-backed agent adapter. With a key
// configured it streams the Messages API and translates content_block_delta
// text into message chunk events; otherwise it reports the fallback and
// relays the scripted reference sequence under its own id.
package anthropic

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
	agentID     = "claude-agent"
	displayName = "Claude Coding Agent"

	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"

	maxTokens      = 1024
	outputFilePath = "artifacts/claude-output.txt"
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

// Adapter streams Anthropic messages as agent events.
type Adapter struct {
	cfg      *config.Config
	diffs    *diff.Store
	fallback agent.Adapter

	baseURL    string
	httpClient *http.Client
}

// New creates the Claude adapter. fallback supplies the scripted sequence
// relayed when no key is configured or the stream cannot be opened.
func New(cfg *config.Config, diffs *diff.Store, fallback agent.Adapter, opts ...Option) *Adapter {
	a := &Adapter{
		cfg:      cfg,
		diffs:    diffs,
		fallback: fallback,
		baseURL:  defaultBaseURL,
		httpClient: &http.Client{
			// Model responses can be slow, especially with thinking blocks
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

// Available reports whether an Anthropic API key is configured.
func (a *Adapter) Available(cfg *config.Config) bool {
	return cfg != nil && cfg.Anthropic.APIKey != ""
}

func (a *Adapter) Run(ctx context.Context, input agent.RunInput, out chan<- agent.Event) error {
	if err := agent.Emit(ctx, out, agent.NewStatus(agentID, agent.StatusConnecting, "")); err != nil {
		return err
	}

	if !a.Available(a.cfg) {
		ev := agent.NewError(agentID, agent.ErrAgent, "ANTHROPIC_API_KEY missing — falling back to mock-agent")
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

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Stream    bool          `json:"stream"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type streamChunk struct {
	Type  string `json:"type"`
	Delta struct {
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// stream opens the messages call and pumps deltas into events. A returned
// error means the stream could not be opened; once live, failures are
// reported as error events instead.
func (a *Adapter) stream(ctx context.Context, input agent.RunInput, out chan<- agent.Event) error {
	system := "Answer the user concisely. If attachments are missing, proceed without them."
	if attCtx := agent.BuildAttachmentContext(input.Attachments); attCtx != "" {
		system = "You can see attachment contents provided below. Use them to answer the user's request.\n\n" + attCtx
	}

	body, err := json.Marshal(messagesRequest{
		Model:     a.cfg.Anthropic.Model,
		MaxTokens: maxTokens,
		Stream:    true,
		System:    system,
		Messages: []chatMessage{
			{Role: "user", Content: input.Prompt},
		},
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", a.cfg.Anthropic.APIKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Anthropic request failed (%d): %s", resp.StatusCode, detail)
	}

	if err := agent.Emit(ctx, out, agent.NewStatus(agentID, agent.StatusStreaming, "")); err != nil {
		return err
	}

	var fullText bytes.Buffer
	reader := sse.NewReader(resp.Body)

	for {
		ev, err := reader.Next()
		if err != nil {
			emitted := agent.NewError(agentID, agent.ErrAgent, fmt.Sprintf("reading Anthropic stream: %v", err))
			if emitErr := agent.Emit(ctx, out, emitted); emitErr != nil {
				return emitErr
			}
			break
		}
		if ev == nil {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			emitted := agent.NewError(agentID, agent.ErrAgent, "Failed to parse Anthropic stream chunk")
			if emitErr := agent.Emit(ctx, out, emitted); emitErr != nil {
				return emitErr
			}
			continue
		}

		if chunk.Type == "message_stop" {
			break
		}

		switch chunk.Type {
		case "content_block_delta":
			if chunk.Delta.Text == "" {
				continue
			}
			fullText.WriteString(chunk.Delta.Text)
			if err := agent.Emit(ctx, out, agent.NewMessage(agentID, chunk.Delta.Text)); err != nil {
				return err
			}
		case "error":
			emitted := agent.NewError(agentID, agent.ErrAgent, chunk.Error.Message)
			if emitErr := agent.Emit(ctx, out, emitted); emitErr != nil {
				return emitErr
			}
		}
	}

	finalText := fullText.String()
	if finalText == "" {
		finalText = "No generated content captured from Claude for this run."
	}

	diffText := a.diffs.ComputeDiff(agentID, outputFilePath, finalText)
	fd := agent.NewFileDiff(agentID, outputFilePath, diffText, "Claude synthesized output")
	if err := agent.Emit(ctx, out, fd); err != nil {
		return err
	}

	// Terminal status exactly once.
	return agent.Emit(ctx, out, agent.NewStatus(agentID, agent.StatusDone, ""))
}
