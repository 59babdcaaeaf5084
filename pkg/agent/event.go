// Package agent defines the event model every agent adapter emits and the
// contract the orchestrator consumes adapters through.
package agent

import "time"

// EventType discriminates the closed set of event variants. Every consumer
// that interprets events switches exhaustively on this tag.
type EventType string

const (
	TypeStatus   EventType = "status"
	TypeMessage  EventType = "message"
	TypeToolCall EventType = "tool_call"
	TypeFileDiff EventType = "file_diff"
	TypeArtifact EventType = "artifact"
	TypeLog      EventType = "log"
	TypeError    EventType = "error"
)

// Agent lifecycle statuses carried by status events.
const (
	StatusIdle       = "idle"
	StatusConnecting = "connecting"
	StatusStreaming  = "streaming"
	StatusDone       = "done"
	StatusError      = "error"
)

// Tool call statuses. They share the wire field with agent statuses
// because a tool_call event reuses the "status" key.
const (
	ToolPending   = "pending"
	ToolRunning   = "running"
	ToolSucceeded = "succeeded"
	ToolFailed    = "failed"
)

// Log levels carried by log events.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Error kinds carried by error events.
const (
	ErrAgent  = "agent_error"
	ErrTool   = "tool_error"
	ErrSystem = "system_error"
)

// Event is one item in an agent's ordered progress stream. It is a tagged
// union flattened into a single struct: Type selects which of the optional
// fields are meaningful. ID and Timestamp may be left empty by producers;
// the run registry assigns them exactly once at append time.
//
// Timestamps are unix milliseconds.
type Event struct {
	ID        string    `json:"id,omitempty"`
	AgentID   string    `json:"agentId"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp,omitempty"`

	// status and tool_call share this field on the wire: agent lifecycle
	// values for status events, tool lifecycle values for tool_call events.
	Status string `json:"status,omitempty"`

	// Message is the human-readable text for status, log, and error events.
	Message string `json:"message,omitempty"`

	// message fields. Content is a chunk, not the full message; observers
	// concatenate chunks per agent in arrival order.
	Content  string `json:"content,omitempty"`
	MimeType string `json:"mimeType,omitempty"`

	// tool_call fields. Two events with the same CallID are state
	// transitions of one logical call.
	CallID        string `json:"callId,omitempty"`
	ToolName      string `json:"toolName,omitempty"`
	Args          any    `json:"args,omitempty"`
	ResultSummary string `json:"resultSummary,omitempty"`

	// file_diff fields.
	FilePath string `json:"filePath,omitempty"`
	Diff     string `json:"diff,omitempty"`
	Summary  string `json:"summary,omitempty"`

	// artifact fields.
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URI         string `json:"uri,omitempty"`

	// log fields.
	Level   string `json:"level,omitempty"`
	Details any    `json:"details,omitempty"`

	// error fields. ErrorKind uses the "error" wire key.
	ErrorKind string `json:"error,omitempty"`
	Stack     string `json:"stack,omitempty"`
}

// Now returns the current time as unix milliseconds, the event timestamp
// resolution used throughout.
func Now() int64 {
	return time.Now().UnixMilli()
}

// NewStatus builds a status event stamped with the acquisition time.
func NewStatus(agentID, status, message string) Event {
	return Event{
		AgentID:   agentID,
		Type:      TypeStatus,
		Timestamp: Now(),
		Status:    status,
		Message:   message,
	}
}

// NewMessage builds a message chunk event.
func NewMessage(agentID, content string) Event {
	return Event{
		AgentID:   agentID,
		Type:      TypeMessage,
		Timestamp: Now(),
		Content:   content,
	}
}

// NewToolCall builds a tool_call event.
func NewToolCall(agentID, callID, toolName string, args any, status string) Event {
	return Event{
		AgentID:   agentID,
		Type:      TypeToolCall,
		Timestamp: Now(),
		CallID:    callID,
		ToolName:  toolName,
		Args:      args,
		Status:    status,
	}
}

// NewFileDiff builds a file_diff event.
func NewFileDiff(agentID, filePath, diffText, summary string) Event {
	return Event{
		AgentID:   agentID,
		Type:      TypeFileDiff,
		Timestamp: Now(),
		FilePath:  filePath,
		Diff:      diffText,
		Summary:   summary,
	}
}

// NewError builds an error event.
func NewError(agentID, kind, message string) Event {
	return Event{
		AgentID:   agentID,
		Type:      TypeError,
		Timestamp: Now(),
		ErrorKind: kind,
		Message:   message,
	}
}
