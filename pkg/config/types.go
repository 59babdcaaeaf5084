// Package config defines the arena configuration surface and its
// viper-backed loading. Defaults live in defaults.go as the single source
// of truth; environment variables use the ARENA_ prefix with underscores
// for dotted keys, plus the conventional bare credential variables
// (OPENAI_API_KEY, ANTHROPIC_API_KEY) each backend adapter keys off.
package config

import "time"

// Config is the full runtime configuration for the arena server and CLI.
type Config struct {
	Server    ServerConfig
	Uploads   UploadsConfig
	Workspace WorkspaceConfig
	Stream    StreamConfig
	OpenAI    BackendConfig
	Anthropic BackendConfig
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Listen is the address the HTTP server binds to.
	Listen string
}

// UploadsConfig configures attachment persistence.
type UploadsConfig struct {
	// Dir is the directory uploaded attachments are written to.
	Dir string
}

// WorkspaceConfig configures the scratch area agents may reference.
type WorkspaceConfig struct {
	Dir string
}

// StreamConfig configures the observer streaming transport.
type StreamConfig struct {
	// Heartbeat is the interval between idle keep-alive comments.
	Heartbeat time.Duration
}

// BackendConfig holds credentials and model selection for one model backend.
// An empty APIKey means the backend's adapter is unavailable and will fall
// back to the scripted reference sequence.
type BackendConfig struct {
	APIKey string
	Model  string
}
