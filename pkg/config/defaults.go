package config

import "time"

// NewDefaultConfig returns the built-in defaults. Every key viper serves
// has its default registered from this struct so defaults stay in one place.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen: ":8080",
		},
		Uploads: UploadsConfig{
			Dir: "./tmp/uploads",
		},
		Workspace: WorkspaceConfig{
			Dir: "./tmp/workspace",
		},
		Stream: StreamConfig{
			Heartbeat: 15 * time.Second,
		},
		OpenAI: BackendConfig{
			Model: "gpt-4o-mini",
		},
		Anthropic: BackendConfig{
			Model: "claude-sonnet-4-5",
		},
	}
}
