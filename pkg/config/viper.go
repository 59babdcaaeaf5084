package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads arena.toml from the
// current directory if present, and binds environment variables.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound by the command)
//  2. Environment variables (ARENA_SERVER_LISTEN, OPENAI_API_KEY, etc.)
//  3. arena.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper() (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("arena")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Backend credentials also honor the conventional unprefixed variable
	// names so existing shell environments keep working.
	v.BindEnv("openai.api_key", "ARENA_OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("openai.model", "ARENA_OPENAI_MODEL", "OPENAI_MODEL")
	v.BindEnv("anthropic.api_key", "ARENA_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.model", "ARENA_ANTHROPIC_MODEL", "ANTHROPIC_MODEL")

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("uploads.dir", d.Uploads.Dir)
	v.SetDefault("workspace.dir", d.Workspace.Dir)
	v.SetDefault("stream.heartbeat", d.Stream.Heartbeat)
	v.SetDefault("openai.model", d.OpenAI.Model)
	v.SetDefault("anthropic.model", d.Anthropic.Model)
}

// FromViper materializes a Config from the resolved viper state.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Listen: v.GetString("server.listen"),
		},
		Uploads: UploadsConfig{
			Dir: v.GetString("uploads.dir"),
		},
		Workspace: WorkspaceConfig{
			Dir: v.GetString("workspace.dir"),
		},
		Stream: StreamConfig{
			Heartbeat: v.GetDuration("stream.heartbeat"),
		},
		OpenAI: BackendConfig{
			APIKey: v.GetString("openai.api_key"),
			Model:  v.GetString("openai.model"),
		},
		Anthropic: BackendConfig{
			APIKey: v.GetString("anthropic.api_key"),
			Model:  v.GetString("anthropic.model"),
		},
	}
}

// Load is the common entry point: init viper, materialize the config.
func Load() (*Config, error) {
	v, err := InitViper()
	if err != nil {
		return nil, err
	}
	return FromViper(v), nil
}
