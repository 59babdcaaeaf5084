// Package agentscmder provides the agents command listing configured
// adapters and whether each is usable under the current configuration.
package agentscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manroop79/coding-arena/pkg/agent"
	"github.com/manroop79/coding-arena/pkg/agent/anthropic"
	"github.com/manroop79/coding-arena/pkg/agent/mock"
	"github.com/manroop79/coding-arena/pkg/agent/openai"
	"github.com/manroop79/coding-arena/pkg/config"
	"github.com/manroop79/coding-arena/pkg/diff"
)

type AgentsCommander struct{}

func NewAgentsCmd() *cobra.Command {
	cmder := &AgentsCommander{}

	cmd := &cobra.Command{
		Use:   "agents",
		Short: "lists configured agents",
		Long:  "lists every configured agent adapter and whether its backend is available",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	return cmd
}

func (c *AgentsCommander) run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	diffs := diff.NewStore()
	mockAdapter := mock.New(diffs)
	adapters := []agent.Adapter{
		mockAdapter,
		openai.New(cfg, diffs, mockAdapter),
		anthropic.New(cfg, diffs, mockAdapter),
	}

	for _, a := range adapters {
		availability := "unavailable (falls back to mock)"
		if a.Available(cfg) {
			availability = "available"
		}
		fmt.Printf("%-16s %-24s %s\n", a.ID(), a.DisplayName(), availability)
	}

	return nil
}
