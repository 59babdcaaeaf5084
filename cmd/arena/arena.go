// Package arenacmder
package arenacmder

import (
	"github.com/spf13/cobra"

	agentscmder "github.com/manroop79/coding-arena/cmd/arena/agents"
	servecmder "github.com/manroop79/coding-arena/cmd/arena/serve"
	versioncmder "github.com/manroop79/coding-arena/cmd/version"
)

const arenaLongDesc string = `Arena pits multiple coding agents against one prompt.

Submit a task and watch every agent's progress stream side by side:
  arena serve          Run the arena HTTP server
  arena agents         List configured agents and their availability`

const arenaShortDesc string = "Arena - Multi-Agent Coding Arena"

func NewArenaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arena",
		Short: arenaShortDesc,
		Long:  arenaLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(agentscmder.NewAgentsCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
