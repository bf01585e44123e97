// Package cli implements the minicc command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/TokenRollAI/minicc/internal/config"
	"github.com/TokenRollAI/minicc/pkg/client"
)

var (
	serverAddr string
	configPath string
	apiClient  *client.Client
)

// NewRootCmd creates the top-level minicc CLI command with all subcommands.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minicc",
		Short: "A minimal Claude-driven coding session",
		Long: `minicc runs a coding session driven by the Claude CLI: the model
works through filesystem, search, and shell tools and can spawn
concurrent sub-agents for independent subtasks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Skip client init for commands that don't talk to a running session.
			name := cmd.Name()
			if name == "run" || name == "init" {
				return
			}
			apiClient = client.New(serverAddr)
		},
	}

	cmd.PersistentFlags().StringVar(&serverAddr, "server", "http://127.0.0.1:7271", "Status API address of a running session")
	cmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Config file path")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table|json|yaml")

	cmd.AddCommand(
		newRunCmd(),
		newTasksCmd(),
		newToolsCmd(),
		newHistoryCmd(),
		newStatusCmd(),
		newMonitorCmd(),
		newInitCmd(),
	)

	return cmd
}
