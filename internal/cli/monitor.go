package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TokenRollAI/minicc/internal/tui"
)

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "monitor",
		Aliases: []string{"top", "ui"},
		Short:   "Launch the interactive session monitor",
		Long:    "Launch a terminal UI that follows the sub-agent tasks and tool history of a running session in real time.",
		Example: `  minicc monitor
  minicc monitor --server http://127.0.0.1:7271`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := tui.NewApp(serverAddr)
			if err := app.Run(); err != nil {
				return fmt.Errorf("monitor error: %w", err)
			}
			return nil
		},
	}

	return cmd
}
