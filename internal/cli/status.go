package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TokenRollAI/minicc/internal/task"
)

func newStatusCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show session overview",
		Long:  "Display an overview of a running minicc session.",
		Example: `  minicc status
  minicc status --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return statusWatch()
			}
			return statusPrint()
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Continuously refresh (every 2 seconds)")

	return cmd
}

func statusPrint() error {
	// Check session health first.
	if err := apiClient.Healthz(); err != nil {
		color.Red("minicc session: UNREACHABLE")
		return fmt.Errorf("cannot reach session: %w", err)
	}

	bold := color.New(color.FgCyan, color.Bold)
	bold.Println("minicc Session Status")
	fmt.Println("=====================")
	fmt.Println()

	tasks, err := apiClient.ListTasks()
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}

	var pending, running, completed, failed int
	for _, t := range tasks {
		switch t.Phase {
		case task.Pending:
			pending++
		case task.Running:
			running++
		case task.Completed:
			completed++
		case task.Failed:
			failed++
		}
	}

	fmt.Printf("Sub-agent tasks: %d total", len(tasks))
	if len(tasks) > 0 {
		fmt.Printf(" (")
		parts := []string{}
		if pending > 0 {
			parts = append(parts, fmt.Sprintf("%d pending", pending))
		}
		if running > 0 {
			parts = append(parts, color.YellowString("%d running", running))
		}
		if completed > 0 {
			parts = append(parts, color.GreenString("%d completed", completed))
		}
		if failed > 0 {
			parts = append(parts, color.RedString("%d failed", failed))
		}
		for i, p := range parts {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Print(p)
		}
		fmt.Print(")")
	}
	fmt.Println()

	records, err := apiClient.History(1)
	if err == nil && len(records) > 0 {
		fmt.Printf("Tool calls: %d recorded, last %q at %s\n",
			records[0].Seq, records[0].Tool, records[0].Time.Format("15:04:05"))
	}

	return nil
}

func statusWatch() error {
	fmt.Println("Watching status (Ctrl+C to stop)...")
	fmt.Println()

	for {
		// Clear screen with ANSI escape.
		fmt.Print("\033[2J\033[H")

		if err := statusPrint(); err != nil {
			fmt.Printf("\nError: %v\n", err)
		}

		fmt.Printf("\nLast updated: %s\n", time.Now().Format("15:04:05"))
		time.Sleep(2 * time.Second)
	}
}
