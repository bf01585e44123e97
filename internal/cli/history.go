package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TokenRollAI/minicc/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent tool executions",
		Long:  "Display the most recent tool execution records, newest first.",
		Example: `  minicc history
  minicc history --limit 200
  minicc history -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := apiClient.History(limit)
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No history recorded.")
				return nil
			}

			items := make([]interface{}, len(records))
			for i := range records {
				items[i] = records[i]
			}
			return printOutput(items, historyHeaders(), historyToRow)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of records to show")

	return cmd
}

func historyHeaders() []string {
	return []string{"SEQ", "TIME", "TASK", "TOOL", "STATUS", "DURATION"}
}

func historyToRow(v interface{}) []string {
	rec, ok := v.(*history.Record)
	if !ok {
		return []string{"?", "?", "?", "?", "?", "?"}
	}
	taskID := rec.TaskID
	if taskID == "" {
		taskID = "<parent>"
	}
	status := color.GreenString("ok")
	if !rec.OK {
		status = color.RedString(rec.ErrorKind)
	}
	return []string{
		fmt.Sprintf("%d", rec.Seq),
		rec.Time.Format("15:04:05"),
		taskID,
		rec.Tool,
		status,
		rec.Duration.Round(time.Millisecond).String(),
	}
}
