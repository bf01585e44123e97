package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TokenRollAI/minicc/internal/task"
)

func newTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks [id]",
		Short: "List or inspect sub-agent tasks",
		Long: `Display the sub-agent tasks of a running session.

Without arguments, all tasks are listed. With a task ID, the full
task including its result or error is shown.`,
		Example: `  minicc tasks
  minicc tasks a3f9c21e
  minicc tasks -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return describeTask(args[0])
			}
			return listTasks()
		},
	}

	return cmd
}

func listTasks() error {
	tasks, err := apiClient.ListTasks()
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return nil
	}

	items := make([]interface{}, len(tasks))
	for i := range tasks {
		items[i] = tasks[i]
	}
	return printOutput(items, taskHeaders(), taskToRow)
}

func describeTask(id string) error {
	t, err := apiClient.GetTask(id)
	if err != nil {
		return err
	}

	if outputFormat != "table" {
		return printOutput(t, taskHeaders(), taskToRow)
	}

	bold := color.New(color.Bold)
	bold.Printf("Task:        ")
	fmt.Println(t.ID)
	bold.Printf("Phase:       ")
	fmt.Println(colorPhase(string(t.Phase)))
	bold.Printf("Description: ")
	fmt.Println(t.Description)
	if t.Context != "" {
		bold.Printf("Context:     ")
		fmt.Println(t.Context)
	}
	bold.Printf("Created:     ")
	fmt.Println(t.CreatedAt.Format("2006-01-02 15:04:05"))
	if !t.StartedAt.IsZero() {
		bold.Printf("Started:     ")
		fmt.Println(t.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if !t.FinishedAt.IsZero() {
		bold.Printf("Finished:    ")
		fmt.Println(t.FinishedAt.Format("2006-01-02 15:04:05"))
	}

	switch t.Phase {
	case task.Completed:
		fmt.Println()
		bold.Println("Result:")
		fmt.Println(strings.Repeat("-", 60))
		fmt.Println(t.Result)
	case task.Failed:
		fmt.Println()
		bold.Println("Error:")
		fmt.Println(strings.Repeat("-", 60))
		fmt.Println(t.Error)
	}
	return nil
}

func taskHeaders() []string {
	return []string{"ID", "PHASE", "DESCRIPTION", "AGE"}
}

func taskToRow(v interface{}) []string {
	t, ok := v.(*task.AgentTask)
	if !ok {
		return []string{"?", "?", "?", "?"}
	}
	desc := t.Description
	if len(desc) > 60 {
		desc = desc[:57] + "..."
	}
	return []string{
		t.ID,
		colorPhase(string(t.Phase)),
		desc,
		formatAge(t.CreatedAt),
	}
}

// colorPhase returns a colored string for known task phases.
func colorPhase(phase string) string {
	switch phase {
	case "Completed":
		return color.GreenString(phase)
	case "Failed":
		return color.RedString(phase)
	case "Running":
		return color.YellowString(phase)
	case "Pending":
		return color.WhiteString(phase)
	default:
		return phase
	}
}
