package cli

import (
	"github.com/spf13/cobra"

	"github.com/TokenRollAI/minicc/internal/tool"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the session exposes to the model",
		Example: `  minicc tools
  minicc tools -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := apiClient.ListTools()
			if err != nil {
				return err
			}

			items := make([]interface{}, len(defs))
			for i := range defs {
				items[i] = &defs[i]
			}
			return printOutput(items, toolHeaders(), toolToRow)
		},
	}

	return cmd
}

func toolHeaders() []string {
	return []string{"NAME", "DESCRIPTION"}
}

func toolToRow(v interface{}) []string {
	d, ok := v.(*tool.Definition)
	if !ok {
		return []string{"?", "?"}
	}
	desc := d.Description
	if len(desc) > 80 {
		desc = desc[:77] + "..."
	}
	return []string{d.Name, desc}
}
