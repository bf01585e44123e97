package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TokenRollAI/minicc/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Long: `Create the minicc config file with default values so it can be
customized before the first session.`,
		Example: `  minicc init
  minicc init --config /etc/minicc/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", configPath)
			}

			cfg := config.DefaultConfig()
			if err := cfg.Save(configPath); err != nil {
				return err
			}

			bold := color.New(color.FgCyan, color.Bold)
			bold.Println("minicc initialized!")
			fmt.Println()
			fmt.Printf("  Config:   %s\n", configPath)
			fmt.Printf("  Data dir: %s\n", cfg.Data.Dir)
			fmt.Println()

			color.New(color.Bold).Println("Next steps:")
			fmt.Println("  1. Review the configuration:")
			fmt.Printf("     vi %s\n", configPath)
			fmt.Println()
			fmt.Println("  2. Run a session:")
			fmt.Println("     minicc run -- \"Write a hello world program\"")
			fmt.Println()
			fmt.Println("  3. Observe it from another terminal:")
			fmt.Println("     minicc status")
			fmt.Println("     minicc monitor")

			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}
