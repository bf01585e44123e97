package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/TokenRollAI/minicc/internal/agent"
	"github.com/TokenRollAI/minicc/internal/apiserver"
	"github.com/TokenRollAI/minicc/internal/config"
	"github.com/TokenRollAI/minicc/internal/history"
	"github.com/TokenRollAI/minicc/internal/task"
)

func newRunCmd() *cobra.Command {
	var (
		workDir   string
		model     string
		timeout   int
		maxAgents int
		noAPI     bool
	)

	cmd := &cobra.Command{
		Use:   "run -- <prompt>",
		Short: "Run a coding session",
		Long: `Start a Claude conversation with the full tool set and drive it to
completion. Everything after "--" is treated as the prompt text.

While the session runs, a read-only status API serves its task list
and tool history so 'minicc tasks', 'minicc history', and
'minicc monitor' can observe it from another terminal.`,
		Example: `  minicc run -- "Fix the failing tests in internal/parser"
  minicc run --model claude-haiku -- "Summarize this repository"
  minicc run --workdir /src/project -- "Add a --verbose flag"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("prompt required: minicc run -- \"your prompt here\"")
			}
			prompt := strings.Join(args, " ")

			// 1. Load configuration and apply CLI overrides.
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("model") {
				cfg.Agent.DefaultModel = model
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Agent.DefaultTimeout = timeout
			}
			if cmd.Flags().Changed("max-agents") {
				cfg.Agent.MaxSubAgents = maxAgents
			}

			if workDir == "" {
				workDir, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("getting current directory: %w", err)
				}
			}

			// 2. Create logger.
			logger, err := buildLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync()

			// 3. Open the tool execution history.
			if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
				return fmt.Errorf("creating data directory %s: %w", cfg.Data.Dir, err)
			}
			recorder, err := history.NewBoltRecorder(cfg.HistoryPath())
			if err != nil {
				return fmt.Errorf("opening history at %s: %w", cfg.HistoryPath(), err)
			}
			defer recorder.Close()

			// 4. Wire the session: registry, driver, orchestrator.
			registry := task.NewRegistry()
			driver := agent.NewCLIDriver(cfg.Agent.ClaudeCLI, logger)
			orch := agent.New(workDir, registry, driver, recorder, cfg, logger)

			// 5. Start the status API unless disabled.
			var apiSrv *apiserver.Server
			if !noAPI {
				apiSrv = apiserver.NewServer(cfg.ServerAddress(), registry, orch.Definitions(), recorder, logger)
				go func() {
					if err := apiSrv.Start(); err != nil && err != http.ErrServerClosed {
						logger.Warn("status API stopped", zap.Error(err))
					}
				}()
			}

			banner := color.New(color.FgCyan, color.Bold)
			banner.Println("minicc session")
			fmt.Printf("   Workdir: %s\n", workDir)
			fmt.Printf("   Model:   %s\n", cfg.Agent.DefaultModel)
			if !noAPI {
				fmt.Printf("   Status:  http://%s\n", cfg.ServerAddress())
			}
			fmt.Println()

			// 6. Run the parent conversation, cancellable via Ctrl+C.
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			result, runErr := orch.RunParent(ctx, prompt)

			// 7. Let in-flight sub-agents finish before reporting.
			drainCtx, drainCancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.Agent.DefaultTimeout)*time.Second)
			defer drainCancel()
			if err := orch.Drain(drainCtx); err != nil {
				logger.Warn("sub-agents still running at shutdown", zap.Error(err))
			}

			if apiSrv != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := apiSrv.Shutdown(shutdownCtx); err != nil {
					logger.Warn("status API shutdown error", zap.Error(err))
				}
			}

			if runErr != nil {
				fmt.Println()
				color.New(color.FgRed, color.Bold).Println("Session failed")
				return runErr
			}

			fmt.Println()
			color.New(color.FgGreen, color.Bold).Println("Session complete")
			fmt.Println(strings.Repeat("-", 60))
			fmt.Println(result.Output)
			if result.TokensIn > 0 || result.TokensOut > 0 {
				fmt.Println()
				fmt.Printf("Tokens: %d in / %d out", result.TokensIn, result.TokensOut)
				if result.CostUSD > 0 {
					fmt.Printf("  Cost: $%.4f", result.CostUSD)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workDir, "workdir", "", "Working directory for tools (default: current directory)")
	cmd.Flags().StringVar(&model, "model", "claude-sonnet", "Model to use")
	cmd.Flags().IntVar(&timeout, "timeout", 300, "Per-conversation timeout in seconds")
	cmd.Flags().IntVar(&maxAgents, "max-agents", 4, "Maximum concurrent sub-agents")
	cmd.Flags().BoolVar(&noAPI, "no-api", false, "Disable the status API server")

	return cmd
}

// buildLogger constructs a zap logger from the configured level and
// format.
func buildLogger(lc config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}

	var zc zap.Config
	if lc.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
