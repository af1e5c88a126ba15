package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Secrets (OPENAI_API_KEY, NOTION_TOKEN, ...) may live in a .env file
	// next to the binary; missing is fine, config.Load falls back to the
	// process environment either way (spec.md §6).
	_ = godotenv.Load()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "voicepipe",
		Short:         "Voice recording ingestion pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug-level logging")

	rootCmd.AddCommand(newRunCommand(&configFlag, &verbose, false))
	rootCmd.AddCommand(newRunCommand(&configFlag, &verbose, true))
	rootCmd.AddCommand(newStatusCommand(&configFlag))
	rootCmd.AddCommand(newConfigCommand(&configFlag))
	rootCmd.AddCommand(newQueueCommand(&configFlag))

	return rootCmd
}

// newRunCommand builds either `run` (one pass) or `daemon` (poll until
// signaled) -- the only difference is that `daemon` always auto-continues
// and has no --auto-continue flag (spec.md §6 "run"/"daemon" CLI surface).
func newRunCommand(configFlag *string, verbose *bool, daemon bool) *cobra.Command {
	var dryRun bool
	var skipSteps string
	var autoContinue bool
	var metricsAddr string

	use, short := "run", "Execute one pipeline session to completion"
	if daemon {
		use, short = "daemon", "Loop pipeline sessions on a poll interval until signaled"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), cmd, pipelineFlags{
				configPath:   *configFlag,
				dryRun:       dryRun,
				skipSteps:    skipSteps,
				autoContinue: daemon || autoContinue,
				verbose:      *verbose,
				metricsAddr:  metricsAddr,
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Detect and plan only, make no writes")
	cmd.Flags().StringVar(&skipSteps, "skip-steps", "", "Comma-separated stage names to skip (validate_plan, transcribe, analyze, verify_archive, cleanup; detect always runs)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090); disabled when empty")
	if !daemon {
		cmd.Flags().BoolVar(&autoContinue, "auto-continue", false, "Keep polling for new recordings instead of exiting after one pass")
	}

	return cmd
}
