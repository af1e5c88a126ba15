package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"voicepipe/internal/config"
	"voicepipe/internal/logging"
	"voicepipe/internal/metrics"
	"voicepipe/internal/orchestrator"
	"voicepipe/internal/parser"
	"voicepipe/internal/transcribe"
)

type pipelineFlags struct {
	configPath   string
	dryRun       bool
	skipSteps    string
	autoContinue bool
	verbose      bool
	metricsAddr  string
}

// runPipeline loads configuration, wires the orchestrator, and drives either
// a single pass or a polling loop depending on --auto-continue and the
// config's workflow default (spec.md §6).
func runPipeline(ctx context.Context, cmd *cobra.Command, flags pipelineFlags) error {
	cfg, _, _, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flags.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logging.CleanupOldLogs(logger, cfg.Paths.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "*.log"})

	metricsAddr := flags.metricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.Workflow.MetricsAddr
	}

	var registry *metrics.Registry
	if metricsAddr != "" {
		registry = metrics.New()
		srv := &http.Server{Addr: metricsAddr, Handler: registry.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", logging.Error(err))
			}
		}()
		go func() {
			<-ctx.Done()
			_ = srv.Close()
		}()
	}

	o := orchestrator.New(cfg, logger, buildDetector(cfg)).
		WithBackends(buildChain(ctx, cfg)).
		WithMetrics(registry)

	opts := orchestrator.RunOptions{
		DryRun:    flags.dryRun,
		SkipSteps: parseSkipSteps(flags.skipSteps),
	}

	autoContinue := flags.autoContinue || cfg.Workflow.AutoContinue
	if !autoContinue {
		summary, err := o.Run(ctx, opts)
		if err != nil {
			return err
		}
		printSummary(cmd, summary)
		return nil
	}

	interval := time.Duration(cfg.Workflow.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	for {
		summary, err := o.Run(ctx, opts)
		if err != nil {
			logger.Error("pipeline run failed", logging.Error(err))
		} else {
			printSummary(cmd, summary)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func buildDetector(cfg *config.Config) parser.Detector {
	return parser.Detector{
		Keywords: parser.Keywords{
			TaskKeywords:      cfg.Classification.TaskKeywords,
			NoteKeywords:      cfg.Classification.NoteKeywords,
			TaskImperatives:   cfg.Classification.TaskImperatives,
			NoteIndicators:    cfg.Classification.NoteIndicators,
			TaskIntentPhrases: cfg.Classification.TaskIntentPhrases,
			CalendarKeywords:  cfg.Classification.CalendarKeywords,
		},
	}
}

func buildChain(ctx context.Context, cfg *config.Config) *transcribe.Chain {
	cloud := transcribe.NewCloudBackend(cfg.OpenAI.APIKey, cfg.Transcription.CloudModel, cfg.Transcription.CloudTimeoutSeconds)
	local := transcribe.NewLocalBackend(
		cfg.Transcription.LocalBinary,
		cfg.Transcription.LocalModel,
		cfg.Transcription.LocalLanguage,
		cfg.Paths.StagingDir,
		time.Duration(cfg.Transcription.LocalMinTimeoutMin*float64(time.Minute)),
	)
	candidates := transcribe.ByMode(cfg.Transcription.Mode, cloud, local)
	return transcribe.NewChain(ctx, candidates...)
}

func parseSkipSteps(csv string) map[string]bool {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	steps := make(map[string]bool)
	for _, raw := range strings.Split(csv, ",") {
		name := strings.TrimSpace(raw)
		if name != "" {
			steps[name] = true
		}
	}
	return steps
}

func printSummary(cmd *cobra.Command, summary orchestrator.Summary) {
	out := cmd.OutOrStdout()
	if !summary.Opened {
		fmt.Fprintln(out, "no unprocessed recordings found")
		return
	}

	fmt.Fprintf(out, "session %s (archived %s)\n", summary.SessionID, humanize.Bytes(uint64(summary.BytesArchived)))

	var rows [][]string
	for _, stage := range []string{
		"detect", "validate_plan", "transcribe", "analyze", "verify_archive", "cleanup",
	} {
		s, ok := summary.StageSummaries[stage]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			stage,
			fmt.Sprintf("%d", s.Total),
			fmt.Sprintf("%d", s.Successful),
			fmt.Sprintf("%d", s.Failed),
			fmt.Sprintf("%.0f%%", s.SuccessRate*100),
		})
	}

	if isTerminalWriter(out) {
		fmt.Fprintln(out, renderTable(
			[]string{"Stage", "Total", "OK", "Failed", "Rate"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
		))
	} else {
		for _, row := range rows {
			fmt.Fprintf(out, "  %-16s total=%s ok=%s failed=%s rate=%s\n", row[0], row[1], row[2], row[3], row[4])
		}
	}

	for _, f := range summary.FailedEntries {
		fmt.Fprintf(out, "  failed: %s [%s] %s\n", f.Path, f.Stage, f.Reason)
	}
}

// isTerminalWriter reports whether w is an interactive terminal, so
// printSummary can fall back to plain lines when output is redirected or
// captured (spec.md §7 "operator-facing").
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
