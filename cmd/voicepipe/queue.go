package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"voicepipe/internal/config"
	"voicepipe/internal/fileutil"
)

// newQueueCommand implements `voicepipe queue show`/`queue retry`, browsing
// and re-staging recordings quarantined under Failed/failed_recordings/
// after exhausting Stage 3's retry budget (spec.md §4.4, §6).
func newQueueCommand(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect or retry recordings quarantined in the failed-recordings directory",
	}
	cmd.AddCommand(newQueueShowCommand(configFlag))
	cmd.AddCommand(newQueueRetryCommand(configFlag))
	return cmd
}

func newQueueShowCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List recordings waiting in the failed-recordings queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			entries, err := os.ReadDir(filepath.Join(cfg.Paths.FailedDir, "failed_recordings"))
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
					return nil
				}
				return fmt.Errorf("list failed recordings: %w", err)
			}

			var rows [][]string
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				reason := lastFailureReason(cfg.Paths.FailedDir, entry.Name())
				rows = append(rows, []string{entry.Name(), reason})
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Recording", "Last Reason"}, rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newQueueRetryCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <recording>",
		Short: "Copy a quarantined recording back to the recorder mount path for re-detection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			name := args[0]
			src := filepath.Join(cfg.Paths.FailedDir, "failed_recordings", name)
			if _, err := os.Stat(src); err != nil {
				return fmt.Errorf("recording not found in queue: %w", err)
			}

			dest := filepath.Join(cfg.Recorder.MountPath, name)
			if err := fileutil.CopyFileVerified(src, dest); err != nil {
				return fmt.Errorf("re-stage %s: %w", name, err)
			}
			_ = os.Remove(src)
			_ = os.Remove(filepath.Join(cfg.Paths.FailedDir, "failure_logs", name+".log"))

			fmt.Fprintf(cmd.OutOrStdout(), "re-staged %s to %s; it will be picked up on the next run\n", name, dest)
			return nil
		},
	}
}

// lastFailureReason reads the final line of the failure log dropped next
// to a quarantined recording, if any (spec.md §7 "one-line reasons").
func lastFailureReason(failedDir, recordingName string) string {
	raw, err := os.ReadFile(filepath.Join(failedDir, "failure_logs", recordingName+".log"))
	if err != nil {
		return "unknown"
	}
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	last := lines[len(lines)-1]
	if idx := strings.LastIndex(last, "\t"); idx >= 0 {
		return last[idx+1:]
	}
	return last
}
