package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"voicepipe/internal/config"
	"voicepipe/internal/logging"
	"voicepipe/internal/resolver"
	"voicepipe/internal/state"
)

// newStatusCommand prints a summary of the current or most recent session
// plus the running system-health counters (spec.md §4.1, §7).
func newStatusCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current or most recent session summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store := state.New(cfg.SessionStatePath(), cfg.Paths.RetentionDays)
			doc, err := store.Load()
			if err != nil {
				return fmt.Errorf("load session state: %w", err)
			}

			out := cmd.OutOrStdout()
			sess := doc.CurrentSession
			if sess == nil && len(doc.PreviousSessions) > 0 {
				sess = &doc.PreviousSessions[len(doc.PreviousSessions)-1]
			}
			if sess == nil {
				fmt.Fprintln(out, "no sessions recorded yet")
				return nil
			}

			fmt.Fprintf(out, "session %s\n", sess.ID)
			var rows [][]string
			for _, stageName := range []string{
				"detect", "validate_plan", "transcribe", "analyze", "verify_archive", "cleanup",
			} {
				s, ok := sess.StageSummaries[stageName]
				if !ok {
					continue
				}
				rows = append(rows, []string{
					stageName,
					fmt.Sprintf("%d", s.Total),
					fmt.Sprintf("%d", s.Successful),
					fmt.Sprintf("%d", s.Failed),
					fmt.Sprintf("%.0f%%", s.SuccessRate*100),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Stage", "Total", "OK", "Failed", "Rate"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
			))

			fmt.Fprintf(out, "\nlifetime processed: %d (success rate %.0f%%)\n",
				doc.SystemHealth.TotalProcessed, doc.SystemHealth.SuccessRate*100)
			if doc.SystemHealth.LastError != "" {
				fmt.Fprintf(out, "last error: %s\n", doc.SystemHealth.LastError)
			}

			catalog := resolver.NewCatalog(cfg.Paths.ProjectCache, 24*time.Hour, 7*24*time.Hour, logging.NewNop())
			fmt.Fprintf(out, "cached projects: %d\n", len(catalog.Projects()))
			return nil
		},
	}
}
