package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/mentor-regress/internal/model"
	"github.com/sells-group/mentor-regress/internal/monitoring"
	"github.com/sells-group/mentor-regress/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect regression run history",
	Long:  "Commands for listing and viewing recorded regression sweeps.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List regression runs, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		degraded, _ := cmd.Flags().GetBool("degraded")
		since, _ := cmd.Flags().GetDuration("since")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.RunFilter{DegradedOnly: degraded, Limit: limit}
		if since > 0 {
			filter.Since = time.Now().Add(-since)
		}

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the full summary of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format); err != nil {
			return err
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		return writeSummary(os.Stdout, run, format, cfg.Files.Output)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate regression statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		since, _ := cmd.Flags().GetDuration("since")
		snap, err := monitoring.NewCollector(st).Collect(cmd.Context(), since)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		formatRunStats(os.Stdout, snap)
		return nil
	},
}

func init() {
	runsListCmd.Flags().Bool("degraded", false, "only runs that found degraded responses")
	runsListCmd.Flags().Duration("since", 0, "only runs started within this window (e.g. 24h, 168h)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsStatsCmd.Flags().Duration("since", 7*24*time.Hour, "time window for stats (0 = all runs)")

	runsShowCmd.Flags().String("format", "json", "output format: text, json or yaml")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// openStore opens and migrates the configured run history store.
func openStore(cmd *cobra.Command) (store.Store, error) {
	ctx := cmd.Context()
	st, err := initStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, eris.New("run history is disabled (store.driver: none)")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// formatRunsList writes a tabular list of runs to out.
func formatRunsList(out io.Writer, runs []model.RunRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tPROCESSED\tFAILED\tDEGRADED\tHIGH\tMEDIUM")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.ID,
			r.StartedAt.UTC().Format("2006-01-02 15:04"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second),
			r.TotalProcessed,
			r.TotalProcessed-r.TotalSuccessful,
			r.TotalDegraded,
			r.High,
			r.Medium,
		)
	}
	_ = w.Flush()
}

// formatRunStats writes aggregate statistics to w.
func formatRunStats(w io.Writer, s *monitoring.Snapshot) {
	window := "all time"
	if s.Lookback > 0 {
		window = "last " + s.Lookback.String()
	}
	_, _ = fmt.Fprintf(w, "Run Statistics (%s)\n", window)
	_, _ = fmt.Fprintf(w, "  Runs:            %d\n", s.Runs)
	_, _ = fmt.Fprintf(w, "  With degraded:   %d\n", s.DegradedRuns)
	_, _ = fmt.Fprintf(w, "  Rows processed:  %d\n", s.RowsProcessed)
	_, _ = fmt.Fprintf(w, "  Rows failed:     %d (%.1f%%)\n", s.RowsFailed, s.FailRate*100)
	_, _ = fmt.Fprintf(w, "  Degraded:        %d (HIGH %d, MEDIUM %d)\n", s.Degraded, s.High, s.Medium)
	if s.Runs > 0 {
		_, _ = fmt.Fprintf(w, "  Avg duration:    %s\n", s.AvgDuration.Round(time.Second))
		_, _ = fmt.Fprintf(w, "  Last run:        %s\n", s.LastRunAt.UTC().Format("2006-01-02 15:04"))
	}
}
