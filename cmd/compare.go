package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/mentor-regress/internal/model"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run one regression sweep over the configured mentors",
	Long:  "Fetches a fresh answer for every benchmark prompt, writes the answers into the output workbook, and reports responses that degraded against the benchmark.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		format, _ := cmd.Flags().GetString("format")
		if err := checkFormat(format); err != nil {
			return err
		}

		if cmd.Flags().Changed("limit") {
			cfg.Compare.RowLimit, _ = cmd.Flags().GetInt("limit")
		}
		names, _ := cmd.Flags().GetStringSlice("mentor")
		mentors, err := filterMentors(cfg.Mentors, names)
		if err != nil {
			return err
		}
		cfg.Mentors = mentors

		noNotify, _ := cmd.Flags().GetBool("no-notify")
		noArchive, _ := cmd.Flags().GetBool("no-archive")

		env, err := initPipeline(ctx, cfg, sweepOptions{NoNotify: noNotify, NoArchive: noArchive})
		if err != nil {
			return err
		}
		defer env.Close()

		summary, err := env.Pipeline.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "compare")
		}
		return writeSummary(os.Stdout, summary, format, cfg.Files.Output)
	},
}

func init() {
	compareCmd.Flags().Int("limit", 0, "max rows per mentor (0 = all, default from config)")
	compareCmd.Flags().StringSlice("mentor", nil, "only sweep these mentors (name or agent id, repeatable)")
	compareCmd.Flags().String("format", "text", "summary format: text, json or yaml")
	compareCmd.Flags().Bool("no-notify", false, "skip the chat alert")
	compareCmd.Flags().Bool("no-archive", false, "skip uploading the degraded report")
	rootCmd.AddCommand(compareCmd)
}

func checkFormat(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	default:
		return eris.Errorf("unsupported format %q (want text, json or yaml)", format)
	}
}

// filterMentors keeps the mentors named in names, matched case-insensitively
// against name or agent id. An empty names keeps all.
func filterMentors(all []model.Mentor, names []string) ([]model.Mentor, error) {
	if len(names) == 0 {
		return all, nil
	}
	var out []model.Mentor
	for _, name := range names {
		found := false
		for _, m := range all {
			if strings.EqualFold(m.Name, name) || strings.EqualFold(m.AgentID, name) {
				out = append(out, m)
				found = true
				break
			}
		}
		if !found {
			return nil, eris.Errorf("unknown mentor %q", name)
		}
	}
	return out, nil
}

func writeSummary(w io.Writer, s *model.RunSummary, format, outputPath string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	default:
		formatSummary(w, s, outputPath)
		return nil
	}
}

// formatSummary writes the human-readable end-of-run report to out.
func formatSummary(out io.Writer, s *model.RunSummary, outputPath string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "MENTOR\tPROCESSED\tSUCCESSFUL\tFAILED\tDEGRADED\tERROR")
	for _, c := range s.Categories {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\n",
			c.Category, c.Processed, c.Successful, c.Failed(), len(c.Degraded), c.Error)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintf(out, "Mentors processed:  %d\n", len(s.Categories))
	_, _ = fmt.Fprintf(out, "Rows processed:     %d\n", s.TotalProcessed)
	_, _ = fmt.Fprintf(out, "Successful:         %d\n", s.TotalSuccessful)
	_, _ = fmt.Fprintf(out, "Failed:             %d\n", s.TotalFailed())
	_, _ = fmt.Fprintf(out, "Degraded:           %d (HIGH %d, MEDIUM %d)\n", s.TotalDegraded, s.Counts.High, s.Counts.Medium)
	if s.Clean {
		_, _ = fmt.Fprintln(out, s.Message)
	}

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintf(out, "Output workbook:    %s\n", outputPath)
	if s.ReportPath != "" {
		_, _ = fmt.Fprintf(out, "Degraded report:    %s\n", s.ReportPath)
	}
	if s.ArchiveURL != "" {
		_, _ = fmt.Fprintf(out, "Archived report:    %s\n", s.ArchiveURL)
	}
	if s.RunID != "" {
		_, _ = fmt.Fprintf(out, "Run ID:             %s\n", s.RunID)
	}
}
