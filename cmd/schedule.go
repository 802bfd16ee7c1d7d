package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run regression sweeps on a cron schedule",
	Long:  "Runs a sweep every time the cron expression fires until interrupted. With --serve the run history API is served alongside.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		spec, _ := cmd.Flags().GetString("cron")
		if spec == "" {
			spec = cfg.Schedule.Cron
		}
		sched, err := parseSchedule(spec)
		if err != nil {
			return err
		}
		withServer, _ := cmd.Flags().GetBool("serve")
		runNow, _ := cmd.Flags().GetBool("run-now")

		env, err := initPipeline(ctx, cfg, sweepOptions{})
		if err != nil {
			return err
		}
		defer env.Close()

		zap.L().Info("schedule: started", zap.String("cron", spec), zap.Bool("serve", withServer))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return scheduleLoop(gctx, sched, time.Now, runNow, func(ctx context.Context) {
				if _, err := env.Pipeline.Run(ctx); err != nil {
					zap.L().Error("schedule: sweep failed", zap.Error(err))
				}
			})
		})
		if withServer {
			g.Go(func() error {
				return runServer(gctx, resolvePort(0), newRouter(env.Store, cfg.Server.AllowedOrigins))
			})
		}
		return g.Wait()
	},
}

func init() {
	scheduleCmd.Flags().String("cron", "", "5-field cron expression (default from config schedule.cron)")
	scheduleCmd.Flags().Bool("serve", false, "also serve the run history API")
	scheduleCmd.Flags().Bool("run-now", false, "run one sweep immediately before waiting for the schedule")
	rootCmd.AddCommand(scheduleCmd)
}

// parseSchedule parses a standard 5-field cron expression (minute hour
// day-of-month month day-of-week).
func parseSchedule(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, eris.New("schedule: cron expression is required")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, eris.Wrapf(err, "schedule: invalid cron %q", spec)
	}
	return sched, nil
}

// scheduleLoop calls sweep each time sched fires until ctx is done. Sweeps
// never overlap; a firing missed during a long sweep is skipped.
func scheduleLoop(ctx context.Context, sched cron.Schedule, now func() time.Time, runNow bool, sweep func(context.Context)) error {
	if runNow {
		sweep(ctx)
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		current := now()
		next := sched.Next(current)
		wait := next.Sub(current)
		zap.L().Info("schedule: next sweep",
			zap.Time("at", next),
			zap.Duration("in", wait.Round(time.Second)),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			sweep(ctx)
		}
	}
}
