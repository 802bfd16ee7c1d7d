package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/mentor-regress/internal/config"
)

var (
	cfg        *config.Config
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "mentor-regress",
	Short: "Regression sweep for the mentor QA endpoints",
	Long: `Replays benchmark prompts against each mentor endpoint, flags answers that got
worse, writes a degraded-responses report and alerts the team.

Settings come from ./config.yaml (or --config), overridden by REGRESS_*
environment variables, e.g. REGRESS_API_BASE_URL or REGRESS_NOTIFY_WEBHOOK_URL.
Run history is kept in regress.db unless store.driver says otherwise.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadFrom(configFile)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		zap.L().Debug("config loaded",
			zap.String("file", configFile),
			zap.Int("mentors", len(cfg.Mentors)),
			zap.String("store", cfg.Store.Driver),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
