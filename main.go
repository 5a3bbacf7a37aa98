package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xhs-insight/config"
	"xhs-insight/utils"
)

var (
	cfg    *config.Config
	logger *utils.Logger

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "xhs-insight",
	Short: "Account insight dashboard for Xiaohongshu post exports",
	Long: `xhs-insight reads a CSV export of post metrics, normalizes it, computes
median likes and a performance tier, and can ask Gemini for a strategy report.

Run "xhs-insight serve" for the web dashboard or "xhs-insight analyze FILE"
for a one-off terminal report.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger = utils.NewLoggerWithLevel(level)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd, analyzeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
