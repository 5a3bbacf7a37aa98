package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"xhs-insight/analyst/gemini"
	"xhs-insight/server"
	"xhs-insight/services"
	"xhs-insight/session"
	"xhs-insight/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTPAddr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("=== XHS Insight dashboard starting ===")
		logger.Info("Config — model: %s | sample: %d | concurrency: %d | rate: %dms | session ttl: %v",
			cfg.GeminiModel, cfg.ReportSampleSize, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.SessionTTL)

		reports, err := newReportService(ctx)
		if err != nil {
			if !errors.Is(err, gemini.ErrMissingAPIKey) {
				return err
			}
			logger.Warn("No Gemini API key configured — report generation is disabled")
		}

		store := session.NewStore(cfg.SessionTTL, logger)
		go store.RunJanitor(ctx, time.Minute)

		app := server.New(server.Deps{
			Parser:         services.NewParser(logger),
			Sessions:       store,
			Reports:        reports,
			Renderer:       storage.NewPDFRenderer(cfg.ChromeBin, cfg.MaxRetries, logger),
			MaxUploadBytes: cfg.MaxUploadBytes,
			Logger:         logger,
		})
		return server.Serve(ctx, app, cfg.HTTPAddr, logger)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides HTTP_ADDR)")
}

// newReportService wires the Gemini client into a ReportService.
func newReportService(ctx context.Context) (*services.ReportService, error) {
	client, err := gemini.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return services.NewReportService(client, client.Model(), logger), nil
}
