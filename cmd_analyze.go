package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"xhs-insight/ingest"
	"xhs-insight/services"
	"xhs-insight/storage"
)

// exportFromConfig is the value of a bare --export flag.
const exportFromConfig = "CSV_OUTPUT_PATH"

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Summarize a post export and optionally generate a strategy report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		withReport, _ := cmd.Flags().GetBool("report")
		pdfPath, _ := cmd.Flags().GetString("pdf")
		exportPath, _ := cmd.Flags().GetString("export")
		if exportPath == exportFromConfig {
			exportPath = cfg.CSVOutputPath
		}
		markdownPath, _ := cmd.Flags().GetString("markdown")
		if pdfPath != "" || markdownPath != "" {
			withReport = true
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		text, err := ingest.Decode(args[0], data, cfg.MaxUploadBytes)
		if err != nil {
			return err
		}

		posts := services.NewParser(logger).Parse(text)
		if len(posts) == 0 {
			return services.ErrUnparseable
		}

		insights := services.NewInsightService(logger)
		summary := insights.Generate(posts)
		insights.Print(cmd.OutOrStdout(), summary)

		if exportPath != "" {
			w, err := storage.NewCSVWriter(exportPath)
			if err != nil {
				return err
			}
			if err := w.Write(posts); err != nil {
				_ = w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			logger.Info("Clean posts saved to %s", exportPath)
		}

		if !withReport {
			return nil
		}

		reports, err := newReportService(cmd.Context())
		if err != nil {
			return err
		}
		report, err := reports.Generate(cmd.Context(), posts, 1)
		if err != nil {
			return fmt.Errorf("AI analysis failed: %w", err)
		}

		if markdownPath != "" {
			if err := os.WriteFile(markdownPath, []byte(report.Markdown), 0644); err != nil {
				return fmt.Errorf("write %s: %w", markdownPath, err)
			}
			logger.Info("Report saved to %s", markdownPath)
		}

		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return fmt.Errorf("create markdown renderer: %w", err)
		}
		out, err := r.Render(report.Markdown)
		if err != nil {
			out = report.Markdown
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)

		if pdfPath != "" {
			renderer := storage.NewPDFRenderer(cfg.ChromeBin, cfg.MaxRetries, logger)
			pdf, err := renderer.RenderPDF(cmd.Context(), &storage.ReportDocument{
				Summary:     summary,
				Markdown:    report.Markdown,
				Model:       report.Model,
				GeneratedAt: report.GeneratedAt,
			})
			if err != nil {
				return err
			}
			if err := os.WriteFile(pdfPath, pdf, 0644); err != nil {
				return fmt.Errorf("write %s: %w", pdfPath, err)
			}
			logger.Info("PDF saved to %s", pdfPath)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Bool("report", false, "generate an AI strategy report")
	analyzeCmd.Flags().String("markdown", "", "write the report Markdown to this path (implies --report)")
	analyzeCmd.Flags().String("pdf", "", "write the report as PDF to this path (implies --report)")
	analyzeCmd.Flags().String("export", "", "write the cleaned posts as CSV to this path (bare flag uses CSV_OUTPUT_PATH)")
	analyzeCmd.Flags().Lookup("export").NoOptDefVal = exportFromConfig
}
