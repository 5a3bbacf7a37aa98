package storage

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"xhs-insight/utils"
)

// PDFRenderer prints report documents to PDF with headless Chrome.
type PDFRenderer struct {
	chromeBin string
	timeout   time.Duration
	retry     *utils.RetryConfig
	logger    *utils.Logger
}

var _ ReportRenderer = (*PDFRenderer)(nil)

// NewPDFRenderer creates a renderer. An empty chromeBin means auto-detect.
func NewPDFRenderer(chromeBin string, maxRetries int, logger *utils.Logger) *PDFRenderer {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	return &PDFRenderer{
		chromeBin: chromeBin,
		timeout:   60 * time.Second,
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
		logger: logger,
	}
}

// RenderPDF renders doc to HTML and prints it to an A4 PDF.
func (r *PDFRenderer) RenderPDF(ctx context.Context, doc *ReportDocument) ([]byte, error) {
	html, err := RenderHTML(doc)
	if err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if r.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(r.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	var pdf []byte
	err = r.retry.Do(allocCtx, "print-pdf", func(ctx context.Context) error {
		tabCtx, cancel := chromedp.NewContext(ctx, chromedp.WithLogf(func(string, ...interface{}) {}))
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate("about:blank"),
			chromedp.ActionFunc(func(ctx context.Context) error {
				tree, err := page.GetFrameTree().Do(ctx)
				if err != nil {
					return err
				}
				return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
			}),
			chromedp.ActionFunc(func(ctx context.Context) error {
				buf, _, err := page.PrintToPDF().
					WithPrintBackground(true).
					WithPaperWidth(8.27).
					WithPaperHeight(11.69).
					Do(ctx)
				if err != nil {
					return err
				}
				pdf = buf
				return nil
			}),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("pdf: %w", err)
	}

	r.logger.Info("[pdf] Rendered report (%d bytes)", len(pdf))
	return pdf, nil
}

func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
