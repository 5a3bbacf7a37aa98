package server

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"xhs-insight/ingest"
	"xhs-insight/models"
	"xhs-insight/services"
	"xhs-insight/session"
	"xhs-insight/storage"
	"xhs-insight/utils"
)

// DashboardAPI serves uploads, summaries and reports for dashboard sessions.
type DashboardAPI struct {
	Router         fiber.Router
	Parser         *services.Parser
	Sessions       *session.Store
	Reports        *services.ReportService // nil when no LLM is configured
	Renderer       storage.ReportRenderer  // nil disables PDF export
	MaxUploadBytes int
	Logger         *utils.Logger
}

type datasetResponse struct {
	SessionID  string              `json:"sessionId"`
	Generation uint64              `json:"generation"`
	Summary    *models.Summary     `json:"summary"`
	Posts      []*models.CleanPost `json:"posts"`
}

func (api *DashboardAPI) Register() {
	api.Router.Post("/sessions", func(c *fiber.Ctx) error {
		posts, err := api.readPosts(c)
		if err != nil {
			return applyErrorFor(c, err)
		}
		snap := api.Sessions.Create(posts)
		return applySuccess(c, toDatasetResponse(snap))
	})

	api.Router.Put("/sessions/:id/dataset", func(c *fiber.Ctx) error {
		posts, err := api.readPosts(c)
		if err != nil {
			return applyErrorFor(c, err)
		}
		snap, err := api.Sessions.Replace(c.Params("id"), posts)
		if err != nil {
			return applyErrorFor(c, err)
		}
		return applySuccess(c, toDatasetResponse(snap))
	})

	api.Router.Get("/sessions/:id/summary", func(c *fiber.Ctx) error {
		snap, err := api.Sessions.Get(c.Params("id"))
		if err != nil {
			return applyErrorFor(c, err)
		}
		return applySuccess(c, snap.Summary())
	})

	api.Router.Get("/sessions/:id/posts", func(c *fiber.Ctx) error {
		snap, err := api.Sessions.Get(c.Params("id"))
		if err != nil {
			return applyErrorFor(c, err)
		}
		return applySuccess(c, snap.Posts)
	})

	api.Router.Get("/sessions/:id/posts.csv", func(c *fiber.Ctx) error {
		snap, err := api.Sessions.Get(c.Params("id"))
		if err != nil {
			return applyErrorFor(c, err)
		}

		var buf bytes.Buffer
		w, err := storage.NewCSVStream(&buf)
		if err != nil {
			return applyErrorFor(c, err)
		}
		if err := w.Write(snap.Posts); err != nil {
			return applyErrorFor(c, err)
		}

		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="clean_posts.csv"`)
		return c.Send(buf.Bytes())
	})

	api.Router.Post("/sessions/:id/report", func(c *fiber.Ctx) error {
		if api.Reports == nil {
			return applyError(c, fiber.StatusServiceUnavailable, "AI analysis is not configured (missing API key)")
		}

		report, err := api.Sessions.GenerateReport(c.UserContext(), c.Params("id"), api.Reports)
		switch {
		case err == nil:
			return applySuccess(c, report)
		case isClientError(err):
			return applyErrorFor(c, err)
		default:
			return applyError(c, fiber.StatusBadGateway, "AI analysis failed: "+err.Error())
		}
	})

	api.Router.Get("/sessions/:id/report", func(c *fiber.Ctx) error {
		report, err := api.Sessions.Report(c.Params("id"))
		if err != nil {
			return applyErrorFor(c, err)
		}
		if c.Query("format") == "text" {
			c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
			return c.SendString(report.Markdown)
		}
		return applySuccess(c, report)
	})

	api.Router.Get("/sessions/:id/report.pdf", func(c *fiber.Ctx) error {
		if api.Renderer == nil {
			return applyError(c, fiber.StatusServiceUnavailable, "PDF export is not available")
		}

		snap, err := api.Sessions.Get(c.Params("id"))
		if err != nil {
			return applyErrorFor(c, err)
		}
		if snap.Report == nil {
			return applyErrorFor(c, session.ErrNoReport)
		}

		pdf, err := api.Renderer.RenderPDF(c.UserContext(), &storage.ReportDocument{
			Summary:     snap.Summary(),
			Markdown:    snap.Report.Markdown,
			Model:       snap.Report.Model,
			GeneratedAt: snap.Report.GeneratedAt,
		})
		if err != nil {
			api.Logger.Error("[api] PDF export for %s failed: %v", snap.ID, err)
			return applyError(c, fiber.StatusInternalServerError, "PDF export failed")
		}

		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="report-%s.pdf"`, time.Now().Format("20060102")))
		return c.Send(pdf)
	})

	api.Router.Delete("/sessions/:id", func(c *fiber.Ctx) error {
		api.Sessions.Delete(c.Params("id"))
		return applySuccess(c, nil)
	})
}

// readPosts decodes the uploaded file (multipart field "file") or, failing
// that, a raw text body, and parses it.
func (api *DashboardAPI) readPosts(c *fiber.Ctx) ([]*models.CleanPost, error) {
	name, data, err := api.readUpload(c)
	if err != nil {
		return nil, err
	}

	text, err := ingest.Decode(name, data, api.MaxUploadBytes)
	if err != nil {
		return nil, err
	}

	posts := api.Parser.Parse(text)
	if len(posts) == 0 {
		return nil, services.ErrUnparseable
	}
	return posts, nil
}

func (api *DashboardAPI) readUpload(c *fiber.Ctx) (string, []byte, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return "", nil, fmt.Errorf("upload: open %q: %w", fh.Filename, err)
		}
		defer f.Close()

		var r io.Reader = f
		if api.MaxUploadBytes > 0 {
			r = io.LimitReader(f, int64(api.MaxUploadBytes)+1)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return "", nil, fmt.Errorf("upload: read %q: %w", fh.Filename, err)
		}
		return fh.Filename, data, nil
	}

	ct := string(c.Request().Header.ContentType())
	if strings.HasPrefix(ct, "text/") && len(c.Body()) > 0 {
		return "upload.csv", append([]byte(nil), c.Body()...), nil
	}
	return "", nil, fiber.NewError(fiber.StatusBadRequest, "missing file upload (multipart field \"file\")")
}

func isClientError(err error) bool {
	return errorsIsAny(err, session.ErrNotFound, session.ErrStale, services.ErrNoPosts)
}

func toDatasetResponse(snap *session.Snapshot) datasetResponse {
	return datasetResponse{
		SessionID:  snap.ID,
		Generation: snap.Generation,
		Summary:    snap.Summary(),
		Posts:      snap.Posts,
	}
}
