package server

import (
	"context"
	_ "embed"
	"time"

	"github.com/gofiber/fiber/v2"

	"xhs-insight/services"
	"xhs-insight/session"
	"xhs-insight/storage"
	"xhs-insight/utils"
)

//go:embed static/index.html
var indexHTML []byte

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Parser         *services.Parser
	Sessions       *session.Store
	Reports        *services.ReportService
	Renderer       storage.ReportRenderer
	MaxUploadBytes int
	Logger         *utils.Logger
}

// New builds the fiber app with every route registered.
func New(d Deps) *fiber.App {
	bodyLimit := 4 << 20
	if d.MaxUploadBytes > 0 {
		bodyLimit = d.MaxUploadBytes + 1<<20
	}

	app := fiber.New(fiber.Config{
		AppName:               "xhs-insight",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return applyErrorFor(c, err)
		},
	})
	app.Use(requestLogger(d.Logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(indexHTML)
	})

	api := &DashboardAPI{
		Router:         app.Group("/api"),
		Parser:         d.Parser,
		Sessions:       d.Sessions,
		Reports:        d.Reports,
		Renderer:       d.Renderer,
		MaxUploadBytes: d.MaxUploadBytes,
		Logger:         d.Logger,
	}
	api.Register()

	return app
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, app *fiber.App, addr string, logger *utils.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("[server] Listening on %s", addr)
		errc <- app.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("[server] Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			return err
		}
		return <-errc
	}
}

func requestLogger(logger *utils.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		logger.Debug("[http] %s %s → %d (%v)", c.Method(), c.Path(), status, time.Since(start).Round(time.Microsecond))
		return err
	}
}
