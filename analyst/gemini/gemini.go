package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"xhs-insight/config"
	"xhs-insight/models"
	"xhs-insight/services"
	"xhs-insight/utils"
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("gemini: missing api key (set GEMINI_API_KEY)")

// contentGenerator is the slice of *genai.Models this package uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client generates strategy reports with the Gemini API.
type Client struct {
	models  contentGenerator
	model   string
	genCfg  *genai.GenerateContentConfig
	sample  int
	timeout time.Duration
	gate    *utils.Gate
	logger  *utils.Logger
}

var _ services.ReportGenerator = (*Client)(nil)

// New creates a ready-to-use Gemini Client.
func New(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, ErrMissingAPIKey
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return newClient(gc.Models, cfg, logger), nil
}

func newClient(m contentGenerator, cfg *config.Config, logger *utils.Logger) *Client {
	return &Client{
		models: m,
		model:  cfg.GeminiModel,
		genCfg: &genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(cfg.GeminiTemperature)),
			TopK:        genai.Ptr(float32(cfg.GeminiTopK)),
			TopP:        genai.Ptr(float32(cfg.GeminiTopP)),
		},
		sample:  cfg.ReportSampleSize,
		timeout: cfg.LLMTimeout,
		gate:    utils.NewGate(cfg.MaxConcurrency, cfg.RateLimitMs),
		logger:  logger,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// GenerateReport sends one prompt built from posts and returns the model's text.
func (c *Client) GenerateReport(ctx context.Context, posts []*models.CleanPost) (string, error) {
	prompt, err := services.BuildPrompt(posts, c.sample)
	if err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var text string
	err = c.gate.Run(ctx, func(ctx context.Context) error {
		start := time.Now()
		resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), c.genCfg)
		if err != nil {
			return fmt.Errorf("gemini: generate content: %w", err)
		}
		text = resp.Text()
		c.logger.Debug("[gemini] %s answered in %v (%d chars)", c.model, time.Since(start).Round(time.Millisecond), len(text))
		return nil
	})
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", services.ErrEmptyReport
	}
	return text, nil
}
