package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xhs-insight/models"
	"xhs-insight/utils"
)

var (
	// ErrNoPosts is returned when a report is requested for an empty dataset.
	ErrNoPosts = errors.New("no posts to analyze")
	// ErrEmptyReport is returned when the model answers with no text.
	ErrEmptyReport = errors.New("report generation returned no text, please retry")
)

// now is swapped in tests.
var now = time.Now

// ReportGenerator produces a natural-language strategy report for a set of posts.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, posts []*models.CleanPost) (string, error)
}

// ReportService runs a single report attempt against a ReportGenerator.
// There is no retry: a failure goes straight back to the caller.
type ReportService struct {
	gen    ReportGenerator
	model  string
	logger *utils.Logger
}

func NewReportService(gen ReportGenerator, model string, logger *utils.Logger) *ReportService {
	return &ReportService{gen: gen, model: model, logger: logger}
}

// Generate asks the generator for a report. generation tags the result with
// the dataset version it was produced from.
func (s *ReportService) Generate(ctx context.Context, posts []*models.CleanPost, generation uint64) (*models.Report, error) {
	if len(posts) == 0 {
		return nil, ErrNoPosts
	}

	s.logger.Info("[report] Requesting report for %d posts (generation %d)", len(posts), generation)
	text, err := s.gen.GenerateReport(ctx, posts)
	if err != nil {
		s.logger.Error("[report] Generation failed: %v", err)
		return nil, fmt.Errorf("report: generate: %w", err)
	}
	if text == "" {
		return nil, ErrEmptyReport
	}

	return &models.Report{
		Markdown:    text,
		Model:       s.model,
		Generation:  generation,
		GeneratedAt: now(),
	}, nil
}
