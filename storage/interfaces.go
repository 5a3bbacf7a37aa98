package storage

import (
	"context"

	"xhs-insight/models"
)

// PostWriter is the interface any clean-post export backend must satisfy.
type PostWriter interface {
	Write(posts []*models.CleanPost) error
	Close() error
}

// ReportRenderer turns a generated report into a printable document.
type ReportRenderer interface {
	RenderPDF(ctx context.Context, doc *ReportDocument) ([]byte, error)
}
