package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"xhs-insight/models"
)

var _ PostWriter = (*CSVWriter)(nil)

var csvHeader = []string{"id", "title", "likes", "link", "cover"}

// CSVWriter writes clean posts as CSV. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	closer io.Closer
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w, err := NewCSVStream(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// NewCSVStream writes to an arbitrary writer, such as an HTTP response.
// A UTF-8 BOM is emitted first so spreadsheet apps detect the encoding.
func NewCSVStream(out io.Writer) (*CSVWriter, error) {
	if _, err := out.Write([]byte("\xef\xbb\xbf")); err != nil {
		return nil, fmt.Errorf("csv: write bom: %w", err)
	}

	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}

	return &CSVWriter{writer: w}, nil
}

// Write appends posts in the given order.
func (c *CSVWriter) Write(posts []*models.CleanPost) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range posts {
		row := []string{
			strconv.Itoa(p.ID),
			p.Title,
			strconv.Itoa(p.Likes),
			p.Link,
			p.Cover,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file, if any.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writer.Flush()
	if c.closer != nil {
		return c.closer.Close()
	}
	return c.writer.Error()
}
