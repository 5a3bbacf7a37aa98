package storage

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"xhs-insight/models"
)

// ReportDocument is everything printed in the exported report.
type ReportDocument struct {
	Title       string
	Summary     *models.Summary
	Markdown    string
	Model       string
	GeneratedAt time.Time
}

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	// Model output is untrusted; only formatting markup survives.
	sanitizer = bluemonday.UGCPolicy()

	reportTemplate = template.Must(template.New("report").Parse(reportHTML))
)

// RenderHTML converts the report Markdown to sanitized HTML and wraps it in a
// printable page together with the summary cards.
func RenderHTML(doc *ReportDocument) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(doc.Markdown), &body); err != nil {
		return nil, fmt.Errorf("html: convert markdown: %w", err)
	}

	title := doc.Title
	if title == "" {
		title = "账号战略审计报告"
	}

	var out bytes.Buffer
	err := reportTemplate.Execute(&out, struct {
		Title       string
		Summary     *models.Summary
		Body        template.HTML
		Model       string
		GeneratedAt string
	}{
		Title:       title,
		Summary:     doc.Summary,
		Body:        template.HTML(sanitizer.SanitizeBytes(body.Bytes())),
		Model:       doc.Model,
		GeneratedAt: doc.GeneratedAt.Format("2006-01-02 15:04"),
	})
	if err != nil {
		return nil, fmt.Errorf("html: render page: %w", err)
	}
	return out.Bytes(), nil
}

const reportHTML = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "PingFang SC", "Noto Sans CJK SC", sans-serif; color: #0f172a; margin: 32px; }
h1 { font-size: 24px; margin-bottom: 4px; }
.meta { color: #64748b; font-size: 12px; margin-bottom: 24px; }
.cards { display: flex; gap: 12px; margin-bottom: 24px; }
.card { flex: 1; border: 1px solid #e2e8f0; border-radius: 8px; padding: 12px; }
.card .label { font-size: 11px; color: #64748b; text-transform: uppercase; }
.card .value { font-size: 20px; font-weight: 700; }
table { border-collapse: collapse; width: 100%; }
td, th { border: 1px solid #e2e8f0; padding: 6px 8px; font-size: 13px; text-align: left; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="meta">{{.GeneratedAt}}{{if .Model}} · {{.Model}}{{end}}</div>
{{with .Summary}}
<div class="cards">
  <div class="card"><div class="label">Total posts</div><div class="value">{{.TotalPosts}}</div></div>
  <div class="card"><div class="label">Median likes</div><div class="value">{{.MedianLikes}}</div></div>
  <div class="card"><div class="label">Tier</div><div class="value">{{.TierLabel}}</div></div>
</div>
{{if .TopPosts}}
<table>
  <tr><th>Row</th><th>Title</th><th>Likes</th></tr>
  {{range .TopPosts}}<tr><td>{{.ID}}</td><td>{{.Title}}</td><td>{{.Likes}}</td></tr>
  {{end}}
</table>
{{end}}
{{end}}
<article>{{.Body}}</article>
</body>
</html>
`
