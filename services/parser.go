package services

import (
	"errors"
	"strings"

	"xhs-insight/models"
	"xhs-insight/utils"
)

const notFound = -1

// ErrUnparseable reports input that yields no posts. Parse itself never fails,
// so callers that need a dataset return it.
var ErrUnparseable = errors.New("could not parse data, check that the file has a header row with title and likes columns")

type columnRole int

const (
	roleTitle columnRole = iota
	roleLikes
	roleLink
	roleCover
)

// roleKeywords is evaluated in order; a header cell claimed by an earlier
// role is not considered for later ones.
var roleKeywords = []struct {
	role     columnRole
	keywords []string
}{
	{roleTitle, []string{"title", "标题"}},
	{roleLikes, []string{"likes", "count", "点赞"}},
	{roleLink, []string{"link", "链接"}},
	{roleCover, []string{"cover", "封面"}},
}

// Parser turns raw CSV text into CleanPosts.
type Parser struct {
	logger *utils.Logger
}

// NewParser creates a Parser with the given logger.
func NewParser(logger *utils.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse splits text into a header and data lines and builds one CleanPost per
// non-blank data line. It never fails; unusable input gives an empty slice.
// Quoted fields and embedded commas are not supported.
func (p *Parser) Parse(text string) []*models.CleanPost {
	lines := splitLines(text)
	if len(lines) < 2 {
		p.logger.Warn("[parser] Input has %d line(s), need a header and at least one row", len(lines))
		return []*models.CleanPost{}
	}

	roles := ResolveColumns(splitHeader(lines[0]))
	p.logger.Debug("[parser] Column roles — title: %d | likes: %d | link: %d | cover: %d",
		roles.Title, roles.Likes, roles.Link, roles.Cover)
	if roles.Likes == notFound {
		p.logger.Warn("[parser] No likes column found in header %q, every post will have 0 likes", lines[0])
	}

	posts := make([]*models.CleanPost, 0, len(lines)-1)
	skipped := 0
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			skipped++
			continue
		}
		rec := models.RawRecord{Line: i, Cells: strings.Split(lines[i], ",")}
		posts = append(posts, buildPost(rec, roles))
	}

	p.logger.Info("[parser] Parsed %d posts from %d data lines (skipped %d blank)",
		len(posts), len(lines)-1, skipped)
	return posts
}

// ResolveColumns maps header cells (already trimmed and lower-cased) to roles.
func ResolveColumns(header []string) models.ColumnRoles {
	idx := [4]int{notFound, notFound, notFound, notFound}
	claimed := make(map[int]bool, len(roleKeywords))

	for _, rk := range roleKeywords {
		for i, cell := range header {
			if claimed[i] || !containsAny(cell, rk.keywords) {
				continue
			}
			idx[rk.role] = i
			claimed[i] = true
			break
		}
	}

	return models.ColumnRoles{
		Title: idx[roleTitle],
		Likes: idx[roleLikes],
		Link:  idx[roleLink],
		Cover: idx[roleCover],
	}
}

func buildPost(rec models.RawRecord, roles models.ColumnRoles) *models.CleanPost {
	return &models.CleanPost{
		ID:    rec.Line,
		Title: cellOrDefault(rec.Cells, roles.Title, models.DefaultTitle),
		Likes: NormalizeLikes(cellOrDefault(rec.Cells, roles.Likes, "")),
		Link:  cellOrDefault(rec.Cells, roles.Link, ""),
		Cover: cellOrDefault(rec.Cells, roles.Cover, ""),
	}
}

// cellOrDefault returns cells[idx], or def when the column is unresolved,
// missing from this row, or empty.
func cellOrDefault(cells []string, idx int, def string) string {
	if idx < 0 || idx >= len(cells) || cells[idx] == "" {
		return def
	}
	return cells[idx]
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func splitHeader(line string) []string {
	cells := strings.Split(line, ",")
	for i, c := range cells {
		cells[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return cells
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
