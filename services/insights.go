package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"xhs-insight/models"
	"xhs-insight/utils"
)

const (
	// HeadTierMinLikes is the lowest median that still counts as head tier.
	HeadTierMinLikes = 5000
	// WaistTierMinLikes is the lowest median that still counts as waist tier.
	WaistTierMinLikes = 500

	topPostCount = 3
)

// Summarize computes median likes, tier and the top posts. It returns nil
// for an empty collection.
func Summarize(posts []*models.CleanPost) *models.Summary {
	if len(posts) == 0 {
		return nil
	}

	likes := make([]int, len(posts))
	for i, p := range posts {
		likes[i] = p.Likes
	}
	sort.Ints(likes)
	// Upper-middle element for even lengths.
	median := likes[len(likes)/2]

	tier := ClassifyTier(median)
	return &models.Summary{
		MedianLikes: median,
		TotalPosts:  len(posts),
		Tier:        tier,
		TierLabel:   tier.Label(),
		TopPosts:    TopPosts(posts, topPostCount),
	}
}

// ClassifyTier buckets a median likes value.
func ClassifyTier(medianLikes int) models.Tier {
	switch {
	case medianLikes >= HeadTierMinLikes:
		return models.TierHead
	case medianLikes >= WaistTierMinLikes:
		return models.TierWaist
	default:
		return models.TierTail
	}
}

// TopPosts returns up to n posts ordered by likes descending; equal likes keep
// their input order. The input slice is not modified.
func TopPosts(posts []*models.CleanPost, n int) []*models.CleanPost {
	sorted := make([]*models.CleanPost, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Likes > sorted[j].Likes
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(posts []*models.CleanPost) *models.Summary {
	summary := Summarize(posts)
	if summary == nil {
		s.logger.Warn("[insights] No posts to summarize")
		return nil
	}
	s.logger.Info("[insights] %d posts — median likes %d — tier %s",
		summary.TotalPosts, summary.MedianLikes, summary.Tier)
	return summary
}

var (
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	valueStyle   = lipgloss.NewStyle().Bold(true)
	likesStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

func (s *InsightService) Print(w io.Writer, r *models.Summary) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n%s\n", bannerStyle.Render(sep))
	fmt.Fprintf(w, "%s\n", bannerStyle.Render("  📊 ACCOUNT INSIGHTS"))
	fmt.Fprintf(w, "%s\n\n", bannerStyle.Render(sep))

	if r == nil {
		fmt.Fprintf(w, "  No posts to summarize\n\n")
		return
	}

	fmt.Fprintf(w, "%s\n", sectionStyle.Render("  Overview"))
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total posts  : %s\n", valueStyle.Render(fmt.Sprint(r.TotalPosts)))
	fmt.Fprintf(w, "  Median likes : %s\n", valueStyle.Render(fmt.Sprint(r.MedianLikes)))
	fmt.Fprintf(w, "  Tier         : %s (%s)\n", valueStyle.Render(string(r.Tier)), r.Tier.Label())
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n", sectionStyle.Render(fmt.Sprintf("  Top %d Posts", topPostCount)))
	fmt.Fprintf(w, "  %s\n", thin)
	for i, p := range r.TopPosts {
		fmt.Fprintf(w, "  %d. %-40s %s  (row %d)\n",
			i+1, truncate(p.Title, 38), likesStyle.Render(fmt.Sprintf("%d ♥", p.Likes)), p.ID)
	}

	fmt.Fprintf(w, "\n%s\n\n", bannerStyle.Render(sep))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
