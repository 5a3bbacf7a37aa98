package models

import "time"

// DefaultTitle is used when a row has no title cell.
const DefaultTitle = "no title"

// RawRecord holds one unprocessed CSV data line split into cells.
// It only lives for the duration of a parse.
type RawRecord struct {
	Line  int
	Cells []string
}

// CleanPost is the normalized record every summary and report works on.
type CleanPost struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Likes int    `json:"likes"`
	Link  string `json:"link"`
	Cover string `json:"cover"`
}

// Tier is the coarse performance bucket derived from median likes.
type Tier string

const (
	TierHead  Tier = "head"
	TierWaist Tier = "waist"
	TierTail  Tier = "tail"
)

// Label returns the dashboard display label.
func (t Tier) Label() string {
	switch t {
	case TierHead:
		return "头部"
	case TierWaist:
		return "腰部"
	default:
		return "尾部"
	}
}

// ColumnRoles maps each semantic field to a header index; -1 means not found.
type ColumnRoles struct {
	Title int `json:"title"`
	Likes int `json:"likes"`
	Link  int `json:"link"`
	Cover int `json:"cover"`
}

// Summary holds the statistics computed over a clean post collection.
type Summary struct {
	MedianLikes int          `json:"medianLikes"`
	TotalPosts  int          `json:"totalPosts"`
	Tier        Tier         `json:"tier"`
	TierLabel   string       `json:"tierLabel"`
	TopPosts    []*CleanPost `json:"topPosts"`
}

// Report is a generated strategy report tied to the dataset generation it was built from.
type Report struct {
	Markdown    string    `json:"markdown"`
	Model       string    `json:"model"`
	Generation  uint64    `json:"generation"`
	GeneratedAt time.Time `json:"generatedAt"`
}
