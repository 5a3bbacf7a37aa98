package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	tenThousandMark = "万"
	likeMark        = "赞" // also covers 点赞
	noDataDash      = "-"
)

var (
	// floatPrefixRegexp captures the leading decimal number of a string, the
	// same prefix a lenient float parser would accept.
	floatPrefixRegexp = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
	// nonDigitRegexp matches everything that is not an ASCII digit.
	nonDigitRegexp = regexp.MustCompile(`[^0-9]`)
)

// NormalizeLikes converts one raw likes cell into a non-negative count.
//
//	12          → 12 (numbers pass through)
//	"1.2万"     → 12000
//	"-", "点赞" → 0
//	"1,234"     → 1234
//	"abc"       → 0
//
// It never fails. A string containing 赞 always yields 0, so "128赞" is read as
// placeholder text rather than 128 likes.
func NormalizeLikes(raw any) int {
	switch v := raw.(type) {
	case nil:
		return 0
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint:
		return uintToCount(uint64(v))
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		return uintToCount(v)
	case float32:
		return floatToCount(float64(v))
	case float64:
		return floatToCount(v)
	case string:
		return normalizeLikesText(v)
	case []byte:
		return normalizeLikesText(string(v))
	default:
		return 0
	}
}

func normalizeLikesText(raw string) int {
	if raw == "" {
		return 0
	}

	s := strings.TrimSpace(raw)

	if strings.Contains(s, tenThousandMark) {
		rest := strings.TrimSpace(strings.Replace(s, tenThousandMark, "", 1))
		prefix := floatPrefixRegexp.FindString(rest)
		if prefix == "" {
			return 0
		}
		n, err := strconv.ParseFloat(prefix, 64)
		if err != nil {
			return 0
		}
		v := math.Floor(n*10000 + 0.5)
		if v <= 0 || math.IsNaN(v) {
			return 0
		}
		if v >= float64(math.MaxInt) {
			return math.MaxInt
		}
		return int(v)
	}

	if strings.Contains(s, likeMark) || s == noDataDash {
		return 0
	}

	digits := nonDigitRegexp.ReplaceAllString(s, "")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// floatToCount keeps whole numbers as-is and rounds fractional ones,
// saturating at the int range.
func floatToCount(f float64) int {
	if math.IsNaN(f) {
		return 0
	}
	f = math.Round(f)
	switch {
	case f >= float64(math.MaxInt):
		return math.MaxInt
	case f <= float64(math.MinInt):
		return math.MinInt
	}
	return int(f)
}

func uintToCount(u uint64) int {
	if u > math.MaxInt {
		return math.MaxInt
	}
	return int(u)
}
