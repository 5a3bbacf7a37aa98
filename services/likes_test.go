package services

import (
	"math"
	"testing"
)

func TestNormalizeLikesNumbersPassThrough(t *testing.T) {
	tests := []struct {
		raw  any
		want int
	}{
		{0, 0},
		{42, 42},
		{int64(120000), 120000},
		{uint16(7), 7},
		{float64(3), 3},
		{float32(18), 18},
	}

	for _, tt := range tests {
		if got := NormalizeLikes(tt.raw); got != tt.want {
			t.Errorf("NormalizeLikes(%v) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeLikesText(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"1.2万", 12000},
		{"3万", 30000},
		{" 1.5万 ", 15000},
		{"0.05万", 500},
		{"1.2万赞", 12000},
		{"万", 0},
		{"约1万", 0},
		{"-", 0},
		{"点赞", 0},
		{"赞", 0},
		{"128赞", 0},
		{"", 0},
		{"   ", 0},
		{"1,234", 1234},
		{"abc", 0},
		{"  987 ", 987},
		{"12 likes", 12},
		{"--", 0},
	}

	for _, tt := range tests {
		if got := NormalizeLikes(tt.raw); got != tt.want {
			t.Errorf("NormalizeLikes(%q) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeLikesNeverNegative(t *testing.T) {
	for _, raw := range []string{"-1万", "-250", "-0.3万"} {
		if got := NormalizeLikes(raw); got < 0 {
			t.Errorf("NormalizeLikes(%q) = %d; want >= 0", raw, got)
		}
	}
}

func TestNormalizeLikesSaturatesLargeNumbers(t *testing.T) {
	tests := []struct {
		raw  any
		want int
	}{
		{uint64(math.MaxUint64), math.MaxInt},
		{uint(math.MaxUint), math.MaxInt},
		{uint64(math.MaxInt), math.MaxInt},
		{1e30, math.MaxInt},
		{float32(1e30), math.MaxInt},
		{math.Inf(1), math.MaxInt},
		{1e30 * 1e10, math.MaxInt},
		{"1e30万", math.MaxInt},
	}

	for _, tt := range tests {
		if got := NormalizeLikes(tt.raw); got != tt.want {
			t.Errorf("NormalizeLikes(%v) = %d; want %d", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeLikesOddInputs(t *testing.T) {
	if got := NormalizeLikes(nil); got != 0 {
		t.Errorf("NormalizeLikes(nil) = %d; want 0", got)
	}
	if got := NormalizeLikes(struct{}{}); got != 0 {
		t.Errorf("NormalizeLikes(struct{}) = %d; want 0", got)
	}
	if got := NormalizeLikes(math.NaN()); got != 0 {
		t.Errorf("NormalizeLikes(NaN) = %d; want 0", got)
	}
	if got := NormalizeLikes("99999999999999999999999"); got != 0 {
		t.Errorf("NormalizeLikes(overflow) = %d; want 0", got)
	}
}
