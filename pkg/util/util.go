package util

import (
	"math"
	"strconv"
	"strings"
)

func StringToFloat64(str string) (float64, error) {
	val, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, err
	}
	return val, nil
}

// FormatFloat formats val with the fewest digits that parse back to exactly val.
func FormatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// Excerpt returns at most n bytes of b as a string, marking truncation.
func Excerpt(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
