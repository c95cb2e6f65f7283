package discord

import (
	"math"
	"strconv"

	pstrings "marketwatch/internal/platform/strings"
)

func truncate(s string, n int) string { return pstrings.Truncate(s, n) }

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

// percent renders 0.853 as 85%
func percent(f float64) string { return fixed0(f*100) + "%" }

func fixed0(f float64) string { return strconv.FormatFloat(math.Round(f), 'f', 0, 64) }

// registration shows days below a year and whole years above
func registration(days int) string {
	if days >= 365 {
		return strconv.Itoa(days/365) + "年"
	}
	return strconv.Itoa(days) + "天"
}
