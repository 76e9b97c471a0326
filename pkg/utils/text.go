package utils

import (
	"strings"
	"unicode/utf8"
)

// NormalizeCode uppercases and trims a human-entered join code
func NormalizeCode(input string) string {
	return strings.ToUpper(strings.TrimSpace(input))
}

// NormalizeNumber converts Persian and Arabic numerals to ASCII and drops
// thousands separators so "۱,۵۰۰" and "1,500" both parse as 1500.
func NormalizeNumber(input string) string {
	replacer := strings.NewReplacer(
		"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4", "۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
		"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4", "٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
		",", "", "_", "",
	)
	return strings.TrimSpace(replacer.Replace(input))
}

// TruncateRunes shortens s to at most n runes, appending an ellipsis when cut
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n == 1 {
		return string(runes[:1])
	}
	return string(runes[:n-1]) + "…"
}
