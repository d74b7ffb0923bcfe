package util

import "strings"

func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// TruncateRunes shortens value to at most max runes. OCR-derived names
// occasionally run past column limits.
func TruncateRunes(value string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}

// CollapseSpaces trims value and squeezes runs of whitespace into single
// spaces.
func CollapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
