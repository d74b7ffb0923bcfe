package register

import (
	"regexp"
	"strings"
)

// Line is one transcript line after normalization. Number is the 1-based
// position in the source text. MergedFrom lists the line numbers of date
// fragments that were folded into this line; those positions keep an empty
// Text so numbering stays aligned with the source.
type Line struct {
	Number     int
	Text       string
	MergedFrom []int
}

// maxFragmentMerge bounds how many consecutive date fragments may be folded
// into the preceding record line. Anything past the bound is left in place
// for the parser to report.
const maxFragmentMerge = 2

var ocrReplacer = strings.NewReplacer(
	"†", "+",
	"‡", "+",
	"•", ".",
	"·", ".",
	"—", "-",
	"–", "-",
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
)

// OCR confuses capital I with lowercase l in month abbreviations.
var monthTypos = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\bApI\b`), "Apr"},
	{regexp.MustCompile(`\bAaug\b`), "Aug"},
	{regexp.MustCompile(`\bJuI\b`), "Jul"},
	{regexp.MustCompile(`\bFeb\s*I\b`), "Feb"},
}

var (
	reMonthDaySemiYear = regexp.MustCompile(`\b(` + monthPat + `\.?\s*\d{1,2})\s*;\s*(\d{4})`)
	reMonthSemiYear    = regexp.MustCompile(`\b(` + monthPat + `\.?)\s*;\s*(\d{4})`)
	reTrailingSemi     = regexp.MustCompile(`\b(` + monthPat + `\.?\s*\d{1,2})\s*;\s*$`)
	reMarkerGarbage    = regexp.MustCompile(`^([.\s\-,;:]+)([+*])(.*)$`)

	reDateFragment = regexp.MustCompile(`^-?\s*(?:d\.?\s*)?` + fragmentAtomPat +
		`(?:\s*-\s*` + fragmentAtomPat + `)?[\s.,;]*$`)
)

// fragmentAtomPat is dateAtomPat widened with a bare "day, year" form, which
// shows up when OCR breaks a full date across lines.
const fragmentAtomPat = `(?:` + fullDatePat + `|` + circaPat + `\d{4}|\d{1,2},?\s+\d{4}|\b\d{4}\b)`

// NormalizeLines cleans OCR punctuation artifacts and folds broken date
// fragments back into the line they belong to. The returned slice has one
// entry per input line so line numbers survive normalization.
func NormalizeLines(raw []string) []Line {
	lines := make([]Line, len(raw))
	for i, text := range raw {
		lines[i] = Line{Number: i + 1, Text: cleanLine(text)}
	}

	lastRecord := -1
	consecutive := 0
	for i := range lines {
		trimmed := strings.TrimSpace(lines[i].Text)
		if trimmed == "" {
			continue
		}
		if isDateFragment(trimmed) {
			consecutive++
			if lastRecord >= 0 && consecutive <= maxFragmentMerge {
				prev := &lines[lastRecord]
				prev.Text = strings.TrimRight(prev.Text, " \t") + " " + trimmed
				prev.MergedFrom = append(prev.MergedFrom, lines[i].Number)
				lines[i].Text = ""
			}
			continue
		}
		lastRecord = i
		consecutive = 0
	}

	return lines
}

// cleanLine repairs per-line OCR artifacts: misread markers, dashes and
// quotes, semicolons inside dates, and punctuation garbage between the
// leading dots and a spouse marker.
func cleanLine(text string) string {
	text = strings.TrimRight(text, "\r")
	text = ocrReplacer.Replace(text)
	for _, t := range monthTypos {
		text = t.re.ReplaceAllString(text, t.repl)
	}

	text = reMonthDaySemiYear.ReplaceAllString(text, "$1, $2")
	text = reMonthSemiYear.ReplaceAllString(text, "$1 $2")
	text = reTrailingSemi.ReplaceAllString(text, "$1,")

	if m := reMarkerGarbage.FindStringSubmatch(text); m != nil {
		depth := strings.Count(m[1], ".")
		text = strings.Repeat(".", depth) + m[2] + m[3]
	}

	return text
}

// isDateFragment reports whether a trimmed line carries nothing but a date
// expression. Depth-marked and spouse-marked lines are records regardless of
// content.
func isDateFragment(trimmed string) bool {
	switch trimmed[0] {
	case '.', '+', '*':
		return false
	}
	return reDateFragment.MatchString(trimmed)
}
