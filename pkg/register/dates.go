package register

import (
	"regexp"
	"strconv"
)

const (
	monthPat = `(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`
	circaPat = `(?i:\bca\.?|\bc\.)\s*`

	fullDatePat = `\b` + monthPat + `\.?\s+\d{1,2},?\s*\d{4}`
	dateAtomPat = `(?:` + fullDatePat + `|` + circaPat + `\d{4}|\b\d{4}\b)`
)

var (
	reDeathDate  = regexp.MustCompile(`\bd\.?\s*(` + fullDatePat + `|\d{4})`)
	reDateRange  = regexp.MustCompile(`(` + dateAtomPat + `)\s*[-~]\s*(` + dateAtomPat + `)`)
	reDateSingle = regexp.MustCompile(`(` + dateAtomPat + `)`)

	reCircaYear    = regexp.MustCompile(circaPat + `(\d{4})`)
	reFullDateYear = regexp.MustCompile(`\b` + monthPat + `\.?\s+\d{1,2},?\s*(\d{4})`)
	reBareYear     = regexp.MustCompile(`\b(\d{4})\b`)
)

// DateInfo holds the years extracted from one line's date expression. Each
// bound carries its own circa flag, since the source marks approximation per
// date, not per person.
type DateInfo struct {
	BirthYear  *int
	BirthCirca bool
	DeathYear  *int
	DeathCirca bool
}

// splitDateExpression splits line content at the first recognizable date
// token. Everything before the token is name text, everything from the token
// on is the date expression.
func splitDateExpression(text string) (string, string) {
	idx := len(text)
	for _, re := range []*regexp.Regexp{reDeathDate, reDateRange, reDateSingle} {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] < idx {
			idx = loc[0]
		}
	}
	return text[:idx], text[idx:]
}

// parseDates interprets a date expression. Recognized forms: a death-only
// date ("d. 1880", "d. Apr 28, 1900"), a range ("1830 - 1900",
// "Sep 6, 1830 - ca 1900"), and a single date, which is read as the birth
// date. A circa prefix on a bound marks that bound approximate.
func parseDates(text string) DateInfo {
	var info DateInfo

	deathMatched := false
	if m := reDeathDate.FindStringSubmatchIndex(text); m != nil {
		info.DeathYear, info.DeathCirca = extractYear(text[m[2]:m[3]])
		text = text[:m[0]] + text[m[1]:]
		deathMatched = true
	}

	if m := reDateRange.FindStringSubmatchIndex(text); m != nil {
		info.BirthYear, info.BirthCirca = extractYear(text[m[2]:m[3]])
		if info.DeathYear == nil {
			info.DeathYear, info.DeathCirca = extractYear(text[m[4]:m[5]])
		}
	} else if !deathMatched {
		if m := reDateSingle.FindStringSubmatch(text); m != nil {
			info.BirthYear, info.BirthCirca = extractYear(m[1])
		}
	}

	return info
}

// extractYear pulls the four-digit year out of a single date atom and
// reports whether it carried a circa marker.
func extractYear(text string) (*int, bool) {
	if text == "" {
		return nil, false
	}
	if m := reCircaYear.FindStringSubmatch(text); m != nil {
		return atoiYear(m[1]), true
	}
	if m := reFullDateYear.FindStringSubmatch(text); m != nil {
		return atoiYear(m[1]), false
	}
	if m := reBareYear.FindStringSubmatch(text); m != nil {
		return atoiYear(m[1]), false
	}
	return nil, false
}

func atoiYear(s string) *int {
	year, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &year
}
