package register

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kinbook/lineage/internal/util"
)

// LineKind classifies one normalized transcript line.
type LineKind int

const (
	// LineBlank marks an empty line, including slots left behind by
	// fragment merging. Blank lines carry no record and no anomaly.
	LineBlank LineKind = iota
	// LinePerson introduces a new person at some depth.
	LinePerson
	// LineSpouse introduces a spouse attached to the nearest preceding
	// person record.
	LineSpouse
	// LineUnparseable marks a grammar failure; Reason says why.
	LineUnparseable
)

// ParsedLine is the parser's classification of one normalized line together
// with the fields extracted from it.
//
// Depth is the count of leading dots. Generation resolves to the explicit
// digit when the source carried one, otherwise to Depth; explicit digits are
// trusted over depth because dropped dots are the most common OCR damage in
// this format.
type ParsedLine struct {
	Line Line
	Kind LineKind

	Depth       int
	Generation  int
	ExplicitGen bool

	IsRemarriage bool

	Name    string
	Aliases []string
	Notes   string
	Dates   DateInfo

	Reason string
}

var (
	reSpouseMarker   = regexp.MustCompile(`^(\.*)\s*([+*])\s*\+?\s*(.+)$`)
	rePersonExplicit = regexp.MustCompile(`^(\.*)\s*(\d)\s+(.+)$`)
	rePersonDotted   = regexp.MustCompile(`^(\.+)\s*(.+)$`)
	reBareName       = regexp.MustCompile(`^[A-Z]`)
	reIndexEntry     = regexp.MustCompile(`\.{3,}\s*\d+$`)
	reGarbageName    = regexp.MustCompile(`^[\d\s.,_\-]+$`)
)

// ParseLine classifies one normalized line. Person lines carry an optional
// explicit generation digit after the dots; a leading + marks a spouse and a
// leading * marks a remarriage spouse. Lines that fit no rule come back as
// LineUnparseable with a reason, never as an error.
func ParseLine(line Line) ParsedLine {
	text := strings.TrimSpace(line.Text)
	if text == "" {
		return ParsedLine{Line: line, Kind: LineBlank}
	}

	if reIndexEntry.MatchString(text) {
		return unparseable(line, "index entry")
	}

	if m := reSpouseMarker.FindStringSubmatch(text); m != nil {
		depth := len(m[1])
		pl := ParsedLine{
			Line:         line,
			Kind:         LineSpouse,
			Depth:        depth,
			Generation:   depth,
			IsRemarriage: m[2] == "*",
		}
		return finishRecord(pl, m[3])
	}

	if m := rePersonExplicit.FindStringSubmatch(text); m != nil {
		depth := len(m[1])
		content := m[3]
		if depth == 0 && !reBareName.MatchString(content) {
			return unparseable(line, "no recognizable name")
		}
		gen, err := strconv.Atoi(m[2])
		if err != nil {
			return unparseable(line, "bad generation digit")
		}
		pl := ParsedLine{
			Line:        line,
			Kind:        LinePerson,
			Depth:       depth,
			Generation:  gen,
			ExplicitGen: true,
		}
		return finishRecord(pl, content)
	}

	if m := rePersonDotted.FindStringSubmatch(text); m != nil {
		depth := len(m[1])
		pl := ParsedLine{
			Line:       line,
			Kind:       LinePerson,
			Depth:      depth,
			Generation: depth,
		}
		return finishRecord(pl, m[2])
	}

	if reBareName.MatchString(text) && len(text) > 3 {
		pl := ParsedLine{Line: line, Kind: LinePerson}
		return finishRecord(pl, text)
	}

	return unparseable(line, "unrecognized line format")
}

func unparseable(line Line, reason string) ParsedLine {
	return ParsedLine{Line: line, Kind: LineUnparseable, Reason: reason}
}

// suffixOnlyNames are OCR splinters of the preceding line, not persons.
var suffixOnlyNames = map[string]bool{
	"II": true, "III": true, "IV": true, "VI": true,
	"Sr": true, "Jr": true,
}

// finishRecord extracts notes, dates, name, and aliases from a classified
// line's content. A record whose name dissolves during extraction is
// downgraded to LineUnparseable.
func finishRecord(pl ParsedLine, content string) ParsedLine {
	content = strings.TrimSpace(content)
	if content == "" {
		return unparseable(pl.Line, "content too short")
	}

	content, pl.Notes = extractNotes(content)

	rawName, dateText := splitDateExpression(content)
	pl.Dates = parseDates(dateText)

	name, aliases := extractAliases(rawName)
	if name == "" || reGarbageName.MatchString(name) ||
		suffixOnlyNames[name] || isMonthWord(name) {
		return unparseable(pl.Line, "no recognizable name")
	}
	pl.Name = name
	pl.Aliases = aliases

	return pl
}

var noteParentheticals = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\(no issue\)`),
	regexp.MustCompile(`(?i)\(adopted\)`),
}

// extractNotes pulls annotation parentheticals out of the content and
// returns them as the person's notes. Annotations are not aliases.
func extractNotes(content string) (string, string) {
	var notes []string
	for _, re := range noteParentheticals {
		if m := re.FindString(content); m != "" {
			notes = append(notes, m)
			content = re.ReplaceAllString(content, "")
		}
	}
	return content, strings.Join(notes, " ")
}

var (
	reQuotedAlias   = regexp.MustCompile(`['"]([^'"]+)['"]`)
	reParenthetical = regexp.MustCompile(`\(([^)]+)\)`)
	reAliasText     = regexp.MustCompile(`^[A-Za-z][A-Za-z\s\-.]+$`)
)

var aliasSkipWords = []string{"no issue", "adopted", "see ", "cont", " sr", " jr"}

// extractAliases collects quoted nicknames and parenthetical alternate names,
// strips them from the name, and cleans the remainder.
func extractAliases(name string) (string, []string) {
	var aliases []string

	for _, m := range reQuotedAlias.FindAllStringSubmatch(name, -1) {
		alias := strings.TrimSpace(m[1])
		if len(alias) > 1 && reAliasText.MatchString(alias) {
			aliases = append(aliases, alias)
		}
	}
	name = reQuotedAlias.ReplaceAllString(name, "")

	for _, m := range reParenthetical.FindAllStringSubmatch(name, -1) {
		candidate := strings.TrimSpace(m[1])
		if isAliasCandidate(candidate) {
			aliases = append(aliases, candidate)
		}
	}
	name = reParenthetical.ReplaceAllString(name, "")

	name = util.CollapseSpaces(name)
	name = strings.Trim(name, " .,+*")

	return name, aliases
}

func isAliasCandidate(candidate string) bool {
	if len(candidate) <= 1 || !reAliasText.MatchString(candidate) {
		return false
	}
	lower := strings.ToLower(candidate)
	for _, skip := range aliasSkipWords {
		if strings.Contains(lower, skip) {
			return false
		}
	}
	return true
}

var monthWords = map[string]bool{
	"Jan": true, "Feb": true, "Mar": true, "Apr": true, "May": true,
	"Jun": true, "Jul": true, "Aug": true, "Sep": true, "Oct": true,
	"Nov": true, "Dec": true,
	"January": true, "February": true, "March": true, "April": true,
	"June": true, "July": true, "August": true, "September": true,
	"October": true, "November": true, "December": true,
}

func isMonthWord(name string) bool {
	return monthWords[name]
}
