package register

import (
	"reflect"
	"testing"
)

func TestCleanLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "dagger becomes spouse marker",
			input: "† Thomas Quick",
			want:  "+ Thomas Quick",
		},
		{
			name:  "bullets become dots",
			input: "••2 Mary Adams",
			want:  "..2 Mary Adams",
		},
		{
			name:  "em dash becomes hyphen",
			input: "Josiah Adams 1801—1870",
			want:  "Josiah Adams 1801-1870",
		},
		{
			name:  "curly quotes straightened",
			input: "Mary ‘Polly’ Adams",
			want:  "Mary 'Polly' Adams",
		},
		{
			name:  "semicolon inside full date",
			input: "...3 Ann Quick Sep 6; 1830",
			want:  "...3 Ann Quick Sep 6, 1830",
		},
		{
			name:  "semicolon between month and year",
			input: "d. Apr; 1900",
			want:  "d. Apr 1900",
		},
		{
			name:  "trailing semicolon after day",
			input: "b. Sep 6;",
			want:  "b. Sep 6,",
		},
		{
			name:  "punctuation garbage before spouse marker",
			input: ". -, +John Roe",
			want:  ".+John Roe",
		},
		{
			name:  "misread month abbreviation",
			input: "ApI 28, 1900",
			want:  "Apr 28, 1900",
		},
		{
			name:  "plain line untouched",
			input: ".2 Henry Adams 1828-1901",
			want:  ".2 Henry Adams 1828-1901",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanLine(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected cleaned line: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeLines_PreservesLineCount(t *testing.T) {
	raw := []string{
		"1 Josiah Adams",
		"",
		"Sep 6, 1830",
		".2 Mary Adams",
	}
	lines := NormalizeLines(raw)
	if len(lines) != len(raw) {
		t.Fatalf("unexpected line count: got %d, want %d", len(lines), len(raw))
	}
	for i, line := range lines {
		if line.Number != i+1 {
			t.Fatalf("unexpected number at index %d: got %d, want %d", i, line.Number, i+1)
		}
	}
}

func TestNormalizeLines_MergesDateFragment(t *testing.T) {
	raw := []string{
		"...3 Jane Adams",
		"Sep 6, 1830 - Apr 28, 1900",
	}
	lines := NormalizeLines(raw)

	if lines[0].Text != "...3 Jane Adams Sep 6, 1830 - Apr 28, 1900" {
		t.Fatalf("unexpected merged text: got %q", lines[0].Text)
	}
	if !reflect.DeepEqual(lines[0].MergedFrom, []int{2}) {
		t.Fatalf("unexpected merge sources: got %v, want [2]", lines[0].MergedFrom)
	}
	if lines[1].Text != "" {
		t.Fatalf("merged fragment should leave an empty slot, got %q", lines[1].Text)
	}
}

func TestNormalizeLines_MergeBound(t *testing.T) {
	raw := []string{
		".1 Adam Adams",
		"1830",
		"1900",
		"1910",
	}
	lines := NormalizeLines(raw)

	if lines[0].Text != ".1 Adam Adams 1830 1900" {
		t.Fatalf("unexpected merged text: got %q", lines[0].Text)
	}
	if !reflect.DeepEqual(lines[0].MergedFrom, []int{2, 3}) {
		t.Fatalf("unexpected merge sources: got %v, want [2 3]", lines[0].MergedFrom)
	}
	if lines[3].Text != "1910" {
		t.Fatalf("third consecutive fragment should stay in place, got %q", lines[3].Text)
	}
}

func TestNormalizeLines_FragmentBeforeAnyRecord(t *testing.T) {
	raw := []string{
		"1830",
		".1 Adam Adams",
	}
	lines := NormalizeLines(raw)

	if lines[0].Text != "1830" {
		t.Fatalf("leading fragment should stay in place, got %q", lines[0].Text)
	}
	if lines[1].Text != ".1 Adam Adams" {
		t.Fatalf("record line should be untouched, got %q", lines[1].Text)
	}
}

func TestNormalizeLines_MarkedLinesAreNeverFragments(t *testing.T) {
	raw := []string{
		".1 Adam Adams",
		"+ 1830",
	}
	lines := NormalizeLines(raw)

	if lines[0].Text != ".1 Adam Adams" {
		t.Fatalf("record line should be untouched, got %q", lines[0].Text)
	}
	if lines[1].Text != "+ 1830" {
		t.Fatalf("marked line should stay in place, got %q", lines[1].Text)
	}
}
