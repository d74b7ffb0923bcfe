package util

import "testing"

func TestSanitizePostgresText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain utf8",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "contains null byte",
			input: "hel\x00lo",
			want:  "hello",
		},
		{
			name:  "contains invalid utf8",
			input: string([]byte{'a', 0xff, 'b'}),
			want:  "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizePostgresText(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected sanitized value: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{
			name:  "shorter than max",
			input: "Mary Ann",
			max:   255,
			want:  "Mary Ann",
		},
		{
			name:  "exact length",
			input: "abc",
			max:   3,
			want:  "abc",
		},
		{
			name:  "truncated",
			input: "abcdef",
			max:   4,
			want:  "abcd",
		},
		{
			name:  "multibyte runes kept whole",
			input: "ångström",
			max:   4,
			want:  "ångs",
		},
		{
			name:  "non-positive max",
			input: "abc",
			max:   0,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateRunes(tt.input, tt.max)
			if got != tt.want {
				t.Fatalf("unexpected truncated value: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollapseSpaces(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already collapsed",
			input: "John Smith",
			want:  "John Smith",
		},
		{
			name:  "runs of spaces and tabs",
			input: "  John \t Smith  ",
			want:  "John Smith",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CollapseSpaces(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected collapsed value: got %q, want %q", got, tt.want)
			}
		})
	}
}
