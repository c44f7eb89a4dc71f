package check

import (
	"reflect"
	"testing"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"single line no terminator", "abc", []string{"abc"}},
		{"lf lines", "a\nb\n", []string{"a\n", "b\n"}},
		{"final line unterminated", "a\nb", []string{"a\n", "b"}},
		{"crlf lines", "a\r\nb\r\n", []string{"a\r\n", "b\r\n"}},
		{"lone cr", "a\rb\r", []string{"a\r", "b\r"}},
		{"mixed terminators", "a\nb\r\nc", []string{"a\n", "b\r\n", "c"}},
		{"blank lines kept", "\n\n", []string{"\n", "\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitLines(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitLines(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestSplitTerminator(t *testing.T) {
	tests := []struct {
		line     string
		wantBody string
		wantTerm string
	}{
		{"abc\n", "abc", "\n"},
		{"abc\r\n", "abc", "\r\n"},
		{"abc\r", "abc", "\r"},
		{"abc", "abc", ""},
		{"\n", "", "\n"},
		{"", "", ""},
	}

	for _, tt := range tests {
		body, term := splitTerminator(tt.line)
		if body != tt.wantBody || term != tt.wantTerm {
			t.Errorf("splitTerminator(%q) = (%q, %q), want (%q, %q)",
				tt.line, body, term, tt.wantBody, tt.wantTerm)
		}
	}
}

func TestSplitLinesRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"abc",
		"a\nb\nc\n",
		"a\r\nb\r\n",
		"a\rb",
		"\n\r\n\r",
	}
	for _, text := range inputs {
		joined := ""
		for _, line := range splitLines(text) {
			joined += line
		}
		if joined != text {
			t.Errorf("round trip of %q = %q", text, joined)
		}
	}
}
