package vfs

import (
	"fmt"
	"strings"
	"testing"
)

func TestFormatWithLineNumbers(t *testing.T) {
	got := formatWithLineNumbers([]string{"alpha", "beta"}, 1)
	want := "     1\talpha\n     2\tbeta"
	if got != want {
		t.Fatalf("formatWithLineNumbers = %q, want %q", got, want)
	}
}

func TestFormatWithLineNumbersStartLine(t *testing.T) {
	got := formatWithLineNumbers([]string{"x"}, 1234)
	want := "  1234\tx"
	if got != want {
		t.Fatalf("formatWithLineNumbers = %q, want %q", got, want)
	}
}

func TestFormatWithLineNumbersChunksLongLines(t *testing.T) {
	long := strings.Repeat("a", maxLineLength+5)
	got := formatWithLineNumbers([]string{long, "short"}, 1)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d rendered lines, want 3", len(lines))
	}
	if want := fmt.Sprintf("%*d\t%s", lineNumberWidth, 1, long[:maxLineLength]); lines[0] != want {
		t.Errorf("first chunk header = %q", lines[0][:20])
	}
	// Continuation chunks carry "N.k" in place of a line number.
	if want := fmt.Sprintf("%*s\t%s", lineNumberWidth, "1.1", "aaaaa"); lines[1] != want {
		t.Errorf("continuation = %q, want %q", lines[1], want)
	}
	// Numbering resumes after the chunked line, not after its chunks.
	if want := "     2\tshort"; lines[2] != want {
		t.Errorf("next line = %q, want %q", lines[2], want)
	}
}

func TestRenderReadEmptyAndWhitespace(t *testing.T) {
	for _, content := range []string{"", "   ", "\n\n\t"} {
		if got := renderRead(content, 0, 0); got != emptyContentReminder {
			t.Errorf("renderRead(%q) = %q, want reminder", content, got)
		}
	}
}

func TestRenderReadDefaultLimit(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < DefaultReadLimit+100; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	got := renderRead(sb.String(), 0, 0)
	lines := strings.Split(got, "\n")
	if len(lines) != DefaultReadLimit {
		t.Fatalf("rendered %d lines, want %d", len(lines), DefaultReadLimit)
	}
}

func TestRenderReadOffsetPastEnd(t *testing.T) {
	got := renderRead("one\ntwo", 5, 10)
	want := "Error: Line offset 5 exceeds file length (2 lines)"
	if got != want {
		t.Fatalf("renderRead = %q, want %q", got, want)
	}
}

func TestRenderReadNegativeOffsetClamped(t *testing.T) {
	got := renderRead("one", -3, 10)
	if want := "     1\tone"; got != want {
		t.Fatalf("renderRead = %q, want %q", got, want)
	}
}

func TestReplaceOccurrences(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		old, new    string
		replaceAll  bool
		want        string
		occurrences int
		errKind     Kind
	}{
		{name: "single", content: "a b c", old: "b", new: "x", want: "a x c", occurrences: 1},
		{name: "all", content: "b b b", old: "b", new: "x", replaceAll: true, want: "x x x", occurrences: 3},
		{name: "none", content: "a b c", old: "z", new: "x", errKind: KindNoMatch},
		{name: "ambiguous", content: "b b", old: "b", new: "x", errKind: KindAmbiguousReplace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, verr := replaceOccurrences(tt.content, tt.old, tt.new, tt.replaceAll)
			if tt.errKind != 0 {
				if verr == nil || verr.Kind != tt.errKind {
					t.Fatalf("err = %v, want kind %d", verr, tt.errKind)
				}
				return
			}
			if verr != nil {
				t.Fatalf("unexpected error: %v", verr)
			}
			if got != tt.want || n != tt.occurrences {
				t.Fatalf("got (%q, %d), want (%q, %d)", got, n, tt.want, tt.occurrences)
			}
		})
	}
}

func TestReplaceOccurrencesAmbiguousMessage(t *testing.T) {
	_, _, verr := replaceOccurrences("b b b", "b", "x", false)
	want := "Error: String 'b' appears 3 times in file. Use replaceAll to replace all instances, or provide a more specific string with surrounding context."
	if verr == nil || verr.Message != want {
		t.Fatalf("message = %q, want %q", verr, want)
	}
}

func TestNormalizeDirPath(t *testing.T) {
	tests := map[string]string{
		"":        "/",
		"/":       "/",
		"a":       "/a/",
		"/a":      "/a/",
		"a/":      "/a/",
		"/a/b":    "/a/b/",
		"/a/b/":   "/a/b/",
	}
	for in, want := range tests {
		if got := normalizeDirPath(in); got != want {
			t.Errorf("normalizeDirPath(%q) = %q, want %q", in, got, want)
		}
	}
}
