package vfs

import (
	"fmt"
	"strings"
)

const (
	// emptyContentReminder is returned by Read for files whose content is
	// empty or whitespace-only, so the caller can tell "empty file" apart
	// from "no file".
	emptyContentReminder = "System reminder: File exists but has empty contents"

	// maxLineLength is the cutoff beyond which a single line is chunked
	// with continuation markers in the line-numbered rendering.
	maxLineLength = 10000

	// lineNumberWidth is the fixed width of the right-aligned line number
	// column.
	lineNumberWidth = 6
)

// formatWithLineNumbers renders lines with a right-aligned line number
// column, numbering from startLine. Lines longer than maxLineLength are
// split into chunks; continuation chunks carry a "N.k" marker in place
// of the line number.
func formatWithLineNumbers(lines []string, startLine int) string {
	var out []string
	for i, line := range lines {
		num := startLine + i
		if len(line) <= maxLineLength {
			out = append(out, fmt.Sprintf("%*d\t%s", lineNumberWidth, num, line))
			continue
		}
		for chunk := 0; chunk*maxLineLength < len(line); chunk++ {
			start := chunk * maxLineLength
			end := min(start+maxLineLength, len(line))
			if chunk == 0 {
				out = append(out, fmt.Sprintf("%*d\t%s", lineNumberWidth, num, line[start:end]))
			} else {
				marker := fmt.Sprintf("%d.%d", num, chunk)
				out = append(out, fmt.Sprintf("%*s\t%s", lineNumberWidth, marker, line[start:end]))
			}
		}
	}
	return strings.Join(out, "\n")
}

// renderRead produces the Read response for the given raw content:
// the empty-content reminder, an offset-past-end notice, or the
// line-numbered window [offset, offset+limit).
func renderRead(content string, offset, limit int) string {
	if strings.TrimSpace(content) == "" {
		return emptyContentReminder
	}
	if limit <= 0 {
		limit = DefaultReadLimit
	}
	if offset < 0 {
		offset = 0
	}

	lines := strings.Split(content, "\n")
	if offset >= len(lines) {
		return fmt.Sprintf("Error: Line offset %d exceeds file length (%d lines)", offset, len(lines))
	}
	end := min(offset+limit, len(lines))
	return formatWithLineNumbers(lines[offset:end], offset+1)
}

// replaceOccurrences applies the occurrence-counted replacement rule:
// the number of non-overlapping occurrences of oldString is established
// first, and only then is the replacement mode judged. Zero occurrences
// is a NoMatch error; several without replaceAll is an AmbiguousReplace
// error carrying the exact count.
func replaceOccurrences(content, oldString, newString string, replaceAll bool) (string, int, *Error) {
	occurrences := strings.Count(content, oldString)
	if occurrences == 0 {
		return "", 0, errNoMatch(oldString)
	}
	if occurrences > 1 && !replaceAll {
		return "", 0, errAmbiguous(oldString, occurrences)
	}
	return strings.ReplaceAll(content, oldString, newString), occurrences, nil
}

// normalizeDirPath forces a leading and trailing slash so prefix
// comparisons never depend on how the caller spelled the directory.
func normalizeDirPath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}
