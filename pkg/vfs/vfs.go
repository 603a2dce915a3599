// Package vfs provides a virtual filesystem for agents to offload and
// retrieve working context. Files live in interchangeable backends
// (in-memory state, real disk, a persistent key-value store) that all
// satisfy the same [Backend] protocol, and a [Composite] stitches several
// backends into one path namespace with prefix routing.
//
// All paths are absolute, forward-slash separated virtual paths
// (e.g. "/memory/notes.md"). Directories are implicit: a path is a
// directory if some stored file path is strictly prefixed by it.
package vfs

import (
	"context"
	"fmt"
	"time"
)

// DefaultReadLimit is the number of lines Read returns when the caller
// passes a non-positive limit.
const DefaultReadLimit = 2000

// FileInfo describes one entry in a listing. Directory entries have a
// trailing slash in Path, zero Size and no content behind them.
type FileInfo struct {
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// GrepMatch is one matching line from a Grep call. Line is 1-based and
// Text is the full line, not the matched substring.
type GrepMatch struct {
	Path string
	Line int
	Text string
}

// EditResult reports a successful Edit: the edited path and how many
// occurrences of the old string were replaced.
type EditResult struct {
	Path        string
	Occurrences int
}

// Backend is the protocol every storage strategy implements. Behavior,
// including the exact text of error messages, must be identical across
// implementations so that callers (and the agents reading the messages)
// cannot tell backends apart.
type Backend interface {
	// List enumerates the immediate children of path, non-recursively.
	// Path is accepted with or without a trailing slash. Results are
	// sorted by path; subdirectories appear as single entries with a
	// trailing slash.
	List(ctx context.Context, path string) ([]FileInfo, error)

	// Read returns a line-numbered rendering of lines [offset, offset+limit)
	// of the file. A non-positive limit defaults to DefaultReadLimit.
	// Empty files yield a reminder message instead of an empty string.
	Read(ctx context.Context, path string, offset, limit int) (string, error)

	// Write creates a new file and returns its path. Writing to an
	// existing path fails with an AlreadyExists error; there is no
	// implicit overwrite.
	Write(ctx context.Context, path, content string) (string, error)

	// Edit replaces oldString with newString in the file. The occurrence
	// count is taken before anything is replaced: zero occurrences fail
	// with NoMatch, more than one without replaceAll fails with
	// AmbiguousReplace naming the count.
	Edit(ctx context.Context, path, oldString, newString string, replaceAll bool) (EditResult, error)

	// Grep searches file contents line by line with a regular expression.
	// An uncompilable pattern fails with InvalidPattern, which is distinct
	// from an empty match list. A non-empty glob restricts the search to
	// files whose base name matches it. Matches are ordered by path, then
	// line number.
	Grep(ctx context.Context, pattern, path, glob string) ([]GrepMatch, error)

	// Glob returns the files under path whose relative path matches the
	// pattern, sorted by path. A pattern without a slash matches only
	// direct children; a leading "**/" matches at any depth including the
	// root of the search.
	Glob(ctx context.Context, pattern, path string) ([]FileInfo, error)
}

// Kind classifies a protocol-level failure.
type Kind int

const (
	// KindNotFound: the target of a Read or Edit does not exist.
	KindNotFound Kind = iota + 1
	// KindAlreadyExists: the target of a Write already exists.
	KindAlreadyExists
	// KindAmbiguousReplace: Edit's old string occurs more than once and
	// replaceAll was not requested.
	KindAmbiguousReplace
	// KindNoMatch: Edit's old string occurs zero times.
	KindNoMatch
	// KindInvalidPattern: Grep's regular expression does not compile.
	KindInvalidPattern
	// KindSecurityViolation: the resolved path would escape the sandbox
	// root or contains traversal segments.
	KindSecurityViolation
	// KindSizeLimit: the file exceeds the configured maximum size.
	KindSizeLimit
)

// Error is the failure value returned across the Backend protocol.
// The message is stable, human-readable text that may be surfaced
// verbatim to an agent; backends never panic through the protocol.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// The message constructors below are the single source of the protocol's
// error vocabulary. Every backend goes through them so the text is
// byte-for-byte identical regardless of storage strategy.

func errNotFound(path string) *Error {
	return &Error{KindNotFound, fmt.Sprintf("Error: File '%s' not found", path)}
}

func errAlreadyExists(path string) *Error {
	return &Error{KindAlreadyExists, fmt.Sprintf("Cannot write to %s because it already exists. Read and then make an edit, or write to a new path.", path)}
}

func errFileAncestor(path, ancestor string) *Error {
	return &Error{KindAlreadyExists, fmt.Sprintf("Cannot write to %s because %s already exists as a file", path, ancestor)}
}

func errIsDirectory(path string) *Error {
	return &Error{KindAlreadyExists, fmt.Sprintf("Cannot write to %s because it already exists as a directory", path)}
}

func errNoMatch(oldString string) *Error {
	return &Error{KindNoMatch, fmt.Sprintf("Error: String not found in file: '%s'", oldString)}
}

func errAmbiguous(oldString string, occurrences int) *Error {
	return &Error{KindAmbiguousReplace, fmt.Sprintf("Error: String '%s' appears %d times in file. Use replaceAll to replace all instances, or provide a more specific string with surrounding context.", oldString, occurrences)}
}

func errInvalidPattern(cause error) *Error {
	return &Error{KindInvalidPattern, fmt.Sprintf("Invalid regex pattern: %v", cause)}
}

func errTraversal() *Error {
	return &Error{KindSecurityViolation, "Error: Path traversal not allowed"}
}

func errOutsideRoot(path, root string) *Error {
	return &Error{KindSecurityViolation, fmt.Sprintf("Error: Path %s is outside the root directory %s", path, root)}
}

func errTooLarge(path string, maxMB int) *Error {
	return &Error{KindSizeLimit, fmt.Sprintf("Error: File '%s' exceeds maximum allowed size (%d MB)", path, maxMB)}
}
