package vfs

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Session owns the in-memory files of one execution context. The caller
// creates it when the context starts and drops it when the context ends;
// nothing persists across sessions and there is no process-wide state.
// A Session may back several State backends (they then share files) and
// is safe for concurrent use.
type Session struct {
	id    string
	mu    sync.RWMutex
	files map[string]*FileRecord
}

// NewSession creates an empty session with a fresh identity.
func NewSession() *Session {
	return &Session{
		id:    uuid.NewString(),
		files: make(map[string]*FileRecord),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Len reports the number of files currently held.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// snapshot copies the path → record map. Records are immutable once
// stored, so sharing the pointers is safe.
func (s *Session) snapshot() map[string]*FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := make(map[string]*FileRecord, len(s.files))
	for k, v := range s.files {
		files[k] = v
	}
	return files
}

// State is the ephemeral backend: files live in the session's map and
// every operation is a synchronous map lookup or scan. It has no failure
// modes beyond the protocol's logical ones.
type State struct {
	session *Session
}

// NewState creates a State backend over the given session.
func NewState(session *Session) *State {
	return &State{session: session}
}

func (b *State) List(_ context.Context, path string) ([]FileInfo, error) {
	return listRecords(b.session.snapshot(), path), nil
}

func (b *State) Read(_ context.Context, path string, offset, limit int) (string, error) {
	b.session.mu.RLock()
	rec, ok := b.session.files[path]
	b.session.mu.RUnlock()
	if !ok {
		return "", errNotFound(path)
	}
	return renderRead(rec.text(), offset, limit), nil
}

func (b *State) Write(_ context.Context, path, content string) (string, error) {
	b.session.mu.Lock()
	defer b.session.mu.Unlock()
	if _, ok := b.session.files[path]; ok {
		return "", errAlreadyExists(path)
	}
	if verr := writeCollision(b.session.files, path); verr != nil {
		return "", verr
	}
	b.session.files[path] = newFileRecord(content)
	return path, nil
}

func (b *State) Edit(_ context.Context, path, oldString, newString string, replaceAll bool) (EditResult, error) {
	b.session.mu.Lock()
	defer b.session.mu.Unlock()
	rec, ok := b.session.files[path]
	if !ok {
		return EditResult{}, errNotFound(path)
	}
	newContent, occurrences, verr := replaceOccurrences(rec.text(), oldString, newString, replaceAll)
	if verr != nil {
		return EditResult{}, verr
	}
	b.session.files[path] = rec.withContent(newContent)
	return EditResult{Path: path, Occurrences: occurrences}, nil
}

func (b *State) Grep(_ context.Context, pattern, path, glob string) ([]GrepMatch, error) {
	return grepRecords(b.session.snapshot(), pattern, path, glob)
}

func (b *State) Glob(_ context.Context, pattern, path string) ([]FileInfo, error) {
	return globRecords(b.session.snapshot(), pattern, path), nil
}

// Compile-time interface check.
var _ Backend = (*State)(nil)
