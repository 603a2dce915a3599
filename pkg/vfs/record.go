package vfs

import (
	"strings"
	"time"
)

// FileRecord is the canonical stored unit: the file's content as an
// ordered sequence of lines plus creation and modification timestamps.
// It is the value the state backend holds in memory and the store
// backend serializes into the key-value store.
type FileRecord struct {
	Content    []string  `msgpack:"content"`
	CreatedAt  time.Time `msgpack:"created_at"`
	ModifiedAt time.Time `msgpack:"modified_at"`
}

// newFileRecord builds a record from raw content. Splitting keeps
// trailing empty lines so that text() round-trips byte for byte.
func newFileRecord(content string) *FileRecord {
	now := time.Now().UTC()
	return &FileRecord{
		Content:    strings.Split(content, "\n"),
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// withContent returns a copy of the record carrying new content and a
// fresh modification time. The original record is not mutated, so a
// failed operation never leaves a partial update behind.
func (r *FileRecord) withContent(content string) *FileRecord {
	return &FileRecord{
		Content:    strings.Split(content, "\n"),
		CreatedAt:  r.CreatedAt,
		ModifiedAt: time.Now().UTC(),
	}
}

// text joins the record's lines back into the original content.
func (r *FileRecord) text() string {
	return strings.Join(r.Content, "\n")
}

// size is the content's byte length.
func (r *FileRecord) size() int64 {
	n := 0
	for i, line := range r.Content {
		if i > 0 {
			n++ // newline
		}
		n += len(line)
	}
	return int64(n)
}
