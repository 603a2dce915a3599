package vfs

import (
	"context"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pailab/scratchfs/pkg/store"
)

// DefaultNamespace is the store namespace used when the caller does not
// provide one.
var DefaultNamespace = []string{"filesystem"}

// StoreBackend persists files in a [store.Store]: each file is one key
// (its virtual path) under one namespace, with the FileRecord serialized
// as msgpack. Durability and concurrency control are the store's
// concern; this backend only speaks the protocol.
type StoreBackend struct {
	store     store.Store
	namespace []string
}

// NewStoreBackend creates a backend over st. With no namespace segments,
// DefaultNamespace is used.
func NewStoreBackend(st store.Store, namespace ...string) *StoreBackend {
	if len(namespace) == 0 {
		namespace = DefaultNamespace
	}
	return &StoreBackend{store: st, namespace: namespace}
}

// load fetches and decodes one record. A missing key reports ok=false
// with a nil error.
func (b *StoreBackend) load(ctx context.Context, path string) (*FileRecord, bool, error) {
	raw, err := b.store.Get(ctx, b.namespace, path)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("vfs: store get %s: %w", path, err)
	}
	var rec FileRecord
	if err := msgpack.Unmarshal(raw, &rec); err != nil {
		return nil, false, fmt.Errorf("vfs: decode record %s: %w", path, err)
	}
	return &rec, true, nil
}

func (b *StoreBackend) save(ctx context.Context, path string, rec *FileRecord) error {
	raw, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("vfs: encode record %s: %w", path, err)
	}
	if err := b.store.Put(ctx, b.namespace, path, raw); err != nil {
		return fmt.Errorf("vfs: store put %s: %w", path, err)
	}
	return nil
}

// loadAll pages through the store's search results until exhausted and
// decodes every record. The paging is invisible to callers: a namespace
// larger than one page never silently truncates a listing or search.
func (b *StoreBackend) loadAll(ctx context.Context) (map[string]*FileRecord, error) {
	files := make(map[string]*FileRecord)
	token := ""
	for {
		page, err := b.store.Search(ctx, b.namespace, "", token)
		if err != nil {
			return nil, fmt.Errorf("vfs: store search: %w", err)
		}
		for _, item := range page.Items {
			var rec FileRecord
			if err := msgpack.Unmarshal(item.Value, &rec); err != nil {
				continue // skip records this backend did not write
			}
			files[item.Key] = &rec
		}
		if page.NextToken == "" {
			return files, nil
		}
		token = page.NextToken
	}
}

func (b *StoreBackend) List(ctx context.Context, path string) ([]FileInfo, error) {
	files, err := b.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return listRecords(files, path), nil
}

func (b *StoreBackend) Read(ctx context.Context, path string, offset, limit int) (string, error) {
	rec, ok, err := b.load(ctx, path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errNotFound(path)
	}
	return renderRead(rec.text(), offset, limit), nil
}

func (b *StoreBackend) Write(ctx context.Context, path, content string) (string, error) {
	_, ok, err := b.load(ctx, path)
	if err != nil {
		return "", err
	}
	if ok {
		return "", errAlreadyExists(path)
	}
	files, err := b.loadAll(ctx)
	if err != nil {
		return "", err
	}
	if verr := writeCollision(files, path); verr != nil {
		return "", verr
	}
	if err := b.save(ctx, path, newFileRecord(content)); err != nil {
		return "", err
	}
	return path, nil
}

func (b *StoreBackend) Edit(ctx context.Context, path, oldString, newString string, replaceAll bool) (EditResult, error) {
	rec, ok, err := b.load(ctx, path)
	if err != nil {
		return EditResult{}, err
	}
	if !ok {
		return EditResult{}, errNotFound(path)
	}
	newContent, occurrences, verr := replaceOccurrences(rec.text(), oldString, newString, replaceAll)
	if verr != nil {
		return EditResult{}, verr
	}
	if err := b.save(ctx, path, rec.withContent(newContent)); err != nil {
		return EditResult{}, err
	}
	return EditResult{Path: path, Occurrences: occurrences}, nil
}

func (b *StoreBackend) Grep(ctx context.Context, pattern, path, glob string) ([]GrepMatch, error) {
	files, err := b.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return grepRecords(files, pattern, path, glob)
}

func (b *StoreBackend) Glob(ctx context.Context, pattern, path string) ([]FileInfo, error) {
	files, err := b.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return globRecords(files, pattern, path), nil
}

// Compile-time interface check.
var _ Backend = (*StoreBackend)(nil)
