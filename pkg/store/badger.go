package store

import (
	"context"
	"errors"
	"log"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger is a Store backed by BadgerDB v4.
type Badger struct {
	db       *badger.DB
	pageSize int
}

// BadgerOptions configures the BadgerDB store.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files.
	// Required unless InMemory is set.
	Dir string

	// InMemory runs BadgerDB in memory-only mode (no disk persistence).
	// Useful for testing with a real badger engine.
	InMemory bool

	// PageSize overrides the Search page size. Defaults to
	// DefaultPageSize.
	PageSize int

	// Logger sets the badger logger. If nil, a quiet logger is used that
	// only forwards warnings and errors to the standard log package.
	Logger badger.Logger
}

// NewBadger opens a BadgerDB-backed Store.
func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("store: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	if opts.Logger != nil {
		dbOpts = dbOpts.WithLogger(opts.Logger)
	} else {
		dbOpts = dbOpts.WithLogger(quietLogger{})
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Badger{db: db, pageSize: pageSize}, nil
}

func (b *Badger) Get(_ context.Context, namespace []string, key string) ([]byte, error) {
	k := []byte(encodeKey(namespace, key))
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (b *Badger) Put(_ context.Context, namespace []string, key string, value []byte) error {
	k := []byte(encodeKey(namespace, key))
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, value)
	})
}

func (b *Badger) Delete(_ context.Context, namespace []string, key string) error {
	k := []byte(encodeKey(namespace, key))
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Search iterates the namespace's key range in order. The page token is
// the in-namespace key to resume from (inclusive).
func (b *Badger) Search(_ context.Context, namespace []string, prefix, pageToken string) (Page, error) {
	nsPrefix := namespacePrefix(namespace)
	keyPrefix := []byte(nsPrefix + prefix)
	seek := keyPrefix
	if pageToken != "" {
		seek = []byte(nsPrefix + pageToken)
	}

	var page Page
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = keyPrefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(seek); it.ValidForPrefix(keyPrefix); it.Next() {
			item := it.Item()
			key := strings.TrimPrefix(string(item.KeyCopy(nil)), nsPrefix)
			// Skip keys that belong to a nested namespace: their encoded
			// form shares this namespace's prefix but keeps a separator in
			// the remainder.
			if strings.Contains(key, namespaceSeparator) {
				continue
			}
			if len(page.Items) == b.pageSize {
				page.NextToken = key
				return nil
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			page.Items = append(page.Items, Item{Key: key, Value: val})
		}
		return nil
	})
	if err != nil {
		return Page{}, err
	}
	return page, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// quietLogger forwards badger warnings and errors to the standard log
// package and drops info and debug output.
type quietLogger struct{}

func (quietLogger) Errorf(f string, v ...interface{})   { log.Printf("[badger] ERROR: "+f, v...) }
func (quietLogger) Warningf(f string, v ...interface{}) { log.Printf("[badger] WARN: "+f, v...) }
func (quietLogger) Infof(string, ...interface{})        {}
func (quietLogger) Debugf(string, ...interface{})       {}

// Compile-time interface check.
var _ Store = (*Badger)(nil)
