// Package store defines the namespaced key-value store the persistent
// vfs backend is built on, with a BadgerDB implementation for local
// durability, an S3 implementation for shared object storage, and an
// in-memory implementation for testing.
//
// Keys are grouped under a namespace (a path of string segments, e.g.
// ["filesystem", "agent-1"]). Search results are paginated: callers pass
// the page token from the previous page until NextToken comes back empty.
package store

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when a key does not exist.
var ErrNotFound = errors.New("store: not found")

// DefaultPageSize is the page size used by Search when an implementation
// is not configured otherwise.
const DefaultPageSize = 100

// Item is one key-value pair returned by Search.
type Item struct {
	Key   string
	Value []byte
}

// Page is one page of search results. An empty NextToken means the
// result set is exhausted.
type Page struct {
	Items     []Item
	NextToken string
}

// Store is a namespaced key-value store with paginated prefix search.
type Store interface {
	// Get retrieves the value for key in the namespace.
	// Returns ErrNotFound if the key is absent.
	Get(ctx context.Context, namespace []string, key string) ([]byte, error)

	// Put stores a value under key, overwriting any existing value.
	Put(ctx context.Context, namespace []string, key string, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, namespace []string, key string) error

	// Search returns one page of items in the namespace whose key starts
	// with prefix, in lexicographic key order. Pass an empty pageToken
	// for the first page and the previous page's NextToken afterwards.
	Search(ctx context.Context, namespace []string, prefix, pageToken string) (Page, error)

	// Close releases any resources held by the store.
	Close() error
}

// namespaceSeparator joins namespace segments and separates them from
// the key in the encoded form. 0x1F (ASCII Unit Separator) cannot appear
// in slash-delimited paths, so encoded keys decode unambiguously.
const namespaceSeparator = "\x1f"

// encodeKey builds the storage key for (namespace, key).
func encodeKey(namespace []string, key string) string {
	if len(namespace) == 0 {
		return namespaceSeparator + key
	}
	return strings.Join(namespace, namespaceSeparator) + namespaceSeparator + key
}

// namespacePrefix is the encoded prefix shared by all keys in a namespace.
func namespacePrefix(namespace []string) string {
	return encodeKey(namespace, "")
}
