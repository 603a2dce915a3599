package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Memory is an in-memory Store backed by a map. It is safe for
// concurrent use and intended primarily for testing.
type Memory struct {
	mu       sync.RWMutex
	data     map[string][]byte
	pageSize int
}

// NewMemory creates an in-memory Store. pageSize <= 0 selects
// DefaultPageSize.
func NewMemory(pageSize int) *Memory {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Memory{
		data:     make(map[string][]byte),
		pageSize: pageSize,
	}
}

func (m *Memory) Get(_ context.Context, namespace []string, key string) ([]byte, error) {
	m.mu.RLock()
	v, ok := m.data[encodeKey(namespace, key)]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (m *Memory) Put(_ context.Context, namespace []string, key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	m.mu.Lock()
	m.data[encodeKey(namespace, key)] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, namespace []string, key string) error {
	m.mu.Lock()
	delete(m.data, encodeKey(namespace, key))
	m.mu.Unlock()
	return nil
}

// Search pages through the sorted keys of the namespace. Page tokens are
// offsets into the sorted key list.
func (m *Memory) Search(_ context.Context, namespace []string, prefix, pageToken string) (Page, error) {
	nsPrefix := namespacePrefix(namespace)
	full := nsPrefix + prefix

	m.mu.RLock()
	var keys []string
	for k := range m.data {
		if !strings.HasPrefix(k, full) {
			continue
		}
		// A nested namespace's encoded keys share this namespace's prefix;
		// the extra separator in the remainder tells them apart.
		if strings.Contains(strings.TrimPrefix(k, nsPrefix), namespaceSeparator) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			m.mu.RUnlock()
			return Page{}, err
		}
		offset = n
	}

	var page Page
	end := min(offset+m.pageSize, len(keys))
	for _, k := range keys[min(offset, len(keys)):end] {
		v := m.data[k]
		cp := make([]byte, len(v))
		copy(cp, v)
		page.Items = append(page.Items, Item{
			Key:   strings.TrimPrefix(k, nsPrefix),
			Value: cp,
		})
	}
	m.mu.RUnlock()

	if end < len(keys) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

func (m *Memory) Close() error { return nil }

// Compile-time interface check.
var _ Store = (*Memory)(nil)
