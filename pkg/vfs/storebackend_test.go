package vfs_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/pailab/scratchfs/pkg/store"
	"github.com/pailab/scratchfs/pkg/vfs"
)

// A tiny page size forces List/Grep/Glob to page through the store; the
// results must be identical to a store holding everything in one page.
func TestStoreBackendPagination(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(5)
	t.Cleanup(func() { st.Close() })
	b := vfs.NewStoreBackend(st)

	const n = 17
	for i := 0; i < n; i++ {
		path := fmt.Sprintf("/docs/file%02d.md", i)
		if _, err := b.Write(ctx, path, fmt.Sprintf("document %d", i)); err != nil {
			t.Fatalf("Write %s: %v", path, err)
		}
	}

	infos, err := b.List(ctx, "/docs")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != n {
		t.Fatalf("List = %d entries, want %d", len(infos), n)
	}
	for i, fi := range infos {
		if want := fmt.Sprintf("/docs/file%02d.md", i); fi.Path != want {
			t.Fatalf("infos[%d].Path = %s, want %s", i, fi.Path, want)
		}
	}

	matches, err := b.Grep(ctx, "document", "/", "")
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if len(matches) != n {
		t.Fatalf("Grep = %d matches, want %d", len(matches), n)
	}

	found, err := b.Glob(ctx, "**/*.md", "/")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(found) != n {
		t.Fatalf("Glob = %d entries, want %d", len(found), n)
	}
}

func TestStoreBackendNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(0)
	t.Cleanup(func() { st.Close() })

	a := vfs.NewStoreBackend(st, "tenant", "a")
	b := vfs.NewStoreBackend(st, "tenant", "b")

	if _, err := a.Write(ctx, "/shared.txt", "from a"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := b.Write(ctx, "/shared.txt", "from b"); err != nil {
		t.Fatalf("Write in second namespace: %v", err)
	}

	got, err := a.Read(ctx, "/shared.txt", 0, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if want := "     1\tfrom a"; got != want {
		t.Fatalf("Read = %q, want %q", got, want)
	}
}

func TestStoreBackendEditPersists(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory(0)
	t.Cleanup(func() { st.Close() })

	// Two backends over the same store and namespace see the same files,
	// the way two sessions share one persistent store.
	first := vfs.NewStoreBackend(st)
	second := vfs.NewStoreBackend(st)

	if _, err := first.Write(ctx, "/memo.txt", "draft"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := first.Edit(ctx, "/memo.txt", "draft", "final", false); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	got, err := second.Read(ctx, "/memo.txt", 0, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if want := "     1\tfinal"; got != want {
		t.Fatalf("Read = %q, want %q", got, want)
	}
}
