package vfs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pailab/scratchfs/pkg/vfs"
)

func newSandbox(t *testing.T) (*vfs.Disk, string) {
	t.Helper()
	root := t.TempDir()
	b, err := vfs.NewDisk(vfs.DiskOptions{Root: root, Sandbox: true})
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}
	return b, root
}

func wantSecurityViolation(t *testing.T, err error) {
	t.Helper()
	var verr *vfs.Error
	if !errors.As(err, &verr) || verr.Kind != vfs.KindSecurityViolation {
		t.Fatalf("err = %v, want SecurityViolation", err)
	}
}

func TestDiskSandboxRejectsTraversal(t *testing.T) {
	b, _ := newSandbox(t)
	ctx := context.Background()

	for _, path := range []string{"/../escape.txt", "/a/../../escape.txt", "/~/escape.txt"} {
		_, err := b.Read(ctx, path, 0, 0)
		wantSecurityViolation(t, err)
		if msg := err.Error(); msg != "Error: Path traversal not allowed" {
			t.Fatalf("Read %s message = %q", path, msg)
		}

		_, err = b.Write(ctx, path, "x")
		wantSecurityViolation(t, err)

		_, err = b.Edit(ctx, path, "a", "b", false)
		wantSecurityViolation(t, err)
	}
}

func TestDiskSandboxSymlinkEscape(t *testing.T) {
	b, root := newSandbox(t)
	ctx := context.Background()

	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("secret"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	_, err := b.Read(ctx, "/link/secret.txt", 0, 0)
	wantSecurityViolation(t, err)

	_, err = b.Write(ctx, "/link/new.txt", "x")
	wantSecurityViolation(t, err)

	// Search-style operations treat an unreachable path as empty rather
	// than failing.
	infos, err := b.List(ctx, "/link")
	if err != nil || len(infos) != 0 {
		t.Fatalf("List over escaping symlink = (%v, %v), want empty", infos, err)
	}
}

func TestDiskSizeLimit(t *testing.T) {
	root := t.TempDir()
	b, err := vfs.NewDisk(vfs.DiskOptions{Root: root, Sandbox: true, MaxFileSizeMB: 1})
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}
	ctx := context.Background()

	huge := strings.Repeat("a", 1024*1024+1)
	_, err = b.Write(ctx, "/big.txt", huge)
	var verr *vfs.Error
	if !errors.As(err, &verr) || verr.Kind != vfs.KindSizeLimit {
		t.Fatalf("Write oversized = %v, want SizeLimit", err)
	}
	if want := "Error: File '/big.txt' exceeds maximum allowed size (1 MB)"; verr.Message != want {
		t.Fatalf("message = %q, want %q", verr.Message, want)
	}

	// A file that grew past the limit outside the backend is refused on
	// Read too.
	if err := os.WriteFile(filepath.Join(root, "grown.txt"), []byte(huge), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err = b.Read(ctx, "/grown.txt", 0, 0)
	if !errors.As(err, &verr) || verr.Kind != vfs.KindSizeLimit {
		t.Fatalf("Read oversized = %v, want SizeLimit", err)
	}
}

func TestDiskWriteCreatesParents(t *testing.T) {
	b, root := newSandbox(t)
	ctx := context.Background()

	if _, err := b.Write(ctx, "/a/b/c/file.txt", "nested"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "a", "b", "c", "file.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "nested" {
		t.Fatalf("on-disk content = %q", data)
	}
}

// An empty PATH makes ripgrep unavailable, forcing the in-process scan;
// its results must be indistinguishable from the ripgrep path.
func TestDiskGrepScanFallback(t *testing.T) {
	t.Setenv("PATH", "")
	b, _ := newSandbox(t)
	ctx := context.Background()

	mustWrite(t, b, "/b.txt", "needle second")
	mustWrite(t, b, "/a.txt", "nothing\nneedle first")

	matches, err := b.Grep(ctx, "needle", "/", "")
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Grep = %v, want two matches", matches)
	}
	if matches[0].Path != "/a.txt" || matches[0].Line != 2 {
		t.Fatalf("first match = %+v", matches[0])
	}
	if matches[1].Path != "/b.txt" || matches[1].Line != 1 {
		t.Fatalf("second match = %+v", matches[1])
	}
}

// The glob filter matches base names, so a pattern with a separator can
// never match — whether or not ripgrep handles the search.
func TestDiskGrepGlobWithSeparator(t *testing.T) {
	b, _ := newSandbox(t)
	ctx := context.Background()

	mustWrite(t, b, "/docs/guide.md", "needle inside")

	matches, err := b.Grep(ctx, "needle", "/", "docs/*.md")
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("Grep with path glob = %v, want none", matches)
	}

	// The same filter without the directory part matches by base name.
	matches, err = b.Grep(ctx, "needle", "/", "*.md")
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if len(matches) != 1 || matches[0].Path != "/docs/guide.md" {
		t.Fatalf("Grep = %v, want /docs/guide.md", matches)
	}
}

func TestDiskNonSandboxUsesRealPaths(t *testing.T) {
	root := t.TempDir()
	b, err := vfs.NewDisk(vfs.DiskOptions{Root: root})
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}
	ctx := context.Background()

	target := filepath.Join(root, "file.txt")
	if _, err := b.Write(ctx, target, "real path"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := b.Read(ctx, target, 0, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !strings.Contains(got, "real path") {
		t.Fatalf("Read = %q", got)
	}

	infos, err := b.List(ctx, root)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 1 || infos[0].Path != target {
		t.Fatalf("List = %v, want [%s]", infos, target)
	}
}
