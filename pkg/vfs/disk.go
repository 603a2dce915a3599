package vfs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxFileSizeMB bounds how large a file the disk backend will
// read or write when the caller does not configure a limit.
const DefaultMaxFileSizeMB = 10

// DiskOptions configures a Disk backend.
type DiskOptions struct {
	// Root is the backend's root directory. Defaults to the current
	// working directory.
	Root string

	// Sandbox maps virtual paths under Root ("/x/y" → Root/x/y) and
	// confines every resolved path to it: traversal segments are
	// rejected and symlinks may not lead outside Root. Without Sandbox,
	// virtual paths are real absolute paths.
	Sandbox bool

	// MaxFileSizeMB caps the size of files read or written, in
	// megabytes. Defaults to DefaultMaxFileSizeMB.
	MaxFileSizeMB int
}

// Disk stores files on the real filesystem.
type Disk struct {
	root     string
	sandbox  bool
	maxMB    int
	maxBytes int64
}

// NewDisk creates a Disk backend. In sandbox mode the root directory is
// created if it does not exist.
func NewDisk(opts DiskOptions) (*Disk, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vfs: resolve root %s: %w", root, err)
	}
	if opts.Sandbox {
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("vfs: create root %s: %w", abs, err)
		}
	}
	maxMB := opts.MaxFileSizeMB
	if maxMB <= 0 {
		maxMB = DefaultMaxFileSizeMB
	}
	return &Disk{
		root:     abs,
		sandbox:  opts.Sandbox,
		maxMB:    maxMB,
		maxBytes: int64(maxMB) * 1024 * 1024,
	}, nil
}

// resolve maps a virtual path to a real filesystem path, enforcing the
// sandbox invariants when enabled. The returned error, if any, is a
// SecurityViolation.
func (b *Disk) resolve(path string) (string, *Error) {
	if !b.sandbox {
		if filepath.IsAbs(path) {
			return filepath.Clean(path), nil
		}
		return filepath.Join(b.root, path), nil
	}

	vpath := path
	if !strings.HasPrefix(vpath, "/") {
		vpath = "/" + vpath
	}
	if strings.HasPrefix(vpath, "/~") {
		return "", errTraversal()
	}
	for _, seg := range strings.Split(vpath, "/") {
		if seg == ".." {
			return "", errTraversal()
		}
	}

	full := filepath.Join(b.root, filepath.FromSlash(vpath[1:]))
	if full != b.root && !strings.HasPrefix(full, b.root+string(filepath.Separator)) {
		return "", errOutsideRoot(full, b.root)
	}
	if verr := b.checkSymlinks(full); verr != nil {
		return "", verr
	}
	return full, nil
}

// checkSymlinks verifies that the deepest existing ancestor of full still
// resolves under the root once symlinks are followed. The lexical check
// alone would let a symlinked directory smuggle paths out of the sandbox.
func (b *Disk) checkSymlinks(full string) *Error {
	realRoot, err := filepath.EvalSymlinks(b.root)
	if err != nil {
		return nil
	}
	p := full
	for {
		real, err := filepath.EvalSymlinks(p)
		if err == nil {
			if real != realRoot && !strings.HasPrefix(real, realRoot+string(filepath.Separator)) {
				return errOutsideRoot(full, b.root)
			}
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil // unreadable; let the operation fail on its own
		}
		parent := filepath.Dir(p)
		if parent == p {
			return nil
		}
		p = parent
	}
}

// virtualPath converts a real path back into the caller's namespace.
func (b *Disk) virtualPath(real string) string {
	if !b.sandbox {
		return real
	}
	rel, err := filepath.Rel(b.root, real)
	if err != nil || rel == "." {
		return "/"
	}
	return "/" + filepath.ToSlash(rel)
}

func (b *Disk) List(_ context.Context, path string) ([]FileInfo, error) {
	dir, verr := b.resolve(strings.TrimSuffix(path, "/"))
	if verr != nil {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil // missing or not a directory: nothing to list
	}

	var infos []FileInfo
	for _, e := range entries {
		child := filepath.Join(dir, e.Name())
		switch {
		case e.IsDir():
			info := FileInfo{Path: b.virtualPath(child) + "/", IsDir: true}
			if fi, err := e.Info(); err == nil {
				info.ModTime = fi.ModTime()
			}
			infos = append(infos, info)
		case e.Type().IsRegular():
			info := FileInfo{Path: b.virtualPath(child)}
			if fi, err := e.Info(); err == nil {
				info.Size = fi.Size()
				info.ModTime = fi.ModTime()
			}
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}

func (b *Disk) Read(_ context.Context, path string, offset, limit int) (string, error) {
	full, verr := b.resolve(path)
	if verr != nil {
		return "", verr
	}
	fi, err := os.Stat(full)
	if err != nil || !fi.Mode().IsRegular() {
		return "", errNotFound(path)
	}
	if fi.Size() > b.maxBytes {
		return "", errTooLarge(path, b.maxMB)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("vfs: read %s: %w", path, err)
	}
	return renderRead(string(data), offset, limit), nil
}

func (b *Disk) Write(_ context.Context, path, content string) (string, error) {
	full, verr := b.resolve(path)
	if verr != nil {
		return "", verr
	}
	if fi, err := os.Lstat(full); err == nil {
		if fi.IsDir() {
			return "", errIsDirectory(path)
		}
		return "", errAlreadyExists(path)
	}
	// An ancestor stored as a regular file blocks the write the same way
	// the map-backed backends refuse it.
	for dir := filepath.Dir(full); ; dir = filepath.Dir(dir) {
		if fi, err := os.Lstat(dir); err == nil {
			if !fi.IsDir() {
				return "", errFileAncestor(path, b.virtualPath(dir))
			}
			break
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}
	if int64(len(content)) > b.maxBytes {
		return "", errTooLarge(path, b.maxMB)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("vfs: write %s: %w", path, err)
	}
	if err := writeFileAtomic(full, []byte(content)); err != nil {
		return "", fmt.Errorf("vfs: write %s: %w", path, err)
	}
	return path, nil
}

func (b *Disk) Edit(_ context.Context, path, oldString, newString string, replaceAll bool) (EditResult, error) {
	full, verr := b.resolve(path)
	if verr != nil {
		return EditResult{}, verr
	}
	fi, err := os.Stat(full)
	if err != nil || !fi.Mode().IsRegular() {
		return EditResult{}, errNotFound(path)
	}
	if fi.Size() > b.maxBytes {
		return EditResult{}, errTooLarge(path, b.maxMB)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return EditResult{}, fmt.Errorf("vfs: edit %s: %w", path, err)
	}
	newContent, occurrences, rerr := replaceOccurrences(string(data), oldString, newString, replaceAll)
	if rerr != nil {
		return EditResult{}, rerr
	}
	if err := writeFileAtomic(full, []byte(newContent)); err != nil {
		return EditResult{}, fmt.Errorf("vfs: edit %s: %w", path, err)
	}
	return EditResult{Path: path, Occurrences: occurrences}, nil
}

// writeFileAtomic writes data through a temp file in the same directory
// and renames it into place, so readers never observe a partial file.
func writeFileAtomic(full string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(full), ".vfs-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, full); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

func (b *Disk) Grep(_ context.Context, pattern, path, glob string) ([]GrepMatch, error) {
	// The pattern is always validated with Go's regexp so an invalid
	// pattern yields the same error whether or not ripgrep handles the
	// actual search.
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errInvalidPattern(err)
	}

	if path == "" {
		path = "/"
	}
	base, verr := b.resolve(strings.TrimSuffix(path, "/"))
	if verr != nil {
		return nil, nil
	}
	fi, err := os.Stat(base)
	if err != nil {
		return nil, nil
	}
	root := base
	if !fi.IsDir() {
		root = filepath.Dir(base)
	}

	// The glob filter matches base names only. Ripgrep's slash-free globs
	// agree with that, but a glob containing "/" would be matched against
	// whole paths, so those go to the in-process scan.
	if !strings.Contains(glob, "/") {
		if rg, err := exec.LookPath("rg"); err == nil {
			if matches, ok := b.grepRipgrep(rg, pattern, root, glob); ok {
				return matches, nil
			}
		}
	}
	return b.grepScan(re, root, glob)
}

// grepRipgrep shells out to ripgrep. It returns ok=false when ripgrep
// could not run or rejected the invocation, in which case the caller
// falls back to the in-process scan; the two paths produce identical
// results for any pattern both engines accept.
func (b *Disk) grepRipgrep(rg, pattern, root, glob string) ([]GrepMatch, bool) {
	args := []string{
		"--line-number", "--no-heading", "--color=never", "--null",
		"--hidden", "--no-ignore", "--no-messages",
		"--max-filesize", strconv.FormatInt(b.maxBytes, 10),
	}
	if glob != "" {
		args = append(args, "--glob", glob)
	}
	args = append(args, "--regexp", pattern, root)

	out, err := exec.Command(rg, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, true // exit 1: clean run, no matches
		}
		return nil, false
	}

	var matches []GrepMatch
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength*2)
	for sc.Scan() {
		raw := sc.Bytes()
		nul := bytes.IndexByte(raw, 0)
		if nul < 0 {
			continue
		}
		file := string(raw[:nul])
		rest := string(raw[nul+1:])
		colon := strings.IndexByte(rest, ':')
		if colon < 0 {
			continue
		}
		line, err := strconv.Atoi(rest[:colon])
		if err != nil {
			continue
		}
		matches = append(matches, GrepMatch{
			Path: b.virtualPath(file),
			Line: line,
			Text: rest[colon+1:],
		})
	}
	if sc.Err() != nil {
		return nil, false
	}
	sortMatches(matches)
	return matches, true
}

// grepScan is the in-process fallback: walk the tree and scan each
// regular file line by line.
func (b *Disk) grepScan(re *regexp.Regexp, root, glob string) ([]GrepMatch, error) {
	var filter *globMatcher
	if glob != "" {
		filter = compileGlob(glob)
	}

	var matches []GrepMatch
	filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		if filter != nil && !filter.matchBase(p) {
			return nil
		}
		if fi, err := d.Info(); err != nil || fi.Size() > b.maxBytes {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		vpath := b.virtualPath(p)
		for i, line := range strings.Split(string(data), "\n") {
			if re.MatchString(line) {
				matches = append(matches, GrepMatch{Path: vpath, Line: i + 1, Text: line})
			}
		}
		return nil
	})
	sortMatches(matches)
	return matches, nil
}

func sortMatches(matches []GrepMatch) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Path != matches[j].Path {
			return matches[i].Path < matches[j].Path
		}
		return matches[i].Line < matches[j].Line
	})
}

func (b *Disk) Glob(_ context.Context, pattern, path string) ([]FileInfo, error) {
	if path == "" {
		path = "/"
	}
	root, verr := b.resolve(strings.TrimSuffix(path, "/"))
	if verr != nil {
		return nil, nil
	}
	fi, err := os.Stat(root)
	if err != nil || !fi.IsDir() {
		return nil, nil
	}

	m := compileGlob(pattern)
	var infos []FileInfo
	filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil || !m.match(filepath.ToSlash(rel)) {
			return nil
		}
		info := FileInfo{Path: b.virtualPath(p)}
		if st, err := d.Info(); err == nil {
			info.Size = st.Size()
			info.ModTime = st.ModTime()
		}
		infos = append(infos, info)
		return nil
	})
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}

// Compile-time interface check.
var _ Backend = (*Disk)(nil)
