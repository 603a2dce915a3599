package vfs

import (
	"regexp"
	"sort"
	"strings"
)

// The helpers in this file implement list/grep/glob over a snapshot of
// path → record mappings. The state backend feeds them its in-memory map
// and the store backend a map paged out of the key-value store, so both
// produce identical results by construction.

// listRecords enumerates the immediate children of dir: files stored
// directly underneath it, plus one synthetic directory entry per distinct
// next path segment. No directory objects exist; they are derived from
// the stored file paths.
func listRecords(files map[string]*FileRecord, dir string) []FileInfo {
	prefix := normalizeDirPath(dir)

	var infos []FileInfo
	subdirs := make(map[string]bool)
	for path, rec := range files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rel := path[len(prefix):]
		if i := strings.IndexByte(rel, '/'); i >= 0 {
			subdirs[prefix+rel[:i]+"/"] = true
			continue
		}
		infos = append(infos, FileInfo{
			Path:    path,
			Size:    rec.size(),
			ModTime: rec.ModifiedAt,
		})
	}
	for sub := range subdirs {
		infos = append(infos, FileInfo{Path: sub, IsDir: true})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos
}

// grepRecords scans every file under dir line by line against pattern.
// A non-empty glob restricts the scan to files whose base name matches.
// Matches come back ordered by path, then line number.
func grepRecords(files map[string]*FileRecord, pattern, dir, glob string) ([]GrepMatch, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errInvalidPattern(err)
	}

	var filter *globMatcher
	if glob != "" {
		filter = compileGlob(glob)
	}
	prefix := normalizeDirPath(dir)

	paths := make([]string, 0, len(files))
	for path := range files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		if filter != nil && !filter.matchBase(path) {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var matches []GrepMatch
	for _, path := range paths {
		for i, line := range files[path].Content {
			if re.MatchString(line) {
				matches = append(matches, GrepMatch{Path: path, Line: i + 1, Text: line})
			}
		}
	}
	return matches, nil
}

// writeCollision reports the collision that writing path into files
// would create: an ancestor already stored as a file, or path itself
// already serving as an implicit directory. A path is never a file and
// a directory at the same time.
func writeCollision(files map[string]*FileRecord, path string) *Error {
	for i := 1; i < len(path); i++ {
		if path[i] != '/' {
			continue
		}
		if _, ok := files[path[:i]]; ok {
			return errFileAncestor(path, path[:i])
		}
	}
	prefix := path + "/"
	for p := range files {
		if strings.HasPrefix(p, prefix) {
			return errIsDirectory(path)
		}
	}
	return nil
}

// globRecords returns the files under dir whose path relative to dir
// matches pattern, sorted by path.
func globRecords(files map[string]*FileRecord, pattern, dir string) []FileInfo {
	m := compileGlob(pattern)
	prefix := normalizeDirPath(dir)

	var infos []FileInfo
	for path, rec := range files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		if !m.match(path[len(prefix):]) {
			continue
		}
		infos = append(infos, FileInfo{
			Path:    path,
			Size:    rec.size(),
			ModTime: rec.ModifiedAt,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos
}
