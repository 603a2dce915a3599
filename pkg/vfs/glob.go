package vfs

import (
	"regexp"
	"strings"
)

// globMatcher matches slash-separated relative paths against a glob
// pattern, segment by segment. Within a segment, '*' matches any run of
// characters and '?' matches one character. A '**' segment matches zero
// or more whole segments, so a pattern like "**/*.md" also matches files
// at the root of the search, not only nested ones. A pattern without a
// slash matches only single-segment paths, i.e. direct children.
type globMatcher struct {
	segs []*regexp.Regexp
	raw  []string
}

// compileGlob builds a matcher for pattern. A leading slash is ignored;
// patterns are always relative to the search root.
func compileGlob(pattern string) *globMatcher {
	pattern = strings.TrimPrefix(pattern, "/")
	raw := strings.Split(pattern, "/")
	m := &globMatcher{raw: raw}
	for _, seg := range raw {
		if seg == "**" {
			m.segs = append(m.segs, nil)
			continue
		}
		m.segs = append(m.segs, compileSegment(seg))
	}
	return m
}

// compileSegment translates one glob segment into an anchored regexp.
// The translation cannot fail: everything except the wildcards is quoted.
func compileSegment(seg string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(seg)
	quoted = strings.ReplaceAll(quoted, `\*`, `.*`)
	quoted = strings.ReplaceAll(quoted, `\?`, `.`)
	return regexp.MustCompile("^" + quoted + "$")
}

// match reports whether the relative path rel matches the pattern.
func (m *globMatcher) match(rel string) bool {
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return false
	}
	return matchSegments(strings.Split(rel, "/"), m.segs, m.raw)
}

// matchBase reports whether the path's base name alone matches the
// pattern. Grep's include filter uses this form.
func (m *globMatcher) matchBase(path string) bool {
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}
	return matchSegments([]string{base}, m.segs, m.raw)
}

func matchSegments(path []string, segs []*regexp.Regexp, raw []string) bool {
	if len(segs) == 0 {
		return len(path) == 0
	}
	if raw[0] == "**" {
		if len(segs) == 1 {
			return true
		}
		// '**' may swallow zero segments; trying zero first is what lets
		// "**/*.md" match a root-level "a.md".
		for i := 0; i <= len(path); i++ {
			if matchSegments(path[i:], segs[1:], raw[1:]) {
				return true
			}
		}
		return false
	}
	if len(path) == 0 {
		return false
	}
	if !segs[0].MatchString(path[0]) {
		return false
	}
	return matchSegments(path[1:], segs[1:], raw[1:])
}
