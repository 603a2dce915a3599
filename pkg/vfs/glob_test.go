package vfs

import "testing"

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		pattern string
		rel     string
		want    bool
	}{
		// A bare pattern matches direct children only.
		{"*.md", "a.md", true},
		{"*.md", "sub/a.md", false},
		{"*.md", "a.txt", false},

		// '**' matches zero or more whole segments.
		{"**/*.md", "a.md", true},
		{"**/*.md", "sub/a.md", true},
		{"**/*.md", "sub/deep/a.md", true},
		{"**/*.md", "a.txt", false},
		{"**", "a.md", true},
		{"**", "sub/deep/a.md", true},
		{"sub/**", "sub/a.md", true},
		{"sub/**", "other/a.md", false},
		{"sub/**/*.go", "sub/a.go", true},
		{"sub/**/*.go", "sub/x/y/a.go", true},

		// '*' stays within one segment; '?' matches one character.
		{"a/*/c.txt", "a/b/c.txt", true},
		{"a/*/c.txt", "a/b/d/c.txt", false},
		{"file?.txt", "file1.txt", true},
		{"file?.txt", "file10.txt", false},

		// Regexp metacharacters in the pattern are literal.
		{"a+b.txt", "a+b.txt", true},
		{"a+b.txt", "aab.txt", false},
		{"[x].txt", "[x].txt", true},

		// A leading slash on the pattern is ignored.
		{"/*.md", "a.md", true},

		// The empty relative path never matches.
		{"*", "", false},
	}
	for _, tt := range tests {
		m := compileGlob(tt.pattern)
		if got := m.match(tt.rel); got != tt.want {
			t.Errorf("match(%q, %q) = %v, want %v", tt.pattern, tt.rel, got, tt.want)
		}
	}
}

func TestGlobMatchBase(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.py", "/src/deep/main.py", true},
		{"*.py", "/src/deep/main.go", false},
		{"main.*", "/main.py", true},
		{"?.txt", "/dir/a.txt", true},
		{"?.txt", "/dir/ab.txt", false},
	}
	for _, tt := range tests {
		m := compileGlob(tt.pattern)
		if got := m.matchBase(tt.path); got != tt.want {
			t.Errorf("matchBase(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}
