package vfs

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Route binds a path prefix to a backend. Prefixes must start and end
// with a slash ("/memory/"); everything under the prefix is served by
// the bound backend, which sees paths relative to its own root.
type Route struct {
	Prefix  string
	Backend Backend
}

// Composite stitches one default backend and any number of routed
// backends into a single virtual namespace. Paths are matched against
// the longest route prefix first; unmatched paths go to the default
// backend. Whole-namespace operations fan out across all backends and
// merge their results deterministically.
type Composite struct {
	def Backend
	// routes in registration order, used for fan-out.
	routes []Route
	// byLength is the matching order: a copy of routes sorted by
	// descending prefix length, computed once at construction, so a more
	// specific route always wins over a shorter one that is also a
	// prefix.
	byLength []Route
}

// NewComposite builds a composite over def. Route prefixes are validated
// here; matching order is frozen so no per-call sorting happens.
func NewComposite(def Backend, routes ...Route) (*Composite, error) {
	if def == nil {
		return nil, fmt.Errorf("vfs: composite needs a default backend")
	}
	seen := make(map[string]bool, len(routes))
	for _, r := range routes {
		if !strings.HasPrefix(r.Prefix, "/") || !strings.HasSuffix(r.Prefix, "/") || r.Prefix == "/" {
			return nil, fmt.Errorf("vfs: route prefix %q must start and end with '/' and not be the root", r.Prefix)
		}
		if r.Backend == nil {
			return nil, fmt.Errorf("vfs: route %s has no backend", r.Prefix)
		}
		if seen[r.Prefix] {
			return nil, fmt.Errorf("vfs: duplicate route prefix %s", r.Prefix)
		}
		seen[r.Prefix] = true
	}
	c := &Composite{
		def:      def,
		routes:   append([]Route(nil), routes...),
		byLength: append([]Route(nil), routes...),
	}
	sort.SliceStable(c.byLength, func(i, j int) bool {
		return len(c.byLength[i].Prefix) > len(c.byLength[j].Prefix)
	})
	return c, nil
}

// matchRoute reports whether path lies inside the route's subtree and,
// if so, the path as seen by the routed backend. The comparison trims
// the prefix's trailing slash first, so the bare "/memory" addresses
// route "/memory/" just like "/memory/x" does, and "/memoryX" does not.
func matchRoute(r Route, path string) (string, bool) {
	trimmed := strings.TrimSuffix(r.Prefix, "/")
	if path == trimmed {
		return "/", true
	}
	if strings.HasPrefix(path, r.Prefix) {
		return path[len(trimmed):], true
	}
	return "", false
}

// resolve finds the backend owning path. Routes are scanned longest
// prefix first; the default backend receives the path unchanged.
func (c *Composite) resolve(path string) (Backend, string) {
	for _, r := range c.byLength {
		if stripped, ok := matchRoute(r, path); ok {
			return r.Backend, stripped
		}
	}
	return c.def, path
}

// reprefix rewrites a routed backend's result path back into the
// composite namespace.
func reprefix(prefix, path string) string {
	return strings.TrimSuffix(prefix, "/") + path
}

func (c *Composite) List(ctx context.Context, path string) ([]FileInfo, error) {
	for _, r := range c.byLength {
		stripped, ok := matchRoute(r, path)
		if !ok {
			continue
		}
		infos, err := r.Backend.List(ctx, stripped)
		if err != nil {
			return nil, err
		}
		out := make([]FileInfo, len(infos))
		for i, fi := range infos {
			fi.Path = reprefix(r.Prefix, fi.Path)
			out[i] = fi
		}
		return out, nil
	}

	// At the namespace root, every route shows up as a synthetic
	// directory beside the default backend's own entries, even though no
	// stored file backs it.
	if path == "/" {
		infos, err := c.def.List(ctx, path)
		if err != nil {
			return nil, err
		}
		for _, r := range c.routes {
			infos = append(infos, FileInfo{Path: r.Prefix, IsDir: true})
		}
		sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
		return infos, nil
	}

	return c.def.List(ctx, path)
}

func (c *Composite) Read(ctx context.Context, path string, offset, limit int) (string, error) {
	backend, stripped := c.resolve(path)
	return backend.Read(ctx, stripped, offset, limit)
}

func (c *Composite) Write(ctx context.Context, path, content string) (string, error) {
	backend, stripped := c.resolve(path)
	if _, err := backend.Write(ctx, stripped, content); err != nil {
		return "", err
	}
	return path, nil
}

func (c *Composite) Edit(ctx context.Context, path, oldString, newString string, replaceAll bool) (EditResult, error) {
	backend, stripped := c.resolve(path)
	res, err := backend.Edit(ctx, stripped, oldString, newString, replaceAll)
	if err != nil {
		return EditResult{}, err
	}
	res.Path = path
	return res, nil
}

func (c *Composite) Grep(ctx context.Context, pattern, path, glob string) ([]GrepMatch, error) {
	if path == "" {
		path = "/"
	}

	// Scoped to one route's subtree: resolve once and rewrite.
	for _, r := range c.byLength {
		stripped, ok := matchRoute(r, path)
		if !ok {
			continue
		}
		matches, err := r.Backend.Grep(ctx, pattern, stripped, glob)
		if err != nil {
			return nil, err
		}
		for i := range matches {
			matches[i].Path = reprefix(r.Prefix, matches[i].Path)
		}
		return matches, nil
	}

	// Whole namespace: default backend first at the caller's path, then
	// every route at its own root, in registration order. The first
	// error from any backend (an invalid pattern, typically) aborts the
	// whole operation unchanged rather than surfacing a partial result.
	all, err := c.def.Grep(ctx, pattern, path, glob)
	if err != nil {
		return nil, err
	}
	for _, r := range c.routes {
		matches, err := r.Backend.Grep(ctx, pattern, "/", glob)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			m.Path = reprefix(r.Prefix, m.Path)
			all = append(all, m)
		}
	}
	return all, nil
}

func (c *Composite) Glob(ctx context.Context, pattern, path string) ([]FileInfo, error) {
	if path == "" {
		path = "/"
	}

	for _, r := range c.byLength {
		stripped, ok := matchRoute(r, path)
		if !ok {
			continue
		}
		infos, err := r.Backend.Glob(ctx, pattern, stripped)
		if err != nil {
			return nil, err
		}
		for i := range infos {
			infos[i].Path = reprefix(r.Prefix, infos[i].Path)
		}
		return infos, nil
	}

	all, err := c.def.Glob(ctx, pattern, path)
	if err != nil {
		return nil, err
	}
	for _, r := range c.routes {
		infos, err := r.Backend.Glob(ctx, pattern, "/")
		if err != nil {
			return nil, err
		}
		for _, fi := range infos {
			fi.Path = reprefix(r.Prefix, fi.Path)
			all = append(all, fi)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Path < all[j].Path })
	return all, nil
}

// Compile-time interface check.
var _ Backend = (*Composite)(nil)
