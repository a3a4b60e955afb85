package audit

import (
	"path/filepath"
	"sync"

	"maraudit/internal/geometry"
	"maraudit/internal/layout"
)

// PageLayout is the cached geometry and parameter strips of one page.
type PageLayout struct {
	Geometry *geometry.PageGeometry
	Strips   []layout.Strip
}

// LayoutCache memoizes per-page layout by canonical document path for
// the lifetime of the process. Workers never write to it; the run
// coordinator stores entries after all page work completes, and
// entries are never invalidated.
type LayoutCache struct {
	mu      sync.RWMutex
	entries map[string]map[int]PageLayout
}

func NewLayoutCache() *LayoutCache {
	return &LayoutCache{entries: make(map[string]map[int]PageLayout)}
}

// CanonicalPath resolves a document path to the cache key form.
func CanonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// Get returns the cached layout of one page, if present.
func (c *LayoutCache) Get(path string, page int) (PageLayout, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pages, ok := c.entries[path]
	if !ok {
		return PageLayout{}, false
	}
	pl, ok := pages[page]
	return pl, ok
}

// Put stores one page's layout. Existing entries are kept as-is; the
// cache is append-only within a run.
func (c *LayoutCache) Put(path string, page int, pl PageLayout) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pages, ok := c.entries[path]
	if !ok {
		pages = make(map[int]PageLayout)
		c.entries[path] = pages
	}
	if _, exists := pages[page]; !exists {
		pages[page] = pl
	}
}

// Len reports how many pages are cached for a path.
func (c *LayoutCache) Len(path string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries[path])
}
