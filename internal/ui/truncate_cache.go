package ui

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// LabelCache caches ANSI-aware fitting of sidebar and header labels, which
// are re-rendered on every frame.
// Thread-safe for concurrent access.
type LabelCache struct {
	mu      sync.RWMutex
	entries map[labelKey]string
	maxSize int
	hits    atomic.Int64
	misses  atomic.Int64
}

type labelKey struct {
	hash   uint64
	length int // collision guard
	width  int
	tail   string
	pad    bool
}

// NewLabelCache creates a cache holding at most maxSize entries; when
// exceeded, the cache is cleared.
func NewLabelCache(maxSize int) *LabelCache {
	return &LabelCache{
		entries: make(map[labelKey]string, maxSize),
		maxSize: maxSize,
	}
}

// Truncate cuts content to width cells, appending tail when cut.
func (c *LabelCache) Truncate(content string, width int, tail string) string {
	if width <= 0 {
		return content
	}
	return c.lookup(content, width, tail, false, func() string {
		return ansi.Truncate(content, width, tail)
	})
}

// Fit truncates content to width cells and pads it with spaces to exactly
// width cells.
func (c *LabelCache) Fit(content string, width int) string {
	if width <= 0 {
		return ""
	}
	return c.lookup(content, width, fitTail, true, func() string {
		s := ansi.Truncate(content, width, fitTail)
		if w := ansi.StringWidth(s); w < width {
			s += runewidth.FillRight("", width-w)
		}
		return s
	})
}

const fitTail = "…"

func (c *LabelCache) lookup(content string, width int, tail string, pad bool, compute func() string) string {
	if c == nil {
		return compute()
	}
	key := labelKey{
		hash:   xxhash.Sum64String(content),
		length: len(content),
		width:  width,
		tail:   tail,
		pad:    pad,
	}

	c.mu.RLock()
	if result, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		c.hits.Add(1)
		return result
	}
	c.mu.RUnlock()

	c.misses.Add(1)
	result := compute()

	c.mu.Lock()
	if len(c.entries) >= c.maxSize {
		c.entries = make(map[labelKey]string, c.maxSize)
	}
	c.entries[key] = result
	c.mu.Unlock()
	return result
}

// Clear removes all cached entries. Call on resize.
func (c *LabelCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[labelKey]string, c.maxSize)
	c.mu.Unlock()
}

// Size returns the number of cached entries.
func (c *LabelCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *LabelCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
