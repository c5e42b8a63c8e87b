package markup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/text/language"
)

// CacheConfig configures a template cache.
type CacheConfig struct {
	// PreloadWorkers sizes the worker pool used by Preload.
	PreloadWorkers int

	// Logger receives preload failures. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{PreloadWorkers: 4}
}

// Cache holds parsed templates keyed by name and locale. It is safe
// for concurrent use; distinct requests may render on distinct
// goroutines against the same cache.
type Cache struct {
	locator *Locator
	entries cmap.ConcurrentMap[string, *Markup]
	pool    *ants.Pool
	logger  *slog.Logger
}

// NewCache returns a Cache resolving templates through locator.
func NewCache(locator *Locator, cfg CacheConfig) (*Cache, error) {
	if cfg.PreloadWorkers <= 0 {
		cfg.PreloadWorkers = DefaultCacheConfig().PreloadWorkers
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := ants.NewPool(cfg.PreloadWorkers)
	if err != nil {
		return nil, fmt.Errorf("markup: cache pool: %w", err)
	}
	return &Cache{
		locator: locator,
		entries: cmap.New[*Markup](),
		pool:    pool,
		logger:  logger.With("component", "markup"),
	}, nil
}

func cacheKey(name string, locale language.Tag) string {
	return name + "|" + locale.String()
}

// Get returns the parsed template for name under locale, loading and
// caching it on first use.
func (c *Cache) Get(ctx context.Context, name string, locale language.Tag) (*Markup, error) {
	key := cacheKey(name, locale)
	if m, ok := c.entries.Get(key); ok {
		return m, nil
	}
	m, err := c.load(ctx, name, locale)
	if err != nil {
		return nil, err
	}
	c.entries.Set(key, m)
	return m, nil
}

func (c *Cache) load(ctx context.Context, name string, locale language.Tag) (*Markup, error) {
	s, location, err := c.locator.Locate(ctx, name, locale)
	if err != nil {
		return nil, err
	}
	rc, err := s.Open()
	if err != nil {
		return nil, fmt.Errorf("markup: open %s: %w", location, err)
	}
	defer rc.Close()

	m, err := Parse(name, rc)
	if err != nil {
		return nil, err
	}
	m.Location = location
	m.ModTime = s.ModTime()
	return m, nil
}

// Preload schedules background parses for the given template names so
// first requests do not pay the parse cost. Failures are logged, not
// returned; a missing template surfaces on Get.
func (c *Cache) Preload(ctx context.Context, locale language.Tag, names ...string) {
	for _, name := range names {
		err := c.pool.Submit(func() {
			if _, err := c.Get(ctx, name, locale); err != nil {
				c.logger.Warn("template preload failed", "name", name, "error", err)
			}
		})
		if err != nil {
			c.logger.Warn("template preload not scheduled", "name", name, "error", err)
		}
	}
}

// Invalidate drops every cached locale variant of name, returning the
// number of entries removed.
func (c *Cache) Invalidate(name string) int {
	prefix := name + "|"
	removed := 0
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
			removed++
		}
	}
	return removed
}

// Clear drops every cached template.
func (c *Cache) Clear() {
	c.entries.Clear()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.entries.Count()
}

// Close releases the preload worker pool.
func (c *Cache) Close() {
	c.pool.Release()
}
