package dashboard

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// RenderCache memoizes rendered chart HTML.
type RenderCache interface {
	GetOrRender(key string, render func() (string, error)) (string, error)
}

// ChartCache is an in-memory TTL cache for rendered charts. Keys start with
// the widget instance id so a refreshed widget can drop its entries.
type ChartCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]cachedChart
}

type cachedChart struct {
	html    string
	expires time.Time
}

// NewChartCache builds a cache; a ttl of zero or less disables caching.
func NewChartCache(ttl time.Duration) *ChartCache {
	return &ChartCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedChart),
	}
}

// GetOrRender returns the live entry for key or renders and stores a new one.
// Render errors are not cached.
func (c *ChartCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if c == nil || c.ttl <= 0 {
		return render()
	}
	now := c.now()
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && now.Before(entry.expires) {
		c.mu.Unlock()
		return entry.html, nil
	}
	delete(c.entries, key)
	c.mu.Unlock()

	html, err := render()
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.entries[key] = cachedChart{html: html, expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return html, nil
}

// Invalidate drops every entry of the widget instance and returns the count.
func (c *ChartCache) Invalidate(instanceID string) int {
	if c == nil || instanceID == "" {
		return 0
	}
	prefix := instanceID + "|"
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of stored entries, expired ones included.
func (c *ChartCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// chartCacheKey scopes a rendered chart to its instance, the viewer's
// salesperson and locale, the chart type and the configuration.
func chartCacheKey(meta WidgetContext, chartType string, cfg map[string]any) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s",
		meta.Instance.ID,
		viewerScope(meta.Viewer),
		meta.Viewer.Locale,
		chartType,
		configHash(cfg),
	)
}

func configHash(cfg map[string]any) string {
	if len(cfg) == 0 {
		return "empty"
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return "invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
