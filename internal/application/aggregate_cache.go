package application

import (
	"sync"
	"time"

	"github.com/example/course-admin/internal/timeutil"
)

// aggregateCache stores recently computed daily attendance summaries to avoid
// recomputing the org-wide rollup for identical queries while attendance data
// remains unchanged. Any attendance write for an organization invalidates its
// cached days.
type aggregateCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]aggregateCacheEntry
}

type aggregateCacheEntry struct {
	summary   AttendanceSummary
	expiresAt time.Time
}

func newAggregateCache(ttl time.Duration, maxEntries int, now func() time.Time) *aggregateCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &aggregateCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]aggregateCacheEntry),
	}
}

func (c *aggregateCache) Get(key string) (AttendanceSummary, bool) {
	if c == nil {
		return AttendanceSummary{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return AttendanceSummary{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return AttendanceSummary{}, false
	}
	return entry.summary, true
}

func (c *aggregateCache) Store(key string, summary AttendanceSummary) {
	if c == nil {
		return
	}
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = aggregateCacheEntry{summary: summary, expiresAt: expiry}
}

// InvalidateOrganization drops every cached day of one organization.
func (c *aggregateCache) InvalidateOrganization(organizationID string) {
	if c == nil {
		return
	}
	prefix := organizationID + "\x00"

	c.mu.Lock()
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

func (c *aggregateCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *aggregateCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func buildAggregateCacheKey(organizationID string, date time.Time, loc *time.Location) string {
	return organizationID + "\x00" + timeutil.FormatDate(date, loc)
}
