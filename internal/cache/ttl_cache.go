package cache

import (
	"log/slog"
	"sync"
	"time"

	"diamond-catalog-api/internal/clock"
)

// Config holds the timing and dependencies of a TTLCache
type Config struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	Clock           clock.Clock
	Logger          *slog.Logger
	Name            string
	// MaxEntries caps the entry count; zero means unbounded
	MaxEntries      int
}

// Reason says why an entry left the cache
type Reason string

const (
	ReasonExpired  Reason = "expired"
	ReasonDeleted  Reason = "deleted"
	ReasonPurged   Reason = "purged"
	ReasonCapacity Reason = "capacity"
)

// entry represents a cached item with expiration time
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache implements a thread-safe cache with TTL (Time To Live) functionality
type TTLCache[K comparable, V any] struct {
	items    map[K]*entry[V]
	mutex    sync.Mutex
	ttl        time.Duration
	interval   time.Duration
	maxEntries int
	clock      clock.Clock
	logger     *slog.Logger
	onEvict    func(K, V, Reason)

	cleanupTimer clock.Timer
	stopped      bool
}

// Stats is a point-in-time view of the cache contents
type Stats struct {
	TotalEntries   int    `json:"totalEntries"`
	ActiveEntries  int    `json:"activeEntries"`
	ExpiredEntries int    `json:"expiredEntries"`
	TTL            string `json:"ttl"`
}

// New creates a TTL cache and schedules periodic cleanup. onEvict, when not
// nil, is called with the reason for every entry removed other than by
// Clear, outside the cache lock.
func New[K comparable, V any](cfg Config, onEvict func(K, V, Reason)) *TTLCache[K, V] {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Name != "" {
		cfg.Logger = cfg.Logger.With("cache", cfg.Name)
	}

	c := &TTLCache[K, V]{
		items:      make(map[K]*entry[V]),
		ttl:        cfg.TTL,
		interval:   cfg.CleanupInterval,
		maxEntries: cfg.MaxEntries,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
		onEvict:    onEvict,
	}

	if c.interval > 0 {
		c.cleanupTimer = c.clock.AfterFunc(c.interval, c.cleanupTick)
	}

	c.logger.Info("TTL cache initialized",
		"ttl", cfg.TTL.String(),
		"cleanup_interval", cfg.CleanupInterval.String(),
		"max_entries", cfg.MaxEntries)

	return c
}

// Set stores a value in the cache with TTL. A new key on a full cache
// pushes out the entry closest to expiry.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mutex.Lock()
	var (
		victimKey   K
		victimValue V
		hasVictim   bool
	)
	if _, exists := c.items[key]; !exists && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		victimKey, hasVictim = c.oldestLocked()
		if hasVictim {
			victimValue = c.items[victimKey].value
			delete(c.items, victimKey)
		}
	}

	expiresAt := c.clock.Now().Add(c.ttl)
	c.items[key] = &entry[V]{value: value, expiresAt: expiresAt}
	c.mutex.Unlock()

	c.logger.Debug("Cache entry set",
		"key", key,
		"expires_at", expiresAt.Format(time.RFC3339))

	if hasVictim {
		c.logger.Debug("Cache entry displaced", "key", victimKey)
		c.evict(victimKey, victimValue, ReasonCapacity)
	}
}

// oldestLocked returns the key expiring first. Callers hold the mutex.
func (c *TTLCache[K, V]) oldestLocked() (K, bool) {
	var (
		oldest K
		at     time.Time
		found  bool
	)
	for key, e := range c.items {
		if !found || e.expiresAt.Before(at) {
			oldest, at, found = key, e.expiresAt, true
		}
	}
	return oldest, found
}

// Get retrieves a value from the cache if it exists and hasn't expired
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	return c.get(key, false)
}

// GetAndTouch is Get that also restarts the entry's TTL
func (c *TTLCache[K, V]) GetAndTouch(key K) (V, bool) {
	return c.get(key, true)
}

func (c *TTLCache[K, V]) get(key K, touch bool) (V, bool) {
	var zero V

	c.mutex.Lock()
	e, exists := c.items[key]
	if !exists {
		c.mutex.Unlock()
		return zero, false
	}

	now := c.clock.Now()
	if !now.Before(e.expiresAt) {
		delete(c.items, key)
		c.mutex.Unlock()
		c.logger.Debug("Cache entry expired", "key", key)
		c.evict(key, e.value, ReasonExpired)
		return zero, false
	}

	if touch {
		e.expiresAt = now.Add(c.ttl)
	}
	c.mutex.Unlock()
	return e.value, true
}

// Delete removes a specific key from the cache and reports whether it was present
func (c *TTLCache[K, V]) Delete(key K) bool {
	c.mutex.Lock()
	e, exists := c.items[key]
	delete(c.items, key)
	c.mutex.Unlock()

	if !exists {
		return false
	}
	c.logger.Debug("Cache entry deleted", "key", key)
	c.evict(key, e.value, ReasonDeleted)
	return true
}

// Size returns the current number of items in the cache (including expired ones)
func (c *TTLCache[K, V]) Size() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.items)
}

// Clear removes all items from the cache without calling the eviction callback
func (c *TTLCache[K, V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	itemCount := len(c.items)
	c.items = make(map[K]*entry[V])

	c.logger.Info("Cache cleared", "removed_items", itemCount)
}

// Purge removes every entry, calling the eviction callback for each
func (c *TTLCache[K, V]) Purge() int {
	c.mutex.Lock()
	items := c.items
	c.items = make(map[K]*entry[V])
	c.mutex.Unlock()

	for key, e := range items {
		c.evict(key, e.value, ReasonPurged)
	}
	return len(items)
}

// Stop ends periodic cleanup. Entries stay readable.
func (c *TTLCache[K, V]) Stop() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.stopped {
		return
	}
	c.stopped = true
	if c.cleanupTimer != nil {
		c.cleanupTimer.Stop()
	}
	c.logger.Info("TTL cache stopped")
}

// Cleanup removes expired entries and returns how many were removed
func (c *TTLCache[K, V]) Cleanup() int {
	type evicted struct {
		key   K
		value V
	}

	c.mutex.Lock()
	now := c.clock.Now()
	var expired []evicted
	for key, e := range c.items {
		if !now.Before(e.expiresAt) {
			expired = append(expired, evicted{key, e.value})
			delete(c.items, key)
		}
	}
	remaining := len(c.items)
	c.mutex.Unlock()

	for _, e := range expired {
		c.evict(e.key, e.value, ReasonExpired)
	}

	if len(expired) > 0 {
		c.logger.Debug("Cache cleanup completed",
			"expired_entries", len(expired),
			"remaining_entries", remaining)
	}
	return len(expired)
}

// Stats returns cache statistics
func (c *TTLCache[K, V]) Stats() Stats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.clock.Now()
	stats := Stats{TotalEntries: len(c.items), TTL: c.ttl.String()}
	for _, e := range c.items {
		if now.Before(e.expiresAt) {
			stats.ActiveEntries++
		} else {
			stats.ExpiredEntries++
		}
	}
	return stats
}

// cleanupTick runs one cleanup pass and schedules the next
func (c *TTLCache[K, V]) cleanupTick() {
	c.Cleanup()

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.stopped {
		c.cleanupTimer = c.clock.AfterFunc(c.interval, c.cleanupTick)
	}
}

func (c *TTLCache[K, V]) evict(key K, value V, reason Reason) {
	if c.onEvict != nil {
		c.onEvict(key, value, reason)
	}
}
