// Package cache is the durable, time-boxed cache in front of the price
// pipeline. Each logical collection is one store key holding
// {data, timestamp, version}; collections expire independently.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/seenimoa/agriprice/internal/infra"
	"github.com/seenimoa/agriprice/internal/store"
)

// Store keys.
const (
	CollectionCommodities = "cached_commodities"
	CollectionPrices      = "cached_prices"
	CollectionCategories  = "cached_categories"
	LastUpdatedKey        = "last_data_update"
)

// Collections lists the cached collections in display order.
var Collections = []string{CollectionCommodities, CollectionPrices, CollectionCategories}

const (
	// Version is written with every entry. Entries with another version
	// are treated as misses.
	Version = "1.0"
	// DefaultTTL is how long an entry stays valid after it is written.
	DefaultTTL = 24 * time.Hour
)

// Entry is the persisted shape of one collection.
type Entry[T any] struct {
	Data      []T    `json:"data"`
	Timestamp int64  `json:"timestamp"` // epoch millis
	Version   string `json:"version"`
}

// Time returns the entry timestamp.
func (e Entry[T]) Time() time.Time { return time.UnixMilli(e.Timestamp) }

// Cache wraps a store.KV with TTL bookkeeping.
type Cache struct {
	kv    store.KV
	clock infra.Clock
	ttl   time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock injects the time source.
func WithClock(c infra.Clock) Option {
	return func(ca *Cache) {
		if c != nil {
			ca.clock = c
		}
	}
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(ca *Cache) {
		if ttl > 0 {
			ca.ttl = ttl
		}
	}
}

// New creates a cache over kv.
func New(kv store.KV, opts ...Option) *Cache {
	c := &Cache{kv: kv, clock: infra.SystemClock{}, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the validity window.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Now returns the cache clock's current time.
func (c *Cache) Now() time.Time { return c.clock.Now() }

// --- Typed access ---

// Load returns the whole entry for a collection. Missing, unreadable and
// wrong-version entries are all reported as a miss.
func Load[T any](ctx context.Context, c *Cache, collection string) (Entry[T], bool) {
	var e Entry[T]
	raw, ok := c.read(ctx, collection)
	if !ok {
		return e, false
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		logx.WithContext(ctx).Errorf("cache: corrupt entry collection=%s err=%v", collection, err)
		return Entry[T]{}, false
	}
	if e.Version != Version {
		logx.WithContext(ctx).Errorf("cache: unexpected version collection=%s version=%q", collection, e.Version)
		return Entry[T]{}, false
	}
	return e, true
}

// Get returns the stored payload regardless of freshness, or nil.
func Get[T any](ctx context.Context, c *Cache, collection string) []T {
	e, ok := Load[T](ctx, c, collection)
	if !ok {
		return nil
	}
	return e.Data
}

// Put replaces the collection with data stamped with the current time.
// The entry is written with a single backend Set.
func Put[T any](ctx context.Context, c *Cache, collection string, data []T) error {
	if data == nil {
		data = []T{}
	}
	e := Entry[T]{Data: data, Timestamp: c.clock.Now().UnixMilli(), Version: Version}
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", collection, err)
	}
	if err := c.kv.Set(ctx, collection, raw); err != nil {
		return fmt.Errorf("cache: write %s: %w", collection, err)
	}
	return nil
}

// --- Untyped operations ---

type meta struct {
	Timestamp int64           `json:"timestamp"`
	Version   string          `json:"version"`
	Data      json.RawMessage `json:"data"`
}

func (c *Cache) meta(ctx context.Context, collection string) (meta, bool) {
	var m meta
	raw, ok := c.read(ctx, collection)
	if !ok {
		return m, false
	}
	if err := json.Unmarshal(raw, &m); err != nil || m.Version != Version {
		if err == nil {
			err = fmt.Errorf("version %q", m.Version)
		}
		logx.WithContext(ctx).Errorf("cache: corrupt entry collection=%s err=%v", collection, err)
		return meta{}, false
	}
	return m, true
}

// IsValid reports whether the collection exists and is younger than the TTL.
func (c *Cache) IsValid(ctx context.Context, collection string) bool {
	m, ok := c.meta(ctx, collection)
	if !ok {
		return false
	}
	age := c.clock.Now().Sub(time.UnixMilli(m.Timestamp))
	return age < c.ttl
}

// Clear removes every collection and the last-updated marker.
func (c *Cache) Clear(ctx context.Context) error {
	keys := append(append([]string(nil), Collections...), LastUpdatedKey)
	if err := c.kv.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("cache: clear: %w", err)
	}
	return nil
}

// Touch records the current time as the last successful remote refresh.
func (c *Cache) Touch(ctx context.Context) error {
	ms := strconv.FormatInt(c.clock.Now().UnixMilli(), 10)
	if err := c.kv.Set(ctx, LastUpdatedKey, []byte(ms)); err != nil {
		return fmt.Errorf("cache: touch: %w", err)
	}
	return nil
}

// LastUpdated returns the time written by the most recent Touch.
func (c *Cache) LastUpdated(ctx context.Context) (time.Time, bool) {
	raw, ok := c.read(ctx, LastUpdatedKey)
	if !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		logx.WithContext(ctx).Errorf("cache: corrupt %s value=%q", LastUpdatedKey, raw)
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// CollectionStatus describes one cached collection.
type CollectionStatus struct {
	Collection string        `json:"collection"`
	Present    bool          `json:"present"`
	Valid      bool          `json:"valid"`
	Items      int           `json:"items"`
	UpdatedAt  time.Time     `json:"updated_at,omitzero"`
	Age        time.Duration `json:"age_ns,omitzero"`
}

// Status summarises the cache for operators.
type Status struct {
	TTL         time.Duration      `json:"ttl_ns"`
	LastUpdated *time.Time         `json:"last_updated,omitempty"`
	Collections []CollectionStatus `json:"collections"`
}

// Status reports presence, size and freshness of every collection.
func (c *Cache) Status(ctx context.Context) Status {
	now := c.clock.Now()
	st := Status{TTL: c.ttl}
	if t, ok := c.LastUpdated(ctx); ok {
		st.LastUpdated = &t
	}
	for _, col := range Collections {
		cs := CollectionStatus{Collection: col}
		if m, ok := c.meta(ctx, col); ok {
			var items []json.RawMessage
			if err := json.Unmarshal(m.Data, &items); err != nil {
				logx.WithContext(ctx).Errorf("cache: corrupt data collection=%s err=%v", col, err)
			}
			cs.Present = true
			cs.Items = len(items)
			cs.UpdatedAt = time.UnixMilli(m.Timestamp)
			cs.Age = now.Sub(cs.UpdatedAt)
			cs.Valid = cs.Age < c.ttl
		}
		st.Collections = append(st.Collections, cs)
	}
	return st
}

func (c *Cache) read(ctx context.Context, key string) ([]byte, bool) {
	raw, err := c.kv.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false
	}
	if err != nil {
		logx.WithContext(ctx).Errorf("cache: read key=%s err=%v", key, err)
		return nil, false
	}
	return raw, true
}
