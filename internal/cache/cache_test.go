package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/logx/logtest"

	"github.com/seenimoa/agriprice/internal/infra"
	"github.com/seenimoa/agriprice/internal/store"
	"github.com/seenimoa/agriprice/pkg/models"
)

var t0 = time.Date(2025, 9, 20, 8, 0, 0, 0, time.UTC)

func newTestCache() (*Cache, *store.Memory, *infra.ManualClock) {
	kv := store.NewMemory()
	clock := infra.NewManualClock(t0)
	return New(kv, WithClock(clock)), kv, clock
}

func TestPutThenValidUntilTTL(t *testing.T) {
	ctx := context.Background()
	c, _, clock := newTestCache()

	for _, col := range Collections {
		assert.False(t, c.IsValid(ctx, col), "empty cache")
		require.NoError(t, Put(ctx, c, col, []string{"x"}))
		assert.True(t, c.IsValid(ctx, col), "immediately after put")
	}

	clock.Advance(DefaultTTL - time.Millisecond)
	assert.True(t, c.IsValid(ctx, CollectionPrices))

	clock.Advance(time.Millisecond)
	assert.False(t, c.IsValid(ctx, CollectionPrices), "expired at exactly TTL")

	// Expired data is still readable.
	assert.Equal(t, []string{"x"}, Get[string](ctx, c, CollectionPrices))
}

func TestCollectionsExpireIndependently(t *testing.T) {
	ctx := context.Background()
	c, _, clock := newTestCache()

	require.NoError(t, Put(ctx, c, CollectionCommodities, []int{1}))
	clock.Advance(20 * time.Hour)
	require.NoError(t, Put(ctx, c, CollectionCategories, []int{2}))
	clock.Advance(5 * time.Hour)

	assert.False(t, c.IsValid(ctx, CollectionCommodities))
	assert.True(t, c.IsValid(ctx, CollectionCategories))
}

func TestPutIsIdempotentAndRestamps(t *testing.T) {
	ctx := context.Background()
	c, _, clock := newTestCache()
	rows := []models.RawPriceRow{{Commodity: "Tilapia", Type: "Tilapia", Amount: models.Amt(125), Date: "2025-09-20"}}

	require.NoError(t, Put(ctx, c, CollectionPrices, rows))
	clock.Advance(time.Hour)
	require.NoError(t, Put(ctx, c, CollectionPrices, rows))

	e, ok := Load[models.RawPriceRow](ctx, c, CollectionPrices)
	require.True(t, ok)
	assert.Equal(t, rows, e.Data)
	assert.Equal(t, t0.Add(time.Hour).UnixMilli(), e.Timestamp)
	assert.Equal(t, Version, e.Version)
}

func TestPutNilStoresEmptyList(t *testing.T) {
	ctx := context.Background()
	c, kv, _ := newTestCache()
	require.NoError(t, Put[string](ctx, c, CollectionCategories, nil))

	raw, err := kv.Get(ctx, CollectionCategories)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"timestamp":1758355200000,"version":"1.0"}`, string(raw))
}

func TestCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, kv, _ := newTestCache()

	require.NoError(t, kv.Set(ctx, CollectionPrices, []byte("{not json")))
	assert.Nil(t, Get[models.RawPriceRow](ctx, c, CollectionPrices))
	assert.False(t, c.IsValid(ctx, CollectionPrices))

	require.NoError(t, kv.Set(ctx, CollectionPrices, []byte(`{"data":[],"timestamp":1758355200000,"version":"0.9"}`)))
	assert.Nil(t, Get[models.RawPriceRow](ctx, c, CollectionPrices))
	assert.False(t, c.IsValid(ctx, CollectionPrices))
}

type failingKV struct{ store.KV }

func (failingKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk on fire") }
func (failingKV) Set(context.Context, string, []byte) error   { return errors.New("disk on fire") }
func (failingKV) Delete(context.Context, ...string) error     { return errors.New("disk on fire") }

func TestBackendErrors(t *testing.T) {
	ctx := context.Background()
	c := New(failingKV{})

	assert.Nil(t, Get[string](ctx, c, CollectionPrices), "read failure is a miss")
	assert.False(t, c.IsValid(ctx, CollectionPrices))
	assert.Error(t, Put(ctx, c, CollectionPrices, []string{"x"}))
	assert.Error(t, c.Touch(ctx))
	assert.Error(t, c.Clear(ctx))
}

func TestClearRemovesEverything(t *testing.T) {
	ctx := context.Background()
	c, kv, _ := newTestCache()

	for _, col := range Collections {
		require.NoError(t, Put(ctx, c, col, []string{"x"}))
	}
	require.NoError(t, c.Touch(ctx))
	require.NoError(t, kv.Set(ctx, "unrelated", []byte("keep")))

	require.NoError(t, c.Clear(ctx))
	for _, col := range Collections {
		assert.Nil(t, Get[string](ctx, c, col))
	}
	_, ok := c.LastUpdated(ctx)
	assert.False(t, ok)
	_, err := kv.Get(ctx, "unrelated")
	assert.NoError(t, err)
}

func TestTouchWritesEpochMillis(t *testing.T) {
	ctx := context.Background()
	c, kv, _ := newTestCache()

	require.NoError(t, c.Touch(ctx))
	raw, err := kv.Get(ctx, LastUpdatedKey)
	require.NoError(t, err)
	assert.Equal(t, "1758355200000", string(raw))

	got, ok := c.LastUpdated(ctx)
	require.True(t, ok)
	assert.True(t, got.Equal(t0))

	require.NoError(t, kv.Set(ctx, LastUpdatedKey, []byte("yesterday")))
	_, ok = c.LastUpdated(ctx)
	assert.False(t, ok)
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	c, _, clock := newTestCache()

	require.NoError(t, Put(ctx, c, CollectionPrices, []int{1, 2, 3}))
	require.NoError(t, c.Touch(ctx))
	clock.Advance(2 * time.Hour)

	st := c.Status(ctx)
	assert.Equal(t, DefaultTTL, st.TTL)
	require.NotNil(t, st.LastUpdated)
	require.Len(t, st.Collections, 3)

	byName := map[string]CollectionStatus{}
	for _, cs := range st.Collections {
		byName[cs.Collection] = cs
	}
	prices := byName[CollectionPrices]
	assert.True(t, prices.Present)
	assert.True(t, prices.Valid)
	assert.Equal(t, 3, prices.Items)
	assert.Equal(t, 2*time.Hour, prices.Age)
	assert.False(t, byName[CollectionCommodities].Present)
}

func TestStatusLogsMalformedData(t *testing.T) {
	ctx := context.Background()
	c, kv, _ := newTestCache()
	logs := logtest.NewCollector(t)

	raw := `{"data":{"rows":1},"timestamp":1758355200000,"version":"` + Version + `"}`
	require.NoError(t, kv.Set(ctx, CollectionPrices, []byte(raw)))

	for _, cs := range c.Status(ctx).Collections {
		if cs.Collection != CollectionPrices {
			continue
		}
		assert.True(t, cs.Present)
		assert.Zero(t, cs.Items)
	}
	assert.Contains(t, logs.String(), "corrupt data collection=cached_prices")
}

func TestWithTTL(t *testing.T) {
	ctx := context.Background()
	clock := infra.NewManualClock(t0)
	c := New(store.NewMemory(), WithClock(clock), WithTTL(time.Minute))
	require.NoError(t, Put(ctx, c, CollectionPrices, []int{1}))
	clock.Advance(time.Minute)
	assert.False(t, c.IsValid(ctx, CollectionPrices))
	assert.Equal(t, time.Minute, c.TTL())
}
