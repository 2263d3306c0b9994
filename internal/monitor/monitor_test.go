package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/agriprice/internal/cache"
	"github.com/seenimoa/agriprice/internal/catalog"
	"github.com/seenimoa/agriprice/internal/config"
	"github.com/seenimoa/agriprice/internal/forecast"
	"github.com/seenimoa/agriprice/internal/infra"
	"github.com/seenimoa/agriprice/internal/remote"
	"github.com/seenimoa/agriprice/internal/store"
	"github.com/seenimoa/agriprice/pkg/models"
)

// Wednesday 2025-09-17 10:00 PHT.
var wednesday = time.Date(2025, 9, 17, 2, 0, 0, 0, time.UTC)

type fakeSource struct {
	calls   atomic.Int32
	resets  atomic.Int32
	records []models.PriceRecord
	rows    []models.RawPriceRow
	tier    string
	// tiers, when set, names the answering tier per call; tier is used
	// once it runs out.
	tiers   []string
	release chan struct{}
}

func (f *fakeSource) Fetch(ctx context.Context, cat *catalog.Catalog, opts ...remote.FetchOption) (remote.Result, error) {
	n := int(f.calls.Add(1))
	if f.release != nil {
		<-f.release
	}
	tier := f.tier
	if n <= len(f.tiers) {
		tier = f.tiers[n-1]
	}
	return remote.Result{Records: slices.Clone(f.records), Rows: slices.Clone(f.rows), Tier: tier}, nil
}

func (f *fakeSource) ResetMemo() { f.resets.Add(1) }

// countingKV counts writes per key.
type countingKV struct {
	store.KV
	mu     sync.Mutex
	writes map[string]int
}

func (c *countingKV) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.writes[key]++
	c.mu.Unlock()
	return c.KV.Set(ctx, key, value)
}

func (c *countingKV) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes[key]
}

func testCatalog(t *testing.T, names ...string) *catalog.Catalog {
	t.Helper()
	def := catalog.Default()
	entries := make([]models.CommodityDescriptor, 0, len(names))
	for _, n := range names {
		ref, ok := def.Reference(n)
		require.True(t, ok, n)
		entries = append(entries, ref.Descriptor())
	}
	cat, err := catalog.New(entries, catalog.References())
	require.NoError(t, err)
	return cat
}

type fixture struct {
	mon   *Monitor
	cache *cache.Cache
	kv    *countingKV
	clock *infra.ManualClock
}

func newFixture(t *testing.T, cat *catalog.Catalog, src PriceSource) fixture {
	t.Helper()
	clock := infra.NewManualClock(wednesday)
	kv := &countingKV{KV: store.NewMemory(), writes: map[string]int{}}
	c := cache.New(kv, cache.WithClock(clock))
	m, err := New(cat, c, src, forecast.NewEngine(clock), WithClock(clock), WithWorkers(2))
	require.NoError(t, err)
	return fixture{mon: m, cache: c, kv: kv, clock: clock}
}

func tilapiaRecord() models.PriceRecord {
	return models.PriceRecord{
		CommodityName:      "Tilapia",
		Price:              130,
		Unit:               "kg",
		PriceChange:        5,
		PriceChangePercent: 4,
		Date:               "2025-09-17",
		Source:             models.SourceRemote,
		Region:             "NCR",
	}
}

func tilapiaRow() models.RawPriceRow {
	return models.RawPriceRow{Commodity: "Tilapia", Type: "Tilapia", Amount: models.Amt(130), Date: "2025-09-17"}
}

func liveSource() *fakeSource {
	return &fakeSource{
		records: []models.PriceRecord{tilapiaRecord()},
		rows:    []models.RawPriceRow{tilapiaRow()},
		tier:    remote.TierLive,
	}
}

func TestNewRejectsInvalidCatalog(t *testing.T) {
	_, err := New(nil, cache.New(store.NewMemory()), &fakeSource{}, nil)
	assert.ErrorIs(t, err, catalog.ErrInvalidEntry)
}

func TestTierOrder(t *testing.T) {
	f := newFixture(t, testCatalog(t, "Tilapia"), &fakeSource{})
	assert.Equal(t, []string{TierStored, TierSnapshot, TierRemote}, f.mon.Tiers())
}

func TestUnreachableReportFallsBackToSynthetic(t *testing.T) {
	clock := infra.NewManualClock(wednesday)
	src := remote.New(config.SourceConfig{ReportURL: "http://127.0.0.1:1/report", TimeoutSec: 1},
		remote.WithClock(clock),
		remote.WithLimiter(infra.NewRateLimiter(1000, time.Millisecond)))
	c := cache.New(store.NewMemory(), cache.WithClock(clock))
	m, err := New(testCatalog(t, "Bangus"), c, src, nil, WithClock(clock))
	require.NoError(t, err)

	ctx := context.Background()
	got, tier, err := m.CurrentPrices(ctx)
	require.NoError(t, err)
	assert.Equal(t, TierRemote, tier)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Price)
	assert.Equal(t, "fish-bangus", got[0].Price.CommodityID)
	assert.Equal(t, models.SourceSynthetic, got[0].Price.Source)
	assert.Greater(t, got[0].Price.Price, 0.0)
	require.NotNil(t, got[0].Forecast)
	assert.Equal(t, "fish-bangus", got[0].Forecast.CommodityID)

	// Synthetic estimates are cached as a snapshot but never become
	// stored report rows.
	assert.True(t, c.IsValid(ctx, cache.CollectionCommodities))
	assert.Empty(t, m.StoredRows(ctx))
}

func TestStoredRowsWinWithoutRemoteCall(t *testing.T) {
	src := &fakeSource{records: []models.PriceRecord{tilapiaRecord()}, tier: remote.TierLive}
	f := newFixture(t, testCatalog(t, "Tilapia", "Corn (White)"), src)
	ctx := context.Background()

	_, err := f.mon.ImportStored(ctx, []models.RawPriceRow{
		{Commodity: "Tilapia", Type: "Tilapia", Amount: models.Amt(120), Date: "2025-09-16"},
		{Commodity: "Tilapia", Type: "Tilapia", Amount: models.Amt(125), Date: "2025-09-17"},
	})
	require.NoError(t, err)

	got, tier, err := f.mon.CurrentPrices(ctx)
	require.NoError(t, err)
	assert.Equal(t, TierStored, tier)
	assert.Zero(t, src.calls.Load())
	require.Len(t, got, 2)

	tilapia := got[0]
	require.NotNil(t, tilapia.Price)
	assert.Equal(t, 125.0, tilapia.Price.Price)
	assert.Equal(t, models.SourcePersisted, tilapia.Price.Source)
	assert.Equal(t, "fish-tilapia", tilapia.Price.CommodityID)
	require.NotNil(t, tilapia.Trend)
	assert.Equal(t, 120.0, tilapia.Trend.PreviousPrice)
	assert.Equal(t, 5.0, tilapia.Trend.Change)
	assert.Equal(t, 4.17, tilapia.Trend.ChangePercent)

	assert.Equal(t, "Corn (White)", got[1].Name)
	assert.Nil(t, got[1].Price)
}

func TestSnapshotServesUntilExpiry(t *testing.T) {
	src := &fakeSource{records: []models.PriceRecord{{
		CommodityName: "Bangus", Price: 190, Unit: "kg", Date: "2025-09-17", Source: models.SourceSynthetic,
	}}, tier: remote.TierSynthetic}
	f := newFixture(t, testCatalog(t, "Bangus"), src)
	ctx := context.Background()

	_, tier, err := f.mon.CurrentPrices(ctx)
	require.NoError(t, err)
	assert.Equal(t, TierRemote, tier)

	got, tier, err := f.mon.CurrentPrices(ctx)
	require.NoError(t, err)
	assert.Equal(t, TierSnapshot, tier)
	assert.Equal(t, int32(1), src.calls.Load())
	require.NotNil(t, got[0].Price)
	assert.Equal(t, 190.0, got[0].Price.Price)

	f.clock.Advance(cache.DefaultTTL)
	_, tier, err = f.mon.CurrentPrices(ctx)
	require.NoError(t, err)
	assert.Equal(t, TierRemote, tier)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestRefreshEnrichesAndPersists(t *testing.T) {
	src := liveSource()
	f := newFixture(t, testCatalog(t, "Tilapia", "Corn (White)"), src)
	ctx := context.Background()

	var hooked []RefreshResult
	f.mon.OnRefresh(func(r RefreshResult) { hooked = append(hooked, r) })

	res, err := f.mon.Refresh(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, remote.TierLive, res.Tier)
	assert.Equal(t, 1, res.Records)
	assert.Equal(t, 1, res.Matched)
	require.Len(t, res.Commodities, 2)

	tilapia := res.Commodities[0]
	require.NotNil(t, tilapia.Price)
	assert.Equal(t, "fish-tilapia", tilapia.Price.CommodityID)
	require.NotNil(t, tilapia.Trend)
	assert.Equal(t, 125.0, tilapia.Trend.PreviousPrice)
	require.NotNil(t, tilapia.Forecast)
	assert.Equal(t, "fish-tilapia", tilapia.Forecast.CommodityID)

	require.Len(t, hooked, 1)
	assert.Equal(t, res.ID, hooked[0].ID)

	last, ok := f.mon.LastUpdated(ctx)
	require.True(t, ok)
	assert.Equal(t, wednesday.UnixMilli(), last.UnixMilli())

	// Report rows from the refresh now serve the stored tier.
	rows := f.mon.StoredRows(ctx)
	require.Len(t, rows, 1)
	assert.Equal(t, "Tilapia", rows[0].Commodity)

	got, tier, err := f.mon.CurrentPrices(ctx)
	require.NoError(t, err)
	assert.Equal(t, TierStored, tier)
	assert.Equal(t, 130.0, got[0].Price.Price)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestConcurrentRefreshSharesOneFetch(t *testing.T) {
	src := &fakeSource{
		records: []models.PriceRecord{tilapiaRecord()},
		tier:    remote.TierLive,
		release: make(chan struct{}),
	}
	f := newFixture(t, testCatalog(t, "Tilapia"), src)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*RefreshResult, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.mon.Refresh(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 1, f.kv.count(cache.CollectionCommodities))
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ID, results[i].ID)
	}
	// Callers get independent copies.
	results[0].Commodities[0].Price.Price = 1
	assert.Equal(t, 130.0, results[1].Commodities[0].Price.Price)
}

func TestRefreshSurvivesCallerCancel(t *testing.T) {
	src := &fakeSource{records: []models.PriceRecord{tilapiaRecord()}, tier: remote.TierLive}
	f := newFixture(t, testCatalog(t, "Tilapia"), src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := f.mon.Refresh(ctx)
	require.NoError(t, err)
	require.NotNil(t, res.Commodities[0].Price)
}

func TestEmptyRemoteResultIsNotCached(t *testing.T) {
	src := &fakeSource{tier: ""}
	f := newFixture(t, testCatalog(t, "Tilapia"), src)
	ctx := context.Background()

	got, err := f.mon.GetCurrentPrices(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Price)
	assert.False(t, f.cache.IsValid(ctx, cache.CollectionCommodities))
}

func TestRefreshStoresOnlyPublishedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"Commodity":"Tilapia","Type":"Tilapia","Amount":125,"Date":"2025-09-17"}]`))
	}))
	t.Cleanup(srv.Close)

	clock := infra.NewManualClock(wednesday)
	src := remote.New(config.SourceConfig{ReportURL: srv.URL},
		remote.WithClock(clock),
		remote.WithLimiter(infra.NewRateLimiter(1000, time.Millisecond)))
	c := cache.New(store.NewMemory(), cache.WithClock(clock))
	m, err := New(testCatalog(t, "Tilapia", "Bangus"), c, src, nil, WithClock(clock))
	require.NoError(t, err)

	ctx := context.Background()
	res, err := m.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, remote.TierLive, res.Tier)

	// Bangus may borrow the fish row for display, but only the row the
	// report actually published becomes stored history.
	rows := m.StoredRows(ctx)
	require.Len(t, rows, 1)
	assert.Equal(t, "Tilapia", rows[0].Commodity)
	assert.Equal(t, "Tilapia", rows[0].Type)
	amount, ok := rows[0].ValidAmount()
	require.True(t, ok)
	assert.Equal(t, 125.0, amount)
}

func TestSyntheticRefreshStoresNoRows(t *testing.T) {
	src := &fakeSource{records: []models.PriceRecord{{
		CommodityName: "Bangus", Price: 190, Unit: "kg", Date: "2025-09-17", Source: models.SourceSynthetic,
	}}, tier: remote.TierSynthetic}
	f := newFixture(t, testCatalog(t, "Bangus"), src)
	ctx := context.Background()

	_, err := f.mon.Refresh(ctx)
	require.NoError(t, err)
	assert.Empty(t, f.mon.StoredRows(ctx))
	assert.Zero(t, f.kv.count(cache.CollectionPrices))
}

// gatedKV holds the first read of the stored rows until a second read
// arrives or a short wait passes.
type gatedKV struct {
	store.KV
	reads  atomic.Int32
	second chan struct{}
}

func (g *gatedKV) Get(ctx context.Context, key string) ([]byte, error) {
	if key == cache.CollectionPrices {
		switch g.reads.Add(1) {
		case 1:
			select {
			case <-g.second:
			case <-time.After(200 * time.Millisecond):
			}
		case 2:
			close(g.second)
		}
	}
	return g.KV.Get(ctx, key)
}

func TestConcurrentRefreshAndImportKeepBothRows(t *testing.T) {
	clock := infra.NewManualClock(wednesday)
	kv := &gatedKV{KV: store.NewMemory(), second: make(chan struct{})}
	c := cache.New(kv, cache.WithClock(clock))
	m, err := New(testCatalog(t, "Tilapia", "Bangus"), c, liveSource(), nil, WithClock(clock))
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := m.Refresh(ctx)
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		_, err := m.ImportStored(ctx, []models.RawPriceRow{
			{Commodity: "Bangus", Type: "Bangus", Amount: models.Amt(190), Date: "2025-09-17"},
		})
		assert.NoError(t, err)
	}()
	wg.Wait()

	var names []string
	for _, r := range m.StoredRows(ctx) {
		names = append(names, r.Commodity)
	}
	assert.ElementsMatch(t, []string{"Tilapia", "Bangus"}, names)
}

func TestRefreshJoinsAutomaticFetch(t *testing.T) {
	src := liveSource()
	src.release = make(chan struct{})
	f := newFixture(t, testCatalog(t, "Tilapia"), src)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.mon.GetCurrentPrices(ctx)
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	var res *RefreshResult
	go func() {
		defer wg.Done()
		var err error
		res, err = f.mon.Refresh(ctx)
		assert.NoError(t, err)
	}()
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 1, f.kv.count(cache.CollectionCommodities))
	require.NotNil(t, res)
	assert.Equal(t, remote.TierLive, res.Tier)
}

func TestRefreshRefetchesWhenMemoAnswered(t *testing.T) {
	src := liveSource()
	src.tiers = []string{remote.TierMemo}
	f := newFixture(t, testCatalog(t, "Tilapia"), src)

	res, err := f.mon.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
	assert.Equal(t, remote.TierLive, res.Tier)
}
