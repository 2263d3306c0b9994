// Package monitor resolves the catalog to enriched commodities. It consults
// previously stored report rows first, then the last remote snapshot while
// it is fresh, and finally the remote price source, writing the remote
// result back to the durable cache.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/seenimoa/agriprice/internal/cache"
	"github.com/seenimoa/agriprice/internal/catalog"
	"github.com/seenimoa/agriprice/internal/forecast"
	"github.com/seenimoa/agriprice/internal/history"
	"github.com/seenimoa/agriprice/internal/infra"
	"github.com/seenimoa/agriprice/internal/matcher"
	"github.com/seenimoa/agriprice/internal/remote"
	"github.com/seenimoa/agriprice/pkg/models"
	"github.com/seenimoa/agriprice/pkg/utils"
)

// Tier names reported by the monitor.
const (
	TierStored   = "stored"
	TierSnapshot = "snapshot"
	TierRemote   = "remote"
)

// ErrInvalidRow is returned by ImportStored for rows that name no commodity
// or carry an unreadable date.
var ErrInvalidRow = errors.New("monitor: invalid price row")

// PriceSource is the remote side of the pipeline.
type PriceSource interface {
	Fetch(ctx context.Context, cat *catalog.Catalog, opts ...remote.FetchOption) (remote.Result, error)
}

// RefreshResult describes one completed remote refresh.
type RefreshResult struct {
	ID          string                     `json:"id"`
	StartedAt   time.Time                  `json:"started_at"`
	Duration    time.Duration              `json:"duration_ns"`
	Tier        string                     `json:"tier"` // remote tier that answered
	Records     int                        `json:"records"`
	Matched     int                        `json:"matched"`
	Commodities []models.EnrichedCommodity `json:"commodities"`
}

// Monitor is the price orchestrator. It is safe for concurrent use.
type Monitor struct {
	cat        *catalog.Catalog
	cache      *cache.Cache
	source     PriceSource
	forecaster forecast.Forecaster
	clock      infra.Clock
	workers    int

	flight singleflight.Group

	// storedMu serializes read-merge-write cycles on the stored rows.
	storedMu sync.Mutex

	mu        sync.RWMutex
	listeners []func(RefreshResult)
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithWorkers bounds how many catalog entries are matched in parallel.
func WithWorkers(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithClock sets the clock used for import dates and statistics.
func WithClock(c infra.Clock) Option {
	return func(m *Monitor) {
		if c != nil {
			m.clock = c
		}
	}
}

// New creates a monitor. The catalog is validated once here.
func New(cat *catalog.Catalog, c *cache.Cache, src PriceSource, fc forecast.Forecaster, opts ...Option) (*Monitor, error) {
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}
	if c == nil || src == nil {
		return nil, errors.New("monitor: cache and price source are required")
	}
	m := &Monitor{
		cat:     cat,
		cache:   c,
		source:  src,
		clock:   infra.SystemClock{},
		workers: 4,
	}
	for _, opt := range opts {
		opt(m)
	}
	if fc == nil {
		fc = forecast.NewEngine(m.clock)
	}
	m.forecaster = fc
	return m, nil
}

// Catalog returns the catalog the monitor resolves.
func (m *Monitor) Catalog() *catalog.Catalog { return m.cat }

// OnRefresh registers fn to be called after every remote refresh.
func (m *Monitor) OnRefresh(fn func(RefreshResult)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// --- Current prices ---

type tier struct {
	name string
	run  func(ctx context.Context) ([]models.EnrichedCommodity, error)
}

func (m *Monitor) tiers() []tier {
	return []tier{
		{TierStored, m.fromStored},
		{TierSnapshot, m.fromSnapshot},
		{TierRemote, func(ctx context.Context) ([]models.EnrichedCommodity, error) {
			res, err := m.remoteOnce(ctx)
			if err != nil {
				return nil, err
			}
			return res.Commodities, nil
		}},
	}
}

// Tiers returns the tier names in the order GetCurrentPrices tries them.
func (m *Monitor) Tiers() []string {
	ts := m.tiers()
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.name
	}
	return names
}

// GetCurrentPrices returns one entry per catalog commodity. Entries without
// a resolvable price are included with a nil Price.
func (m *Monitor) GetCurrentPrices(ctx context.Context) ([]models.EnrichedCommodity, error) {
	out, _, err := m.CurrentPrices(ctx)
	return out, err
}

// CurrentPrices is GetCurrentPrices reporting which tier answered.
func (m *Monitor) CurrentPrices(ctx context.Context) ([]models.EnrichedCommodity, string, error) {
	for _, t := range m.tiers() {
		out, err := t.run(ctx)
		if errors.Is(err, remote.ErrSkip) {
			logx.WithContext(ctx).Debugf("monitor: tier skipped tier=%s reason=%v", t.name, err)
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return out, t.name, nil
	}
	return m.bare(), "", nil
}

func (m *Monitor) fromStored(ctx context.Context) ([]models.EnrichedCommodity, error) {
	rows := cache.Get[models.RawPriceRow](ctx, m.cache, cache.CollectionPrices)
	latest := history.Latest(rows)
	if len(latest) == 0 {
		return nil, fmt.Errorf("%w: no stored prices", remote.ErrSkip)
	}
	region := models.DefaultRegion
	return m.enrich(ctx, func(entry models.CommodityDescriptor) (*models.PriceRecord, *models.PriceTrend, bool) {
		row, ok := matcher.Match(entry, latest)
		if !ok {
			return nil, nil, false
		}
		amount, _ := row.ValidAmount()
		rec := &models.PriceRecord{
			CommodityID:   entry.ID,
			CommodityName: entry.Name,
			Price:         utils.Round2(amount),
			Unit:          entry.Unit,
			Date:          row.Date,
			Source:        models.SourcePersisted,
			Region:        region,
			Specification: row.Specification,
		}
		if t, ok := row.ParsedDate(); ok {
			rec.Date = t.Format(utils.DateLayout)
		}
		var trend *models.PriceTrend
		if prev, ok := history.Previous(rows, row); ok {
			p, _ := prev.ValidAmount()
			tr := history.Trend(amount, p)
			trend = &tr
			rec.PriceChange, rec.PriceChangePercent = tr.Change, tr.ChangePercent
		}
		return rec, trend, false
	})
}

func (m *Monitor) fromSnapshot(ctx context.Context) ([]models.EnrichedCommodity, error) {
	if !m.cache.IsValid(ctx, cache.CollectionCommodities) {
		return nil, fmt.Errorf("%w: snapshot missing or expired", remote.ErrSkip)
	}
	snap := cache.Get[models.EnrichedCommodity](ctx, m.cache, cache.CollectionCommodities)
	if len(snap) == 0 {
		return nil, fmt.Errorf("%w: snapshot empty", remote.ErrSkip)
	}
	return snap, nil
}

// --- Refresh ---

// remoteFlight keys the single in-flight remote fetch.
const remoteFlight = "remote"

// Refresh forces a remote fetch that bypasses the same-day memo and cache
// validity, then overwrites the cache. Concurrent calls share one fetch. A
// refresh arriving while an automatic fetch is in flight joins it, and
// fetches again only when that fetch was answered by the memo.
func (m *Monitor) Refresh(ctx context.Context) (*RefreshResult, error) {
	res, err := m.remoteOnce(ctx, remote.Force())
	if err == nil && res.Tier == remote.TierMemo {
		res, err = m.remoteOnce(ctx, remote.Force())
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (m *Monitor) remoteOnce(ctx context.Context, opts ...remote.FetchOption) (RefreshResult, error) {
	// The shared call must not die with whichever caller started it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := m.flight.Do(remoteFlight, func() (any, error) {
		return m.fromRemote(shared, opts...)
	})
	if err != nil {
		return RefreshResult{}, err
	}
	res := v.(RefreshResult)
	res.Commodities = cloneEnriched(res.Commodities)
	return res, nil
}

func (m *Monitor) fromRemote(ctx context.Context, opts ...remote.FetchOption) (RefreshResult, error) {
	started := m.clock.Now()
	res, err := m.source.Fetch(ctx, m.cat, opts...)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("monitor: remote prices: %w", err)
	}

	rows := make([]models.RawPriceRow, len(res.Records))
	for i, r := range res.Records {
		rows[i] = toRow(r)
	}

	matched := 0
	var mu sync.Mutex
	out, err := m.enrich(ctx, func(entry models.CommodityDescriptor) (*models.PriceRecord, *models.PriceTrend, bool) {
		found, ok := matcher.Find(entry, rows)
		if !ok {
			return nil, nil, false
		}
		mu.Lock()
		matched++
		mu.Unlock()
		rec := res.Records[found.Index]
		rec.CommodityID = entry.ID
		rec.CommodityName = entry.Name
		if entry.Unit != "" {
			rec.Unit = entry.Unit
		}
		var trend *models.PriceTrend
		if rec.PriceChange != 0 {
			trend = &models.PriceTrend{
				PreviousPrice: utils.Round2(rec.Price - rec.PriceChange),
				Change:        rec.PriceChange,
				ChangePercent: rec.PriceChangePercent,
			}
		}
		return &rec, trend, true
	})
	if err != nil {
		return RefreshResult{}, err
	}

	if len(res.Records) > 0 {
		m.persist(ctx, out, res.Rows)
	}

	result := RefreshResult{
		ID:          uuid.NewString(),
		StartedAt:   started,
		Duration:    m.clock.Now().Sub(started),
		Tier:        res.Tier,
		Records:     len(res.Records),
		Matched:     matched,
		Commodities: out,
	}
	logx.WithContext(ctx).Infof("monitor: remote refresh id=%s tier=%s records=%d matched=%d/%d",
		result.ID, result.Tier, result.Records, result.Matched, len(out))

	m.mu.RLock()
	listeners := slices.Clone(m.listeners)
	m.mu.RUnlock()
	for _, fn := range listeners {
		fn(result)
	}
	return result, nil
}

// persist writes the snapshot and categories, merges the published report
// rows into the stored history and stamps the update time. Cache write
// failures are logged; the caller still gets the fresh result.
func (m *Monitor) persist(ctx context.Context, out []models.EnrichedCommodity, rows []models.RawPriceRow) {
	log := logx.WithContext(ctx)
	if err := cache.Put(ctx, m.cache, cache.CollectionCommodities, out); err != nil {
		log.Errorf("monitor: write snapshot err=%v", err)
	}
	if err := cache.Put(ctx, m.cache, cache.CollectionCategories, m.cat.Categories()); err != nil {
		log.Errorf("monitor: write categories err=%v", err)
	}

	if len(rows) > 0 {
		if _, _, err := m.mergeStored(ctx, rows); err != nil {
			log.Errorf("monitor: write stored prices err=%v", err)
		}
	}
	if err := m.cache.Touch(ctx); err != nil {
		log.Errorf("monitor: write %s err=%v", cache.LastUpdatedKey, err)
	}
}

// mergeStored adds rows to the stored history and returns the merged
// history with the number of rows actually added.
func (m *Monitor) mergeStored(ctx context.Context, rows []models.RawPriceRow) ([]models.RawPriceRow, int, error) {
	m.storedMu.Lock()
	defer m.storedMu.Unlock()
	stored := cache.Get[models.RawPriceRow](ctx, m.cache, cache.CollectionPrices)
	merged, added := history.Merge(stored, rows)
	if added == 0 {
		return merged, 0, nil
	}
	if err := cache.Put(ctx, m.cache, cache.CollectionPrices, merged); err != nil {
		return nil, 0, err
	}
	return merged, added, nil
}

// --- Enrichment ---

// resolveFunc finds the price for one entry. withForecast asks enrich to
// attach a forecast for the resolved price.
type resolveFunc func(entry models.CommodityDescriptor) (rec *models.PriceRecord, trend *models.PriceTrend, withForecast bool)

// enrich resolves every catalog entry in parallel. Each worker writes only
// its own slot of the result.
func (m *Monitor) enrich(ctx context.Context, resolve resolveFunc) ([]models.EnrichedCommodity, error) {
	entries := m.cat.Entries()
	out := make([]models.EnrichedCommodity, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, entry := range entries {
		g.Go(func() error {
			ec := models.EnrichedCommodity{CommodityDescriptor: entry}
			rec, trend, withForecast := resolve(entry)
			if rec != nil {
				ec.Price, ec.Trend = rec, trend
				if withForecast {
					fc, err := m.forecaster.Forecast(gctx, entry.Name, rec.Price)
					if err != nil {
						logx.WithContext(gctx).Errorf("monitor: forecast failed commodity=%s err=%v", entry.Name, err)
					} else {
						fc.CommodityID = entry.ID
						ec.Forecast = &fc
					}
				}
			}
			out[i] = ec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Monitor) bare() []models.EnrichedCommodity {
	entries := m.cat.Entries()
	out := make([]models.EnrichedCommodity, len(entries))
	for i, e := range entries {
		out[i] = models.EnrichedCommodity{CommodityDescriptor: e}
	}
	return out
}

// toRow views a price record in the report row shape used for matching.
func toRow(r models.PriceRecord) models.RawPriceRow {
	return models.RawPriceRow{
		Commodity:     r.CommodityName,
		Type:          r.CommodityName,
		Specification: r.Specification,
		Amount:        models.Amt(r.Price),
		Date:          r.Date,
	}
}

// cloneEnriched deep-copies results shared between singleflight callers.
func cloneEnriched(in []models.EnrichedCommodity) []models.EnrichedCommodity {
	out := make([]models.EnrichedCommodity, len(in))
	for i, ec := range in {
		out[i] = ec
		if ec.Price != nil {
			p := *ec.Price
			out[i].Price = &p
		}
		if ec.Trend != nil {
			t := *ec.Trend
			out[i].Trend = &t
		}
		if ec.Forecast != nil {
			f := *ec.Forecast
			f.Factors = append([]string(nil), f.Factors...)
			out[i].Forecast = &f
		}
	}
	return out
}
