package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/seenimoa/agriprice/internal/cache"
	"github.com/seenimoa/agriprice/pkg/models"
	"github.com/seenimoa/agriprice/pkg/utils"
)

// Forecasts returns a forecast for every commodity that currently has a
// price. Stored and snapshot prices carry no forecast and get one computed
// here.
func (m *Monitor) Forecasts(ctx context.Context) ([]models.ForecastRecord, error) {
	current, err := m.GetCurrentPrices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ForecastRecord, 0, len(current))
	for _, ec := range current {
		if ec.Price == nil {
			continue
		}
		if ec.Forecast != nil {
			out = append(out, *ec.Forecast)
			continue
		}
		fc, err := m.forecaster.Forecast(ctx, ec.Name, ec.Price.Price)
		if err != nil {
			logx.WithContext(ctx).Errorf("monitor: forecast failed commodity=%s err=%v", ec.Name, err)
			continue
		}
		fc.CommodityID = ec.ID
		out = append(out, fc)
	}
	return out, nil
}

// Statistics summarises price coverage for the current prices.
func (m *Monitor) Statistics(ctx context.Context) (models.PriceStatistics, error) {
	current, err := m.GetCurrentPrices(ctx)
	if err != nil {
		return models.PriceStatistics{}, err
	}
	st := Summarize(current)
	if t, ok := m.cache.LastUpdated(ctx); ok {
		st.LastUpdated = t
	}
	return st, nil
}

// Summarize computes coverage statistics over enriched commodities. The
// average change is taken over priced commodities only.
func Summarize(current []models.EnrichedCommodity) models.PriceStatistics {
	st := models.PriceStatistics{
		TotalCommodities: len(current),
		BySource:         make(map[models.PriceSource]int),
	}
	var sum float64
	for _, ec := range current {
		if ec.Price == nil {
			continue
		}
		st.CommoditiesWithPrices++
		st.BySource[ec.Price.Source]++
		sum += ec.Price.PriceChangePercent
	}
	if st.CommoditiesWithPrices > 0 {
		st.AveragePriceChange = utils.Round2(sum / float64(st.CommoditiesWithPrices))
	}
	return st
}

// --- Stored rows ---

// ImportResult reports what an import changed.
type ImportResult struct {
	Received int `json:"received"`
	Added    int `json:"added"`
	Skipped  int `json:"skipped"` // duplicates of stored rows
	Total    int `json:"total"`   // stored rows after the import
}

// ImportStored merges report rows into the stored price collection. Rows
// are checked first; one bad row rejects the whole batch and nothing is
// written. Rows without a date are dated today. Rows whose amount is not a
// usable price are kept but never matched.
func (m *Monitor) ImportStored(ctx context.Context, rows []models.RawPriceRow) (ImportResult, error) {
	today := utils.DateString(m.clock.Now())
	clean := make([]models.RawPriceRow, len(rows))
	for i, r := range rows {
		r.Commodity = strings.TrimSpace(r.Commodity)
		r.Type = strings.TrimSpace(r.Type)
		r.Specification = strings.TrimSpace(r.Specification)
		r.Date = strings.TrimSpace(r.Date)
		if r.Commodity == "" && r.Type == "" {
			return ImportResult{}, fmt.Errorf("%w: row %d names no commodity", ErrInvalidRow, i)
		}
		if r.Commodity == "" {
			r.Commodity = r.Type
		}
		if r.Type == "" {
			r.Type = r.Commodity
		}
		if r.Date == "" {
			r.Date = today
		} else if _, ok := r.ParsedDate(); !ok {
			return ImportResult{}, fmt.Errorf("%w: row %d has unreadable date %q", ErrInvalidRow, i, r.Date)
		}
		clean[i] = r
	}

	merged, added, err := m.mergeStored(ctx, clean)
	if err != nil {
		return ImportResult{}, fmt.Errorf("monitor: store imported rows: %w", err)
	}
	res := ImportResult{
		Received: len(rows),
		Added:    added,
		Skipped:  len(rows) - added,
		Total:    len(merged),
	}
	if added == 0 {
		return res, nil
	}
	logx.WithContext(ctx).Infof("monitor: rows imported received=%d added=%d total=%d", res.Received, res.Added, res.Total)
	return res, nil
}

// StoredRows returns the stored price collection.
func (m *Monitor) StoredRows(ctx context.Context) []models.RawPriceRow {
	return cache.Get[models.RawPriceRow](ctx, m.cache, cache.CollectionPrices)
}

// --- Cache ---

type memoResetter interface {
	ResetMemo()
}

// ClearCache drops every cached collection, including stored rows, and the
// price source's same-day result.
func (m *Monitor) ClearCache(ctx context.Context) error {
	m.storedMu.Lock()
	err := m.cache.Clear(ctx)
	m.storedMu.Unlock()
	if err != nil {
		return err
	}
	if r, ok := m.source.(memoResetter); ok {
		r.ResetMemo()
	}
	logx.WithContext(ctx).Infof("monitor: cache cleared")
	return nil
}

// CacheStatus reports the state of the durable cache.
func (m *Monitor) CacheStatus(ctx context.Context) cache.Status {
	return m.cache.Status(ctx)
}

// LastUpdated returns the time of the last successful remote refresh.
func (m *Monitor) LastUpdated(ctx context.Context) (time.Time, bool) {
	return m.cache.LastUpdated(ctx)
}
