// Package history works on collections of raw price rows: picking the
// latest observation per series, finding the preceding observation for a
// trend, and merging uploads without duplicates.
package history

import (
	"sort"
	"time"

	"github.com/seenimoa/agriprice/pkg/models"
	"github.com/seenimoa/agriprice/pkg/utils"
)

// Latest returns the most recent row per Commodity|Type|Specification
// series. Rows with invalid amounts are kept out of the result. Ties on
// date keep the row that appeared last. Output is ordered by first
// appearance of each series.
func Latest(rows []models.RawPriceRow) []models.RawPriceRow {
	idx := make(map[string]int)
	var out []models.RawPriceRow
	for _, r := range rows {
		if _, ok := r.ValidAmount(); !ok {
			continue
		}
		key := r.Key()
		i, seen := idx[key]
		if !seen {
			idx[key] = len(out)
			out = append(out, r)
			continue
		}
		if !before(r, out[i]) {
			out[i] = r
		}
	}
	return out
}

// Previous returns the most recent row with the same Commodity and Type
// dated strictly before row.
func Previous(rows []models.RawPriceRow, row models.RawPriceRow) (models.RawPriceRow, bool) {
	at, ok := row.ParsedDate()
	if !ok {
		return models.RawPriceRow{}, false
	}
	var (
		best     models.RawPriceRow
		bestTime time.Time
		found    bool
	)
	for _, r := range rows {
		if r.Commodity != row.Commodity || r.Type != row.Type {
			continue
		}
		if _, valid := r.ValidAmount(); !valid {
			continue
		}
		t, ok := r.ParsedDate()
		if !ok || !t.Before(at) {
			continue
		}
		if !found || t.After(bestTime) {
			best, bestTime, found = r, t, true
		}
	}
	return best, found
}

// Trend describes the move from prev to cur, rounded to cents.
func Trend(cur, prev float64) models.PriceTrend {
	return models.PriceTrend{
		PreviousPrice: prev,
		Change:        utils.Round2(cur - prev),
		ChangePercent: utils.PercentChange(cur, prev),
	}
}

// Merge appends incoming rows that are not already present (by RecordID)
// and returns the combined history sorted by date. The number of rows
// actually added is returned alongside.
func Merge(existing, incoming []models.RawPriceRow) ([]models.RawPriceRow, int) {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	out := make([]models.RawPriceRow, 0, len(existing)+len(incoming))
	for _, r := range existing {
		id := r.RecordID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, r)
	}
	added := 0
	for _, r := range incoming {
		id := r.RecordID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, r)
		added++
	}
	sort.SliceStable(out, func(i, j int) bool { return before(out[i], out[j]) })
	return out, added
}

// before orders rows by parsed date; unparseable dates sort first.
func before(a, b models.RawPriceRow) bool {
	ta, okA := a.ParsedDate()
	tb, okB := b.ParsedDate()
	switch {
	case !okA && !okB:
		return false
	case !okA:
		return true
	case !okB:
		return false
	}
	return ta.Before(tb)
}
