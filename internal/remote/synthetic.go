package remote

import (
	"context"
	"math"
	"time"

	"github.com/seenimoa/agriprice/internal/catalog"
	"github.com/seenimoa/agriprice/pkg/models"
	"github.com/seenimoa/agriprice/pkg/utils"
)

// syntheticStrategy estimates prices from the reference table. Entries
// without a reference row are estimated from DefaultReference.
type syntheticStrategy struct {
	src *Source
}

// DefaultReference prices commodities missing from the reference table.
var DefaultReference = catalog.Reference{Unit: "kg", BasePrice: 50, Variance: 5}

func (g *syntheticStrategy) Name() string { return TierSynthetic }

func (g *syntheticStrategy) Attempt(_ context.Context, cat *catalog.Catalog) (Result, error) {
	s := g.src
	now := utils.ToPHT(s.clock.Now())
	mult := Multiplier(now)
	date := now.Format(utils.DateLayout)
	region := s.region()

	var recs []models.PriceRecord
	for _, entry := range cat.Entries() {
		ref, ok := cat.Reference(entry.Name)
		if !ok {
			ref = DefaultReference
		}
		cur := s.estimate(ref, mult)
		prev := s.estimate(ref, mult)
		unit := entry.Unit
		if unit == "" {
			unit = ref.Unit
		}
		rec := models.PriceRecord{
			CommodityID:   entry.ID,
			CommodityName: entry.Name,
			Price:         cur,
			Unit:          unit,
			PriceChange:   utils.Round2(cur - prev),
			Date:          date,
			Source:        models.SourceSynthetic,
			Region:        region,
		}
		if prev > 0 {
			rec.PriceChangePercent = utils.Round2((cur - prev) / prev * 100)
		}
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return Result{}, skipf("catalog is empty")
	}
	return Result{Records: recs}, nil
}

// estimate draws one jittered price around the seasonally adjusted base.
func (s *Source) estimate(ref catalog.Reference, mult float64) float64 {
	jitter := (s.rnd.Float64() - 0.5) * ref.Variance
	return utils.Round2(math.Max(0, ref.BasePrice*mult+jitter))
}

// Multiplier is the calendar adjustment applied to reference prices at t:
// rainy season (June to October) lowers prices by 2%, dry season (November
// to February) raises them by 2%, weekends add 3% and the last days of the
// month (after the 25th) add 2%.
func Multiplier(t time.Time) float64 {
	t = utils.ToPHT(t)
	m := 1.0
	switch {
	case utils.IsRainySeason(t.Month()):
		m *= 0.98
	case utils.IsDrySeason(t.Month()):
		m *= 1.02
	}
	if utils.IsWeekend(t) {
		m *= 1.03
	}
	if utils.IsMonthEnd(t) {
		m *= 1.02
	}
	return m
}
