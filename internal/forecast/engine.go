package forecast

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seenimoa/agriprice/internal/infra"
	"github.com/seenimoa/agriprice/pkg/models"
	"github.com/seenimoa/agriprice/pkg/utils"
)

// rule is one seasonal heuristic. The first rule whose keywords match the
// commodity name wins.
type rule struct {
	keywords []string
	factors  []string
	apply    func(month time.Month) (trend models.Trend, confidence int, week, monthMul float64)
}

var rules = []rule{
	{
		keywords: []string{"rice", "rfa"},
		factors:  []string{"Government price controls", "Harvest season", "Import policies"},
		apply: func(time.Month) (models.Trend, int, float64, float64) {
			return models.TrendStable, 85, 1.0, 1.02
		},
	},
	{
		keywords: []string{"fish", "bangus", "tilapia"},
		factors:  []string{"Weather conditions", "Fishing season", "Supply availability"},
		apply: func(m time.Month) (models.Trend, int, float64, float64) {
			if m >= time.June && m <= time.October {
				return models.TrendDown, 75, 0.98, 0.95
			}
			return models.TrendStable, 75, 0.98, 1.0
		},
	},
	{
		keywords: []string{"vegetable", "cabbage", "tomato"},
		factors:  []string{"Rainy season impact", "Harvest cycles", "Transportation costs"},
		apply: func(m time.Month) (models.Trend, int, float64, float64) {
			if m >= time.March && m <= time.June {
				return models.TrendDown, 70, 0.95, 0.90
			}
			return models.TrendUp, 70, 1.05, 1.10
		},
	},
	{
		keywords: []string{"beef", "pork", "chicken"},
		factors:  []string{"Feed costs", "Demand patterns", "Import restrictions"},
		apply: func(time.Month) (models.Trend, int, float64, float64) {
			return models.TrendUp, 80, 1.02, 1.05
		},
	},
	{
		keywords: []string{"fruit", "mango", "banana"},
		factors:  []string{"Peak harvest season", "Export demand", "Weather conditions"},
		apply: func(m time.Month) (models.Trend, int, float64, float64) {
			if m >= time.April && m <= time.August {
				return models.TrendDown, 75, 0.97, 0.93
			}
			return models.TrendUp, 75, 1.03, 1.07
		},
	},
}

var fallbackRule = rule{
	factors: []string{"Market stability", "Government monitoring", "Supply chain efficiency"},
	apply: func(time.Month) (models.Trend, int, float64, float64) {
		return models.TrendStable, 80, 1.0, 1.02
	},
}

func ruleFor(name string) rule {
	lower := strings.ToLower(name)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r
			}
		}
	}
	return fallbackRule
}

// Engine is the deterministic seasonal forecaster. Its output depends only
// on the commodity name, the current price and the month.
type Engine struct {
	clock infra.Clock
}

// NewEngine creates an engine that reads the month from clock.
func NewEngine(clock infra.Clock) *Engine {
	if clock == nil {
		clock = infra.SystemClock{}
	}
	return &Engine{clock: clock}
}

// Forecast implements Forecaster using the current month in Philippine time.
func (e *Engine) Forecast(_ context.Context, name string, price float64) (models.ForecastRecord, error) {
	return e.ForecastAt(name, price, utils.ToPHT(e.clock.Now()).Month())
}

// ForecastAt computes the forecast for an explicit month.
func (e *Engine) ForecastAt(name string, price float64, month time.Month) (models.ForecastRecord, error) {
	if err := validate(name, price); err != nil {
		return models.ForecastRecord{}, err
	}
	r := ruleFor(name)
	trend, confidence, week, monthMul := r.apply(month)
	return models.ForecastRecord{
		CommodityName: name,
		NextWeek:      utils.Round2(price * week),
		NextMonth:     utils.Round2(price * monthMul),
		Trend:         trend,
		Confidence:    confidence,
		Factors:       append([]string(nil), r.factors...),
	}, nil
}

// Analysis returns a short market commentary for the commodity.
func (e *Engine) Analysis(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrEmptyName
	}
	r := ruleFor(name)
	trend, confidence, _, _ := r.apply(utils.ToPHT(e.clock.Now()).Month())
	return fmt.Sprintf("Based on DA Philippines monitoring data, %s shows a %s trend with %d%% confidence. "+
		"Key factors affecting prices include: %s. "+
		"The Department of Agriculture continues to monitor market conditions and implement policies to ensure price stability and food security.",
		name, trend, confidence, strings.Join(r.factors, ", ")), nil
}
