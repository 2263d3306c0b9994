// Package forecast produces short-term price projections for commodities.
// The seasonal Engine is always available; a model-backed forecaster can be
// layered on top of it and falls back to the engine on any failure.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/agriprice/internal/config"
	"github.com/seenimoa/agriprice/internal/infra"
	"github.com/seenimoa/agriprice/pkg/models"
)

var (
	ErrEmptyName    = errors.New("forecast: commodity name is empty")
	ErrInvalidPrice = errors.New("forecast: price must be a finite non-negative number")
)

// Forecaster projects a commodity price one week and one month ahead.
type Forecaster interface {
	Forecast(ctx context.Context, name string, price float64) (models.ForecastRecord, error)
}

// New returns the forecaster selected by cfg: the AI forecaster when it is
// enabled and has a key, the seasonal engine otherwise.
func New(cfg config.ForecastConfig, clock infra.Clock) Forecaster {
	engine := NewEngine(clock)
	if !cfg.AI.Enabled || strings.TrimSpace(cfg.AI.APIKey) == "" {
		return engine
	}
	return NewAI(cfg.AI, engine)
}

func validate(name string, price float64) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	return nil
}
