// Package models defines the core data structures used throughout AgriPrice.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Category groups commodities the way the national price monitoring
// reports do.
type Category string

const (
	CategoryKadiwaRice         Category = "KADIWA RICE-FOR-ALL"
	CategoryImportedRice       Category = "IMPORTED COMMERCIAL RICE"
	CategoryLocalRice          Category = "LOCAL COMMERCIAL RICE"
	CategoryCorn               Category = "CORN"
	CategoryFish               Category = "FISH"
	CategoryLivestockPoultry   Category = "LIVESTOCK & POULTRY PRODUCTS"
	CategoryLowlandVegetables  Category = "LOWLAND VEGETABLES"
	CategoryHighlandVegetables Category = "HIGHLAND VEGETABLES"
	CategorySpices             Category = "SPICES"
	CategoryFruits             Category = "FRUITS"
	CategoryOther              Category = "OTHER COMMODITIES"
)

// Categories lists every known category in report order.
var Categories = []Category{
	CategoryKadiwaRice,
	CategoryImportedRice,
	CategoryLocalRice,
	CategoryCorn,
	CategoryFish,
	CategoryLivestockPoultry,
	CategoryLowlandVegetables,
	CategoryHighlandVegetables,
	CategorySpices,
	CategoryFruits,
	CategoryOther,
}

// ErrInvalidDescriptor is returned when a commodity descriptor is missing a
// required field.
var ErrInvalidDescriptor = errors.New("invalid commodity descriptor")

// CommodityDescriptor is a read-only catalog entry.
type CommodityDescriptor struct {
	ID            string   `json:"id"             yaml:"id"`
	Name          string   `json:"name"           yaml:"name"`     // e.g., "Bangus"
	Category      Category `json:"category"       yaml:"category"` // e.g., "FISH"
	Unit          string   `json:"unit"           yaml:"unit"`     // e.g., "kg", "piece", "L"
	Specification string   `json:"specification,omitempty" yaml:"specification,omitempty"`
}

// Validate reports whether the descriptor carries every required field.
func (c CommodityDescriptor) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(string(c.Category)) == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w %q: missing %s", ErrInvalidDescriptor, c.ID, strings.Join(missing, ", "))
	}
	return nil
}

// EnrichedCommodity is a catalog entry merged with whatever price data the
// pipeline could resolve. A nil Price means no data was available.
type EnrichedCommodity struct {
	CommodityDescriptor
	Price    *PriceRecord    `json:"price,omitempty"`
	Trend    *PriceTrend     `json:"trend,omitempty"`
	Forecast *ForecastRecord `json:"forecast,omitempty"`
}

// HasPrice reports whether a price was resolved for the commodity.
func (e EnrichedCommodity) HasPrice() bool { return e.Price != nil }
