package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// PriceSource identifies which pipeline tier produced a price.
type PriceSource string

const (
	SourcePersisted PriceSource = "persisted" // previously stored, confirmed data
	SourceRemote    PriceSource = "remote"    // parsed from the upstream report
	SourceSynthetic PriceSource = "synthetic" // derived from the reference table
)

// DefaultRegion is the region label used when the upstream does not name one.
const DefaultRegion = "National Average"

// PriceRecord is one resolved retail price for a commodity. Records are
// produced per fetch cycle and never patched afterwards.
type PriceRecord struct {
	CommodityID        string      `json:"commodity_id"`
	CommodityName      string      `json:"commodity_name"`
	Price              float64     `json:"price"`
	Unit               string      `json:"unit"`
	PriceChange        float64     `json:"price_change"`
	PriceChangePercent float64     `json:"price_change_percent"`
	Date               string      `json:"date"` // YYYY-MM-DD
	Source             PriceSource `json:"source"`
	Region             string      `json:"region,omitempty"`
	Specification      string      `json:"specification,omitempty"`
}

// PriceTrend describes the change against the previous observation.
type PriceTrend struct {
	PreviousPrice float64 `json:"previous_price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// PriceStatistics summarises price coverage for a monitoring dashboard.
type PriceStatistics struct {
	TotalCommodities      int                 `json:"total_commodities"`
	CommoditiesWithPrices int                 `json:"commodities_with_prices"`
	AveragePriceChange    float64             `json:"average_price_change"` // percent
	BySource              map[PriceSource]int `json:"by_source"`
	LastUpdated           time.Time           `json:"last_updated"`
}

// --- Raw upstream rows ---

// RawPriceRow is the unnormalised row shape used by price reports and the
// stored price collection. Column names follow the report headers.
type RawPriceRow struct {
	Commodity     string   `json:"Commodity"`
	Type          string   `json:"Type"`
	Specification string   `json:"Specification,omitempty"`
	Amount        *float64 `json:"Amount"`
	Date          string   `json:"Date"`
}

// ValidAmount returns the amount when it is present, finite and non-negative.
func (r RawPriceRow) ValidAmount() (float64, bool) {
	if r.Amount == nil {
		return 0, false
	}
	v := *r.Amount
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// Key identifies the series a row belongs to (Commodity|Type|Specification).
func (r RawPriceRow) Key() string {
	spec := r.Specification
	if spec == "" {
		spec = "default"
	}
	return r.Commodity + "|" + r.Type + "|" + spec
}

// RecordID identifies a single observation; two rows with the same id are
// duplicates of each other.
func (r RawPriceRow) RecordID() string {
	return strings.Join([]string{r.Commodity, r.Type, r.Specification, r.Date}, "|")
}

// ParsedDate parses Date in any of the formats reports use.
func (r RawPriceRow) ParsedDate() (time.Time, bool) {
	return ParseReportDate(r.Date)
}

// Amt is a convenience constructor for RawPriceRow.Amount.
func Amt(v float64) *float64 { return &v }

var reportDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseReportDate parses a report date string. The zero time and false are
// returned for unrecognised input.
func ParseReportDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range reportDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UnmarshalJSON accepts the loose shapes found in uploaded spreadsheets:
// amounts as numbers, numeric strings, "NaN" or null, and "NaN"
// specifications.
func (r *RawPriceRow) UnmarshalJSON(data []byte) error {
	var aux struct {
		Commodity     json.RawMessage `json:"Commodity"`
		Type          json.RawMessage `json:"Type"`
		Specification json.RawMessage `json:"Specification"`
		Amount        json.RawMessage `json:"Amount"`
		Date          json.RawMessage `json:"Date"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("decode price row: %w", err)
	}
	r.Commodity = looseString(aux.Commodity)
	r.Type = looseString(aux.Type)
	r.Specification = looseString(aux.Specification)
	if strings.EqualFold(r.Specification, "nan") {
		r.Specification = ""
	}
	r.Date = looseString(aux.Date)
	r.Amount = looseAmount(aux.Amount)
	return nil
}

// MarshalJSON writes invalid amounts as null so rows always round-trip.
func (r RawPriceRow) MarshalJSON() ([]byte, error) {
	type plain RawPriceRow
	p := plain(r)
	if _, ok := r.ValidAmount(); !ok {
		p.Amount = nil
	}
	return json.Marshal(p)
}

func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	// Numbers and booleans in text columns.
	return strings.TrimSpace(string(raw))
}

func looseAmount(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		text = s
	}
	return ParseAmount(text)
}

// ParseAmount reads a price as written in reports ("₱1,234.50", "PHP 95",
// "88"). It returns nil for blanks, dashes, "NaN" and anything else that is
// not a finite number.
func ParseAmount(text string) *float64 {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "₱")
	text = strings.TrimPrefix(text, "PHP")
	text = strings.TrimPrefix(text, "Php")
	text = strings.ReplaceAll(text, ",", "")
	text = strings.TrimSpace(text)
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
