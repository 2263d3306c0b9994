// Package matcher resolves a catalog commodity to one row of a heterogeneous
// price report. Rows are tried through ordered tiers (name, type,
// specification, category keyword) and the first usable hit wins.
package matcher

import (
	"strings"

	"github.com/seenimoa/agriprice/pkg/models"
)

// Tier identifies which rule produced a match.
type Tier int

const (
	TierName Tier = iota + 1
	TierType
	TierSpecification
	TierCategory
)

func (t Tier) String() string {
	switch t {
	case TierName:
		return "name"
	case TierType:
		return "type"
	case TierSpecification:
		return "specification"
	case TierCategory:
		return "category"
	default:
		return "none"
	}
}

// Result is a successful match.
type Result struct {
	Row     models.RawPriceRow
	Index   int // position in the input slice
	Tier    Tier
	Keyword string // set for TierCategory
}

// Match returns the best row for entry, or false when no row with a usable
// amount matches.
func Match(entry models.CommodityDescriptor, rows []models.RawPriceRow) (models.RawPriceRow, bool) {
	r, ok := Find(entry, rows)
	return r.Row, ok
}

// Find is Match with details about where the row came from.
func Find(entry models.CommodityDescriptor, rows []models.RawPriceRow) (Result, bool) {
	name := norm(entry.Name)
	if name == "" || len(rows) == 0 {
		return Result{}, false
	}

	usable := make([]bool, len(rows))
	for i, r := range rows {
		_, usable[i] = r.ValidAmount()
	}

	// Tier 1: commodity column. Exact names win over substrings so
	// "Red Onion (Imported)" does not resolve to "Red Onion".
	if i, ok := scan(rows, usable, func(r models.RawPriceRow) bool { return norm(r.Commodity) == name }); ok {
		return Result{Row: rows[i], Index: i, Tier: TierName}, true
	}
	if i, ok := scan(rows, usable, func(r models.RawPriceRow) bool { return either(norm(r.Commodity), name) }); ok {
		return Result{Row: rows[i], Index: i, Tier: TierName}, true
	}

	// Tier 2: type column, plus compound cooking-oil names.
	if i, ok := scan(rows, usable, func(r models.RawPriceRow) bool { return norm(r.Type) == name }); ok {
		return Result{Row: rows[i], Index: i, Tier: TierType}, true
	}
	if i, ok := scan(rows, usable, func(r models.RawPriceRow) bool {
		typ := norm(r.Type)
		return either(typ, name) || cookingOil(name, typ)
	}); ok {
		return Result{Row: rows[i], Index: i, Tier: TierType}, true
	}

	// Tier 3: specification, only when both sides carry one.
	if spec := norm(entry.Specification); spec != "" {
		if i, ok := scan(rows, usable, func(r models.RawPriceRow) bool { return either(norm(r.Specification), spec) }); ok {
			return Result{Row: rows[i], Index: i, Tier: TierSpecification}, true
		}
	}

	// Tier 4: category keywords, in keyword order.
	for _, kw := range Keywords(entry.Category) {
		if i, ok := scan(rows, usable, func(r models.RawPriceRow) bool {
			return contains(norm(r.Commodity), kw) || contains(norm(r.Type), kw)
		}); ok {
			return Result{Row: rows[i], Index: i, Tier: TierCategory, Keyword: kw}, true
		}
	}
	return Result{}, false
}

// scan returns the first usable row satisfying pred.
func scan(rows []models.RawPriceRow, usable []bool, pred func(models.RawPriceRow) bool) (int, bool) {
	for i, r := range rows {
		if usable[i] && pred(r) {
			return i, true
		}
	}
	return -1, false
}

func cookingOil(name, typ string) bool {
	if !strings.Contains(name, "cooking oil") {
		return false
	}
	switch {
	case strings.Contains(name, "palm") && strings.Contains(typ, "palm oil"):
		return true
	case strings.Contains(name, "coconut") && strings.Contains(typ, "coconut oil"):
		return true
	}
	return false
}

// either reports whether a contains b or b contains a. Empty strings never
// match.
func either(a, b string) bool {
	return contains(a, b) || contains(b, a)
}

func contains(s, sub string) bool {
	return s != "" && sub != "" && strings.Contains(s, sub)
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
