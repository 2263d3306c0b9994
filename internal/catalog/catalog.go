// Package catalog holds the read-only list of tracked commodities together
// with the reference price table shared by id lookup and the synthetic
// price generator.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/seenimoa/agriprice/pkg/models"
)

// ErrInvalidEntry is returned for catalog entries that break the descriptor
// contract (missing id, name or category, or a duplicate id).
var ErrInvalidEntry = errors.New("catalog: invalid entry")

// Catalog is an ordered, immutable list of commodity descriptors.
type Catalog struct {
	entries []models.CommodityDescriptor
	byID    map[string]int
	refs    map[string]Reference // keyed by lower-cased name
}

// Default returns the built-in catalog of nationally monitored commodities.
func Default() *Catalog {
	c, err := New(nil, referenceTable)
	if err != nil {
		panic(fmt.Sprintf("catalog: default table is invalid: %v", err))
	}
	return c
}

// New builds a catalog from entries and a reference table. When entries is
// nil the catalog lists every reference row.
func New(entries []models.CommodityDescriptor, refs []Reference) (*Catalog, error) {
	if entries == nil {
		entries = make([]models.CommodityDescriptor, 0, len(refs))
		for _, r := range refs {
			entries = append(entries, r.Descriptor())
		}
	}
	if err := Validate(entries); err != nil {
		return nil, err
	}
	c := &Catalog{
		entries: append([]models.CommodityDescriptor(nil), entries...),
		byID:    make(map[string]int, len(entries)),
		refs:    make(map[string]Reference, len(refs)),
	}
	for i, e := range c.entries {
		c.byID[e.ID] = i
	}
	for _, r := range refs {
		c.refs[normalize(r.Name)] = r
	}
	return c, nil
}

// Validate checks every descriptor and rejects duplicate ids.
func Validate(entries []models.CommodityDescriptor) error {
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("%w: entry %d: %w", ErrInvalidEntry, i, err)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidEntry, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// Validate re-checks the catalog contract. A nil catalog is invalid.
func (c *Catalog) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil catalog", ErrInvalidEntry)
	}
	return Validate(c.entries)
}

// Entries returns a copy of the descriptors in catalog order.
func (c *Catalog) Entries() []models.CommodityDescriptor {
	return append([]models.CommodityDescriptor(nil), c.entries...)
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup finds a descriptor by id.
func (c *Catalog) Lookup(id string) (models.CommodityDescriptor, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.CommodityDescriptor{}, false
	}
	return c.entries[i], true
}

// ByCategory returns the entries of one category in catalog order.
func (c *Catalog) ByCategory(cat models.Category) []models.CommodityDescriptor {
	var out []models.CommodityDescriptor
	for _, e := range c.entries {
		if e.Category == cat {
			out = append(out, e)
		}
	}
	return out
}

// Categories returns the distinct categories in order of first appearance.
func (c *Catalog) Categories() []models.Category {
	seen := make(map[models.Category]bool)
	var out []models.Category
	for _, e := range c.entries {
		if !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	return out
}

// Reference returns the reference row for a commodity name
// (case-insensitive).
func (c *Catalog) Reference(name string) (Reference, bool) {
	r, ok := c.refs[normalize(name)]
	return r, ok
}

// IDFor returns the canonical id for a commodity name: the reference table
// id when known, else a slug of the name.
func (c *Catalog) IDFor(name string) string {
	if r, ok := c.Reference(name); ok && r.ID != "" {
		return r.ID
	}
	for _, e := range c.entries {
		if strings.EqualFold(e.Name, name) {
			return e.ID
		}
	}
	return Slug(name)
}

// --- File loading ---

type fileEntry struct {
	ID            string          `yaml:"id"`
	Name          string          `yaml:"name"`
	Category      models.Category `yaml:"category"`
	Unit          string          `yaml:"unit"`
	Specification string          `yaml:"specification"`
	BasePrice     *float64        `yaml:"base_price"`
	Variance      *float64        `yaml:"variance"`
}

type file struct {
	// Extend keeps the built-in reference rows for names the file does not
	// override.
	Extend      bool        `yaml:"extend"`
	Commodities []fileEntry `yaml:"commodities"`
}

// LoadFile reads a YAML catalog. Entries without an id get one from IDFor;
// entries with base_price add or override a reference row.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	if len(f.Commodities) == 0 {
		return nil, fmt.Errorf("%w: no commodities", ErrInvalidEntry)
	}

	base, err := New(nil, referenceTable)
	if err != nil {
		return nil, err
	}

	var refs []Reference
	if f.Extend {
		refs = append(refs, referenceTable...)
	}
	entries := make([]models.CommodityDescriptor, 0, len(f.Commodities))
	for _, fe := range f.Commodities {
		d := models.CommodityDescriptor{
			ID:            strings.TrimSpace(fe.ID),
			Name:          strings.TrimSpace(fe.Name),
			Category:      models.Category(strings.TrimSpace(string(fe.Category))),
			Unit:          strings.TrimSpace(fe.Unit),
			Specification: strings.TrimSpace(fe.Specification),
		}
		if d.ID == "" && d.Name != "" {
			d.ID = base.IDFor(d.Name)
		}
		entries = append(entries, d)

		if fe.BasePrice != nil {
			r := Reference{ID: d.ID, Name: d.Name, Category: d.Category, Unit: d.Unit, BasePrice: *fe.BasePrice}
			if fe.Variance != nil {
				r.Variance = *fe.Variance
			}
			refs = append(refs, r)
		} else if r, ok := base.Reference(d.Name); ok && !f.Extend {
			refs = append(refs, r)
		}
	}
	return New(entries, refs)
}

// --- Helpers ---

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lower-cases name and joins its alphanumeric runs with dashes.
func Slug(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
