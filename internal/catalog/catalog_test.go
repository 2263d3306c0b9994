package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/agriprice/pkg/models"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.Equal(t, 90, c.Len())
	require.NoError(t, c.Validate())

	first := c.Entries()[0]
	assert.Equal(t, "kadiwa-premium", first.ID)
	assert.Equal(t, models.CategoryKadiwaRice, first.Category)

	d, ok := c.Lookup("other-cooking-oil-palm")
	require.True(t, ok)
	assert.Equal(t, "Cooking Oil (Palm)", d.Name)
	assert.Equal(t, "L", d.Unit)

	assert.Equal(t, models.Categories, c.Categories())
	assert.Len(t, c.ByCategory(models.CategoryFish), 10)
}

func TestEveryDefaultEntryHasReference(t *testing.T) {
	c := Default()
	for _, e := range c.Entries() {
		r, ok := c.Reference(e.Name)
		if assert.True(t, ok, e.Name) {
			assert.Equal(t, e.ID, r.ID)
			assert.Greater(t, r.BasePrice, 0.0, e.Name)
			assert.GreaterOrEqual(t, r.Variance, 0.0, e.Name)
		}
	}
}

func TestIDFor(t *testing.T) {
	c := Default()
	assert.Equal(t, "fish-bangus", c.IDFor("Bangus"))
	assert.Equal(t, "fish-bangus", c.IDFor("  bangus "))
	assert.Equal(t, "dragon-fruit-red", c.IDFor("Dragon Fruit (Red)"))
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	_, err := New([]models.CommodityDescriptor{{ID: "x", Name: "", Category: models.CategoryFish}}, nil)
	assert.ErrorIs(t, err, ErrInvalidEntry)
	assert.ErrorIs(t, err, models.ErrInvalidDescriptor)

	_, err = New([]models.CommodityDescriptor{
		{ID: "a", Name: "Bangus", Category: models.CategoryFish},
		{ID: "a", Name: "Tilapia", Category: models.CategoryFish},
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidEntry)

	var nilCat *Catalog
	assert.ErrorIs(t, nilCat.Validate(), ErrInvalidEntry)
}

func TestParseFile(t *testing.T) {
	doc := `
commodities:
  - id: r1
    name: Bangus
    category: FISH
    unit: kg
  - name: Tilapia
    category: FISH
    unit: kg
  - name: Dragon Fruit
    category: FRUITS
    unit: kg
    base_price: 150
    variance: 12
`
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())

	entries := c.Entries()
	assert.Equal(t, "r1", entries[0].ID)
	assert.Equal(t, "fish-tilapia", entries[1].ID, "id filled from the reference table")
	assert.Equal(t, "dragon-fruit", entries[2].ID)

	r, ok := c.Reference("Bangus")
	require.True(t, ok, "known names keep their reference row")
	assert.Equal(t, 180.0, r.BasePrice)

	r, ok = c.Reference("dragon fruit")
	require.True(t, ok)
	assert.Equal(t, 150.0, r.BasePrice)
	assert.Equal(t, 12.0, r.Variance)

	_, ok = c.Reference("Pork Belly")
	assert.False(t, ok, "rows not listed in the file are dropped unless extend is set")
}

func TestParseExtend(t *testing.T) {
	c, err := Parse([]byte("extend: true\ncommodities:\n  - {id: r1, name: Bangus, category: FISH, unit: kg, base_price: 200}\n"))
	require.NoError(t, err)

	r, ok := c.Reference("Bangus")
	require.True(t, ok)
	assert.Equal(t, 200.0, r.BasePrice)
	_, ok = c.Reference("Pork Belly")
	assert.True(t, ok)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("commodities: []"))
	assert.ErrorIs(t, err, ErrInvalidEntry)

	_, err = Parse([]byte("commodities:\n  - {name: Bangus, unit: kg}\n"))
	assert.ErrorIs(t, err, ErrInvalidEntry)

	_, err = Parse([]byte("commodities: ["))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "chicken-egg-white-pewee", Slug("Chicken Egg (White, Pewee)"))
	assert.Equal(t, "", Slug("  ()  "))
}
