package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/agriprice/pkg/models"
)

// parseReport extracts raw price rows from a report payload. JSON payloads
// may be a bare array of rows or an object carrying the rows under "data"
// or "prices". Anything else is treated as HTML and scanned for price
// tables. Rows without a date take fallbackDate.
func parseReport(body []byte, contentType, fallbackDate string) ([]models.RawPriceRow, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	var rows []models.RawPriceRow
	var err error
	if strings.Contains(contentType, "json") || trimmed[0] == '[' || trimmed[0] == '{' {
		rows, err = parseJSON(trimmed)
	} else {
		rows, err = parseHTML(trimmed)
	}
	if err != nil {
		return nil, err
	}

	out := rows[:0]
	for _, r := range rows {
		if r.Commodity == "" && r.Type == "" {
			continue
		}
		if r.Type == "" {
			r.Type = r.Commodity
		}
		if r.Commodity == "" {
			r.Commodity = r.Type
		}
		if r.Date == "" {
			r.Date = fallbackDate
		}
		out = append(out, r)
	}
	return out, nil
}

func parseJSON(body []byte) ([]models.RawPriceRow, error) {
	if body[0] == '[' {
		var rows []models.RawPriceRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
		return rows, nil
	}
	var wrapped struct {
		Data   []models.RawPriceRow `json:"data"`
		Prices []models.RawPriceRow `json:"prices"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	if len(wrapped.Data) > 0 {
		return wrapped.Data, nil
	}
	return wrapped.Prices, nil
}

// --- HTML tables ---

// columns maps report headers to cell indexes; -1 means absent.
type columns struct {
	commodity, typ, spec, amount, date int
}

func detectColumns(headers []string) (columns, bool) {
	c := columns{commodity: -1, typ: -1, spec: -1, amount: -1, date: -1}
	for i, h := range headers {
		h = strings.ToLower(h)
		switch {
		case strings.Contains(h, "commodit") && c.commodity < 0:
			c.commodity = i
		case (strings.Contains(h, "type") || strings.Contains(h, "variety")) && c.typ < 0:
			c.typ = i
		case strings.Contains(h, "spec") && c.spec < 0:
			c.spec = i
		case (strings.Contains(h, "price") || strings.Contains(h, "amount")) && c.amount < 0:
			c.amount = i
		case strings.Contains(h, "date") && c.date < 0:
			c.date = i
		}
	}
	return c, c.commodity >= 0 && c.amount >= 0
}

func parseHTML(body []byte) ([]models.RawPriceRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse report HTML: %w", err)
	}

	var rows []models.RawPriceRow
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var (
			cols     columns
			haveCols bool
			category string
		)
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, cellText(cell))
			})
			if len(cells) == 0 {
				return
			}
			if !haveCols {
				cols, haveCols = detectColumns(cells)
				return
			}
			// Single-cell rows are category banners ("FISH", "SPICES").
			if len(cells) == 1 {
				category = cells[0]
				return
			}
			r := models.RawPriceRow{
				Commodity:     cellAt(cells, cols.commodity),
				Type:          cellAt(cells, cols.typ),
				Specification: cellAt(cells, cols.spec),
				Amount:        models.ParseAmount(cellAt(cells, cols.amount)),
				Date:          cellAt(cells, cols.date),
			}
			if r.Commodity == "" && category != "" {
				r.Commodity = category
			}
			rows = append(rows, r)
		})
	})
	if len(rows) == 0 {
		return nil, fmt.Errorf("no price table found")
	}
	return rows, nil
}

func cellAt(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

func cellText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}
