package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/seenimoa/agriprice/pkg/models"
)

// readRows loads price rows from a .json or .csv file.
func readRows(path string) ([]models.RawPriceRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return parseCSVRows(bytes.NewReader(data))
	}
	return parseJSONRows(data)
}

func parseJSONRows(data []byte) ([]models.RawPriceRow, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var rows []models.RawPriceRow
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
		return rows, nil
	}
	var wrapped struct {
		Rows []models.RawPriceRow `json:"rows"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return wrapped.Rows, nil
}

// parseCSVRows reads a header row naming Commodity, Type, Specification,
// Amount and Date (any case, any order). Missing columns are left empty.
func parseCSVRows(r io.Reader) ([]models.RawPriceRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := col["commodity"]; !ok {
		if _, ok := col["type"]; !ok {
			return nil, fmt.Errorf("csv header needs a Commodity or Type column")
		}
	}
	get := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []models.RawPriceRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		spec := get(rec, "specification")
		if strings.EqualFold(spec, "nan") {
			spec = ""
		}
		rows = append(rows, models.RawPriceRow{
			Commodity:     get(rec, "commodity"),
			Type:          get(rec, "type"),
			Specification: spec,
			Amount:        models.ParseAmount(get(rec, "amount")),
			Date:          get(rec, "date"),
		})
	}
	return rows, nil
}
