// Package sheet reads candidate records from spreadsheets and JSON and
// writes classified results back out as XLSX.
package sheet

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/relist-cli/internal/model"
)

// Options selects the worksheet to read.
type Options struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// Input column names. Matching is case-insensitive and ignores spaces and
// dashes, so "Resolved ID" maps to resolved_id.
const (
	ColResolvedID       = "resolved_id"
	ColTitleText        = "title_text"
	ColExtractedBrand   = "extracted_brand"
	ColExtractedQty     = "extracted_quantity"
	ColSellerType       = "seller_type"
	ColIsPrimeEligible  = "is_prime_eligible"
	ColFulfillmentHours = "fulfillment_hours"
	ColRelevanceScore   = "relevance_score"
)

// Load reads candidates from path, choosing the decoder by extension:
// .xlsx for spreadsheets, anything else as a JSON array.
func Load(path string, opts Options) ([]model.CandidateRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadCandidates(path, opts)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sheet: read %s", path)
	}
	var records []model.CandidateRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrapf(err, "sheet: decode %s", path)
	}
	// A second pass sees which required numbers were absent or null.
	var present []struct {
		RelevanceScore *float64 `json:"relevance_score"`
	}
	if err := json.Unmarshal(data, &present); err != nil {
		return nil, eris.Wrapf(err, "sheet: decode %s", path)
	}
	for i := range records {
		records[i].SellerType = model.ParseSellerType(string(records[i].SellerType))
		if present[i].RelevanceScore == nil {
			records[i].MissingFields = markMissing(records[i].MissingFields, model.FieldRelevanceScore)
		}
	}
	return records, nil
}

func markMissing(fields []string, name string) []string {
	for _, f := range fields {
		if f == name {
			return fields
		}
	}
	return append(fields, name)
}

// ReadCandidates reads one candidate per row of an XLSX worksheet whose
// first row is a header. Unparseable numeric cells become NaN so the
// record is excluded as invalid input rather than aborting the file.
func ReadCandidates(path string, opts Options) ([]model.CandidateRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "sheet: open file")
	}

	sh, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sh.Rows) == 0 {
		return nil, nil
	}

	cols := headerIndex(rowToStrings(sh.Rows[0]))
	if _, ok := cols[ColTitleText]; !ok {
		if _, ok := cols[ColResolvedID]; !ok {
			return nil, eris.Errorf("sheet: %s has neither %s nor %s column", path, ColTitleText, ColResolvedID)
		}
	}

	var records []model.CandidateRecord
	for _, row := range sh.Rows[1:] {
		cells := rowToStrings(row)
		if blank(cells) {
			continue
		}
		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[i])
		}

		rec := model.CandidateRecord{
			ResolvedID:        get(ColResolvedID),
			TitleText:         get(ColTitleText),
			ExtractedBrand:    get(ColExtractedBrand),
			ExtractedQuantity: get(ColExtractedQty),
			SellerType:        model.ParseSellerType(get(ColSellerType)),
			IsPrimeEligible:   parseBool(get(ColIsPrimeEligible)),
			RelevanceScore:    parseFloat(get(ColRelevanceScore), 0),
		}
		if get(ColRelevanceScore) == "" {
			rec.MissingFields = []string{model.FieldRelevanceScore}
		}
		if h := get(ColFulfillmentHours); h != "" {
			rec.FulfillmentHours = model.Hours(parseFloat(h, math.NaN()))
		}
		records = append(records, rec)
	}
	return records, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
		if _, dup := idx[key]; !dup && key != "" {
			idx[key] = i
		}
	}
	return idx
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y", "prime":
		return true
	}
	return false
}

// parseFloat returns empty for "", NaN for unparseable text.
func parseFloat(s string, empty float64) float64 {
	if s == "" {
		return empty
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func getSheet(f *xlsx.File, opts Options) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sh, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("sheet: sheet %q not found", opts.SheetName)
		}
		return sh, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("sheet: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
