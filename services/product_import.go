package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ProductRow is one workbook row: up to three codes and a description
type ProductRow struct {
	Codes       [3]string
	Description string
}

func (r ProductRow) blank() bool {
	return r.Description == "" && r.Codes[0] == "" && r.Codes[1] == "" && r.Codes[2] == ""
}

// ImportSummary counts what a bulk import did
type ImportSummary struct {
	TotalRows         int  `json:"total_rows"`
	HeaderSkipped     bool `json:"header_skipped"`
	Created           int  `json:"created"`
	CodesAdded        int  `json:"codes_added"`
	DuplicatesSkipped int  `json:"duplicates_skipped"`
	CapSkipped        int  `json:"cap_skipped"`
	InvalidRows       int  `json:"invalid_rows"`
}

// ParseProductWorkbook reads the first sheet: columns A-C hold codes and D
// the description. A leading header row is detected and skipped.
func ParseProductWorkbook(file io.Reader) ([]ProductRow, bool, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, false, fmt.Errorf("%w: no sheets", ErrInvalidWorkbook)
	}

	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	rows := make([]ProductRow, 0, len(raw))
	for _, cells := range raw {
		rows = append(rows, ProductRow{
			Codes:       [3]string{cell(cells, 0), cell(cells, 1), cell(cells, 2)},
			Description: cell(cells, 3),
		})
	}

	headerSkipped := false
	if len(rows) > 0 && looksLikeHeader(rows[0]) {
		rows = rows[1:]
		headerSkipped = true
	}
	return rows, headerSkipped, nil
}

func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// looksLikeHeader: column A mentions "cod" or is not a number, and column D
// mentions "desc" or is not a number.
func looksLikeHeader(r ProductRow) bool {
	a := strings.ToLower(r.Codes[0])
	d := strings.ToLower(r.Description)
	return (strings.Contains(a, "cod") || !numeric(a)) &&
		(strings.Contains(d, "desc") || !numeric(d))
}

func numeric(s string) bool {
	if s == "" {
		return true
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// ProductImporter loads workbook rows through the catalog index so every
// code invariant is enforced.
type ProductImporter struct {
	store *Store
}

// NewProductImporter creates an importer over store
func NewProductImporter(store *Store) *ProductImporter {
	return &ProductImporter{store: store}
}

// ImportWorkbook parses and imports a workbook
func (i *ProductImporter) ImportWorkbook(ctx context.Context, file io.Reader) (ImportSummary, error) {
	rows, headerSkipped, err := ParseProductWorkbook(file)
	if err != nil {
		return ImportSummary{}, err
	}
	summary, err := i.ImportRows(ctx, rows)
	summary.HeaderSkipped = headerSkipped
	return summary, err
}

// ImportRows applies rows in one mutation. A row reuses the product with
// the same normalized description or creates one.
func (i *ProductImporter) ImportRows(ctx context.Context, rows []ProductRow) (ImportSummary, error) {
	var summary ImportSummary
	err := i.store.Mutate(ctx, func(tx *Tx) error {
		summary = ImportSummary{}
		for _, row := range rows {
			if row.blank() {
				continue
			}
			summary.TotalRows++
			if err := importRow(tx.Catalog, row, &summary); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ImportSummary{}, err
	}

	log.Info().
		Int("rows", summary.TotalRows).
		Int("created", summary.Created).
		Int("codes_added", summary.CodesAdded).
		Int("duplicates", summary.DuplicatesSkipped).
		Int("cap_skipped", summary.CapSkipped).
		Int("invalid", summary.InvalidRows).
		Msg("Product import finished")
	return summary, nil
}

func importRow(catalog *CatalogIndex, row ProductRow, summary *ImportSummary) error {
	if row.Description == "" {
		summary.InvalidRows++
		return nil
	}

	product, ok := catalog.ByDescription(row.Description)
	if !ok {
		created, err := catalog.Create(row.Description, "")
		if err != nil {
			return err
		}
		product = created
		summary.Created++
	}

	for _, code := range row.Codes {
		if code == "" || product.HasCode(code) {
			continue
		}
		codes, err := catalog.AddCode(product.ID, code)
		switch {
		case errors.Is(err, ErrDuplicateCode):
			summary.DuplicatesSkipped++
		case errors.Is(err, ErrCodeCapExceeded):
			summary.CapSkipped++
		case err != nil:
			return err
		default:
			product.Codes = codes
			summary.CodesAdded++
		}
	}
	return nil
}

// GenerateProductTemplate builds an example workbook in the import layout
func GenerateProductTemplate() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Productos"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headers := []string{"Código 1", "Código 2", "Código 3", "Descripción"}
	for i, header := range headers {
		cellName, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cellName, header)
	}
	f.SetCellValue(sheet, "A2", "7791234567890")
	f.SetCellValue(sheet, "D2", "Remera básica blanca M")

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "D1", headerStyle)
	f.SetColWidth(sheet, "A", "C", 18)
	f.SetColWidth(sheet, "D", "D", 48)

	// Keep long barcodes as text
	textStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 49})
	f.SetCellStyle(sheet, "A2", "C1000", textStyle)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, nil
}
