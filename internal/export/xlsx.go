// Package export writes invoice listings and seed run reports as XLSX
// workbooks.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"invoiceseed/internal/core"
	"invoiceseed/internal/seed"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	failuresSheet = "Failures"
	skippedSheet  = "Skipped"
)

var invoiceHeaders = []string{
	"invoice_id", "vendor", "customer", "date", "status", "currency", "total_amount",
}

// WriteInvoicesXLSX writes one row per invoice to the first sheet.
func WriteInvoicesXLSX(outputPath string, rows []core.InvoiceRow) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	if err := writeRow(f, sheet, 1, toAny(invoiceHeaders)...); err != nil {
		return err
	}
	for i, row := range rows {
		err := writeRow(f, sheet, i+2,
			clip(row.InvoiceID),
			clip(row.VendorName),
			clip(row.CustomerName),
			row.Date.UTC().Format("2006-01-02"),
			row.Status,
			row.Currency,
			row.TotalAmount.InexactFloat64(),
		)
		if err != nil {
			return fmt.Errorf("invoice %q: %w", row.InvoiceID, err)
		}
	}
	return save(f, outputPath)
}

// WriteSeedReportXLSX writes the tallies of a seed run, its failures and the
// indexes of skipped records on separate sheets.
func WriteSeedReportXLSX(outputPath string, summary *seed.Summary) error {
	if summary == nil {
		return fmt.Errorf("seed report: nil summary")
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return err
	}

	tallies := [][2]any{
		{"run_id", summary.RunID},
		{"total", summary.Total},
		{"processed", summary.Processed},
		{"succeeded", summary.Succeeded},
		{"failed", summary.Failed},
		{"skipped", summary.Skipped},
		{"duration_ms", summary.Duration.Milliseconds()},
	}
	for i, kv := range tallies {
		if err := writeRow(f, summarySheet, i+1, kv[0], kv[1]); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(failuresSheet); err != nil {
		return err
	}
	if err := writeRow(f, failuresSheet, 1, "index", "message"); err != nil {
		return err
	}
	for i, fail := range summary.Failures {
		if err := writeRow(f, failuresSheet, i+2, fail.Index, clip(fail.Message)); err != nil {
			return fmt.Errorf("failure %d: %w", fail.Index, err)
		}
	}

	if _, err := f.NewSheet(skippedSheet); err != nil {
		return err
	}
	if err := writeRow(f, skippedSheet, 1, "index"); err != nil {
		return err
	}
	for i, idx := range summary.SkippedIndexes {
		if err := writeRow(f, skippedSheet, i+2, idx); err != nil {
			return err
		}
	}

	return save(f, outputPath)
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("%s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// clip shortens s to the longest text a cell accepts.
func clip(s string) string {
	r := []rune(s)
	if len(r) <= excelize.TotalCellChars {
		return s
	}
	return string(r[:excelize.TotalCellChars])
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func save(f *excelize.File, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("save %s: %w", outputPath, err)
	}
	return nil
}
