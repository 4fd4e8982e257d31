package records

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportFileName returns the download name for a CSV export taken at the
// given time, e.g. "document_records_2025-06-01.csv".
func ExportFileName(now time.Time) string {
	return "document_records_" + now.UTC().Format("2006-01-02") + ".csv"
}

// ExportXLSXFileName returns the download name for an XLSX export.
func ExportXLSXFileName(now time.Time) string {
	return "document_records_" + now.UTC().Format("2006-01-02") + ".xlsx"
}

// WriteCSV renders records as CSV with the canonical header row.
func WriteCSV(recs []SubjectRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(FieldOrder); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range recs {
		if err := w.Write(rec.Fields()); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteXLSX renders records as an XLSX workbook with the canonical header
// row, one record per row.
func WriteXLSX(recs []SubjectRecord) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Records"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range FieldOrder {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for rowIdx, rec := range recs {
		for colIdx, value := range rec.Fields() {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	// Widen the identity columns; the rest stay at the default width.
	_ = f.SetColWidth(sheet, "A", "B", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
