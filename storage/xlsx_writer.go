package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"airbnb-reconciler/models"
)

const xlsxSheet = "Listings"

// XLSXWriter writes the listing table to a spreadsheet. Rows accumulate
// until Close saves the file.
type XLSXWriter struct {
	path string
	file *excelize.File
	row  int
}

func NewXLSXWriter(path string) (*XLSXWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("xlsx: create output dir: %w", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx: name sheet: %w", err)
	}

	x := &XLSXWriter{path: path, file: f, row: 1}
	if err := x.appendRow(DetailColumns); err != nil {
		_ = f.Close()
		return nil, err
	}
	return x, nil
}

func (x *XLSXWriter) Write(details []*models.ExternalListingDetail) error {
	for _, d := range details {
		if err := x.appendRow(DetailRow(d)); err != nil {
			return err
		}
	}
	return nil
}

func (x *XLSXWriter) appendRow(values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return fmt.Errorf("xlsx: cell name: %w", err)
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := x.file.SetSheetRow(xlsxSheet, cell, &row); err != nil {
		return fmt.Errorf("xlsx: write row %d: %w", x.row, err)
	}
	x.row++
	return nil
}

// Close saves the workbook.
func (x *XLSXWriter) Close() error {
	defer x.file.Close()
	if err := x.file.SaveAs(x.path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", x.path, err)
	}
	return nil
}
