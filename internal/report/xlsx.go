package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/dipscan/internal/analytics"
)

// Workbook builds a workbook with one sheet per table
func Workbook(r *analytics.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, t := range Tables(r) {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				f.Close()
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", t.Name, err)
		}

		if err := writeSheet(f, t, bold); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

func writeSheet(f *excelize.File, t Table, headerStyle int) error {
	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", t.Name, err)
	}

	last, err := excelize.CoordinatesToCellName(len(t.Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.Name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", t.Name, err)
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", t.Name, i+2, err)
		}
	}
	return nil
}

// WriteXLSX streams the report workbook to w
func WriteXLSX(w io.Writer, r *analytics.Report) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the report workbook to path
func SaveXLSX(path string, r *analytics.Report) error {
	return writeFile(path, func(w io.Writer) error { return WriteXLSX(w, r) })
}
