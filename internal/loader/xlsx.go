package loader

import (
	"bytes"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/dipscan/internal/contracts"
	"github.com/wonny/dipscan/internal/normalize"
)

// readXLSX reads the first worksheet. Leading blank rows are skipped so the
// first non-empty row is the header.
func readXLSX(data []byte) (table, error) {
	tbl := table{dateFallback: excelSerialDate}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return tbl, newReadError(contracts.ReasonParseFailed, "open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tbl, newReadError(contracts.ReasonEmptyFile, "workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tbl, newReadError(contracts.ReasonParseFailed, "read sheet %q: %v", sheets[0], err)
	}

	for len(rows) > 0 && isBlank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return tbl, newReadError(contracts.ReasonEmptyFile, "sheet %q has no rows", sheets[0])
	}

	tbl.header = trimAll(rows[0])
	tbl.rows = rows[1:]
	return tbl, nil
}

// excelSerialDate accepts date cells stored as raw 1900-system serials
func excelSerialDate(raw string) (time.Time, bool) {
	serial, ok := normalize.Number(raw)
	if !ok || serial <= 0 {
		return time.Time{}, false
	}

	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return normalize.CalendarDate(t), true
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
