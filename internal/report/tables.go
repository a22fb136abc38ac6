package report

import (
	"strconv"

	"github.com/wonny/dipscan/internal/contracts"
	"github.com/wonny/dipscan/internal/normalize"
)

// Table is a header plus string cells, shared by the CSV and XLSX writers
type Table struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

// PricesTable renders the dataset view
func PricesTable(ds contracts.Dataset) Table {
	t := Table{Name: "Prices", Header: ds.Columns()}
	for _, p := range ds.Points {
		t.Rows = append(t.Rows, []interface{}{
			p.Company,
			p.Date.Format(contracts.DateLayout),
			p.Price,
			optional(normalize.Round2Ptr(p.ReturnPct)),
		})
	}
	return t
}

// SummaryTable renders one row per company
func SummaryTable(records []contracts.SummaryRecord) Table {
	t := Table{Name: "Summary", Header: contracts.SummaryColumns}
	for _, r := range records {
		t.Rows = append(t.Rows, []interface{}{
			r.Company,
			r.FirstPrice,
			r.LastPrice,
			optional(r.TotalReturn),
			optional(r.Volatility),
			optional(r.MaxReturn),
			optional(r.MinReturn),
		})
	}
	return t
}

// EventsTable renders declines or rises in date, entity, price, return order
func EventsTable(name string, events []contracts.PricePoint) Table {
	t := Table{Name: name, Header: contracts.EventColumns}
	for _, e := range events {
		t.Rows = append(t.Rows, []interface{}{
			e.Date.Format(contracts.DateLayout),
			e.Company,
			e.Price,
			optional(normalize.Round2Ptr(e.ReturnPct)),
		})
	}
	return t
}

// optional turns a nil pointer into an empty cell
func optional(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

// StringRows returns every row formatted the way the CSV writer does
func (t Table) StringRows() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		out[i] = cells
	}
	return out
}
