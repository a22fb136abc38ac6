package contracts

import (
	"encoding/json"
	"sort"
	"time"
)

// DateLayout is the calendar-date format used on every output surface
const DateLayout = "2006-01-02"

// DatasetColumns is the fixed shape of a consolidated dataset
var DatasetColumns = []string{"company", "date", "price", "return_pct"}

// PricePoint is one normalized row of a price history
// ⭐ SSOT: S0 Loader → Analytics 행 단위 데이터
type PricePoint struct {
	Company   string    `json:"company"`
	Date      time.Time `json:"date"`       // UTC midnight, time-of-day dropped
	Price     float64   `json:"price"`
	ReturnPct *float64  `json:"return_pct"` // nil for the first row of a company
}

type pricePointJSON struct {
	Company   string   `json:"company"`
	Date      string   `json:"date"`
	Price     float64  `json:"price"`
	ReturnPct *float64 `json:"return_pct"`
}

// MarshalJSON writes the date as YYYY-MM-DD
func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(pricePointJSON{
		Company:   p.Company,
		Date:      p.Date.Format(DateLayout),
		Price:     p.Price,
		ReturnPct: p.ReturnPct,
	})
}

// UnmarshalJSON reads the YYYY-MM-DD date form
func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var raw pricePointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	date, err := time.Parse(DateLayout, raw.Date)
	if err != nil {
		return err
	}

	*p = PricePoint{
		Company:   raw.Company,
		Date:      date,
		Price:     raw.Price,
		ReturnPct: raw.ReturnPct,
	}
	return nil
}

// HasReturn reports whether a return has been derived for the row
func (p PricePoint) HasReturn() bool {
	return p.ReturnPct != nil
}

// Less orders rows by (company, date)
func (p PricePoint) Less(other PricePoint) bool {
	if p.Company != other.Company {
		return p.Company < other.Company
	}
	return p.Date.Before(other.Date)
}

// Dataset is an ordered, read-only sequence of price points.
// Loader output is sorted ascending by (company, date); every operation on a
// Dataset returns a new value and leaves the receiver untouched.
type Dataset struct {
	Points []PricePoint `json:"points"`
}

// NewDataset wraps points without copying or sorting them
func NewDataset(points []PricePoint) Dataset {
	if points == nil {
		points = []PricePoint{}
	}
	return Dataset{Points: points}
}

// Columns returns the dataset shape, also for an empty dataset
func (d Dataset) Columns() []string {
	cols := make([]string, len(DatasetColumns))
	copy(cols, DatasetColumns)
	return cols
}

// Len returns the number of rows
func (d Dataset) Len() int {
	return len(d.Points)
}

// IsEmpty reports whether the dataset has no rows
func (d Dataset) IsEmpty() bool {
	return len(d.Points) == 0
}

// IsSorted reports whether rows are ordered by (company, date)
func (d Dataset) IsSorted() bool {
	return sort.SliceIsSorted(d.Points, func(i, j int) bool {
		return d.Points[i].Less(d.Points[j])
	})
}

// Companies returns the distinct companies in ascending order
func (d Dataset) Companies() []string {
	seen := make(map[string]struct{})
	companies := make([]string, 0)
	for _, p := range d.Points {
		if _, ok := seen[p.Company]; ok {
			continue
		}
		seen[p.Company] = struct{}{}
		companies = append(companies, p.Company)
	}
	sort.Strings(companies)
	return companies
}

// DateRange returns the earliest and latest dates; ok is false when empty
func (d Dataset) DateRange() (from, to time.Time, ok bool) {
	if len(d.Points) == 0 {
		return time.Time{}, time.Time{}, false
	}

	from, to = d.Points[0].Date, d.Points[0].Date
	for _, p := range d.Points[1:] {
		if p.Date.Before(from) {
			from = p.Date
		}
		if p.Date.After(to) {
			to = p.Date
		}
	}
	return from, to, true
}

// Clone returns a deep copy of the rows
func (d Dataset) Clone() Dataset {
	points := make([]PricePoint, len(d.Points))
	for i, p := range d.Points {
		if p.ReturnPct != nil {
			r := *p.ReturnPct
			p.ReturnPct = &r
		}
		points[i] = p
	}
	return Dataset{Points: points}
}

// Float returns a pointer to v, for nullable numeric fields
func Float(v float64) *float64 {
	return &v
}
