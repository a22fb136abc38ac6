package analytics

import (
	"encoding/json"
	"time"

	"github.com/wonny/dipscan/internal/contracts"
	"github.com/wonny/dipscan/internal/normalize"
)

// Filter selects a view of a dataset. An empty company list means every
// company; a nil bound leaves that side of the period open. Bounds are
// inclusive calendar dates.
type Filter struct {
	Companies []string
	From      *time.Time
	To        *time.Time
}

// Select returns the rows matching f without touching ds
func Select(ds contracts.Dataset, f Filter) (contracts.Dataset, error) {
	if ds.IsEmpty() {
		return contracts.NewDataset(nil), ErrNoData
	}

	var allowed map[string]struct{}
	if len(f.Companies) > 0 {
		allowed = make(map[string]struct{}, len(f.Companies))
		for _, c := range f.Companies {
			allowed[c] = struct{}{}
		}
	}

	var from, to time.Time
	if f.From != nil {
		from = normalize.CalendarDate(*f.From)
	}
	if f.To != nil {
		to = normalize.CalendarDate(*f.To)
	}

	out := make([]contracts.PricePoint, 0, len(ds.Points))
	for _, p := range ds.Points {
		if allowed != nil {
			if _, ok := allowed[p.Company]; !ok {
				continue
			}
		}
		if f.From != nil && p.Date.Before(from) {
			continue
		}
		if f.To != nil && p.Date.After(to) {
			continue
		}
		out = append(out, p)
	}

	if len(out) == 0 {
		return contracts.NewDataset(out), ErrEmptySelection
	}
	return contracts.NewDataset(out).Clone(), nil
}

// Window describes the selection a view actually covers
type Window struct {
	Companies []string  `json:"companies"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Rows      int       `json:"rows"`
}

// Describe reports the companies and period present in a view
func Describe(ds contracts.Dataset) Window {
	from, to, _ := ds.DateRange()
	return Window{
		Companies: ds.Companies(),
		From:      from,
		To:        to,
		Rows:      ds.Len(),
	}
}

type windowJSON struct {
	Companies []string `json:"companies"`
	From      string   `json:"from,omitempty"`
	To        string   `json:"to,omitempty"`
	Rows      int      `json:"rows"`
}

// MarshalJSON writes the period as YYYY-MM-DD
func (w Window) MarshalJSON() ([]byte, error) {
	out := windowJSON{Companies: w.Companies, Rows: w.Rows}
	if !w.From.IsZero() {
		out.From = w.From.Format(contracts.DateLayout)
		out.To = w.To.Format(contracts.DateLayout)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the YYYY-MM-DD period form
func (w *Window) UnmarshalJSON(data []byte) error {
	var raw windowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*w = Window{Companies: raw.Companies, Rows: raw.Rows}
	if raw.From == "" {
		return nil
	}

	from, err := time.Parse(contracts.DateLayout, raw.From)
	if err != nil {
		return err
	}
	to, err := time.Parse(contracts.DateLayout, raw.To)
	if err != nil {
		return err
	}
	w.From, w.To = from, to
	return nil
}
