package analytics

import (
	"github.com/wonny/dipscan/internal/contracts"
	"github.com/wonny/dipscan/internal/normalize"
)

// ComputeReturns derives the period-over-period percentage change within
// each company. The first row of a company, and any row following a zero
// price, get a nil return, as does a change too large for float64.
// The input is left untouched.
func ComputeReturns(ds contracts.Dataset) (contracts.Dataset, error) {
	if !ds.IsSorted() {
		return contracts.Dataset{}, ErrNotSorted
	}

	out := make([]contracts.PricePoint, len(ds.Points))
	prev := make(map[string]float64)

	for i, p := range ds.Points {
		p.ReturnPct = nil
		if last, ok := prev[p.Company]; ok && last != 0 {
			if r := 100 * (p.Price/last - 1); normalize.IsFinite(r) {
				p.ReturnPct = &r
			}
		}
		prev[p.Company] = p.Price
		out[i] = p
	}

	return contracts.NewDataset(out), nil
}
