package analytics

import (
	"math"
	"sort"

	"github.com/wonny/dipscan/internal/contracts"
)

// eventTolerance absorbs binary float error so a move of exactly the
// threshold qualifies (100 -> 90 computes to -9.999999999999998)
const eventTolerance = 1e-9

// ExtractEvents returns rows whose return is at or beyond ±threshold.
// The threshold sign is ignored. Both lists are ordered by date descending,
// then company ascending.
func ExtractEvents(ds contracts.Dataset, threshold float64) (declines, rises []contracts.PricePoint, err error) {
	if threshold == 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return nil, nil, ErrInvalidThreshold
	}
	limit := math.Abs(threshold)

	declines = make([]contracts.PricePoint, 0)
	rises = make([]contracts.PricePoint, 0)

	for _, p := range ds.Points {
		if p.ReturnPct == nil {
			continue
		}
		r := *p.ReturnPct
		switch {
		case r <= -limit+eventTolerance:
			declines = append(declines, p)
		case r >= limit-eventTolerance:
			rises = append(rises, p)
		}
	}

	sortEvents(declines)
	sortEvents(rises)
	return declines, rises, nil
}

// DetectEvents wraps ExtractEvents into the contracts.Events shape
func DetectEvents(ds contracts.Dataset, threshold float64) (*contracts.Events, error) {
	declines, rises, err := ExtractEvents(ds, threshold)
	if err != nil {
		return nil, err
	}
	return &contracts.Events{
		Threshold: math.Abs(threshold),
		Declines:  declines,
		Rises:     rises,
	}, nil
}

func sortEvents(events []contracts.PricePoint) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Company < b.Company
	})
}
