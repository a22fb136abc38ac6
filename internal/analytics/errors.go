package analytics

import "errors"

var (
	// ErrNotSorted is returned when a dataset breaks the (company, date) order
	ErrNotSorted = errors.New("dataset is not sorted by company and date")

	// ErrInvalidThreshold is returned for a zero, NaN or infinite threshold
	ErrInvalidThreshold = errors.New("threshold must be a finite non-zero number")

	// ErrNoData means there were no rows to analyze at all
	ErrNoData = errors.New("no valid data loaded")

	// ErrEmptySelection means rows exist but none match the filter
	ErrEmptySelection = errors.New("no rows match the selected companies and period")
)
