package analytics

import (
	"context"
	"fmt"

	"github.com/wonny/dipscan/internal/contracts"
	"github.com/wonny/dipscan/internal/loader"
	"github.com/wonny/dipscan/pkg/logger"
)

// Analysis is a loaded dataset with returns already derived.
// It is immutable; views are computed on demand.
type Analysis struct {
	Dataset  contracts.Dataset       `json:"dataset"`
	Files    []contracts.FileReport  `json:"files"`
	Warnings []contracts.FileWarning `json:"warnings"`
}

// Report is everything derived for one view of an analysis
type Report struct {
	Window  Window                    `json:"window"`
	Prices  contracts.Dataset         `json:"prices"`
	Summary []contracts.SummaryRecord `json:"summary"`
	Events  *contracts.Events         `json:"events"`
}

// Analyzer runs load → returns, the part of the pipeline shared by every view
// ⭐ SSOT: 분석 파이프라인 진입점
type Analyzer struct {
	loader *loader.Loader
	logger *logger.Logger
}

// NewAnalyzer creates an Analyzer
func NewAnalyzer(l *loader.Loader, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{
		loader: l,
		logger: log.WithComponent("analyzer"),
	}
}

// Analyze loads inputs and computes returns on the full dataset, before any
// filtering, so a window's first row keeps its return against the prior row.
func (a *Analyzer) Analyze(ctx context.Context, inputs []loader.Input) (*Analysis, error) {
	loaded, err := a.loader.Load(ctx, inputs)
	if err != nil {
		return nil, err
	}

	enriched, err := ComputeReturns(loaded.Dataset)
	if err != nil {
		return nil, fmt.Errorf("compute returns: %w", err)
	}

	a.logger.WithFields(map[string]interface{}{
		"companies": len(enriched.Companies()),
		"rows":      enriched.Len(),
		"warnings":  len(loaded.Warnings),
	}).Info("Analysis ready")

	return &Analysis{
		Dataset:  enriched,
		Files:    loaded.Files,
		Warnings: loaded.Warnings,
	}, nil
}

// Select returns the filtered rows
func (an *Analysis) Select(f Filter) (contracts.Dataset, error) {
	return Select(an.Dataset, f)
}

// Report builds prices, summary and events for a filtered view
func (an *Analysis) Report(f Filter, threshold float64) (*Report, error) {
	view, err := an.Select(f)
	if err != nil {
		return nil, err
	}

	events, err := DetectEvents(view, threshold)
	if err != nil {
		return nil, err
	}

	return &Report{
		Window:  Describe(view),
		Prices:  view,
		Summary: Summarize(view),
		Events:  events,
	}, nil
}
