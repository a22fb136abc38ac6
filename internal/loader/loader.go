package loader

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/dipscan/internal/contracts"
	"github.com/wonny/dipscan/internal/entity"
	"github.com/wonny/dipscan/internal/normalize"
	"github.com/wonny/dipscan/pkg/logger"
)

// Required input columns, matched exactly after trimming
const (
	ColumnDate  = "Date"
	ColumnPrice = "Price"
)

// UnknownCompany labels inputs whose name resolves to nothing
const UnknownCompany = "unknown"

// Input is one upload-like byte stream with its display name
type Input struct {
	Name string
	Data []byte
}

// Observer receives per-file outcomes, e.g. for metrics
type Observer interface {
	FileLoaded(report contracts.FileReport)
	FileSkipped(warning contracts.FileWarning)
}

// Loader reads price files into one consolidated dataset
// ⭐ SSOT: 가격 파일 → Dataset 변환은 여기서만
type Loader struct {
	resolver *entity.Resolver
	workers  int
	observer Observer
	logger   *logger.Logger
}

// Option configures a Loader
type Option func(*Loader)

// WithWorkers bounds how many inputs are parsed concurrently
func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithObserver attaches an outcome observer
func WithObserver(o Observer) Option {
	return func(l *Loader) { l.observer = o }
}

// WithLogger attaches a logger
func WithLogger(log *logger.Logger) Option {
	return func(l *Loader) { l.logger = log.WithComponent("loader") }
}

// New creates a Loader. A nil resolver means the built-in alias table.
func New(resolver *entity.Resolver, opts ...Option) *Loader {
	if resolver == nil {
		resolver = entity.Default()
	}

	l := &Loader{
		resolver: resolver,
		workers:  1,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// fileResult is the per-input slot written by exactly one worker
type fileResult struct {
	points  []contracts.PricePoint
	report  contracts.FileReport
	warning *contracts.FileWarning
}

// Load parses every input and consolidates the rows.
// Bad files become warnings; the error is reserved for cancellation.
func (l *Loader) Load(ctx context.Context, inputs []Input) (*contracts.LoadResult, error) {
	start := time.Now()
	results := make([]fileResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = l.loadOne(inputs[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load inputs: %w", err)
	}

	result := &contracts.LoadResult{
		Warnings: make([]contracts.FileWarning, 0),
		Files:    make([]contracts.FileReport, 0, len(inputs)),
	}

	points := make([]contracts.PricePoint, 0)
	for _, r := range results {
		points = append(points, r.points...)
		result.Files = append(result.Files, r.report)
		if r.warning != nil {
			result.Warnings = append(result.Warnings, *r.warning)
		}
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Less(points[j])
	})
	result.Dataset = contracts.NewDataset(points)

	l.logger.WithFields(map[string]interface{}{
		"files":    len(inputs),
		"rows":     len(points),
		"warnings": len(result.Warnings),
		"elapsed":  time.Since(start).String(),
	}).Info("Load complete")

	return result, nil
}

func (l *Loader) loadOne(in Input) fileResult {
	company := l.resolver.Resolve(in.Name)
	if company == "" {
		company = UnknownCompany
	}

	report := contracts.FileReport{File: in.Name, Company: company}
	skip := func(reason contracts.WarningReason, msg string) fileResult {
		report.Skipped = true
		w := contracts.FileWarning{File: in.Name, Reason: reason, Message: msg}
		l.logger.WithFields(map[string]interface{}{
			"file":   in.Name,
			"reason": string(reason),
		}).Warn(msg)
		if l.observer != nil {
			l.observer.FileSkipped(w)
		}
		return fileResult{report: report, warning: &w}
	}

	format := DetectFormat(in.Name, in.Data)
	report.Format = string(format)

	tbl, err := readTable(format, in.Data)
	if err != nil {
		report.Encoding = tbl.encoding
		return skip(reasonFor(err), err.Error())
	}
	report.Encoding = tbl.encoding

	if len(tbl.header) == 0 {
		return skip(contracts.ReasonEmptyFile, "file has no header row")
	}

	dateIdx, priceIdx, missing := locateColumns(tbl.header)
	if len(missing) > 0 {
		return skip(contracts.ReasonMissingColumns, fmt.Sprintf("missing required columns: %v", missing))
	}

	points := make([]contracts.PricePoint, 0, len(tbl.rows))
	for _, row := range tbl.rows {
		report.RowsRead++

		date, ok := cellDate(tbl, row, dateIdx)
		if !ok {
			continue
		}
		price, ok := cellNumber(row, priceIdx)
		if !ok {
			continue
		}

		points = append(points, contracts.PricePoint{
			Company: company,
			Date:    date,
			Price:   price,
		})
	}
	report.RowsKept = len(points)

	l.logger.WithFields(map[string]interface{}{
		"file":     in.Name,
		"company":  company,
		"format":   report.Format,
		"encoding": report.Encoding,
		"rows":     report.RowsKept,
		"dropped":  report.RowsDropped(),
	}).Debug("File loaded")

	if l.observer != nil {
		l.observer.FileLoaded(report)
	}

	return fileResult{points: points, report: report}
}

// locateColumns finds the required columns in a trimmed header
func locateColumns(header []string) (dateIdx, priceIdx int, missing []string) {
	dateIdx, priceIdx = -1, -1
	for i, h := range header {
		switch h {
		case ColumnDate:
			if dateIdx < 0 {
				dateIdx = i
			}
		case ColumnPrice:
			if priceIdx < 0 {
				priceIdx = i
			}
		}
	}

	if dateIdx < 0 {
		missing = append(missing, ColumnDate)
	}
	if priceIdx < 0 {
		missing = append(missing, ColumnPrice)
	}
	return dateIdx, priceIdx, missing
}

func cellDate(tbl table, row []string, idx int) (time.Time, bool) {
	if idx >= len(row) {
		return time.Time{}, false
	}
	if d, ok := normalize.Date(row[idx]); ok {
		return d, true
	}
	if tbl.dateFallback != nil {
		return tbl.dateFallback(row[idx])
	}
	return time.Time{}, false
}

func cellNumber(row []string, idx int) (float64, bool) {
	if idx >= len(row) {
		return 0, false
	}
	return normalize.Number(row[idx])
}
