package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wonny/dipscan/internal/analytics"
	"github.com/wonny/dipscan/internal/report"
	"github.com/wonny/dipscan/internal/source"
	"github.com/wonny/dipscan/pkg/logger"
)

// processedDir is where analyzed inbox files are moved
const processedDir = "processed"

// InboxReportConfig holds the inbox job settings
type InboxReportConfig struct {
	Schedule  string
	InboxDir  string
	OutputDir string
	Threshold float64
}

// InboxReportJob analyzes every price file dropped into the inbox and
// writes CSV and XLSX reports into a timestamped output directory.
// ⭐ SSOT: 인박스 리포트 배치는 여기서만
type InboxReportJob struct {
	cfg      InboxReportConfig
	analyzer *analytics.Analyzer
	reader   *source.Reader
	logger   *logger.Logger
	now      func() time.Time
}

// NewInboxReportJob creates a new inbox report job
func NewInboxReportJob(cfg InboxReportConfig, analyzer *analytics.Analyzer, reader *source.Reader, log *logger.Logger) *InboxReportJob {
	return &InboxReportJob{
		cfg:      cfg,
		analyzer: analyzer,
		reader:   reader,
		logger:   log,
		now:      time.Now,
	}
}

// Name returns the job name
func (j *InboxReportJob) Name() string {
	return "inbox_report"
}

// Schedule returns the configured cron schedule
func (j *InboxReportJob) Schedule() string {
	return j.cfg.Schedule
}

// Run executes one inbox pass. An empty inbox, or files without any valid
// rows, is not a failure: retrying would not change the outcome.
func (j *InboxReportJob) Run(ctx context.Context) error {
	if err := os.MkdirAll(j.cfg.InboxDir, 0o755); err != nil {
		return fmt.Errorf("create inbox: %w", err)
	}

	refs, err := source.Expand([]string{j.cfg.InboxDir})
	if err != nil {
		return fmt.Errorf("scan inbox: %w", err)
	}
	if len(refs) == 0 {
		j.logger.Debug("Inbox empty, nothing to report")
		return nil
	}

	inputs, err := j.reader.Read(ctx, refs)
	if err != nil {
		return fmt.Errorf("read inbox: %w", err)
	}

	analysis, err := j.analyzer.Analyze(ctx, inputs)
	if err != nil {
		return fmt.Errorf("analyze inbox: %w", err)
	}
	for _, w := range analysis.Warnings {
		j.logger.WithFields(map[string]interface{}{
			"file":   w.File,
			"reason": string(w.Reason),
		}).Warn(w.Message)
	}

	rep, err := analysis.Report(analytics.Filter{}, j.cfg.Threshold)
	if errors.Is(err, analytics.ErrNoData) || errors.Is(err, analytics.ErrEmptySelection) {
		j.logger.WithError(err).Warn("No report produced")
		return j.archive(refs)
	}
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	outDir := filepath.Join(j.cfg.OutputDir, j.now().UTC().Format("20060102T150405Z"))
	paths, err := report.WriteCSVDir(outDir, rep)
	if err != nil {
		return fmt.Errorf("write csv reports: %w", err)
	}
	xlsxPath := filepath.Join(outDir, "report.xlsx")
	if err := report.SaveXLSX(xlsxPath, rep); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	paths = append(paths, xlsxPath)

	j.logger.WithFields(map[string]interface{}{
		"files":     len(refs),
		"companies": len(rep.Window.Companies),
		"declines":  len(rep.Events.Declines),
		"rises":     len(rep.Events.Rises),
		"output":    outDir,
		"reports":   len(paths),
	}).Info("Inbox report written")

	return j.archive(refs)
}

// archive moves analyzed files out of the inbox so the next run skips them
func (j *InboxReportJob) archive(paths []string) error {
	dest := filepath.Join(j.cfg.InboxDir, processedDir)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create processed dir: %w", err)
	}

	for _, p := range paths {
		if err := os.Rename(p, filepath.Join(dest, filepath.Base(p))); err != nil {
			return fmt.Errorf("archive %s: %w", p, err)
		}
	}
	return nil
}
