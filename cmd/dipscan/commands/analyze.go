package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/dipscan/internal/analytics"
	"github.com/wonny/dipscan/internal/contracts"
	"github.com/wonny/dipscan/internal/normalize"
	"github.com/wonny/dipscan/internal/report"
	"github.com/wonny/dipscan/internal/source"
	"github.com/wonny/dipscan/pkg/config"
	"github.com/wonny/dipscan/pkg/httputil"
	"github.com/wonny/dipscan/pkg/logger"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [files|dirs|urls...]",
	Short: "주가 파일 분석",
	Long: `주가 파일을 통합하고 요약 통계와 급락/급등 이벤트를 출력합니다.

입력은 로컬 파일, 디렉터리(내부 가격 파일 전체), http(s) URL을 지원합니다.
읽을 수 없는 파일은 경고와 함께 건너뜁니다.

Example:
  go run ./cmd/dipscan analyze data/
  go run ./cmd/dipscan analyze boeing.csv rtx.xlsx --threshold 5
  go run ./cmd/dipscan analyze data/ --companies Boeing --from 2024-01-01 --out-dir out/
  go run ./cmd/dipscan analyze data/ --xlsx report.xlsx --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

// analyzeOptions holds the analyze flags
type analyzeOptions struct {
	Companies []string
	From      string
	To        string
	Threshold float64
	OutDir    string
	XLSX      string
	JSON      bool
}

var analyzeOpts analyzeOptions

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().StringSliceVar(&analyzeOpts.Companies, "companies", nil, "회사 필터 (기본: 전체)")
	analyzeCmd.Flags().StringVar(&analyzeOpts.From, "from", "", "시작일 YYYY-MM-DD (포함)")
	analyzeCmd.Flags().StringVar(&analyzeOpts.To, "to", "", "종료일 YYYY-MM-DD (포함)")
	analyzeCmd.Flags().Float64Var(&analyzeOpts.Threshold, "threshold", 0, "이벤트 임계값 % (기본: ANALYSIS_THRESHOLD)")
	analyzeCmd.Flags().StringVar(&analyzeOpts.OutDir, "out-dir", "", "CSV 리포트 출력 디렉터리")
	analyzeCmd.Flags().StringVar(&analyzeOpts.XLSX, "xlsx", "", "XLSX 리포트 경로")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.JSON, "json", false, "JSON으로 출력")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	opts := analyzeOpts
	if !cmd.Flags().Changed("threshold") {
		opts.Threshold = cfg.Analysis.Threshold
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return analyze(ctx, cmd.OutOrStdout(), cfg, log, opts, args)
}

// filter converts the flag values into a view filter
func (o analyzeOptions) filter() (analytics.Filter, error) {
	f := analytics.Filter{Companies: o.Companies}

	if o.From != "" {
		from, err := normalize.ParseDay(o.From)
		if err != nil {
			return f, fmt.Errorf("--from: %w", err)
		}
		f.From = &from
	}
	if o.To != "" {
		to, err := normalize.ParseDay(o.To)
		if err != nil {
			return f, fmt.Errorf("--to: %w", err)
		}
		f.To = &to
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, fmt.Errorf("--from %s is after --to %s", o.From, o.To)
	}

	return f, nil
}

// analyze runs the whole pipeline for refs and prints the result to w
func analyze(ctx context.Context, w io.Writer, cfg *config.Config, log *logger.Logger, opts analyzeOptions, refs []string) error {
	filter, err := opts.filter()
	if err != nil {
		return err
	}

	analyzer, err := newAnalyzer(cfg, log, nil)
	if err != nil {
		return err
	}

	reader := source.NewReader(httputil.New(cfg, log), log)
	inputs, err := reader.Read(ctx, refs)
	if err != nil {
		return fmt.Errorf("read inputs: %w", err)
	}

	analysis, err := analyzer.Analyze(ctx, inputs)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	rep, err := analysis.Report(filter, opts.Threshold)
	switch {
	case errors.Is(err, analytics.ErrNoData):
		PrintWarnings(w, analysis.Warnings)
		return fmt.Errorf("no valid price rows in %d input(s): %w", len(inputs), err)
	case errors.Is(err, analytics.ErrEmptySelection):
		PrintWarnings(w, analysis.Warnings)
		return fmt.Errorf("no rows match the selected companies and period: %w", err)
	case err != nil:
		return err
	}

	if opts.JSON {
		if err := writeJSON(w, analysis, rep); err != nil {
			return err
		}
	} else {
		printReport(w, analysis, rep)
	}

	return writeReports(w, opts, rep, !opts.JSON)
}

func writeJSON(w io.Writer, analysis *analytics.Analysis, rep *analytics.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*analytics.Report
		Files    []contracts.FileReport  `json:"files"`
		Warnings []contracts.FileWarning `json:"warnings"`
	}{rep, analysis.Files, analysis.Warnings})
}

func printReport(w io.Writer, analysis *analytics.Analysis, rep *analytics.Report) {
	PrintWarnings(w, analysis.Warnings)

	PrintHeader(w, "Selection")
	PrintWindow(w, rep.Window)

	PrintHeader(w, "Summary")
	PrintTable(w, report.SummaryTable(rep.Summary))

	PrintHeader(w, fmt.Sprintf("DIP (return <= -%g%%)", rep.Events.Threshold))
	PrintTable(w, report.EventsTable("Declines", rep.Events.Declines))

	PrintHeader(w, fmt.Sprintf("Momentum (return >= %g%%)", rep.Events.Threshold))
	PrintTable(w, report.EventsTable("Rises", rep.Events.Rises))
	fmt.Fprintln(w)
}

func writeReports(w io.Writer, opts analyzeOptions, rep *analytics.Report, announce bool) error {
	if opts.OutDir != "" {
		paths, err := report.WriteCSVDir(opts.OutDir, rep)
		if err != nil {
			return err
		}
		if announce {
			PrintSuccess(w, fmt.Sprintf("%d CSV reports written to %s", len(paths), opts.OutDir))
		}
	}

	if opts.XLSX != "" {
		if err := report.SaveXLSX(opts.XLSX, rep); err != nil {
			return err
		}
		if announce {
			PrintSuccess(w, "Workbook written to "+opts.XLSX)
		}
	}

	return nil
}
