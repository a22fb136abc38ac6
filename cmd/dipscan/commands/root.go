package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/dipscan/internal/analytics"
	"github.com/wonny/dipscan/internal/entity"
	"github.com/wonny/dipscan/internal/loader"
	"github.com/wonny/dipscan/pkg/config"
	"github.com/wonny/dipscan/pkg/logger"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dipscan",
	Short: "주가 히스토리 급락/급등 분석기",
	Long: `dipscan - price history ETL and analytics

여러 회사의 주가 파일(CSV/TSV/XLSX/HTML)을 하나의 데이터셋으로 통합하고
일별 수익률, 회사별 요약 통계, 급락(DIP)/급등(Momentum) 이벤트를 계산합니다.

Usage:
  go run ./cmd/dipscan [command]

Examples:
  go run ./cmd/dipscan analyze data/*.csv --threshold 10
  go run ./cmd/dipscan api --port 8080
  go run ./cmd/dipscan scheduler --once
  go run ./cmd/dipscan aliases`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// bootstrap loads config and builds the logger every command shares
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	return cfg, logger.New(cfg), nil
}

// newAnalyzer wires resolver → loader → analyzer from config
func newAnalyzer(cfg *config.Config, log *logger.Logger, observer loader.Observer) (*analytics.Analyzer, error) {
	resolver, err := entity.FromFile(cfg.Analysis.AliasFile)
	if err != nil {
		return nil, fmt.Errorf("load aliases: %w", err)
	}

	opts := []loader.Option{
		loader.WithWorkers(cfg.Analysis.Workers),
		loader.WithLogger(log),
	}
	if observer != nil {
		opts = append(opts, loader.WithObserver(observer))
	}

	return analytics.NewAnalyzer(loader.New(resolver, opts...), log), nil
}
