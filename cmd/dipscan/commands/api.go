package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/dipscan/internal/api"
	"github.com/wonny/dipscan/internal/api/handlers"
	"github.com/wonny/dipscan/internal/loader"
	"github.com/wonny/dipscan/internal/metrics"
	"github.com/wonny/dipscan/internal/scheduler"
	"github.com/wonny/dipscan/internal/scheduler/jobs"
	"github.com/wonny/dipscan/internal/session"
	"github.com/wonny/dipscan/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

업로드한 주가 파일로 분석 세션을 만들고, 세션별로 가격/요약/이벤트 뷰와
XLSX 리포트를 제공합니다.

Endpoints:
  GET    /health
  GET    /metrics                           - Prometheus (METRICS_ENABLED)
  POST   /api/analyses                      - multipart "files" 업로드
  GET    /api/analyses/{id}                 - 세션 정보
  GET    /api/analyses/{id}/prices          - ?companies=&from=&to=
  GET    /api/analyses/{id}/summary         - ?companies=&from=&to=
  GET    /api/analyses/{id}/events          - ?threshold=&companies=&from=&to=
  GET    /api/analyses/{id}/export.xlsx     - XLSX 다운로드
  DELETE /api/analyses/{id}

Example:
  go run ./cmd/dipscan api
  go run ./cmd/dipscan api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== dipscan API Server ===")

	// 1. Load config + logger
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port":  cfg.Port,
		"env":   cfg.Env,
		"redis": cfg.Redis.Enabled,
	}).Info("Initializing API server")

	// 2. Connect to Redis (no-op client when disabled)
	rdb, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	// 3. Metrics
	var (
		m               *metrics.Metrics
		loaderObserver  loader.Observer
		sessionObserver handlers.SessionObserver
	)
	if cfg.MetricsEnabled {
		m = metrics.New()
		loaderObserver = m
		sessionObserver = m
	}

	// 4. Analyzer
	analyzer, err := newAnalyzer(cfg, log, loaderObserver)
	if err != nil {
		return err
	}

	// 5. Session store
	store := session.New(rdb, cfg.Session.TTL)

	// 6. Handler + router
	handler := handlers.NewAnalysisHandler(analyzer, store, sessionObserver, handlers.Options{
		MaxUploadBytes:   cfg.Upload.MaxBytes,
		DefaultThreshold: cfg.Analysis.Threshold,
	}, log)

	router := api.NewRouter(handler, api.RouterDeps{
		Metrics:         m,
		Limiter:         redis.NewLimiter(rdb, "dipscan"),
		UploadPerMinute: cfg.Upload.RatePerMinute,
		TrustProxy:      cfg.TrustProxy,
		Logger:          log,
	})

	// 7. In-memory sessions need sweeping; Redis expires keys itself
	var sched *scheduler.Scheduler
	if mem, ok := store.(*session.MemoryStore); ok {
		opts := []scheduler.Option{scheduler.WithRetry(0, 0)}
		if m != nil {
			opts = append(opts, scheduler.WithObserver(m))
		}
		sched = scheduler.New(log, opts...)
		if err := sched.AddJob(jobs.NewSessionSweepJob(mem, log)); err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// 8. Start server with graceful shutdown
	server := api.New(cfg, log, router)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or a failed listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
