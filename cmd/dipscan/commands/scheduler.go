package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/dipscan/internal/scheduler"
	"github.com/wonny/dipscan/internal/scheduler/jobs"
	"github.com/wonny/dipscan/internal/source"
	"github.com/wonny/dipscan/pkg/config"
	"github.com/wonny/dipscan/pkg/httputil"
	"github.com/wonny/dipscan/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "인박스 리포트 스케줄러",
	Long: `인박스 디렉터리를 주기적으로 분석해 리포트를 생성합니다.

등록되는 작업:
- inbox_report: SCHEDULER_CRON (기본: 평일 18:00)
  SCHEDULER_INBOX의 가격 파일을 분석하여 SCHEDULER_OUTPUT/<timestamp>/ 아래에
  CSV 4종과 report.xlsx를 쓰고, 처리한 파일은 inbox/processed/로 옮깁니다.

스케줄러는 Ctrl+C로 종료할 수 있습니다.

Example:
  go run ./cmd/dipscan scheduler
  go run ./cmd/dipscan scheduler --once`,
	RunE: runScheduler,
}

var schedulerListCmd = &cobra.Command{
	Use:   "list",
	Short: "등록된 작업 목록",
	RunE:  listJobs,
}

var (
	schedulerOnce bool
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerListCmd)

	schedulerCmd.Flags().BoolVar(&schedulerOnce, "once", false, "inbox_report를 한 번 실행하고 종료")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	sched, err := initScheduler(cfg, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	if schedulerOnce {
		if err := sched.RunNow(cmd.Context(), "inbox_report"); err != nil {
			return fmt.Errorf("run inbox_report: %w", err)
		}
		PrintSuccess(cmd.OutOrStdout(), "inbox_report completed")
		return nil
	}

	fmt.Println("=== dipscan Scheduler ===")
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	sched, err := initScheduler(cfg, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Registered jobs:")
	for name, stat := range sched.GetJobStats() {
		fmt.Fprintf(w, "  - %s (%s)\n", name, stat.Schedule)
	}

	return nil
}

func initScheduler(cfg *config.Config, log *logger.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(log)

	analyzer, err := newAnalyzer(cfg, log, nil)
	if err != nil {
		return nil, err
	}
	reader := source.NewReader(httputil.New(cfg, log), log)

	inbox := jobs.NewInboxReportJob(jobs.InboxReportConfig{
		Schedule:  cfg.Scheduler.Cron,
		InboxDir:  cfg.Scheduler.InboxDir,
		OutputDir: cfg.Scheduler.OutputDir,
		Threshold: cfg.Analysis.Threshold,
	}, analyzer, reader, log)

	if err := sched.AddJob(inbox); err != nil {
		return nil, err
	}

	return sched, nil
}
