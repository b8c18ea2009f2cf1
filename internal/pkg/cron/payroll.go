package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

// PeriodRunner runs payroll for one period.
type PeriodRunner interface {
	RunForPeriod(ctx context.Context, p period.Period) (payroll.BatchResult, error)
}

// PayrollJobs generates last month's payroll on the configured day of month.
type PayrollJobs struct {
	runner   PeriodRunner
	runDay   int
	location *time.Location
	now      func() time.Time

	mu      sync.Mutex
	lastRun period.Period
}

func NewPayrollJobs(runner PeriodRunner, runDay int, location *time.Location) *PayrollJobs {
	if location == nil {
		location = time.UTC
	}
	return &PayrollJobs{runner: runner, runDay: runDay, location: location, now: time.Now}
}

// RegisterJobs checks every hour; a run day of 0 disables the job.
func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	if j.runDay <= 0 {
		slog.Info("Cron: Scheduled payroll disabled")
		return
	}
	scheduler.AddJob("generate_monthly_payroll", time.Hour, j.GenerateMonthlyPayroll)
}

func (j *PayrollJobs) GenerateMonthlyPayroll(ctx context.Context) error {
	today := j.now().In(j.location)
	if today.Day() != j.runDay {
		return nil
	}

	target := period.Of(today).Previous()

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.lastRun == target {
		return nil
	}

	slog.Info("Cron: Starting monthly payroll job", "period", target.String())

	result, err := j.runner.RunForPeriod(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to run payroll for %s: %w", target, err)
	}
	j.lastRun = target

	slog.Info("Cron: Monthly payroll generated",
		"period", target.String(),
		"created", result.Created,
		"already_processed", result.AlreadyProcessed,
		"failed", len(result.Failed))
	return nil
}
