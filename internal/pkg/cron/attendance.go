package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// StaleSessionCloser is the part of the attendance service the job needs.
type StaleSessionCloser interface {
	CloseStaleSessions(ctx context.Context, now time.Time) (int, error)
}

type AttendanceJobs struct {
	closer   StaleSessionCloser
	interval time.Duration
	now      func() time.Time
}

func NewAttendanceJobs(closer StaleSessionCloser, interval time.Duration) *AttendanceJobs {
	if interval <= 0 {
		interval = time.Hour
	}
	return &AttendanceJobs{closer: closer, interval: interval, now: time.Now}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("close_stale_attendance", j.interval, j.CloseStaleAttendances)
}

// CloseStaleAttendances auto-closes sessions that outlived the maximum shift
// so they stop blocking new clock-ins.
func (j *AttendanceJobs) CloseStaleAttendances(ctx context.Context) error {
	slog.Info("Cron: Starting close stale attendances job")

	closed, err := j.closer.CloseStaleSessions(ctx, j.now())
	if err != nil {
		return fmt.Errorf("failed to close stale sessions: %w", err)
	}

	if closed == 0 {
		slog.Info("Cron: No stale attendances found")
		return nil
	}
	slog.Info("Cron: Auto-closed stale attendances", "count", closed)
	return nil
}
