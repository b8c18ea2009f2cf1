package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/config"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/memory"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/postgresql"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/repository/sqlite"
	attendanceService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/attendance"
	employeeService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/employee"
	leaveService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/leave"
	payrollService "github.com/cmlabs-hris/hris-payroll-engine/internal/service/payroll"
)

const version = "v1.0.0"

type repositories struct {
	employee   employee.EmployeeRepository
	attendance attendance.AttendanceRepository
	leave      leave.LeaveRequestRepository
	payroll    payroll.PayrollRepository
	lineItem   payroll.LineItemRepository
	close      func()
}

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogger(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	rules, err := payrollService.LoadRules(cfg.Payroll.RulesFile)
	if err != nil {
		return fmt.Errorf("load deduction rules: %w", err)
	}

	attendanceSvc := attendanceService.NewAttendanceService(repos.attendance, repos.employee, cfg.Location(), cfg.Attendance.MaxShift)
	leaveSvc := leaveService.NewLeaveService(repos.leave, repos.employee)
	employeeSvc := employeeService.NewEmployeeService(repos.employee)

	classifier := payrollService.NewClassifier(rules)
	calculator := payrollService.NewCalculator(classifier, cfg.Payroll.StandardHours, cfg.Payroll.StandardDays)
	aggregator := payrollService.NewAggregator(attendanceSvc, leaveSvc)
	runner := payrollService.NewBatchRunner(repos.employee, repos.payroll, repos.lineItem, aggregator, calculator, cfg.Payroll.DefaultTaxRate)
	importer := payrollService.NewImporter(classifier)
	payrollSvc := payrollService.NewPayrollService(runner, calculator, importer, repos.payroll, repos.lineItem, repos.employee)

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(attendanceSvc, cfg.Attendance.StaleCheckInterval).RegisterJobs(scheduler)
	cron.NewPayrollJobs(runner, cfg.Payroll.RunDay, cfg.Location()).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	router := appHTTP.NewRouter(
		JWTService,
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewLeaveHandler(leaveSvc),
		appHTTP.NewEmployeeHandler(employeeSvc),
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.RouterOptions{Env: cfg.App.Env, Version: version},
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "driver", cfg.Database.Driver, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return &repositories{
			employee:   postgresql.NewEmployeeRepository(db),
			attendance: postgresql.NewAttendanceRepository(db),
			leave:      postgresql.NewLeaveRequestRepository(db),
			payroll:    postgresql.NewPayrollRepository(db),
			lineItem:   postgresql.NewLineItemRepository(db),
			close:      db.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &repositories{
			employee:   sqlite.NewEmployeeRepository(db),
			attendance: sqlite.NewAttendanceRepository(db),
			leave:      sqlite.NewLeaveRequestRepository(db),
			payroll:    sqlite.NewPayrollRepository(db),
			lineItem:   sqlite.NewLineItemRepository(db),
			close:      func() { _ = db.Close() },
		}, nil

	case config.DriverMemory:
		slog.Warn("Using in-memory storage, data is lost on restart")
		return &repositories{
			employee:   memory.NewEmployeeRepository(),
			attendance: memory.NewAttendanceRepository(),
			leave:      memory.NewLeaveRequestRepository(),
			payroll:    memory.NewPayrollRepository(),
			lineItem:   memory.NewLineItemRepository(),
			close:      func() {},
		}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}
