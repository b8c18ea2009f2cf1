package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultTaxName is the income tax line added to employees that have none.
const DefaultTaxName = "Gelir Vergisi"

// computeWorkers bounds how many statements are computed at once.
const computeWorkers = 8

// BatchRunner generates payroll records for a whole period.
type BatchRunner struct {
	employeeRepo   employee.EmployeeRepository
	payrollRepo    payroll.PayrollRepository
	lineItemRepo   payroll.LineItemRepository
	aggregator     *Aggregator
	calculator     *Calculator
	defaultTaxRate decimal.Decimal
	now            func() time.Time
}

func NewBatchRunner(
	employeeRepo employee.EmployeeRepository,
	payrollRepo payroll.PayrollRepository,
	lineItemRepo payroll.LineItemRepository,
	aggregator *Aggregator,
	calculator *Calculator,
	defaultTaxRate decimal.Decimal,
) *BatchRunner {
	return &BatchRunner{
		employeeRepo:   employeeRepo,
		payrollRepo:    payrollRepo,
		lineItemRepo:   lineItemRepo,
		aggregator:     aggregator,
		calculator:     calculator,
		defaultTaxRate: defaultTaxRate,
		now:            time.Now,
	}
}

// RunForPeriod creates a pending record for every active employee without one
// for the period. Repeated calls are safe: employees already processed, either
// before the call or by a concurrent run, are counted and skipped.
func (b *BatchRunner) RunForPeriod(ctx context.Context, p period.Period) (payroll.BatchResult, error) {
	result := payroll.BatchResult{Period: p, Failed: []payroll.EmployeeFailure{}}

	employees, err := b.employeeRepo.ListActive(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: list active employees: %w", payroll.ErrStorage, err)
	}
	if len(employees) == 0 {
		return result, payroll.ErrNoActiveEmployees
	}

	processed, err := b.payrollRepo.ProcessedEmployeeIDs(ctx, p)
	if err != nil {
		return result, fmt.Errorf("%w: list processed employees: %w", payroll.ErrStorage, err)
	}

	var toProcess []employee.Employee
	for _, emp := range employees {
		if _, done := processed[emp.ID]; done {
			result.AlreadyProcessed++
			continue
		}
		toProcess = append(toProcess, emp)
	}

	if len(toProcess) == 0 {
		result.Message = fmt.Sprintf("%d employees already processed", result.AlreadyProcessed)
		slog.Info("Payroll run: nothing to do", "period", p.String(), "already_processed", result.AlreadyProcessed)
		return result, nil
	}

	statements, compErrs, err := b.computeAll(ctx, toProcess, p)
	if err != nil {
		return result, fmt.Errorf("%w: %w", payroll.ErrStorage, err)
	}

	now := b.now().UTC()
	records := make([]payroll.PayrollRecord, 0, len(toProcess))
	for i, emp := range toProcess {
		if compErr := compErrs[i]; compErr != nil {
			slog.Warn("Payroll run: employee skipped", "period", p.String(), "employee_id", emp.ID, "error", compErr)
			result.Failed = append(result.Failed, payroll.EmployeeFailure{EmployeeID: emp.ID, Reason: compErr.Error()})
			continue
		}
		statement := statements[i]

		id, err := uuid.NewV7()
		if err != nil {
			return result, fmt.Errorf("generate payroll record id: %w", err)
		}
		record := payroll.PayrollRecord{
			ID:         id.String(),
			EmployeeID: emp.ID,
			Period:     p,
			Status:     payroll.PayrollStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		record.ApplyStatement(statement)
		records = append(records, record)
	}

	if len(records) > 0 {
		inserted, skipped, err := b.payrollRepo.InsertBatch(ctx, records)
		if err != nil {
			return result, fmt.Errorf("%w: insert payroll batch: %w", payroll.ErrStorage, err)
		}
		result.Created = inserted
		result.AlreadyProcessed += len(skipped)
	}

	result.Message = fmt.Sprintf("%d payroll records created, %d employees already processed, %d failed",
		result.Created, result.AlreadyProcessed, len(result.Failed))
	slog.Info("Payroll run completed",
		"period", p.String(),
		"created", result.Created,
		"already_processed", result.AlreadyProcessed,
		"failed", len(result.Failed),
	)
	return result, nil
}

// computeAll computes every employee's statement concurrently. Results keep
// the order of employees. A ComputationError only marks its own slot; any
// other error aborts the whole run.
func (b *BatchRunner) computeAll(ctx context.Context, employees []employee.Employee, p period.Period) ([]payroll.Statement, []*payroll.ComputationError, error) {
	statements := make([]payroll.Statement, len(employees))
	compErrs := make([]*payroll.ComputationError, len(employees))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(computeWorkers)
	for i, emp := range employees {
		g.Go(func() error {
			statement, err := b.Compute(gctx, emp, p, nil, nil)
			if err != nil {
				var compErr *payroll.ComputationError
				if errors.As(err, &compErr) {
					compErrs[i] = compErr
					return nil
				}
				return err
			}
			statements[i] = statement
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return statements, compErrs, nil
}

// Compute builds the statement for one employee from the directory, attendance,
// leave and recurring line items. Extra items are appended after the recurring ones.
func (b *BatchRunner) Compute(ctx context.Context, emp employee.Employee, p period.Period, extraEarnings, extraDeductions []payroll.LineItem) (payroll.Statement, error) {
	if emp.AnnualSalary.IsNegative() {
		return payroll.Statement{}, &payroll.ComputationError{EmployeeID: emp.ID, Reason: "annual salary is negative"}
	}

	agg, err := b.aggregator.Aggregate(ctx, emp.ID, p)
	if err != nil {
		return payroll.Statement{}, err
	}

	items, err := b.lineItemRepo.ListByEmployee(ctx, emp.ID)
	if err != nil {
		return payroll.Statement{}, fmt.Errorf("line items for %s: %w", emp.ID, err)
	}

	in := payroll.CalculationInput{
		EmployeeID: emp.ID,
		BaseSalary: MonthlyBase(emp.AnnualSalary),
		Attendance: &agg,
	}
	if emp.HourlyRate != nil {
		rate := payroll.MoneyFromDecimal(*emp.HourlyRate)
		in.HourlyRate = &rate
	}
	for _, it := range items {
		if it.Kind == payroll.KindEarning {
			in.Earnings = append(in.Earnings, it.Item)
		} else {
			in.Deductions = append(in.Deductions, it.Item)
		}
	}
	in.Earnings = append(in.Earnings, extraEarnings...)
	in.Deductions = append(in.Deductions, extraDeductions...)
	in.Deductions = b.withDefaultTax(in.Deductions)

	return b.calculator.Calculate(in)
}

// MonthlyBase converts an annual salary into the monthly base used by the calculator.
func MonthlyBase(annual decimal.Decimal) payroll.Money {
	return payroll.MoneyFromDecimal(annual.Div(decimal.NewFromInt(12)))
}

func (b *BatchRunner) withDefaultTax(deductions []payroll.LineItem) []payroll.LineItem {
	if !b.defaultTaxRate.IsPositive() {
		return deductions
	}
	for _, d := range deductions {
		tagged := b.calculator.classifier.Tag(d)
		if tagged.Class == payroll.ClassLegal && tagged.LegalCategory == payroll.CategoryIncomeTax {
			return deductions
		}
	}
	return append(deductions, payroll.LineItem{
		Name:          DefaultTaxName,
		Type:          payroll.ItemTypePercent,
		Value:         b.defaultTaxRate,
		Class:         payroll.ClassLegal,
		LegalCategory: payroll.CategoryIncomeTax,
	})
}
