package payroll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/google/uuid"
)

type PayrollServiceImpl struct {
	runner       *BatchRunner
	calculator   *Calculator
	importer     *Importer
	payrollRepo  payroll.PayrollRepository
	lineItemRepo payroll.LineItemRepository
	employeeRepo employee.EmployeeRepository
	now          func() time.Time
}

func NewPayrollService(
	runner *BatchRunner,
	calculator *Calculator,
	importer *Importer,
	payrollRepo payroll.PayrollRepository,
	lineItemRepo payroll.LineItemRepository,
	employeeRepo employee.EmployeeRepository,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		runner:       runner,
		calculator:   calculator,
		importer:     importer,
		payrollRepo:  payrollRepo,
		lineItemRepo: lineItemRepo,
		employeeRepo: employeeRepo,
		now:          time.Now,
	}
}

// ========== RUNS ==========

func (s *PayrollServiceImpl) RunForPeriod(ctx context.Context, req payroll.RunPayrollRequest) (payroll.BatchResult, error) {
	p, err := req.Validate()
	if err != nil {
		return payroll.BatchResult{}, err
	}
	return s.runner.RunForPeriod(ctx, p)
}

func (s *PayrollServiceImpl) Preview(ctx context.Context, req payroll.PreviewRequest) (payroll.StatementResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.StatementResponse{}, err
	}
	p, _ := period.Parse(req.Period)

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return payroll.StatementResponse{}, err
	}

	statement, err := s.runner.Compute(ctx, emp, p, req.ExtraEarnings(), req.ExtraDeductions())
	if err != nil {
		return payroll.StatementResponse{}, err
	}
	return payroll.NewStatementResponse(emp.ID, p, statement), nil
}

// ========== RECORDS ==========

func (s *PayrollServiceImpl) GetRecord(ctx context.Context, id string) (payroll.PayrollRecordResponse, error) {
	record, err := s.payrollRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	return payroll.NewPayrollRecordResponse(record), nil
}

func (s *PayrollServiceImpl) ListRecords(ctx context.Context, filter payroll.PayrollFilter) (payroll.ListPayrollRecordResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	records, total, err := s.payrollRepo.List(ctx, filter)
	if err != nil {
		return payroll.ListPayrollRecordResponse{}, err
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	start := (filter.Page-1)*filter.Limit + 1
	end := start + len(records) - 1
	showing := fmt.Sprintf("%d-%d of %d", start, end, total)
	if len(records) == 0 {
		showing = fmt.Sprintf("0 of %d", total)
	}

	resp := payroll.ListPayrollRecordResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Records:    make([]payroll.PayrollRecordResponse, 0, len(records)),
	}
	for _, r := range records {
		resp.Records = append(resp.Records, payroll.NewPayrollRecordResponse(r))
	}
	return resp, nil
}

// UpdateLineItems recomputes the record from its stored salary basis and
// attendance so totals always agree with the new items.
func (s *PayrollServiceImpl) UpdateLineItems(ctx context.Context, req payroll.UpdateLineItemsRequest) (payroll.PayrollRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	record, err := s.payrollRepo.GetByID(ctx, req.ID)
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}
	if record.Status == payroll.PayrollStatusPaid {
		return payroll.PayrollRecordResponse{}, payroll.ErrPayrollRecordAlreadyPaid
	}

	agg := record.Attendance()
	// A record paid at the derived rate is recomputed the same way; anything
	// else was paid at an explicit rate and keeps it.
	var rate *payroll.Money
	if record.HourlyPayment != s.calculator.DerivedPayment(record.BaseSalary, record.WorkedHours) {
		r := record.HourlyRate
		rate = &r
	}
	statement, err := s.calculator.Calculate(payroll.CalculationInput{
		EmployeeID: record.EmployeeID,
		BaseSalary: record.BaseSalary,
		HourlyRate: rate,
		Attendance: &agg,
		Earnings:   req.EarningItems(),
		Deductions: req.DeductionItems(),
	})
	if err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	record.ApplyStatement(statement)
	record.UpdatedAt = s.now().UTC()
	if err := s.payrollRepo.UpdateComputed(ctx, record); err != nil {
		return payroll.PayrollRecordResponse{}, err
	}

	slog.Info("Payroll record line items updated", "payroll_record_id", record.ID, "net_pay", record.NetPay.String())
	return payroll.NewPayrollRecordResponse(record), nil
}

func (s *PayrollServiceImpl) MarkPaid(ctx context.Context, req payroll.MarkPaidRequest) (payroll.MarkPaidResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.MarkPaidResponse{}, err
	}

	resp := payroll.MarkPaidResponse{Paid: []string{}, Failed: []payroll.MarkPaidFailure{}}
	paidAt := s.now().UTC()
	for _, id := range req.PayrollRecordIDs {
		err := s.payrollRepo.MarkPaid(ctx, id, paidAt)
		switch {
		case err == nil:
			resp.Paid = append(resp.Paid, id)
		case errors.Is(err, payroll.ErrPayrollRecordNotFound), errors.Is(err, payroll.ErrPayrollRecordAlreadyPaid):
			resp.Failed = append(resp.Failed, payroll.MarkPaidFailure{ID: id, Reason: err.Error()})
		default:
			return resp, fmt.Errorf("%w: mark %s paid: %w", payroll.ErrStorage, id, err)
		}
	}
	return resp, nil
}

func (s *PayrollServiceImpl) Summary(ctx context.Context, p period.Period) (payroll.PayrollSummaryResponse, error) {
	summary, err := s.payrollRepo.Summary(ctx, p)
	if err != nil {
		return payroll.PayrollSummaryResponse{}, err
	}
	return payroll.NewPayrollSummaryResponse(summary), nil
}

// ========== RECURRING LINE ITEMS ==========

func (s *PayrollServiceImpl) AddEmployeeLineItems(ctx context.Context, req payroll.AddEmployeeLineItemsRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return err
	}

	var items []payroll.EmployeeLineItem
	for _, r := range req.Earnings {
		items = append(items, s.newLineItem(req.EmployeeID, payroll.KindEarning, r.ToLineItem()))
	}
	for _, r := range req.Deductions {
		tagged := s.calculator.classifier.Tag(r.ToLineItem())
		items = append(items, s.newLineItem(req.EmployeeID, payroll.KindDeduction, tagged))
	}
	return s.lineItemRepo.Create(ctx, items)
}

func (s *PayrollServiceImpl) ImportLineItems(ctx context.Context, filename string, r io.Reader) (payroll.ImportLineItemsResponse, error) {
	parsed, rowErrs, err := s.importer.Parse(filename, r)
	if err != nil {
		return payroll.ImportLineItemsResponse{}, err
	}

	resp := payroll.ImportLineItemsResponse{
		Rows:   len(parsed) + len(rowErrs),
		Failed: []payroll.ImportRowFailure{},
	}
	for _, re := range rowErrs {
		resp.Failed = append(resp.Failed, payroll.ImportRowFailure{Row: re.Row, Reason: re.Err.Error()})
	}

	known := make(map[string]bool)
	var items []payroll.EmployeeLineItem
	for _, p := range parsed {
		empID := p.Item.EmployeeID
		exists, seen := known[empID]
		if !seen {
			_, err := s.employeeRepo.GetByID(ctx, empID)
			switch {
			case err == nil:
				exists = true
			case errors.Is(err, employee.ErrEmployeeNotFound):
				exists = false
			default:
				return payroll.ImportLineItemsResponse{}, err
			}
			known[empID] = exists
		}
		if !exists {
			resp.Failed = append(resp.Failed, payroll.ImportRowFailure{Row: p.Row, Reason: employee.ErrEmployeeNotFound.Error() + ": " + empID})
			continue
		}
		items = append(items, s.newLineItem(empID, p.Item.Kind, p.Item.Item))
	}

	if len(items) > 0 {
		if err := s.lineItemRepo.Create(ctx, items); err != nil {
			return payroll.ImportLineItemsResponse{}, err
		}
	}

	employees := make(map[string]struct{})
	for _, it := range items {
		employees[it.EmployeeID] = struct{}{}
	}
	resp.Imported = len(items)
	resp.Employees = len(employees)

	slog.Info("Payroll line items imported", "file", filename, "rows", resp.Rows, "imported", resp.Imported, "failed", len(resp.Failed))
	return resp, nil
}

func (s *PayrollServiceImpl) newLineItem(employeeID string, kind payroll.ItemKind, item payroll.LineItem) payroll.EmployeeLineItem {
	return payroll.EmployeeLineItem{
		ID:         uuid.Must(uuid.NewV7()).String(),
		EmployeeID: employeeID,
		Kind:       kind,
		Item:       item,
		CreatedAt:  s.now().UTC(),
	}
}
