package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type payrollRepositoryImpl struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepositoryImpl{db: db}
}

// ========== PAYROLL RECORDS ==========

const payrollRecordColumns = `
	pr.id, pr.employee_id, pr.period, pr.base_salary, pr.hourly_rate, pr.worked_hours,
	pr.worked_days, pr.leave_days, pr.earnings_details, pr.deductions_details,
	pr.total_earnings, pr.legal_deductions, pr.special_deductions, pr.total_deductions,
	pr.hourly_payment, pr.net_pay, pr.status, pr.paid_at, pr.created_at, pr.updated_at,
	e.full_name AS employee_name`

func (r *payrollRepositoryImpl) ProcessedEmployeeIDs(ctx context.Context, p period.Period) (map[string]struct{}, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT employee_id FROM payroll_records WHERE period = $1`, p.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list processed employees: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// InsertBatch relies on uk_employee_period: a conflicting row is left alone
// and reported as skipped, any other error rolls the whole batch back.
func (r *payrollRepositoryImpl) InsertBatch(ctx context.Context, records []payroll.PayrollRecord) (int, []string, error) {
	var (
		inserted int
		skipped  []string
	)

	query := `
		INSERT INTO payroll_records (
			id, employee_id, period, base_salary, hourly_rate, worked_hours, worked_days, leave_days,
			earnings_details, deductions_details, total_earnings, legal_deductions, special_deductions,
			total_deductions, hourly_payment, net_pay, status, paid_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT ON CONSTRAINT uk_employee_period DO NOTHING
	`

	err := WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)
		for _, rec := range records {
			earningsJSON, deductionsJSON, err := marshalDetails(rec)
			if err != nil {
				return err
			}
			tag, err := q.Exec(ctx, query,
				rec.ID, rec.EmployeeID, rec.Period.String(), rec.BaseSalary.Decimal(), rec.HourlyRate.Decimal(),
				rec.WorkedHours, rec.WorkedDays, rec.LeaveDays, earningsJSON, deductionsJSON,
				rec.TotalEarnings.Decimal(), rec.LegalDeductions.Decimal(), rec.SpecialDeductions.Decimal(),
				rec.TotalDeductions.Decimal(), rec.HourlyPayment.Decimal(), rec.NetPay.Decimal(),
				rec.Status, rec.PaidAt, rec.CreatedAt, rec.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to create payroll record for employee %s: %w", rec.EmployeeID, err)
			}
			if tag.RowsAffected() == 0 {
				skipped = append(skipped, rec.EmployeeID)
				continue
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return inserted, skipped, nil
}

func (r *payrollRepositoryImpl) GetByID(ctx context.Context, id string) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + payrollRecordColumns + `
		FROM payroll_records pr
		JOIN employees e ON pr.employee_id = e.id
		WHERE pr.id = $1
	`

	rec, err := scanPayrollRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}
	return rec, nil
}

func (r *payrollRepositoryImpl) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := `
		FROM payroll_records pr
		JOIN employees e ON pr.employee_id = e.id
		WHERE 1 = 1
	`
	args := []any{}
	argIdx := 1

	if filter.Period != nil {
		baseQuery += fmt.Sprintf(" AND pr.period = $%d", argIdx)
		args = append(args, filter.Period.String())
		argIdx++
	}
	if filter.EmployeeID != nil {
		baseQuery += fmt.Sprintf(" AND pr.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND pr.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	// Count query
	var totalCount int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll records: %w", err)
	}

	// Pagination
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	offset := (filter.Page - 1) * filter.Limit

	selectQuery := fmt.Sprintf(`
		SELECT %s
		%s
		ORDER BY pr.period DESC, e.full_name, pr.id
		LIMIT $%d OFFSET $%d
	`, payrollRecordColumns, baseQuery, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var records []payroll.PayrollRecord
	for rows.Next() {
		rec, err := scanPayrollRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return records, totalCount, nil
}

func (r *payrollRepositoryImpl) UpdateComputed(ctx context.Context, rec payroll.PayrollRecord) error {
	earningsJSON, deductionsJSON, err := marshalDetails(rec)
	if err != nil {
		return err
	}

	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		if err := r.lockPending(ctx, q, rec.ID); err != nil {
			return err
		}

		query := `
			UPDATE payroll_records SET
				base_salary = $2, hourly_rate = $3, worked_hours = $4, worked_days = $5, leave_days = $6,
				earnings_details = $7, deductions_details = $8, total_earnings = $9,
				legal_deductions = $10, special_deductions = $11, total_deductions = $12,
				hourly_payment = $13, net_pay = $14, updated_at = $15
			WHERE id = $1
		`
		_, err := q.Exec(ctx, query,
			rec.ID, rec.BaseSalary.Decimal(), rec.HourlyRate.Decimal(), rec.WorkedHours, rec.WorkedDays, rec.LeaveDays,
			earningsJSON, deductionsJSON, rec.TotalEarnings.Decimal(),
			rec.LegalDeductions.Decimal(), rec.SpecialDeductions.Decimal(), rec.TotalDeductions.Decimal(),
			rec.HourlyPayment.Decimal(), rec.NetPay.Decimal(), rec.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update payroll record: %w", err)
		}
		return nil
	})
}

func (r *payrollRepositoryImpl) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		if err := r.lockPending(ctx, q, id); err != nil {
			return err
		}

		_, err := q.Exec(ctx, `
			UPDATE payroll_records SET status = $2, paid_at = $3, updated_at = $3
			WHERE id = $1
		`, id, payroll.PayrollStatusPaid, paidAt)
		if err != nil {
			return fmt.Errorf("failed to mark payroll record paid: %w", err)
		}
		return nil
	})
}

func (r *payrollRepositoryImpl) lockPending(ctx context.Context, q database.Querier, id string) error {
	var status payroll.PayrollStatus
	err := q.QueryRow(ctx, `SELECT status FROM payroll_records WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.ErrPayrollRecordNotFound
		}
		return fmt.Errorf("failed to check payroll record status: %w", err)
	}
	if status == payroll.PayrollStatusPaid {
		return payroll.ErrPayrollRecordAlreadyPaid
	}
	return nil
}

func (r *payrollRepositoryImpl) Summary(ctx context.Context, p period.Period) (payroll.PayrollSummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'paid'),
			COALESCE(SUM(base_salary), 0),
			COALESCE(SUM(total_earnings), 0),
			COALESCE(SUM(legal_deductions), 0),
			COALESCE(SUM(special_deductions), 0),
			COALESCE(SUM(net_pay), 0)
		FROM payroll_records
		WHERE period = $1
	`

	s := payroll.PayrollSummary{Period: p}
	var base, earnings, legal, special, net decimal.Decimal
	err := q.QueryRow(ctx, query, p.String()).Scan(
		&s.TotalRecords, &s.PendingCount, &s.PaidCount,
		&base, &earnings, &legal, &special, &net,
	)
	if err != nil {
		return payroll.PayrollSummary{}, fmt.Errorf("failed to summarize payroll: %w", err)
	}

	s.TotalBaseSalary = payroll.MoneyFromDecimal(base)
	s.TotalEarnings = payroll.MoneyFromDecimal(earnings)
	s.TotalLegalDeductions = payroll.MoneyFromDecimal(legal)
	s.TotalSpecialDeductions = payroll.MoneyFromDecimal(special)
	s.TotalNetPay = payroll.MoneyFromDecimal(net)
	return s, nil
}

func marshalDetails(rec payroll.PayrollRecord) ([]byte, []byte, error) {
	earnings := rec.EarningsDetails
	if earnings == nil {
		earnings = []payroll.LineItem{}
	}
	deductions := rec.DeductionsDetails
	if deductions == nil {
		deductions = []payroll.LineItem{}
	}

	earningsJSON, err := json.Marshal(earnings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal earnings: %w", err)
	}
	deductionsJSON, err := json.Marshal(deductions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal deductions: %w", err)
	}
	return earningsJSON, deductionsJSON, nil
}

func scanPayrollRecord(row pgx.Row) (payroll.PayrollRecord, error) {
	var (
		rec                                       payroll.PayrollRecord
		periodStr                                 string
		earningsBytes, deductionsBytes            []byte
		base, rate, totalEarnings, legal, special decimal.Decimal
		totalDeductions, hourlyPayment, net       decimal.Decimal
	)
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &periodStr, &base, &rate, &rec.WorkedHours,
		&rec.WorkedDays, &rec.LeaveDays, &earningsBytes, &deductionsBytes,
		&totalEarnings, &legal, &special, &totalDeductions,
		&hourlyPayment, &net, &rec.Status, &rec.PaidAt, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.EmployeeName,
	)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	if rec.Period, err = period.Parse(periodStr); err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("invalid stored period %q: %w", periodStr, err)
	}
	if err := json.Unmarshal(earningsBytes, &rec.EarningsDetails); err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to unmarshal earnings: %w", err)
	}
	if err := json.Unmarshal(deductionsBytes, &rec.DeductionsDetails); err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to unmarshal deductions: %w", err)
	}

	rec.BaseSalary = payroll.MoneyFromDecimal(base)
	rec.HourlyRate = payroll.MoneyFromDecimal(rate)
	rec.TotalEarnings = payroll.MoneyFromDecimal(totalEarnings)
	rec.LegalDeductions = payroll.MoneyFromDecimal(legal)
	rec.SpecialDeductions = payroll.MoneyFromDecimal(special)
	rec.TotalDeductions = payroll.MoneyFromDecimal(totalDeductions)
	rec.HourlyPayment = payroll.MoneyFromDecimal(hourlyPayment)
	rec.NetPay = payroll.MoneyFromDecimal(net)
	return rec, nil
}

// ========== EMPLOYEE LINE ITEMS ==========

type lineItemRepositoryImpl struct {
	db *database.DB
}

func NewLineItemRepository(db *database.DB) payroll.LineItemRepository {
	return &lineItemRepositoryImpl{db: db}
}

func (r *lineItemRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]payroll.EmployeeLineItem, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, kind, name, item_type, value, class, legal_category, created_at
		FROM employee_line_items
		WHERE employee_id = $1
		ORDER BY created_at, id
	`
	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employee line items: %w", err)
	}
	defer rows.Close()

	var items []payroll.EmployeeLineItem
	for rows.Next() {
		var it payroll.EmployeeLineItem
		if err := rows.Scan(
			&it.ID, &it.EmployeeID, &it.Kind, &it.Item.Name, &it.Item.Type,
			&it.Item.Value, &it.Item.Class, &it.Item.LegalCategory, &it.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee line item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *lineItemRepositoryImpl) Create(ctx context.Context, items []payroll.EmployeeLineItem) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO employee_line_items (id, employee_id, kind, name, item_type, value, class, legal_category, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, it.ID, it.EmployeeID, it.Kind, it.Item.Name, it.Item.Type, it.Item.Value, it.Item.Class, it.Item.LegalCategory, it.CreatedAt)
	}

	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		tx := ctx.Value(txKey{}).(pgx.Tx)
		results := tx.SendBatch(ctx, batch)
		for range items {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to create employee line items: %w", err)
			}
		}
		return results.Close()
	})
}
