package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
	"github.com/shopspring/decimal"
)

type payrollRepositoryImpl struct {
	db *DB
}

func NewPayrollRepository(db *DB) payroll.PayrollRepository {
	return &payrollRepositoryImpl{db: db}
}

const payrollColumns = `pr.id, pr.employee_id, pr.period, pr.base_salary, pr.hourly_rate, pr.worked_hours,
	pr.worked_days, pr.leave_days, pr.earnings_details, pr.deductions_details, pr.total_earnings,
	pr.legal_deductions, pr.special_deductions, pr.total_deductions, pr.hourly_payment, pr.net_pay,
	pr.status, pr.paid_at, pr.created_at, pr.updated_at, e.full_name`

func (r *payrollRepositoryImpl) ProcessedEmployeeIDs(ctx context.Context, p period.Period) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT employee_id FROM payroll_records WHERE period = ?`, p.String())
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

func (r *payrollRepositoryImpl) InsertBatch(ctx context.Context, records []payroll.PayrollRecord) (int, []string, error) {
	var (
		inserted int
		skipped  []string
	)
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO payroll_records (
				id, employee_id, period, base_salary, hourly_rate, worked_hours, worked_days, leave_days,
				earnings_details, deductions_details, total_earnings, legal_deductions, special_deductions,
				total_deductions, hourly_payment, net_pay, status, paid_at, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (employee_id, period) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("failed to prepare payroll insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			earnings, deductions, err := marshalDetails(rec)
			if err != nil {
				return err
			}
			res, err := stmt.ExecContext(ctx,
				rec.ID, rec.EmployeeID, rec.Period.String(), int64(rec.BaseSalary), int64(rec.HourlyRate),
				rec.WorkedHours.String(), rec.WorkedDays, rec.LeaveDays, earnings, deductions,
				int64(rec.TotalEarnings), int64(rec.LegalDeductions), int64(rec.SpecialDeductions),
				int64(rec.TotalDeductions), int64(rec.HourlyPayment), int64(rec.NetPay),
				string(rec.Status), formatNullTime(rec.PaidAt), formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
			)
			if err != nil {
				return fmt.Errorf("failed to insert payroll record for employee %s: %w", rec.EmployeeID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to insert payroll record for employee %s: %w", rec.EmployeeID, err)
			}
			if n == 0 {
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
	row := r.db.QueryRowContext(ctx, `
		SELECT `+payrollColumns+`
		FROM payroll_records pr
		LEFT JOIN employees e ON e.id = pr.employee_id
		WHERE pr.id = ?`, id)

	rec, err := scanPayrollRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}
	return rec, nil
}

func (r *payrollRepositoryImpl) List(ctx context.Context, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	var (
		where []string
		args  []any
	)
	if filter.Period != nil {
		where = append(where, "pr.period = ?")
		args = append(args, filter.Period.String())
	}
	if filter.EmployeeID != nil {
		where = append(where, "pr.employee_id = ?")
		args = append(args, *filter.EmployeeID)
	}
	if filter.Status != nil {
		where = append(where, "pr.status = ?")
		args = append(args, string(*filter.Status))
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payroll_records pr `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll records: %w", err)
	}

	query := `
		SELECT ` + payrollColumns + `
		FROM payroll_records pr
		LEFT JOIN employees e ON e.id = pr.employee_id
		` + whereClause + `
		ORDER BY pr.period DESC, pr.id`
	if filter.Limit > 0 {
		offset := (filter.Page - 1) * filter.Limit
		if offset < 0 {
			offset = 0
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var result []payroll.PayrollRecord
	for rows.Next() {
		rec, err := scanPayrollRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *payrollRepositoryImpl) UpdateComputed(ctx context.Context, rec payroll.PayrollRecord) error {
	earnings, deductions, err := marshalDetails(rec)
	if err != nil {
		return err
	}

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkPending(ctx, tx, rec.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE payroll_records SET
				base_salary = ?, hourly_rate = ?, worked_hours = ?, worked_days = ?, leave_days = ?,
				earnings_details = ?, deductions_details = ?, total_earnings = ?, legal_deductions = ?,
				special_deductions = ?, total_deductions = ?, hourly_payment = ?, net_pay = ?, updated_at = ?
			WHERE id = ?`,
			int64(rec.BaseSalary), int64(rec.HourlyRate), rec.WorkedHours.String(), rec.WorkedDays, rec.LeaveDays,
			earnings, deductions, int64(rec.TotalEarnings), int64(rec.LegalDeductions),
			int64(rec.SpecialDeductions), int64(rec.TotalDeductions), int64(rec.HourlyPayment), int64(rec.NetPay),
			formatTime(rec.UpdatedAt), rec.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update payroll record: %w", err)
		}
		return nil
	})
}

func (r *payrollRepositoryImpl) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkPending(ctx, tx, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE payroll_records SET status = ?, paid_at = ?, updated_at = ?
			WHERE id = ?`,
			string(payroll.PayrollStatusPaid), formatTime(paidAt), formatTime(paidAt), id)
		if err != nil {
			return fmt.Errorf("failed to mark payroll record paid: %w", err)
		}
		return nil
	})
}

func (r *payrollRepositoryImpl) Summary(ctx context.Context, p period.Period) (payroll.PayrollSummary, error) {
	s := payroll.PayrollSummary{Period: p}
	var baseSalary, earnings, legal, special, net int64

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'paid' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(base_salary), 0),
			COALESCE(SUM(total_earnings), 0),
			COALESCE(SUM(legal_deductions), 0),
			COALESCE(SUM(special_deductions), 0),
			COALESCE(SUM(net_pay), 0)
		FROM payroll_records
		WHERE period = ?`, p.String(),
	).Scan(&s.TotalRecords, &s.PendingCount, &s.PaidCount, &baseSalary, &earnings, &legal, &special, &net)
	if err != nil {
		return payroll.PayrollSummary{}, fmt.Errorf("failed to summarize payroll: %w", err)
	}

	s.TotalBaseSalary = payroll.Money(baseSalary)
	s.TotalEarnings = payroll.Money(earnings)
	s.TotalLegalDeductions = payroll.Money(legal)
	s.TotalSpecialDeductions = payroll.Money(special)
	s.TotalNetPay = payroll.Money(net)
	return s, nil
}

func checkPending(ctx context.Context, tx *sql.Tx, id string) error {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM payroll_records WHERE id = ?`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return payroll.ErrPayrollRecordNotFound
		}
		return fmt.Errorf("failed to get payroll record status: %w", err)
	}
	if payroll.PayrollStatus(status) == payroll.PayrollStatusPaid {
		return payroll.ErrPayrollRecordAlreadyPaid
	}
	return nil
}

func marshalDetails(rec payroll.PayrollRecord) (string, string, error) {
	earnings, err := json.Marshal(nonNilItems(rec.EarningsDetails))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode earnings: %w", err)
	}
	deductions, err := json.Marshal(nonNilItems(rec.DeductionsDetails))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode deductions: %w", err)
	}
	return string(earnings), string(deductions), nil
}

func nonNilItems(items []payroll.LineItem) []payroll.LineItem {
	if items == nil {
		return []payroll.LineItem{}
	}
	return items
}

func scanPayrollRecord(row rowScanner) (payroll.PayrollRecord, error) {
	var (
		rec                                            payroll.PayrollRecord
		periodStr, hours, earnings, deductions, status string
		base, rate, totalEarn, legal, special          int64
		totalDed, hourly, net                          int64
		paidAt                                         sql.NullString
		createdAt, updatedAt                           string
		employeeName                                   sql.NullString
	)
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &periodStr, &base, &rate, &hours,
		&rec.WorkedDays, &rec.LeaveDays, &earnings, &deductions, &totalEarn,
		&legal, &special, &totalDed, &hourly, &net,
		&status, &paidAt, &createdAt, &updatedAt, &employeeName,
	)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	if rec.Period, err = period.Parse(periodStr); err != nil {
		return payroll.PayrollRecord{}, err
	}
	if rec.WorkedHours, err = decimal.NewFromString(hours); err != nil {
		return payroll.PayrollRecord{}, err
	}
	if err = json.Unmarshal([]byte(earnings), &rec.EarningsDetails); err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to decode earnings: %w", err)
	}
	if err = json.Unmarshal([]byte(deductions), &rec.DeductionsDetails); err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to decode deductions: %w", err)
	}
	if rec.PaidAt, err = parseNullTime(paidAt); err != nil {
		return payroll.PayrollRecord{}, err
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return payroll.PayrollRecord{}, err
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return payroll.PayrollRecord{}, err
	}

	rec.BaseSalary = payroll.Money(base)
	rec.HourlyRate = payroll.Money(rate)
	rec.TotalEarnings = payroll.Money(totalEarn)
	rec.LegalDeductions = payroll.Money(legal)
	rec.SpecialDeductions = payroll.Money(special)
	rec.TotalDeductions = payroll.Money(totalDed)
	rec.HourlyPayment = payroll.Money(hourly)
	rec.NetPay = payroll.Money(net)
	rec.Status = payroll.PayrollStatus(status)
	if employeeName.Valid {
		rec.EmployeeName = &employeeName.String
	}
	return rec, nil
}

type lineItemRepositoryImpl struct {
	db *DB
}

func NewLineItemRepository(db *DB) payroll.LineItemRepository {
	return &lineItemRepositoryImpl{db: db}
}

func (r *lineItemRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]payroll.EmployeeLineItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, employee_id, kind, name, item_type, value, class, legal_category, created_at
		FROM employee_line_items
		WHERE employee_id = ?
		ORDER BY created_at, id`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}
	defer rows.Close()

	var result []payroll.EmployeeLineItem
	for rows.Next() {
		var (
			it                           payroll.EmployeeLineItem
			kind, itemType, value, class string
			createdAt                    string
		)
		if err := rows.Scan(&it.ID, &it.EmployeeID, &kind, &it.Item.Name, &itemType, &value, &class, &it.Item.LegalCategory, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		it.Kind = payroll.ItemKind(kind)
		it.Item.Type = payroll.ItemType(itemType)
		it.Item.Class = payroll.DeductionClass(class)
		if it.Item.Value, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("failed to parse line item value: %w", err)
		}
		if it.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse line item time: %w", err)
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

func (r *lineItemRepositoryImpl) Create(ctx context.Context, items []payroll.EmployeeLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		for _, it := range items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO employee_line_items (id, employee_id, kind, name, item_type, value, class, legal_category, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				it.ID, it.EmployeeID, string(it.Kind), it.Item.Name, string(it.Item.Type), it.Item.Value.String(),
				string(it.Item.Class), it.Item.LegalCategory, formatTime(it.CreatedAt))
			if err != nil {
				return fmt.Errorf("failed to create line item %q: %w", it.Item.Name, err)
			}
		}
		return nil
	})
}
