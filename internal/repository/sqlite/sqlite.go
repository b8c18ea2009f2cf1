// Package sqlite implements the repositories on SQLite for single-node
// deployments and repository tests. Use ":memory:" for a throwaway database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite handle shared by all repositories.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &DB{DB: db}, nil
}

// withTx runs fn in a transaction, rolling back when fn fails.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

const schema = `
CREATE TABLE IF NOT EXISTS employees (
	id TEXT PRIMARY KEY,
	employee_code TEXT NOT NULL UNIQUE,
	full_name TEXT NOT NULL,
	employment_status TEXT NOT NULL DEFAULT 'active',
	annual_salary TEXT NOT NULL,
	hourly_rate TEXT,
	hire_date TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attendances (
	id TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL REFERENCES employees(id),
	work_date TEXT NOT NULL,
	clock_in TEXT NOT NULL,
	clock_out TEXT,
	worked_hours TEXT NOT NULL DEFAULT '0',
	auto_closed INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

-- One open session per employee per day.
CREATE UNIQUE INDEX IF NOT EXISTS idx_attendances_open_session
	ON attendances(employee_id, work_date) WHERE clock_out IS NULL;
CREATE INDEX IF NOT EXISTS idx_attendances_employee_date
	ON attendances(employee_id, work_date);

CREATE TABLE IF NOT EXISTS leave_requests (
	id TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL REFERENCES employees(id),
	leave_type TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	days INTEGER,
	reason TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	decided_at TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leave_requests_employee_status
	ON leave_requests(employee_id, status, start_date, end_date);

CREATE TABLE IF NOT EXISTS employee_line_items (
	id TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL REFERENCES employees(id),
	kind TEXT NOT NULL,
	name TEXT NOT NULL,
	item_type TEXT NOT NULL,
	value TEXT NOT NULL,
	class TEXT NOT NULL DEFAULT '',
	legal_category TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_employee_line_items_employee
	ON employee_line_items(employee_id);

CREATE TABLE IF NOT EXISTS payroll_records (
	id TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL REFERENCES employees(id),
	period TEXT NOT NULL,
	base_salary INTEGER NOT NULL,
	hourly_rate INTEGER NOT NULL,
	worked_hours TEXT NOT NULL,
	worked_days INTEGER NOT NULL,
	leave_days INTEGER NOT NULL DEFAULT 0,
	earnings_details TEXT NOT NULL DEFAULT '[]',
	deductions_details TEXT NOT NULL DEFAULT '[]',
	total_earnings INTEGER NOT NULL,
	legal_deductions INTEGER NOT NULL,
	special_deductions INTEGER NOT NULL,
	total_deductions INTEGER NOT NULL,
	hourly_payment INTEGER NOT NULL,
	net_pay INTEGER NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'paid')),
	paid_at TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE (employee_id, period)
);

CREATE INDEX IF NOT EXISTS idx_payroll_records_period_status
	ON payroll_records(period, status);
`

// Timestamps are stored as fixed-width UTC strings so text order is time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const dateLayout = "2006-01-02"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
