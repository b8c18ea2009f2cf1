package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/period"
)

type recordKey struct {
	EmployeeID string
	Period     period.Period
}

type payrollRepositoryImpl struct {
	mu      sync.RWMutex
	records map[string]payroll.PayrollRecord
	byKey   map[recordKey]string
}

func NewPayrollRepository() payroll.PayrollRepository {
	return &payrollRepositoryImpl{
		records: make(map[string]payroll.PayrollRecord),
		byKey:   make(map[recordKey]string),
	}
}

func (r *payrollRepositoryImpl) ProcessedEmployeeIDs(_ context.Context, p period.Period) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make(map[string]struct{})
	for k := range r.byKey {
		if k.Period == p {
			ids[k.EmployeeID] = struct{}{}
		}
	}
	return ids, nil
}

// InsertBatch holds the write lock for the whole batch, so the batch is
// applied all at once or, when it returns early, not at all.
func (r *payrollRepositoryImpl) InsertBatch(_ context.Context, records []payroll.PayrollRecord) (int, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		toWrite []payroll.PayrollRecord
		skipped []string
	)
	pending := make(map[recordKey]bool)
	for _, rec := range records {
		k := recordKey{EmployeeID: rec.EmployeeID, Period: rec.Period}
		if _, exists := r.byKey[k]; exists || pending[k] {
			skipped = append(skipped, rec.EmployeeID)
			continue
		}
		pending[k] = true
		toWrite = append(toWrite, rec)
	}

	for _, rec := range toWrite {
		r.records[rec.ID] = cloneRecord(rec)
		r.byKey[recordKey{EmployeeID: rec.EmployeeID, Period: rec.Period}] = rec.ID
	}
	return len(toWrite), skipped, nil
}

func (r *payrollRepositoryImpl) GetByID(_ context.Context, id string) (payroll.PayrollRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
	}
	return cloneRecord(rec), nil
}

func (r *payrollRepositoryImpl) List(_ context.Context, filter payroll.PayrollFilter) ([]payroll.PayrollRecord, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []payroll.PayrollRecord
	for _, rec := range r.records {
		if filter.Period != nil && rec.Period != *filter.Period {
			continue
		}
		if filter.EmployeeID != nil && rec.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		matched = append(matched, rec)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Period != matched[j].Period {
			return matched[i].Period.String() > matched[j].Period.String()
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	if filter.Limit > 0 {
		start := (filter.Page - 1) * filter.Limit
		if start < 0 {
			start = 0
		}
		if start > len(matched) {
			start = len(matched)
		}
		end := start + filter.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}

	result := make([]payroll.PayrollRecord, 0, len(matched))
	for _, rec := range matched {
		result = append(result, cloneRecord(rec))
	}
	return result, total, nil
}

func (r *payrollRepositoryImpl) UpdateComputed(_ context.Context, record payroll.PayrollRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[record.ID]
	if !ok {
		return payroll.ErrPayrollRecordNotFound
	}
	if existing.Status == payroll.PayrollStatusPaid {
		return payroll.ErrPayrollRecordAlreadyPaid
	}

	updated := cloneRecord(record)
	updated.EmployeeID = existing.EmployeeID
	updated.Period = existing.Period
	updated.Status = existing.Status
	updated.PaidAt = existing.PaidAt
	updated.CreatedAt = existing.CreatedAt
	r.records[record.ID] = updated
	return nil
}

func (r *payrollRepositoryImpl) MarkPaid(_ context.Context, id string, paidAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return payroll.ErrPayrollRecordNotFound
	}
	if rec.Status == payroll.PayrollStatusPaid {
		return payroll.ErrPayrollRecordAlreadyPaid
	}
	rec.Status = payroll.PayrollStatusPaid
	rec.PaidAt = &paidAt
	rec.UpdatedAt = paidAt
	r.records[id] = rec
	return nil
}

func (r *payrollRepositoryImpl) Summary(_ context.Context, p period.Period) (payroll.PayrollSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := payroll.PayrollSummary{Period: p}
	for _, rec := range r.records {
		if rec.Period != p {
			continue
		}
		s.TotalRecords++
		if rec.Status == payroll.PayrollStatusPaid {
			s.PaidCount++
		} else {
			s.PendingCount++
		}
		s.TotalBaseSalary += rec.BaseSalary
		s.TotalEarnings += rec.TotalEarnings
		s.TotalLegalDeductions += rec.LegalDeductions
		s.TotalSpecialDeductions += rec.SpecialDeductions
		s.TotalNetPay += rec.NetPay
	}
	return s, nil
}

func cloneRecord(rec payroll.PayrollRecord) payroll.PayrollRecord {
	rec.EarningsDetails = append([]payroll.LineItem(nil), rec.EarningsDetails...)
	rec.DeductionsDetails = append([]payroll.LineItem(nil), rec.DeductionsDetails...)
	return rec
}

type lineItemRepositoryImpl struct {
	mu    sync.RWMutex
	items map[string][]payroll.EmployeeLineItem
}

func NewLineItemRepository() payroll.LineItemRepository {
	return &lineItemRepositoryImpl{items: make(map[string][]payroll.EmployeeLineItem)}
}

func (r *lineItemRepositoryImpl) ListByEmployee(_ context.Context, employeeID string) ([]payroll.EmployeeLineItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]payroll.EmployeeLineItem(nil), r.items[employeeID]...), nil
}

func (r *lineItemRepositoryImpl) Create(_ context.Context, items []payroll.EmployeeLineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, it := range items {
		r.items[it.EmployeeID] = append(r.items[it.EmployeeID], it)
	}
	return nil
}
