package payroll

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(f *fixture) *PayrollServiceImpl {
	svc := NewPayrollService(f.runner(nil, 0), f.calculator, NewImporter(f.classifier), f.records, f.lineItems, f.employees).(*PayrollServiceImpl)
	svc.now = func() time.Time { return time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func fixedItem(name, value string) payroll.LineItemRequest {
	return payroll.LineItemRequest{Name: name, Type: "fixed", Value: decimal.RequireFromString(value)}
}

func TestPayrollService_Preview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addEmployee(t, "emp-1", "96000")
	for day := 4; day <= 8; day++ {
		f.addShift(t, "emp-1", day, 8)
	}
	svc := newTestService(f)

	resp, err := svc.Preview(ctx, payroll.PreviewRequest{
		EmployeeID: "emp-1",
		Period:     "2024-03",
		Earnings:   []payroll.LineItemRequest{fixedItem("Bonus", "500")},
		Deductions: []payroll.LineItemRequest{{Name: "SGK Primi", Type: "percent", Value: decimal.NewFromInt(14)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-03", resp.Period)
	assert.Equal(t, 5, resp.WorkedDays)
	assert.Equal(t, payroll.Units(2000), resp.HourlyPayment)
	assert.Equal(t, payroll.Units(1120), resp.LegalDeductions)
	assert.Equal(t, payroll.Units(1380), resp.NetPay)

	records, _, err := f.records.List(ctx, payroll.PayrollFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = svc.Preview(ctx, payroll.PreviewRequest{EmployeeID: "ghost", Period: "2024-03"})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = svc.Preview(ctx, payroll.PreviewRequest{EmployeeID: "emp-1", Period: "March"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestPayrollService_UpdateLineItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addEmployee(t, "emp-1", "96000")
	f.addShift(t, "emp-1", 4, 10)
	svc := newTestService(f)

	_, err := svc.RunForPeriod(ctx, payroll.RunPayrollRequest{Period: "2024-03"})
	require.NoError(t, err)
	list, err := svc.ListRecords(ctx, payroll.PayrollFilter{})
	require.NoError(t, err)
	require.Len(t, list.Records, 1)
	id := list.Records[0].ID

	updated, err := svc.UpdateLineItems(ctx, payroll.UpdateLineItemsRequest{
		ID:         id,
		Earnings:   []payroll.LineItemRequest{fixedItem("Bonus", "250")},
		Deductions: []payroll.LineItemRequest{fixedItem("Özel Sigorta", "50")},
	})
	require.NoError(t, err)
	assert.Equal(t, payroll.Units(500), updated.HourlyPayment)
	assert.Equal(t, payroll.Units(700), updated.NetPay)

	stored, err := f.records.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, payroll.Units(700), stored.NetPay)
	assert.Equal(t, payroll.Units(50), stored.SpecialDeductions)

	resp, err := svc.MarkPaid(ctx, payroll.MarkPaidRequest{PayrollRecordIDs: []string{id}})
	require.NoError(t, err)
	require.Equal(t, []string{id}, resp.Paid)

	_, err = svc.UpdateLineItems(ctx, payroll.UpdateLineItemsRequest{ID: id})
	assert.ErrorIs(t, err, payroll.ErrPayrollRecordAlreadyPaid)
}

func TestPayrollService_MarkPaidPerRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addEmployee(t, "emp-1", "96000")
	f.addEmployee(t, "emp-2", "96000")
	svc := newTestService(f)

	_, err := svc.RunForPeriod(ctx, payroll.RunPayrollRequest{Period: "2024-03"})
	require.NoError(t, err)
	list, err := svc.ListRecords(ctx, payroll.PayrollFilter{})
	require.NoError(t, err)
	require.Len(t, list.Records, 2)
	first, second := list.Records[0].ID, list.Records[1].ID

	_, err = svc.MarkPaid(ctx, payroll.MarkPaidRequest{PayrollRecordIDs: []string{first}})
	require.NoError(t, err)

	resp, err := svc.MarkPaid(ctx, payroll.MarkPaidRequest{PayrollRecordIDs: []string{first, second, "ghost"}})
	require.NoError(t, err)
	assert.Equal(t, []string{second}, resp.Paid)
	require.Len(t, resp.Failed, 2)
	assert.Equal(t, first, resp.Failed[0].ID)
	assert.Equal(t, payroll.ErrPayrollRecordAlreadyPaid.Error(), resp.Failed[0].Reason)
	assert.Equal(t, "ghost", resp.Failed[1].ID)

	record, err := svc.GetRecord(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "paid", record.Status)

	_, err = svc.MarkPaid(ctx, payroll.MarkPaidRequest{})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestPayrollService_ListRecordsAndSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addEmployee(t, "emp-1", "96000")
	f.addEmployee(t, "emp-2", "120000")
	f.addEmployee(t, "emp-3", "60000")
	svc := newTestService(f)

	_, err := svc.RunForPeriod(ctx, payroll.RunPayrollRequest{Period: "2024-03"})
	require.NoError(t, err)

	page, err := svc.ListRecords(ctx, payroll.PayrollFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, "1-2 of 3", page.Showing)
	assert.Len(t, page.Records, 2)

	empty, err := svc.ListRecords(ctx, payroll.PayrollFilter{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "0 of 3", empty.Showing)

	defaults, err := svc.ListRecords(ctx, payroll.PayrollFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.Page)
	assert.Equal(t, 20, defaults.Limit)

	summary, err := svc.Summary(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalRecords)
	assert.Equal(t, 3, summary.PendingCount)
	assert.Equal(t, payroll.Units(8000+10000+5000), summary.TotalNetPay)
}

func TestPayrollService_RecurringLineItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addEmployee(t, "emp-1", "96000")
	svc := newTestService(f)

	err := svc.AddEmployeeLineItems(ctx, payroll.AddEmployeeLineItemsRequest{
		EmployeeID: "emp-1",
		Earnings:   []payroll.LineItemRequest{fixedItem("Yemek", "300")},
		Deductions: []payroll.LineItemRequest{fixedItem("Damga Vergisi", "60")},
	})
	require.NoError(t, err)

	items, err := f.lineItems.ListByEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		if it.Kind == payroll.KindDeduction {
			assert.Equal(t, payroll.ClassLegal, it.Item.Class)
			assert.Equal(t, payroll.CategoryStampTax, it.Item.LegalCategory)
		}
	}

	err = svc.AddEmployeeLineItems(ctx, payroll.AddEmployeeLineItemsRequest{
		EmployeeID: "ghost",
		Earnings:   []payroll.LineItemRequest{fixedItem("Yemek", "300")},
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	preview, err := svc.Preview(ctx, payroll.PreviewRequest{EmployeeID: "emp-1", Period: "2024-03"})
	require.NoError(t, err)
	assert.Equal(t, payroll.Units(8240), preview.NetPay)
}

func TestPayrollService_ImportLineItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addEmployee(t, "emp-1", "96000")
	f.addEmployee(t, "emp-2", "96000")
	svc := newTestService(f)

	csv := strings.Join([]string{
		"employee_id,kind,name,type,value",
		"emp-1,earning,Bonus,fixed,500",
		"emp-2,deduction,SGK Primi,percent,14",
		"ghost,earning,Bonus,fixed,500",
		"emp-2,earning,Bonus,fixed,abc",
	}, "\n")

	resp, err := svc.ImportLineItems(ctx, "items.csv", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Rows)
	assert.Equal(t, 2, resp.Imported)
	assert.Equal(t, 2, resp.Employees)
	require.Len(t, resp.Failed, 2)

	rows := []int{resp.Failed[0].Row, resp.Failed[1].Row}
	assert.ElementsMatch(t, []int{4, 5}, rows)

	items, err := f.lineItems.ListByEmployee(ctx, "emp-2")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, payroll.CategorySocialSecurity, items[0].Item.LegalCategory)

	_, err = svc.ImportLineItems(ctx, "items.pdf", strings.NewReader(""))
	assert.ErrorIs(t, err, payroll.ErrInvalidImportFile)
}

func TestPayrollService_UpdateLineItemsKeepsHourlyPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("derived rate", func(t *testing.T) {
		f := newFixture(t)
		f.addEmployee(t, "emp-1", "100000")
		f.addShift(t, "emp-1", 4, 10)
		svc := newTestService(f)

		_, err := svc.RunForPeriod(ctx, payroll.RunPayrollRequest{Period: "2024-03"})
		require.NoError(t, err)
		list, err := svc.ListRecords(ctx, payroll.PayrollFilter{})
		require.NoError(t, err)
		require.Len(t, list.Records, 1)
		assert.Equal(t, "520.83", list.Records[0].HourlyPayment.String())

		updated, err := svc.UpdateLineItems(ctx, payroll.UpdateLineItemsRequest{
			ID:       list.Records[0].ID,
			Earnings: []payroll.LineItemRequest{fixedItem("Bonus", "250")},
		})
		require.NoError(t, err)
		assert.Equal(t, "520.83", updated.HourlyPayment.String())
		assert.Equal(t, "770.83", updated.NetPay.String())
	})

	t.Run("explicit rate", func(t *testing.T) {
		f := newFixture(t)
		rate := decimal.NewFromInt(60)
		_, err := f.employees.Create(ctx, employee.Employee{
			ID:               "emp-1",
			EmployeeCode:     "EMP-emp-1",
			FullName:         "Employee emp-1",
			EmploymentStatus: employee.EmploymentStatusActive,
			AnnualSalary:     decimal.NewFromInt(96000),
			HourlyRate:       &rate,
			HireDate:         time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		f.addShift(t, "emp-1", 4, 10)
		svc := newTestService(f)

		_, err = svc.RunForPeriod(ctx, payroll.RunPayrollRequest{Period: "2024-03"})
		require.NoError(t, err)
		list, err := svc.ListRecords(ctx, payroll.PayrollFilter{})
		require.NoError(t, err)
		require.Len(t, list.Records, 1)

		updated, err := svc.UpdateLineItems(ctx, payroll.UpdateLineItemsRequest{
			ID:       list.Records[0].ID,
			Earnings: []payroll.LineItemRequest{fixedItem("Bonus", "250")},
		})
		require.NoError(t, err)
		assert.Equal(t, payroll.Units(600), updated.HourlyPayment)
		assert.Equal(t, payroll.Units(850), updated.NetPay)
	})
}
