package payroll

import (
	"errors"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalculator() *Calculator {
	return NewCalculator(NewClassifier(DefaultRules()), decimal.NewFromInt(160), 20)
}

func TestCalculator_Statement(t *testing.T) {
	calc := newTestCalculator()

	st, err := calc.Calculate(payroll.CalculationInput{
		EmployeeID: "emp-1",
		BaseSalary: payroll.Units(8000),
		Attendance: &payroll.AttendanceAggregate{
			WorkedHours:   decimal.NewFromInt(150),
			WorkedDays:    19,
			HasAttendance: true,
		},
		Earnings: []payroll.LineItem{
			{Name: "Bonus", Type: payroll.ItemTypeFixed, Value: decimal.NewFromInt(500)},
		},
		Deductions: []payroll.LineItem{
			{Name: "SGK Primi", Type: payroll.ItemTypePercent, Value: decimal.NewFromInt(14)},
			{Name: "Özel Sigorta", Type: payroll.ItemTypeFixed, Value: decimal.NewFromInt(100)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, payroll.Units(50), st.HourlyRate)
	assert.Equal(t, payroll.Units(7500), st.HourlyPayment)
	assert.Equal(t, payroll.Units(500), st.TotalEarnings)
	assert.Equal(t, payroll.Units(1120), st.LegalDeductions)
	assert.Equal(t, payroll.Units(100), st.SpecialDeductions)
	assert.Equal(t, payroll.Units(1220), st.TotalDeductions)
	assert.Equal(t, "6780.00", st.NetPay.String())
	assert.False(t, st.UsedFallback)
	assert.Equal(t, 19, st.WorkedDays)

	require.Len(t, st.Deductions, 2)
	assert.Equal(t, payroll.ClassLegal, st.Deductions[0].Class)
	assert.Equal(t, payroll.CategorySocialSecurity, st.Deductions[0].LegalCategory)
	assert.Equal(t, payroll.ClassSpecial, st.Deductions[1].Class)
}

func TestCalculator_FullTimeFallback(t *testing.T) {
	calc := newTestCalculator()

	st, err := calc.Calculate(payroll.CalculationInput{
		EmployeeID: "emp-1",
		BaseSalary: payroll.Units(8000),
		Attendance: &payroll.AttendanceAggregate{LeaveDays: 2},
	})
	require.NoError(t, err)

	assert.True(t, st.UsedFallback)
	assert.True(t, st.WorkedHours.Equal(decimal.NewFromInt(160)))
	assert.Equal(t, 20, st.WorkedDays)
	assert.Equal(t, 2, st.LeaveDays)
	assert.Equal(t, payroll.Units(8000), st.NetPay)
	assert.Empty(t, st.Earnings)
	assert.Empty(t, st.Deductions)
}

func TestCalculator_HourlyRateOverride(t *testing.T) {
	calc := newTestCalculator()
	rate := payroll.Units(60)

	st, err := calc.Calculate(payroll.CalculationInput{
		BaseSalary: payroll.Units(8000),
		HourlyRate: &rate,
		Attendance: &payroll.AttendanceAggregate{WorkedHours: decimal.RequireFromString("150.5"), HasAttendance: true},
	})
	require.NoError(t, err)

	assert.Equal(t, payroll.Units(9030), st.HourlyPayment)
}

func TestCalculator_ExplicitClassWins(t *testing.T) {
	calc := newTestCalculator()

	st, err := calc.Calculate(payroll.CalculationInput{
		BaseSalary: payroll.Units(8000),
		Deductions: []payroll.LineItem{
			{Name: "SGK Fark", Type: payroll.ItemTypeFixed, Value: decimal.NewFromInt(40), Class: payroll.ClassSpecial},
			{Name: "Kesinti", Type: payroll.ItemTypeFixed, Value: decimal.NewFromInt(60), LegalCategory: "court_order"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, payroll.Units(40), st.SpecialDeductions)
	assert.Equal(t, payroll.Units(60), st.LegalDeductions)
	assert.Equal(t, "court_order", st.Deductions[1].LegalCategory)
}

func TestCalculator_EarningsCarryNoClass(t *testing.T) {
	calc := newTestCalculator()

	st, err := calc.Calculate(payroll.CalculationInput{
		BaseSalary: payroll.Units(8000),
		Earnings: []payroll.LineItem{
			{Name: "Prim", Type: payroll.ItemTypePercent, Value: decimal.NewFromInt(10), Class: payroll.ClassLegal},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, payroll.Units(800), st.TotalEarnings)
	assert.Empty(t, st.Earnings[0].Class)
}

func TestCalculator_Errors(t *testing.T) {
	calc := newTestCalculator()

	tests := []struct {
		name    string
		in      payroll.CalculationInput
		wrapped error
	}{
		{
			name: "negative base salary",
			in:   payroll.CalculationInput{EmployeeID: "emp-1", BaseSalary: -1},
		},
		{
			name: "negative worked hours",
			in: payroll.CalculationInput{
				EmployeeID: "emp-1",
				BaseSalary: payroll.Units(8000),
				Attendance: &payroll.AttendanceAggregate{WorkedHours: decimal.NewFromInt(-1), HasAttendance: true},
			},
		},
		{
			name: "unknown item type",
			in: payroll.CalculationInput{
				EmployeeID: "emp-1",
				BaseSalary: payroll.Units(8000),
				Earnings:   []payroll.LineItem{{Name: "Bonus", Type: "ratio", Value: decimal.NewFromInt(1)}},
			},
			wrapped: payroll.ErrInvalidLineItem,
		},
		{
			name: "unknown deduction class",
			in: payroll.CalculationInput{
				EmployeeID: "emp-1",
				BaseSalary: payroll.Units(8000),
				Deductions: []payroll.LineItem{{Name: "Misc", Type: payroll.ItemTypeFixed, Value: decimal.NewFromInt(1), Class: "other"}},
			},
			wrapped: payroll.ErrInvalidLineItem,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Calculate(tt.in)
			require.Error(t, err)

			var compErr *payroll.ComputationError
			require.True(t, errors.As(err, &compErr))
			assert.Equal(t, "emp-1", compErr.EmployeeID)
			if tt.wrapped != nil {
				assert.ErrorIs(t, err, tt.wrapped)
			}
		})
	}
}

func TestCalculator_Deterministic(t *testing.T) {
	in := payroll.CalculationInput{
		BaseSalary: payroll.Units(7333),
		Attendance: &payroll.AttendanceAggregate{WorkedHours: decimal.RequireFromString("141.37"), HasAttendance: true},
		Deductions: []payroll.LineItem{{Name: "Damga Vergisi", Type: payroll.ItemTypePercent, Value: decimal.RequireFromString("0.759")}},
	}

	first, err := Calculate(NewClassifier(DefaultRules()), in)
	require.NoError(t, err)
	second, err := Calculate(NewClassifier(DefaultRules()), in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.HourlyPayment+first.TotalEarnings-first.TotalDeductions, first.NetPay)
	assert.Equal(t, payroll.CategoryStampTax, first.Deductions[0].LegalCategory)
}

func TestCalculator_DerivedRateRoundsOnce(t *testing.T) {
	calc := newTestCalculator()
	base := MonthlyBase(decimal.NewFromInt(100000))
	require.Equal(t, "8333.33", base.String())

	t.Run("full month", func(t *testing.T) {
		st, err := calc.Calculate(payroll.CalculationInput{BaseSalary: base})
		require.NoError(t, err)
		assert.True(t, st.UsedFallback)
		assert.Equal(t, "52.08", st.HourlyRate.String())
		assert.Equal(t, base, st.HourlyPayment)
		assert.Equal(t, base, st.NetPay)
	})

	t.Run("partial month", func(t *testing.T) {
		st, err := calc.Calculate(payroll.CalculationInput{
			BaseSalary: base,
			Attendance: &payroll.AttendanceAggregate{WorkedHours: decimal.RequireFromString("150.5"), WorkedDays: 19, HasAttendance: true},
		})
		require.NoError(t, err)
		assert.Equal(t, "7838.54", st.HourlyPayment.String())
	})

	t.Run("explicit rate is applied as given", func(t *testing.T) {
		rate := payroll.MoneyFromDecimal(decimal.RequireFromString("52.08"))
		st, err := calc.Calculate(payroll.CalculationInput{BaseSalary: base, HourlyRate: &rate})
		require.NoError(t, err)
		assert.Equal(t, "8332.80", st.HourlyPayment.String())
	})
}
