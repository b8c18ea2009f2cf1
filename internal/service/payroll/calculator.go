package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

const (
	DefaultStandardHours = 160
	DefaultStandardDays  = 20
)

// Calculator turns a salary basis, an attendance aggregate and line items into
// a statement. It holds no mutable state; the same input always yields the
// same statement.
type Calculator struct {
	classifier    *Classifier
	standardHours decimal.Decimal
	standardDays  int
}

func NewCalculator(classifier *Classifier, standardHours decimal.Decimal, standardDays int) *Calculator {
	if !standardHours.IsPositive() {
		standardHours = decimal.NewFromInt(DefaultStandardHours)
	}
	if standardDays <= 0 {
		standardDays = DefaultStandardDays
	}
	return &Calculator{
		classifier:    classifier,
		standardHours: standardHours,
		standardDays:  standardDays,
	}
}

// Calculate computes a statement with the standard 160 hour month.
func Calculate(classifier *Classifier, in payroll.CalculationInput) (payroll.Statement, error) {
	return NewCalculator(classifier, decimal.NewFromInt(DefaultStandardHours), DefaultStandardDays).Calculate(in)
}

func (c *Calculator) Calculate(in payroll.CalculationInput) (payroll.Statement, error) {
	fail := func(reason string, err error) (payroll.Statement, error) {
		return payroll.Statement{}, &payroll.ComputationError{EmployeeID: in.EmployeeID, Reason: reason, Err: err}
	}

	if in.BaseSalary.IsNegative() {
		return fail("base salary is negative", nil)
	}

	st := payroll.Statement{BaseSalary: in.BaseSalary}

	// No worked time recorded in the period means a standard full month.
	if in.Attendance == nil || !in.Attendance.HasAttendance {
		st.UsedFallback = true
		st.WorkedHours = c.standardHours
		st.WorkedDays = c.standardDays
	} else {
		st.WorkedHours = in.Attendance.WorkedHours.Round(2)
		st.WorkedDays = in.Attendance.WorkedDays
	}
	if in.Attendance != nil {
		st.LeaveDays = in.Attendance.LeaveDays
	}
	if st.WorkedHours.IsNegative() {
		return fail("worked hours are negative", nil)
	}

	if in.HourlyRate != nil {
		if in.HourlyRate.IsNegative() {
			return fail("hourly rate is negative", nil)
		}
		st.HourlyRate = *in.HourlyRate
		st.HourlyPayment = st.HourlyRate.Mul(st.WorkedHours)
	} else {
		// The derived rate is rounded for display only; payment uses the exact ratio.
		st.HourlyRate = in.BaseSalary.Div(c.standardHours)
		st.HourlyPayment = c.DerivedPayment(in.BaseSalary, st.WorkedHours)
	}

	st.Earnings = make([]payroll.LineItem, 0, len(in.Earnings))
	for _, item := range in.Earnings {
		amount, err := item.Resolve(in.BaseSalary)
		if err != nil {
			return fail(fmt.Sprintf("earning %q", item.Name), err)
		}
		item.Class = ""
		item.LegalCategory = ""
		item.Amount = amount
		st.Earnings = append(st.Earnings, item)
		st.TotalEarnings += amount
	}

	st.Deductions = make([]payroll.LineItem, 0, len(in.Deductions))
	for _, item := range in.Deductions {
		amount, err := item.Resolve(in.BaseSalary)
		if err != nil {
			return fail(fmt.Sprintf("deduction %q", item.Name), err)
		}
		if item.Class != "" && !item.Class.IsValid() {
			return fail(fmt.Sprintf("deduction %q has unknown class %q", item.Name, item.Class), payroll.ErrInvalidLineItem)
		}
		item = c.classifier.Tag(item)
		item.Amount = amount
		st.Deductions = append(st.Deductions, item)

		if item.Class == payroll.ClassLegal {
			st.LegalDeductions += amount
		} else {
			st.SpecialDeductions += amount
		}
	}
	st.TotalDeductions = st.LegalDeductions + st.SpecialDeductions

	// All components are whole cents, so net pay needs no further rounding.
	st.NetPay = st.HourlyPayment + st.TotalEarnings - st.TotalDeductions

	return st, nil
}

// DerivedPayment is base * hours / standard hours, rounded once to the cent.
func (c *Calculator) DerivedPayment(base payroll.Money, hours decimal.Decimal) payroll.Money {
	return payroll.MoneyFromDecimal(base.Decimal().Mul(hours).Div(c.standardHours))
}
