package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ItemType says how a line item's value is turned into an amount.
type ItemType string

const (
	ItemTypeFixed   ItemType = "fixed"
	ItemTypePercent ItemType = "percent"
)

func (t ItemType) IsValid() bool {
	return t == ItemTypeFixed || t == ItemTypePercent
}

// DeductionClass separates statutory deductions from discretionary ones.
// Earnings carry no class.
type DeductionClass string

const (
	ClassLegal   DeductionClass = "legal"
	ClassSpecial DeductionClass = "special"
)

func (c DeductionClass) IsValid() bool {
	return c == ClassLegal || c == ClassSpecial
}

// Known statutory categories. Anything else stored in LegalCategory is kept
// as-is so a rules file can introduce its own.
const (
	CategoryIncomeTax      = "income_tax"
	CategorySocialSecurity = "social_security"
	CategoryUnemployment   = "unemployment_insurance"
	CategoryStampTax       = "stamp_tax"
)

// ItemKind says which side of the statement an employee line item sits on.
type ItemKind string

const (
	KindEarning   ItemKind = "earning"
	KindDeduction ItemKind = "deduction"
)

func (k ItemKind) IsValid() bool {
	return k == KindEarning || k == KindDeduction
}

// LineItem is one named earning or deduction. Value is a currency amount for
// fixed items and a percentage of base salary for percent items. Amount is
// filled in by the calculator.
type LineItem struct {
	Name          string          `json:"name"`
	Type          ItemType        `json:"type"`
	Value         decimal.Decimal `json:"value"`
	Class         DeductionClass  `json:"class,omitempty"`
	LegalCategory string          `json:"legal_category,omitempty"`
	Amount        Money           `json:"amount"`
}

// Resolve computes the item's amount against base salary.
func (i LineItem) Resolve(base Money) (Money, error) {
	if strings.TrimSpace(i.Name) == "" {
		return 0, fmt.Errorf("%w: name is required", ErrInvalidLineItem)
	}
	if i.Value.IsNegative() {
		return 0, fmt.Errorf("%w: %q has a negative value", ErrInvalidLineItem, i.Name)
	}
	switch i.Type {
	case ItemTypeFixed:
		return MoneyFromDecimal(i.Value), nil
	case ItemTypePercent:
		return base.Percent(i.Value), nil
	default:
		return 0, fmt.Errorf("%w: %q has unknown type %q", ErrInvalidLineItem, i.Name, i.Type)
	}
}

// EmployeeLineItem is a recurring earning or deduction attached to an
// employee and applied to every period's run.
type EmployeeLineItem struct {
	ID         string
	EmployeeID string
	Kind       ItemKind
	Item       LineItem
	CreatedAt  time.Time
}
