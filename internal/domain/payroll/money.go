package payroll

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (cents). Every monetary output is
// rounded half away from zero to two decimals before it becomes Money.
type Money int64

var hundred = decimal.NewFromInt(100)

// MoneyFromDecimal rounds d to cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(2).Round(0).IntPart())
}

// ParseMoney reads a decimal amount such as "8000" or "1234.565".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return MoneyFromDecimal(d), nil
}

// Units builds Money from whole currency units.
func Units(n int64) Money {
	return Money(n * 100)
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) IsNegative() bool {
	return m < 0
}

// Percent returns value percent of m.
func (m Money) Percent(value decimal.Decimal) Money {
	return MoneyFromDecimal(m.Decimal().Mul(value).Div(hundred))
}

// Mul multiplies m by a decimal factor such as worked hours.
func (m Money) Mul(factor decimal.Decimal) Money {
	return MoneyFromDecimal(m.Decimal().Mul(factor))
}

// Div divides m by a positive decimal divisor.
func (m Money) Div(divisor decimal.Decimal) Money {
	if divisor.IsZero() {
		return 0
	}
	return MoneyFromDecimal(m.Decimal().Div(divisor))
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("invalid amount %s: %w", string(data), err)
	}
	*m = MoneyFromDecimal(d)
	return nil
}

// Sum adds a list of amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}
