package payroll

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyFromDecimal_RoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   string
		want Money
	}{
		{"1234.565", 123457},
		{"1234.564", 123456},
		{"-0.005", -1},
		{"8000", 800000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MoneyFromDecimal(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestMoney_Arithmetic(t *testing.T) {
	base := Units(8000)

	assert.Equal(t, Units(1120), base.Percent(decimal.NewFromInt(14)))
	assert.Equal(t, Units(50), base.Div(decimal.NewFromInt(160)))
	assert.Equal(t, Money(0), base.Div(decimal.Zero))
	assert.Equal(t, Units(7500), Units(50).Mul(decimal.NewFromInt(150)))
	assert.Equal(t, "6780.00", Sum(Units(7500), Units(500), -Units(1220)).String())

	third := Units(100).Div(decimal.NewFromInt(3))
	assert.Equal(t, Money(3333), third)
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(Units(6780))
	require.NoError(t, err)
	assert.Equal(t, `"6780.00"`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"12.345"`), &m))
	assert.Equal(t, Money(1235), m)

	require.NoError(t, json.Unmarshal([]byte(`99.5`), &m))
	assert.Equal(t, Money(9950), m)

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &m))
}

func TestLineItem_Resolve(t *testing.T) {
	base := Units(8000)

	amount, err := LineItem{Name: "SGK", Type: ItemTypePercent, Value: decimal.NewFromInt(14)}.Resolve(base)
	require.NoError(t, err)
	assert.Equal(t, Units(1120), amount)

	amount, err = LineItem{Name: "Bonus", Type: ItemTypeFixed, Value: decimal.RequireFromString("500.005")}.Resolve(base)
	require.NoError(t, err)
	assert.Equal(t, Money(50001), amount)

	_, err = LineItem{Name: "Bad", Type: "ratio", Value: decimal.NewFromInt(1)}.Resolve(base)
	assert.ErrorIs(t, err, ErrInvalidLineItem)

	_, err = LineItem{Name: "Neg", Type: ItemTypeFixed, Value: decimal.NewFromInt(-1)}.Resolve(base)
	assert.ErrorIs(t, err, ErrInvalidLineItem)

	_, err = LineItem{Name: " ", Type: ItemTypeFixed, Value: decimal.NewFromInt(1)}.Resolve(base)
	assert.ErrorIs(t, err, ErrInvalidLineItem)
}
