package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateMonthBounds(t *testing.T) {
	d := NewDate(2024, time.February, 17)
	assert.Equal(t, "2024-02-01", d.MonthStart().String())
	assert.Equal(t, "2024-02-29", d.MonthEnd().String())

	parsed, err := ParseDate("2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", parsed.MonthEnd().String())
}

func TestDateTextRoundTrip(t *testing.T) {
	var d Date
	require.NoError(t, d.UnmarshalText([]byte("2024-03-05")))
	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", string(out))

	assert.Error(t, d.UnmarshalText([]byte("05/03/2024")))
}

func TestRecurrenceRuleAppliesTo(t *testing.T) {
	march := NewDate(2024, time.March, 1)
	end := NewDate(2024, time.February, 1)

	tests := []struct {
		name string
		rule RecurrenceRule
		want bool
	}{
		{"open ended", RecurrenceRule{StartMonth: NewDate(2024, time.January, 1)}, true},
		{"starts this month", RecurrenceRule{StartMonth: march}, true},
		{"starts later", RecurrenceRule{StartMonth: NewDate(2024, time.April, 1)}, false},
		{"ended before", RecurrenceRule{StartMonth: NewDate(2023, time.January, 1), EndMonth: &end}, false},
		{"ends this month", RecurrenceRule{StartMonth: NewDate(2023, time.January, 1), EndMonth: march.Ptr()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.AppliesTo(march))
		})
	}
}

func TestFiscalPeriodContains(t *testing.T) {
	p := FiscalPeriod{Start: NewDate(2024, time.March, 1), End: NewDate(2024, time.March, 31)}
	assert.True(t, p.Contains(NewDate(2024, time.March, 1)))
	assert.True(t, p.Contains(NewDate(2024, time.March, 31)))
	assert.False(t, p.Contains(NewDate(2024, time.April, 1)))
	assert.False(t, p.Closed())
}

func TestTypeFromSign(t *testing.T) {
	assert.Equal(t, Income, TypeFromSign(decimal.Zero))
	assert.Equal(t, Expense, TypeFromSign(decimal.RequireFromString("-0.01")))
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$1.234,56", FormatBRL(decimal.RequireFromString("1234.56")))
}
