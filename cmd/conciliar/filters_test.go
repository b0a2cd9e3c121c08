package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/yurifrl/conciliar/pkg/csv"
	"github.com/yurifrl/conciliar/pkg/models"
)

func entry(desc string, amount int64, date *models.Date) csv.Entry {
	return csv.Entry{Transaction: models.Transaction{
		Description: desc,
		Amount:      decimal.NewFromInt(amount),
		Type:        models.Expense,
		SettledAt:   date,
	}}
}

func TestFilterFunc(t *testing.T) {
	march5 := models.NewDate(2024, 3, 5)
	march20 := models.NewDate(2024, 3, 20)

	tests := []struct {
		name    string
		filters filters
		record  csv.Entry
		want    bool
	}{
		{"no filters", filters{}, entry("Uber", 30, nil), true},
		{"before start", filters{startDate: "2024-03-10"}, entry("Uber", 30, &march5), false},
		{"after start", filters{startDate: "2024-03-10"}, entry("Uber", 30, &march20), true},
		{"undated with bound", filters{endDate: "2024-03-31"}, entry("Uber", 30, nil), false},
		{"after end", filters{endDate: "2024-03-10"}, entry("Uber", 30, &march20), false},
		{"below min", filters{minAmount: 50}, entry("Uber", 30, &march5), false},
		{"above max", filters{maxAmount: 20}, entry("Uber", 30, &march5), false},
		{"description accents", filters{description: "padaria sao"}, entry("PADARIA SÃO JOSÉ", 12, &march5), true},
		{"description miss", filters{description: "mercado"}, entry("Uber", 30, &march5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filterFunc[csv.Entry](&tt.filters)(tt.record))
		})
	}
}
