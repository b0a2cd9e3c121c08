package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/yurifrl/conciliar/pkg/models"
)

func TestKeyFormat(t *testing.T) {
	d := models.NewDate(2024, time.March, 5)
	assert.Equal(t, "2024-03-05|32.50|expense|uber", Key("Uber", decimal.RequireFromString("32.5"), models.Expense, &d))
	assert.Equal(t, "no-date|45.00|income|padaria sao jose", Key("Padaria São José", decimal.RequireFromString("-45"), models.Income, nil))
	assert.Equal(t, "no-date|1.00|expense|a b", Key("a|b", decimal.NewFromInt(1), models.Expense, nil))
}

func TestKeyIgnoresCaseAccentsAndWhitespace(t *testing.T) {
	d := models.NewDate(2024, time.March, 1)
	amount := decimal.RequireFromString("45.00")
	base := Key("Padaria São José", amount, models.Expense, &d)

	variants := []string{
		"padaria sao jose",
		"PADARIA SAO JOSE",
		"  Padaria   Sao\tJosé ",
		"PADARIA SÃO JOSÉ",
	}
	for _, v := range variants {
		assert.Equal(t, base, Key(v, amount, models.Expense, &d), v)
	}

	assert.NotEqual(t, base, Key("Padaria São José", amount, models.Income, &d))
	assert.NotEqual(t, base, Key("Padaria São José", decimal.RequireFromString("45.01"), models.Expense, &d))
	assert.NotEqual(t, base, Key("Padaria São José", amount, models.Expense, nil))
}

func TestDetectorWithinBatch(t *testing.T) {
	d := models.NewDate(2024, time.March, 1)
	key := Key("Padaria Sao Jose", decimal.RequireFromString("45.00"), models.Income, &d)

	r := BuildReport([]string{key, key}, nil)
	assert.Equal(t, New, r.Items[0].Status)
	assert.Equal(t, Duplicate, r.Items[1].Status)
	assert.Equal(t, 1, r.DuplicateCount())
	assert.Equal(t, 1, r.NewCount())
}

func TestDetectorAgainstLedger(t *testing.T) {
	settled := models.NewDate(2024, time.March, 5)
	planned := models.NewDate(2024, time.March, 1)
	ledger := []models.Transaction{{
		Description: "Uber",
		Amount:      decimal.RequireFromString("32.50"),
		Type:        models.Expense,
		PlannedDate: &planned,
		SettledAt:   &settled,
	}}
	det := NewDetector(ledger)

	assert.Equal(t, Duplicate, det.Check(Key("UBER", decimal.RequireFromString("32.5"), models.Expense, &settled)))
	assert.Equal(t, New, det.Check(Key("UBER", decimal.RequireFromString("32.5"), models.Expense, &planned)))
	assert.Equal(t, "duplicate", Duplicate.String())
}
