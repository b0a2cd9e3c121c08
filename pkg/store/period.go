package store

import (
	"github.com/yurifrl/conciliar/pkg/models"
)

// MonthPeriod builds the open period covering the month of d.
func MonthPeriod(id string, d models.Date) models.FiscalPeriod {
	return models.FiscalPeriod{ID: id, Start: d.MonthStart(), End: d.MonthEnd()}
}
