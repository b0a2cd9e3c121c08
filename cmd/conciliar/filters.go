package main

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/yurifrl/conciliar/pkg/csv"
	"github.com/yurifrl/conciliar/pkg/textnorm"
)

type filters struct {
	startDate   string
	endDate     string
	minAmount   float64
	maxAmount   float64
	description string
}

func (f *filters) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.startDate, "start", "", "Start date (YYYY-MM-DD)")
	fs.StringVar(&f.endDate, "end", "", "End date (YYYY-MM-DD)")
	fs.Float64Var(&f.minAmount, "min", 0, "Minimum absolute amount")
	fs.Float64Var(&f.maxAmount, "max", 0, "Maximum absolute amount")
	fs.StringVar(&f.description, "description", "", "Filter by description (case and accent insensitive)")
}

// filterFunc keeps records matching every set filter. Dates compare as
// YYYY-MM-DD strings; undated records only pass when no date bound is set.
func filterFunc[T csv.Record](f *filters) csv.FilterFunc[T] {
	minAmount := decimal.NewFromFloat(f.minAmount)
	maxAmount := decimal.NewFromFloat(f.maxAmount)
	needle := textnorm.Search(f.description)

	return func(r T) bool {
		date := r.Date()
		if f.startDate != "" && (date == "" || date < f.startDate) {
			return false
		}
		if f.endDate != "" && (date == "" || date > f.endDate) {
			return false
		}
		amount := r.Amount().Abs()
		if f.minAmount != 0 && amount.LessThan(minAmount) {
			return false
		}
		if f.maxAmount != 0 && amount.GreaterThan(maxAmount) {
			return false
		}
		if needle != "" && !strings.Contains(textnorm.Search(r.Description()), needle) {
			return false
		}
		return true
	}
}
