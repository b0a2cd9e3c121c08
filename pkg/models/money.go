package models

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatBRL renders an amount the way Brazilian statements print it (R$1.234,56).
func FormatBRL(amount decimal.Decimal) string {
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, money.BRL).Display()
}
