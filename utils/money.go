package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ToMinorUnits convertit un montant (roupies) en plus petite unité (paise), arrondi au plus proche
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits convertit des paise en roupies
func FromMinorUnits(minor int64) float64 {
	return decimal.New(minor, -2).InexactFloat64()
}

// FormatAmount affiche un montant avec deux décimales et le code devise
func FormatAmount(amount float64, currency string) string {
	return decimal.NewFromFloat(amount).StringFixed(2) + " " + strings.ToUpper(currency)
}
