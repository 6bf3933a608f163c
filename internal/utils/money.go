package utils

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Amounts are rounded to this many decimal places after fee math
const amountScale = 8

// SplitFee computes fee = amount * percent / 100 and net = amount - fee
func SplitFee(amount, percent float64) (fee, net float64) {
	a := decimal.NewFromFloat(amount)
	f := Percent(amount, percent)
	return f, a.Sub(decimal.NewFromFloat(f)).Round(amountScale).InexactFloat64()
}

// Percent returns amount * percent / 100
func Percent(amount, percent float64) float64 {
	if percent <= 0 {
		return 0
	}
	return decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(percent)).
		Div(decimal.NewFromInt(100)).
		Round(amountScale).
		InexactFloat64()
}

// FormatAmount renders an amount without trailing zeros
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).String()
}

// NewReferralCode returns an 8-character upper-case code
func NewReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
