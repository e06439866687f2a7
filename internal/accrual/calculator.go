package accrual

import (
	"github.com/shopspring/decimal"
)

// Compute returns the return amount for one cycle: principal * rate / 100,
// rounded to currency precision with banker's rounding. Rounding happens here,
// at credit time, so every call site books the same amount.
//
// The effective rate is the first non-nil of investmentRate and profileRate,
// falling back to defaultRate. Pure function, no side effects.
func Compute(principal decimal.Decimal, investmentRate, profileRate *decimal.Decimal, defaultRate decimal.Decimal) decimal.Decimal {
	rate := EffectiveRate(investmentRate, profileRate, defaultRate)
	return principal.Mul(rate).Div(decimal.NewFromInt(100)).RoundBank(2)
}

// EffectiveRate resolves the fallback chain: investment rate, then the owner
// profile's default rate, then the configured engine default.
func EffectiveRate(investmentRate, profileRate *decimal.Decimal, defaultRate decimal.Decimal) decimal.Decimal {
	if investmentRate != nil {
		return *investmentRate
	}
	if profileRate != nil {
		return *profileRate
	}
	return defaultRate
}
