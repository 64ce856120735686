package vatcode

import (
	"grootboek/internal/core/types"
)

var (
	rateStandard = types.MustRate("21")
	rateReduced  = types.MustRate("9")
)

// DefaultBox is the fallback (category, rate) -> box code table, applied
// when a VAT code carries no box mapping of its own. A configured mapping
// always takes precedence.
//
// The function is pure: same inputs, same box, no hidden state.
func DefaultBox(category Category, rate types.Rate) (string, bool) {
	switch category {
	case CategorySales:
		switch {
		case rate.Equal(rateStandard):
			return "1a", true
		case rate.Equal(rateReduced):
			return "1b", true
		default:
			return "1c", true
		}
	case CategoryPurchases:
		return "5b", true
	case CategoryZeroRate, CategoryExempt:
		return "1e", true
	case CategoryIntraEU:
		return "3b", true
	case CategoryReverseCharge:
		// Reverse charge without an explicit mapping reports under the
		// domestic reverse-charge turnover box.
		return "2a", true
	}
	return "", false
}
