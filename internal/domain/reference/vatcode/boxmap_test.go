package vatcode

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"grootboek/internal/core/types"
)

func TestDefaultBox(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		rate     types.Rate
		box      string
		ok       bool
	}{
		{"sales standard rate", CategorySales, types.MustRate("21"), "1a", true},
		{"sales reduced rate", CategorySales, types.MustRate("9"), "1b", true},
		{"sales other rate", CategorySales, types.MustRate("13"), "1c", true},
		{"purchases regardless of rate", CategoryPurchases, types.MustRate("21"), "5b", true},
		{"purchases zero rate", CategoryPurchases, types.MustRate("0"), "5b", true},
		{"zero rate", CategoryZeroRate, types.MustRate("0"), "1e", true},
		{"exempt", CategoryExempt, types.MustRate("0"), "1e", true},
		{"intra-eu", CategoryIntraEU, types.MustRate("0"), "3b", true},
		{"reverse charge", CategoryReverseCharge, types.MustRate("21"), "2a", true},
		{"unknown category", Category("BOGUS"), types.MustRate("21"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box, ok := DefaultBox(tt.category, tt.rate)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.box, box)
		})
	}
}
