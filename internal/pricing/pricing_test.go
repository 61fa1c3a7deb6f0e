package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/shopadmin/internal/apperr"
)

func TestFinalPriceFromDiscount(t *testing.T) {
	tests := []struct {
		price, pct, want float64
	}{
		{500, 0, 500},
		{500, 10, 450},
		{500, 100, 0},
		{999.99, 12.5, 874.99},
		{0.3, 33.33, 0.2},
	}

	for _, tt := range tests {
		got := FinalPrice(tt.price, tt.pct)
		assert.InDelta(t, tt.want, got, 0.005, "FinalPrice(%v, %v)", tt.price, tt.pct)
		assert.InDelta(t, tt.price*(1-tt.pct/100), got, 0.005)
	}
}

func TestDiscountFromFinalPrice(t *testing.T) {
	assert.InDelta(t, 10.0, DiscountPercentage(500, 450), 1e-9)
	assert.InDelta(t, 0.0, DiscountPercentage(500, 500), 1e-9)
	assert.InDelta(t, 100.0, DiscountPercentage(500, 0), 1e-9)
	assert.InDelta(t, 33.33, DiscountPercentage(300, 200), 1e-9)
	assert.Zero(t, DiscountPercentage(0, 0))
}

func TestRoundTripStaysConsistent(t *testing.T) {
	prices := []float64{1, 49.99, 500, 1234.5}
	for _, price := range prices {
		for pct := 0.0; pct <= 100; pct += 7.5 {
			final := FinalPrice(price, pct)
			back := DiscountPercentage(price, final)
			// Re-applying the back-computed percentage lands on the same price,
			// up to the rounding of the percentage itself.
			tolerance := 0.01 + price*0.0001
			assert.InDelta(t, final, FinalPrice(price, back), tolerance, "price %v pct %v", price, pct)
		}
	}
}

func TestValidation(t *testing.T) {
	require.NoError(t, ValidateDiscount(0))
	require.NoError(t, ValidateDiscount(100))
	assert.True(t, apperr.IsCode(ValidateDiscount(-1), apperr.CodeValidation))
	assert.True(t, apperr.IsCode(ValidateDiscount(100.01), apperr.CodeValidation))

	require.NoError(t, ValidateFinalPrice(500, 500))
	require.NoError(t, ValidateFinalPrice(500, 0))
	assert.Error(t, ValidateFinalPrice(500, 500.01))
	assert.Error(t, ValidateFinalPrice(500, -1))
}

func TestTotals(t *testing.T) {
	assert.Equal(t, 0.3, Sum(0.1, 0.2))
	assert.Equal(t, 1500.0, LineTotal(500, 3))
	assert.Equal(t, 20.0, OfferDiscount(1000, 800))
	assert.Zero(t, OfferDiscount(800, 800))
	assert.Zero(t, OfferDiscount(0, 100))
}
