// Package pricing keeps a line's discount percentage and final price
// consistent with each other.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/erazemk/shopadmin/internal/apperr"
)

// Places is the number of decimal places prices and percentages are rounded to.
const Places = 2

var hundred = decimal.NewFromInt(100)

// FinalPrice returns price reduced by pct percent.
func FinalPrice(price, pct float64) float64 {
	p := decimal.NewFromFloat(price)
	factor := hundred.Sub(decimal.NewFromFloat(pct)).Div(hundred)
	return p.Mul(factor).Round(Places).InexactFloat64()
}

// DiscountPercentage back-computes the percentage that turns price into final.
// A zero price has no meaningful discount and yields 0.
func DiscountPercentage(price, final float64) float64 {
	p := decimal.NewFromFloat(price)
	if p.IsZero() {
		return 0
	}
	diff := p.Sub(decimal.NewFromFloat(final))
	return diff.Div(p).Mul(hundred).Round(Places).InexactFloat64()
}

// ValidateDiscount checks that pct is a usable percentage.
func ValidateDiscount(pct float64) error {
	if pct < 0 || pct > 100 {
		return apperr.Newf(apperr.CodeValidation, "discount must be between 0 and 100, got %v", pct)
	}
	return nil
}

// ValidateFinalPrice checks that final lies between zero and price.
func ValidateFinalPrice(price, final float64) error {
	if final < 0 {
		return apperr.New(apperr.CodeValidation, "final price cannot be negative")
	}
	if final > price {
		return apperr.Newf(apperr.CodeValidation, "final price %v exceeds price %v", final, price)
	}
	return nil
}

// LineTotal returns unit price times quantity, rounded.
func LineTotal(unit float64, quantity int) float64 {
	return decimal.NewFromFloat(unit).Mul(decimal.NewFromInt(int64(quantity))).Round(Places).InexactFloat64()
}

// Sum adds amounts without accumulating float error.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.Round(Places).InexactFloat64()
}

// OfferDiscount is the percentage off original when a variant is sold below
// its original price, 0 otherwise.
func OfferDiscount(original, price float64) float64 {
	if original <= 0 || price >= original {
		return 0
	}
	return DiscountPercentage(original, price)
}
