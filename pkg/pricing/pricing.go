// Package pricing holds the money arithmetic shared by cart persistence and
// the HTTP layer. All amounts are decimals with two fractional digits.
package pricing

import "github.com/shopspring/decimal"

// TaxRate is the flat sales tax applied to every cart subtotal.
var TaxRate = decimal.RequireFromString("0.08")

// MoneyPlaces is the number of fractional digits kept for stored amounts.
const MoneyPlaces = 2

// Line is a priced quantity contributing to a subtotal.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals are the derived amounts of a cart.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Compute derives subtotal, tax and total from lines and a shipping charge.
// Tax is rounded half away from zero to cents; subtotal and total are exact sums.
func Compute(lines []Line, shipping decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	tax := subtotal.Mul(TaxRate).Round(MoneyPlaces)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}
