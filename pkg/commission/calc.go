package commission

import "github.com/shopspring/decimal"

// MinimumCommission is the smallest commission the platform will record.
// Anything below it collapses to zero so dust never reaches the event-source
// tables' positive-amount paths.
var MinimumCommission = decimal.New(1, -2) // 0.01

var oneHundred = decimal.NewFromInt(100)

// FinalCommission computes the commission earned on price at ratePercent,
// rounded half-up to two decimal places. This is the only place monetary
// rounding policy lives; event sources must not compute commission inline.
func FinalCommission(price, ratePercent decimal.Decimal) decimal.Decimal {
	if price.Sign() <= 0 || ratePercent.Sign() <= 0 {
		return decimal.Zero
	}
	amount := price.Mul(ratePercent).Div(oneHundred).Round(2)
	if amount.LessThan(MinimumCommission) {
		return decimal.Zero
	}
	return amount
}
