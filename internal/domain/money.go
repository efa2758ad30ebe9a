package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Percent returns amount * rate / 100 rounded to cents.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred).Round(2)
}

// CheckAmount rejects non-positive amounts and amounts finer than a cent.
func CheckAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return Validationf("amount must be positive")
	}
	if !amount.Equal(amount.Round(2)) {
		return Validationf("amount must have at most two decimal places")
	}
	return nil
}
