package commission

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kalestates/kal_affiliate_app/internal/apperrors"
)

var oneHundred = decimal.NewFromInt(100)

// ValidatePrice rejects non-positive distribution bases before any state change.
func ValidatePrice(price decimal.Decimal) error {
	if price.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: distribution price must be positive, got %s", apperrors.ErrValidation, price.String())
	}
	return nil
}

// ComputeReward returns price * percent / 100, rounded to the currency minor
// unit (2 dp). decimal.Round rounds half away from zero, which is round-half-up
// for the positive amounts handled here.
func ComputeReward(price, percent decimal.Decimal) decimal.Decimal {
	return price.Mul(percent).Div(oneHundred).Round(2)
}
