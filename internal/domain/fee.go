package domain

import "lpool/pkg/fixed"

// FeeRate returns the swap fee fraction for a pool holding token base tokens.
//
// Below target the rate falls linearly from maxFee (empty reserve) towards
// minFee; at or above target it is minFee.
func FeeRate(token, target, minFee, maxFee fixed.Amount) (fixed.Amount, error) {
	if token.GreaterThanOrEqual(target) {
		return minFee, nil
	}

	utilization, err := token.Div(target)
	if err != nil {
		return fixed.Amount{}, err
	}
	spread, err := maxFee.Sub(minFee)
	if err != nil {
		return fixed.Amount{}, err
	}
	discount, err := spread.Mul(utilization)
	if err != nil {
		return fixed.Amount{}, err
	}
	return maxFee.Sub(discount)
}
