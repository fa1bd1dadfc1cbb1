package domain

import "math"

// DefaultPlatformFeeRate is applied when no rate is configured.
const DefaultPlatformFeeRate = 0.03

// ComputeFees splits a total price into the platform fee and the provider
// payout. Deterministic and side-effect free; amounts are rounded to cents.
func ComputeFees(totalPrice, feeRate float64) (platformFee, providerPayout float64) {
	if feeRate <= 0 {
		feeRate = DefaultPlatformFeeRate
	}
	platformFee = round2(totalPrice * feeRate)
	providerPayout = round2(totalPrice - platformFee)
	return platformFee, providerPayout
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
