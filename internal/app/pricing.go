package app

import "staybook/internal/domain"

// Money values are integer minor currency units throughout; no floats.
const (
	taxRatePercent         = 10
	platformFeePercent     = 10
	platformFeeMinimumCent = 200 // $2.00 floor on marketplace settlements
)

// roundPercent computes round(amount * pct/100) with half-up integer rounding.
func roundPercent(amount int64, pct int64) int64 {
	return (amount*pct + 50) / 100
}

// PriceStay turns a nightly rate and stay length into subtotal/tax/total.
func PriceStay(nightlyRateCents int64, nights int) domain.PriceBreakdown {
	subtotal := nightlyRateCents * int64(nights)
	tax := roundPercent(subtotal, taxRatePercent)
	return domain.PriceBreakdown{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
	}
}

// PlatformFee is the marketplace cut of a guest payment before funds settle
// to the hotel's connected account.
func PlatformFee(totalCents int64) int64 {
	fee := roundPercent(totalCents, platformFeePercent)
	if fee < platformFeeMinimumCent {
		fee = platformFeeMinimumCent
	}
	return fee
}

// MerchantAmount is what the hotel receives after the platform fee.
func MerchantAmount(totalCents int64) int64 {
	return totalCents - PlatformFee(totalCents)
}
