package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MeetsReserve returns true if a bid meets or exceeds the reserve price.
func MeetsReserve(bid, reserve decimal.Decimal) bool {
	return bid.GreaterThanOrEqual(reserve)
}

// IsSale reports whether the auction's standing produces a sale.
func IsSale(a *Auction) bool {
	return a.HasLeader() && MeetsReserve(a.HighestBid, a.ReservePrice)
}

// ClearingPrice applies the second-price rule: the winner pays the
// second-highest revealed bid, or their own bid when nobody else revealed
// a non-zero amount.
func ClearingPrice(highest, second decimal.Decimal) decimal.Decimal {
	if second.IsZero() {
		return highest
	}
	return second
}

// ValidateFeeRate checks that a platform fee rate is in [0, 1).
func ValidateFeeRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("fee rate %s must be in [0, 1)", rate)
	}
	return nil
}

// SplitFee divides a clearing price into the platform fee and the seller's
// proceeds. The fee is rounded down to AmountPrecision digits and proceeds
// take the remainder, so fee + proceeds always equals price exactly.
func SplitFee(price, rate decimal.Decimal) (fee, proceeds decimal.Decimal) {
	fee = price.Mul(rate).RoundDown(AmountPrecision)
	proceeds = price.Sub(fee)
	return fee, proceeds
}
