package core

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestMeetsReserve(t *testing.T) {
	tests := []struct {
		name     string
		bid      string
		reserve  string
		expected bool
	}{
		{"bid above reserve", "3", "2.5", true},
		{"bid at reserve", "2.5", "2.5", true},
		{"bid below reserve", "0.5", "1", false},
		{"smallest unit below", "0.999999999999999999", "1", false},
		{"trailing zeros", "1.000", "1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check.Equal(t, tt.expected, MeetsReserve(amount(tt.bid), amount(tt.reserve)))
		})
	}
}

func TestIsSale(t *testing.T) {
	noReveals := &Auction{ReservePrice: amount("1")}
	check.False(t, IsSale(noReveals))

	belowReserve := &Auction{ReservePrice: amount("1")}
	ApplyReveal(belowReserve, bidderA, amount("0.5"))
	check.False(t, IsSale(belowReserve))

	atReserve := &Auction{ReservePrice: amount("1")}
	ApplyReveal(atReserve, bidderA, amount("1"))
	check.True(t, IsSale(atReserve))
}

func TestClearingPrice(t *testing.T) {
	tests := []struct {
		name     string
		highest  string
		second   string
		expected string
	}{
		{"second price", "3", "2", "2"},
		{"single bidder pays own bid", "5", "0", "5"},
		{"tie at the top", "3", "3", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check.Equal(t, tt.expected, ClearingPrice(amount(tt.highest), amount(tt.second)).String())
		})
	}
}

func TestSplitFee(t *testing.T) {
	tests := []struct {
		name             string
		price            string
		rate             string
		expectedFee      string
		expectedProceeds string
	}{
		{"no fee", "2", "0", "0", "2"},
		{"two and a half percent", "2", "0.025", "0.05", "1.95"},
		{"rounds fee down to base units", "0.000000000000000003", "0.5", "0.000000000000000001", "0.000000000000000002"},
		{"ten percent of odd price", "7.77", "0.1", "0.777", "6.993"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, proceeds := SplitFee(amount(tt.price), amount(tt.rate))
			check.Equal(t, tt.expectedFee, fee.String())
			check.Equal(t, tt.expectedProceeds, proceeds.String())
			check.True(t, fee.Add(proceeds).Equal(amount(tt.price)))
		})
	}
}

func TestValidateFeeRate(t *testing.T) {
	check.NoError(t, ValidateFeeRate(amount("0")))
	check.NoError(t, ValidateFeeRate(amount("0.025")))
	check.Error(t, ValidateFeeRate(amount("-0.01")))
	check.Error(t, ValidateFeeRate(amount("1")))
}
