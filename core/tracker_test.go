package core

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

var (
	bidderA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bidderB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	bidderC = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyReveal_FirstReveal(t *testing.T) {
	a := &Auction{}
	check.False(t, a.HasLeader())

	ApplyReveal(a, bidderA, amount("3"))

	check.True(t, a.HasLeader())
	check.Equal(t, bidderA, a.HighestBidder)
	check.Equal(t, "3", a.HighestBid.String())
	check.Equal(t, "0", a.SecondHighestBid.String())
}

func TestApplyReveal_NewLeaderDemotesPrevious(t *testing.T) {
	a := &Auction{}
	ApplyReveal(a, bidderB, amount("2"))
	ApplyReveal(a, bidderA, amount("3"))

	check.Equal(t, bidderA, a.HighestBidder)
	check.Equal(t, "3", a.HighestBid.String())
	check.Equal(t, "2", a.SecondHighestBid.String())
}

func TestApplyReveal_RaisesSecondOnly(t *testing.T) {
	a := &Auction{}
	ApplyReveal(a, bidderA, amount("5"))
	ApplyReveal(a, bidderB, amount("2"))
	ApplyReveal(a, bidderC, amount("4"))

	check.Equal(t, bidderA, a.HighestBidder)
	check.Equal(t, "5", a.HighestBid.String())
	check.Equal(t, "4", a.SecondHighestBid.String())
}

func TestApplyReveal_TieKeepsFirstRevealer(t *testing.T) {
	a := &Auction{}
	ApplyReveal(a, bidderA, amount("3"))
	ApplyReveal(a, bidderB, amount("3"))

	check.Equal(t, bidderA, a.HighestBidder)
	check.Equal(t, "3", a.HighestBid.String())
	// A tie with the highest does not raise the second-highest
	check.Equal(t, "0", a.SecondHighestBid.String())
}

func TestApplyReveal_ZeroBidNeverLeads(t *testing.T) {
	a := &Auction{}
	ApplyReveal(a, bidderA, amount("0"))

	check.False(t, a.HasLeader())
}

func TestRankReveals(t *testing.T) {
	tests := []struct {
		name           string
		reveals        []Reveal
		expectedLeader common.Address
		expectedHigh   string
		expectedSecond string
	}{
		{
			name:           "no reveals",
			reveals:        nil,
			expectedLeader: common.Address{},
			expectedHigh:   "0",
			expectedSecond: "0",
		},
		{
			name: "ascending arrival",
			reveals: []Reveal{
				{Bidder: bidderC, Bid: amount("1")},
				{Bidder: bidderB, Bid: amount("2")},
				{Bidder: bidderA, Bid: amount("3")},
			},
			expectedLeader: bidderA,
			expectedHigh:   "3",
			expectedSecond: "2",
		},
		{
			name: "descending arrival",
			reveals: []Reveal{
				{Bidder: bidderA, Bid: amount("3")},
				{Bidder: bidderB, Bid: amount("2")},
				{Bidder: bidderC, Bid: amount("1")},
			},
			expectedLeader: bidderA,
			expectedHigh:   "3",
			expectedSecond: "2",
		},
		{
			name: "tie at the top decided by arrival",
			reveals: []Reveal{
				{Bidder: bidderB, Bid: amount("2.5")},
				{Bidder: bidderA, Bid: amount("2.5")},
				{Bidder: bidderC, Bid: amount("1")},
			},
			expectedLeader: bidderB,
			expectedHigh:   "2.5",
			expectedSecond: "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			standing := RankReveals(tt.reveals)
			check.Equal(t, tt.expectedLeader, standing.Leader)
			check.Equal(t, tt.expectedHigh, standing.HighestBid.String())
			check.Equal(t, tt.expectedSecond, standing.SecondHighestBid.String())
		})
	}
}
