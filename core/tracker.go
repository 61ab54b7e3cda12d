package core

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ApplyReveal folds one accepted reveal into the auction's standing.
//
// Comparisons are strict: a bid equal to the current highest leaves both the
// leader and the second-highest unchanged, so ties go to the first revealer.
func ApplyReveal(a *Auction, bidder common.Address, bid decimal.Decimal) {
	switch {
	case bid.GreaterThan(a.HighestBid):
		a.SecondHighestBid = a.HighestBid
		a.HighestBid = bid
		a.HighestBidder = bidder
	case bid.Equal(a.HighestBid):
		// tie with the leader
	case bid.GreaterThan(a.SecondHighestBid):
		a.SecondHighestBid = bid
	}
}

// RankReveals replays an ordered reveal log with the same rule ApplyReveal
// uses and returns the resulting standing. The order of reveals matters only
// for ties.
func RankReveals(reveals []Reveal) *Standing {
	scratch := &Auction{
		HighestBid:       decimal.Zero,
		SecondHighestBid: decimal.Zero,
	}
	for _, r := range reveals {
		ApplyReveal(scratch, r.Bidder, r.Bid)
	}
	return &Standing{
		Leader:           scratch.HighestBidder,
		HighestBid:       scratch.HighestBid,
		SecondHighestBid: scratch.SecondHighestBid,
	}
}
