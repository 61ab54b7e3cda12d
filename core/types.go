package core

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Auction is the ledger's record of a single sealed-bid sale.
type Auction struct {
	ID           string          `json:"id"`
	Seller       common.Address  `json:"seller"`
	AssetRef     string          `json:"asset_ref"`
	ReservePrice decimal.Decimal `json:"reserve_price"`

	CreatedAt      time.Time `json:"created_at"`
	CommitDeadline time.Time `json:"commit_deadline"`
	RevealDeadline time.Time `json:"reveal_deadline"`

	// HighestBidder is the zero address until the first valid reveal.
	HighestBidder    common.Address  `json:"highest_bidder"`
	HighestBid       decimal.Decimal `json:"highest_bid"`
	SecondHighestBid decimal.Decimal `json:"second_highest_bid"`

	Settled bool `json:"settled"`
}

// HasLeader reports whether any reveal has been accepted.
func (a *Auction) HasLeader() bool {
	return a.HighestBidder != (common.Address{})
}

// Commitment is one bidder's sealed bid for one auction.
type Commitment struct {
	Hash       common.Hash     `json:"hash"`
	Collateral decimal.Decimal `json:"collateral"`
	Revealed   bool            `json:"revealed"`
	Bid        decimal.Decimal `json:"bid"`

	// LockedStake is the amount still claimable through some path: the
	// collateral before reveal, the revealed bid after it. Nil once a claim
	// path has consumed it.
	LockedStake *decimal.Decimal `json:"locked_stake,omitempty"`
}

// Exists reports whether a commitment has been recorded.
func (c *Commitment) Exists() bool {
	return c != nil && c.Hash != (common.Hash{})
}

// Deposit returns the outstanding stake, zero once consumed.
func (c *Commitment) Deposit() decimal.Decimal {
	if c == nil || c.LockedStake == nil {
		return decimal.Zero
	}
	return *c.LockedStake
}

// Consumed reports whether a claim path has already disposed of the stake.
func (c *Commitment) Consumed() bool {
	return c.LockedStake == nil
}

// Reveal is one accepted reveal, in arrival order.
type Reveal struct {
	Bidder     common.Address  `json:"bidder"`
	Bid        decimal.Decimal `json:"bid"`
	RevealedAt time.Time       `json:"revealed_at"`
}

// Standing is the running leader and the two highest revealed bids.
type Standing struct {
	Leader           common.Address  `json:"leader"`
	HighestBid       decimal.Decimal `json:"highest_bid"`
	SecondHighestBid decimal.Decimal `json:"second_highest_bid"`
}

// Settlement is the outcome of settling an auction.
type Settlement struct {
	AuctionID string         `json:"auction_id"`
	AssetRef  string         `json:"asset_ref"`
	Seller    common.Address `json:"seller"`

	// Sold is false when no revealed bid met the reserve; the asset then
	// went back to the seller and every field below is zero.
	Sold          bool            `json:"sold"`
	Winner        common.Address  `json:"winner"`
	ClearingPrice decimal.Decimal `json:"clearing_price"`
	Fee           decimal.Decimal `json:"fee"`
	FeeRecipient  common.Address  `json:"fee_recipient"`
	Proceeds      decimal.Decimal `json:"proceeds"`
	WinnerRefund  decimal.Decimal `json:"winner_refund"`

	SettledAt time.Time `json:"settled_at"`
}

// AssetRecipient is the address the escrowed asset was released to.
func (s *Settlement) AssetRecipient() common.Address {
	if s.Sold {
		return s.Winner
	}
	return s.Seller
}
