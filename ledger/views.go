package ledger

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/sealedauction/core"
)

// PhaseOf reports the auction's phase at the ledger clock's current time.
// Unknown auctions are PhaseNotStarted.
func (l *Ledger) PhaseOf(auctionID string) core.Phase {
	st, err := l.lookup(auctionID)
	if err != nil {
		return core.PhaseNotStarted
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return core.PhaseOf(&st.auction, l.now())
}

// GetAuction returns a copy of the auction record.
func (l *Ledger) GetAuction(auctionID string) (*core.Auction, error) {
	st, err := l.lookup(auctionID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	a := st.auction
	return &a, nil
}

// GetCommitment returns a copy of bidder's commitment. A bidder who never
// committed gets a zero Commitment, whose Exists reports false.
func (l *Ledger) GetCommitment(auctionID string, bidder common.Address) (*core.Commitment, error) {
	st, err := l.lookup(auctionID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return copyCommitment(st.commitments[bidder]), nil
}

func copyCommitment(c *core.Commitment) *core.Commitment {
	if c == nil {
		return &core.Commitment{}
	}
	out := *c
	if c.LockedStake != nil {
		stake := *c.LockedStake
		out.LockedStake = &stake
	}
	return &out
}

func (l *Ledger) PendingCredit(account common.Address) decimal.Decimal {
	return l.credits.get(account)
}

// TotalPendingCredits sums every unclaimed credit across all auctions.
func (l *Ledger) TotalPendingCredits() decimal.Decimal {
	return l.credits.sum()
}

// SettleableAuctions lists unsettled auctions whose reveal window closed
// before now, earliest deadline first.
func (l *Ledger) SettleableAuctions(now time.Time) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var ids []string
	l.unsettled.AscendLessThan(deadlineEntry{deadline: now}, func(e deadlineEntry) bool {
		ids = append(ids, e.id)
		return true
	})
	return ids
}
