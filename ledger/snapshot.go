package ledger

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/cloudx-io/sealedauction/core"
	"github.com/cloudx-io/sealedauction/ledgerapi"
)

// Snapshot exports the auction, its commitments in commit order, the reveal
// log and the current pending credit of every participant, including the fee
// account the auction settled to.
func (l *Ledger) Snapshot(auctionID string) (*ledgerapi.AuctionSnapshot, error) {
	st, err := l.lookup(auctionID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := l.now()
	snap := &ledgerapi.AuctionSnapshot{
		Auction:         st.auction,
		Phase:           core.PhaseOf(&st.auction, now).String(),
		Commitments:     make([]ledgerapi.CommitmentEntry, 0, len(st.bidders)),
		Reveals:         append([]core.Reveal(nil), st.reveals...),
		TotalCollateral: st.totalCollateral,
		Credited:        st.credited,
		Reclaimed:       st.reclaimed,
		TakenAt:         now,
	}

	accounts := []common.Address{st.auction.Seller}
	if st.feeRecipient != (common.Address{}) {
		accounts = append(accounts, st.feeRecipient)
	}
	for _, bidder := range st.bidders {
		c := copyCommitment(st.commitments[bidder])
		snap.Commitments = append(snap.Commitments, ledgerapi.CommitmentEntry{
			Bidder:      bidder,
			Hash:        c.Hash,
			Collateral:  c.Collateral,
			Revealed:    c.Revealed,
			Bid:         c.Bid,
			LockedStake: c.LockedStake,
		})
		accounts = append(accounts, bidder)
	}

	seen := make(map[common.Address]bool, len(accounts))
	for _, acct := range accounts {
		if seen[acct] {
			continue
		}
		seen[acct] = true
		snap.Credits = append(snap.Credits, ledgerapi.CreditEntry{Account: acct, Amount: l.credits.get(acct)})
	}
	return snap, nil
}
