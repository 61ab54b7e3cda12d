package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cloudx-io/sealedauction/core"
)

// Commit records a sealed bid for caller. One commitment per bidder per
// auction; collateral must cover the reserve since the real bid is unknown
// until reveal.
func (l *Ledger) Commit(_ context.Context, caller common.Address, auctionID string, hash common.Hash, collateral decimal.Decimal) error {
	return l.record("commit", l.commit(caller, auctionID, hash, collateral))
}

func (l *Ledger) commit(caller common.Address, auctionID string, hash common.Hash, collateral decimal.Decimal) error {
	if err := l.checkPaused(); err != nil {
		return err
	}
	if caller == (common.Address{}) {
		return ErrInvalidCaller
	}
	st, err := l.lookupFor(auctionID, core.PhaseCommit)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if err := requirePhase(core.PhaseCommit, core.PhaseOf(&st.auction, l.now())); err != nil {
		return err
	}
	if hash == (common.Hash{}) {
		return ErrInvalidCommitment
	}
	if existing := st.commitments[caller]; existing.Exists() {
		return ErrDuplicateCommitment
	}
	if err := core.ValidateAmount(collateral); err != nil {
		return err
	}
	if collateral.LessThan(st.auction.ReservePrice) {
		return fmt.Errorf("%w: %s < %s", ErrInsufficientCollateral, collateral, st.auction.ReservePrice)
	}

	stake := collateral
	st.commitments[caller] = &core.Commitment{
		Hash:        hash,
		Collateral:  collateral,
		LockedStake: &stake,
	}
	st.bidders = append(st.bidders, caller)
	st.totalCollateral = st.totalCollateral.Add(collateral)

	l.logger.Info("bid committed",
		zap.String("auction_id", auctionID),
		zap.String("bidder", caller.Hex()),
		zap.String("collateral", collateral.String()))
	return nil
}

// Reveal opens caller's sealed bid. Collateral above the bid is credited back
// at once and the commitment keeps exactly the bid as its locked stake.
func (l *Ledger) Reveal(_ context.Context, caller common.Address, auctionID string, bid decimal.Decimal, salt common.Hash) error {
	return l.record("reveal", l.reveal(caller, auctionID, bid, salt))
}

func (l *Ledger) reveal(caller common.Address, auctionID string, bid decimal.Decimal, salt common.Hash) error {
	if err := l.checkPaused(); err != nil {
		return err
	}
	st, err := l.lookupFor(auctionID, core.PhaseReveal)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := l.now()
	if err := requirePhase(core.PhaseReveal, core.PhaseOf(&st.auction, now)); err != nil {
		return err
	}
	c := st.commitments[caller]
	if !c.Exists() {
		return ErrUnknownBidder
	}
	if c.Revealed {
		return ErrAlreadyRevealed
	}
	computed, err := core.ComputeCommitment(bid, salt)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReveal, err)
	}
	if computed != c.Hash {
		return fmt.Errorf("%w: hash mismatch", ErrInvalidReveal)
	}
	deposit := c.Deposit()
	if bid.GreaterThan(deposit) {
		return fmt.Errorf("%w: bid %s exceeds collateral %s", ErrInvalidReveal, bid, deposit)
	}

	c.Revealed = true
	c.Bid = bid
	excess := deposit.Sub(bid)
	if excess.IsPositive() {
		l.credits.add(caller, excess)
		st.credited = st.credited.Add(excess)
	}
	if bid.IsPositive() {
		locked := bid
		c.LockedStake = &locked
	} else {
		c.LockedStake = nil
	}
	st.reveals = append(st.reveals, core.Reveal{Bidder: caller, Bid: bid, RevealedAt: now})
	core.ApplyReveal(&st.auction, caller, bid)

	l.logger.Info("bid revealed",
		zap.String("auction_id", auctionID),
		zap.String("bidder", caller.Hex()),
		zap.String("bid", bid.String()),
		zap.String("excess_refund", excess.String()),
		zap.String("leader", st.auction.HighestBidder.Hex()))
	return nil
}
