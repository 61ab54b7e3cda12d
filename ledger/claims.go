package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cloudx-io/sealedauction/core"
)

// Withdraw pays out caller's whole pending credit.
func (l *Ledger) Withdraw(ctx context.Context, caller common.Address) (decimal.Decimal, error) {
	paid, err := l.withdraw(ctx, caller)
	return paid, l.record("withdraw", err)
}

func (l *Ledger) withdraw(ctx context.Context, caller common.Address) (decimal.Decimal, error) {
	if err := l.checkPaused(); err != nil {
		return decimal.Zero, err
	}
	owed, ok := l.credits.take(caller)
	if !ok {
		return decimal.Zero, ErrNothingToClaim
	}

	if err := l.transferer.Transfer(ctx, caller, owed); err != nil {
		l.credits.add(caller, owed)
		l.logger.Warn("withdraw transfer failed, credit restored",
			zap.String("account", caller.Hex()),
			zap.String("amount", owed.String()),
			zap.Error(err))
		return decimal.Zero, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	l.metrics.Value("withdraw", owed)
	l.metrics.PendingCredits(l.credits.sum())
	l.logger.Info("credit withdrawn",
		zap.String("account", caller.Hex()),
		zap.String("amount", owed.String()))
	return owed, nil
}

// ReclaimUnrevealedDeposit returns the full collateral of a bidder who never
// revealed, once the auction has ended. Settlement is not required.
func (l *Ledger) ReclaimUnrevealedDeposit(ctx context.Context, caller common.Address, auctionID string) (decimal.Decimal, error) {
	paid, err := l.reclaim(ctx, caller, auctionID, checkUnrevealed)
	return paid, l.record("reclaim_unrevealed", err)
}

// ReclaimLosingBid returns the locked bid of a revealed bidder who did not
// win, once the auction has been settled.
func (l *Ledger) ReclaimLosingBid(ctx context.Context, caller common.Address, auctionID string) (decimal.Decimal, error) {
	paid, err := l.reclaim(ctx, caller, auctionID, checkLoser)
	return paid, l.record("reclaim_losing", err)
}

// reclaimCheck decides whether caller may take back c's stake from auction a.
type reclaimCheck func(a *core.Auction, phase core.Phase, caller common.Address, c *core.Commitment) error

func checkUnrevealed(_ *core.Auction, phase core.Phase, _ common.Address, c *core.Commitment) error {
	if err := requirePhase(core.PhaseEnded, phase); err != nil {
		return err
	}
	if !c.Exists() {
		return ErrUnknownBidder
	}
	if c.Revealed {
		return ErrAlreadyRevealed
	}
	return nil
}

func checkLoser(a *core.Auction, _ core.Phase, caller common.Address, c *core.Commitment) error {
	if !a.Settled {
		return ErrAuctionStillActive
	}
	if !c.Exists() {
		return ErrUnknownBidder
	}
	if !c.Revealed {
		return ErrNotRevealed
	}
	if core.IsSale(a) && a.HighestBidder == caller {
		return ErrWinnerCannotUseLoserPath
	}
	return nil
}

// reclaim consumes caller's stake under the auction lock, transfers it with
// the lock released, and puts the stake back if the transfer fails.
func (l *Ledger) reclaim(ctx context.Context, caller common.Address, auctionID string, check reclaimCheck) (decimal.Decimal, error) {
	if err := l.checkPaused(); err != nil {
		return decimal.Zero, err
	}
	st, err := l.lookupFor(auctionID, core.PhaseEnded)
	if err != nil {
		return decimal.Zero, err
	}

	st.mu.Lock()
	c := st.commitments[caller]
	if err := check(&st.auction, core.PhaseOf(&st.auction, l.now()), caller, c); err != nil {
		st.mu.Unlock()
		return decimal.Zero, err
	}
	// a zero bid locks nothing at reveal
	if c.Revealed && !c.Bid.IsPositive() {
		st.mu.Unlock()
		return decimal.Zero, ErrNothingToClaim
	}
	stake := c.Deposit()
	if c.Consumed() || !stake.IsPositive() {
		st.mu.Unlock()
		return decimal.Zero, ErrAlreadyReclaimed
	}
	revealed := c.Revealed
	c.LockedStake = nil
	st.reclaimed = st.reclaimed.Add(stake)
	st.mu.Unlock()

	if err := l.transferer.Transfer(ctx, caller, stake); err != nil {
		st.mu.Lock()
		restored := stake
		c.LockedStake = &restored
		st.reclaimed = st.reclaimed.Sub(stake)
		st.mu.Unlock()
		l.logger.Warn("reclaim transfer failed, stake restored",
			zap.String("auction_id", auctionID),
			zap.String("bidder", caller.Hex()),
			zap.String("amount", stake.String()),
			zap.Error(err))
		return decimal.Zero, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	l.metrics.Value("reclaim", stake)
	l.logger.Info("stake reclaimed",
		zap.String("auction_id", auctionID),
		zap.String("bidder", caller.Hex()),
		zap.String("amount", stake.String()),
		zap.Bool("revealed", revealed))
	return stake, nil
}
