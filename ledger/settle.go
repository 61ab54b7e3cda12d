package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cloudx-io/sealedauction/core"
)

// Settle closes an ended auction: the winner pays the clearing price, which
// is split into fee and seller proceeds, gets the rest of their stake back as
// a credit, and receives the asset. Without a revealed bid at or above the
// reserve the asset goes back to the seller and every commitment stays
// reclaimable. Anyone may call Settle; it succeeds once per auction.
func (l *Ledger) Settle(ctx context.Context, auctionID string) (*core.Settlement, error) {
	s, err := l.settle(ctx, auctionID)
	return s, l.record("settle", err)
}

func (l *Ledger) settle(ctx context.Context, auctionID string) (*core.Settlement, error) {
	if err := l.checkPaused(); err != nil {
		return nil, err
	}
	st, err := l.lookupFor(auctionID, core.PhaseEnded)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := l.now()
	a := &st.auction
	if err := requirePhase(core.PhaseEnded, core.PhaseOf(a, now)); err != nil {
		return nil, err
	}
	if a.Settled {
		return nil, ErrAlreadySettled
	}
	a.Settled = true

	result := &core.Settlement{
		AuctionID: a.ID,
		AssetRef:  a.AssetRef,
		Seller:    a.Seller,
		SettledAt: now,
	}

	if !core.IsSale(a) {
		if err := l.escrow.Release(ctx, a.AssetRef, a.Seller); err != nil {
			a.Settled = false
			return nil, fmt.Errorf("%w: release %s to seller: %w", ErrEscrow, a.AssetRef, err)
		}
		l.markSettled(st)
		l.logger.Info("auction settled without sale",
			zap.String("auction_id", a.ID),
			zap.String("highest_bid", a.HighestBid.String()),
			zap.String("reserve_price", a.ReservePrice.String()))
		return result, nil
	}

	winner := st.commitments[a.HighestBidder]
	price := core.ClearingPrice(a.HighestBid, a.SecondHighestBid)
	fee, proceeds := core.SplitFee(price, l.admin.FeeRate())
	refund := winner.Deposit().Sub(price)

	// The escrow call happens before any credit so a failed release leaves
	// nothing to undo except the settled flag.
	if err := l.escrow.Release(ctx, a.AssetRef, a.HighestBidder); err != nil {
		a.Settled = false
		return nil, fmt.Errorf("%w: release %s to winner: %w", ErrEscrow, a.AssetRef, err)
	}

	winner.LockedStake = nil
	feeRecipient := l.admin.FeeRecipient()
	st.feeRecipient = feeRecipient
	l.credits.add(feeRecipient, fee)
	l.credits.add(a.Seller, proceeds)
	l.credits.add(a.HighestBidder, refund)
	st.credited = st.credited.Add(price).Add(refund)
	l.markSettled(st)

	result.Sold = true
	result.Winner = a.HighestBidder
	result.ClearingPrice = price
	result.Fee = fee
	result.FeeRecipient = feeRecipient
	result.Proceeds = proceeds
	result.WinnerRefund = refund

	l.metrics.Value("settle", price)
	l.metrics.PendingCredits(l.credits.sum())
	l.logger.Info("auction settled",
		zap.String("auction_id", a.ID),
		zap.String("winner", a.HighestBidder.Hex()),
		zap.String("clearing_price", price.String()),
		zap.String("fee", fee.String()),
		zap.String("proceeds", proceeds.String()),
		zap.String("winner_refund", refund.String()))
	return result, nil
}
