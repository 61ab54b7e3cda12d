package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cloudx-io/sealedauction/core"
)

// CreateAuctionParams are the seller's inputs to CreateAuction.
type CreateAuctionParams struct {
	AssetRef       string          `validate:"required"`
	ReservePrice   decimal.Decimal `validate:"-"`
	CommitDuration time.Duration   `validate:"gt=0"`
	RevealDuration time.Duration   `validate:"gt=0"`
}

// CreateAuction locks the seller's asset in escrow and opens the commit
// phase. Nothing is stored if the escrow lock fails.
func (l *Ledger) CreateAuction(ctx context.Context, seller common.Address, params CreateAuctionParams) (*core.Auction, error) {
	if err := l.checkPaused(); err != nil {
		return nil, l.record("create", err)
	}
	if seller == (common.Address{}) {
		return nil, l.record("create", ErrInvalidCaller)
	}
	if err := l.validate.Struct(params); err != nil {
		return nil, l.record("create", fmt.Errorf("invalid auction params: %w", err))
	}
	if err := core.ValidateAmount(params.ReservePrice); err != nil {
		return nil, l.record("create", fmt.Errorf("reserve price: %w", err))
	}
	if !params.ReservePrice.IsPositive() {
		return nil, l.record("create", fmt.Errorf("reserve price: %w: must be positive", core.ErrInvalidAmount))
	}
	if params.CommitDuration < l.minCommit {
		return nil, l.record("create", fmt.Errorf("%w: commit window %s < %s", ErrDurationTooShort, params.CommitDuration, l.minCommit))
	}
	if params.RevealDuration < l.minReveal {
		return nil, l.record("create", fmt.Errorf("%w: reveal window %s < %s", ErrDurationTooShort, params.RevealDuration, l.minReveal))
	}

	if err := l.escrow.Lock(ctx, seller, params.AssetRef); err != nil {
		return nil, l.record("create", fmt.Errorf("%w: lock %s: %w", ErrEscrow, params.AssetRef, err))
	}

	now := l.now()
	commitDeadline, revealDeadline := core.Deadlines(now, params.CommitDuration, params.RevealDuration)
	st := &auctionState{
		auction: core.Auction{
			ID:             uuid.NewString(),
			Seller:         seller,
			AssetRef:       params.AssetRef,
			ReservePrice:   params.ReservePrice,
			CreatedAt:      now,
			CommitDeadline: commitDeadline,
			RevealDeadline: revealDeadline,
		},
		commitments: make(map[common.Address]*core.Commitment),
	}

	l.mu.Lock()
	l.auctions[st.auction.ID] = st
	l.unsettled.ReplaceOrInsert(deadlineEntry{deadline: revealDeadline, id: st.auction.ID})
	l.mu.Unlock()

	l.logger.Info("auction created",
		zap.String("auction_id", st.auction.ID),
		zap.String("seller", seller.Hex()),
		zap.String("asset_ref", params.AssetRef),
		zap.String("reserve_price", params.ReservePrice.String()),
		zap.Time("commit_deadline", commitDeadline),
		zap.Time("reveal_deadline", revealDeadline))

	created := st.auction
	return &created, l.record("create", nil)
}
