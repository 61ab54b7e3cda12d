package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cloudx-io/sealedauction/admin"
	"github.com/cloudx-io/sealedauction/config"
	"github.com/cloudx-io/sealedauction/core"
	"github.com/cloudx-io/sealedauction/escrow"
	"github.com/cloudx-io/sealedauction/keeper"
	"github.com/cloudx-io/sealedauction/ledger"
	"github.com/cloudx-io/sealedauction/ledgerapi"
	"github.com/cloudx-io/sealedauction/metrics"
	"github.com/cloudx-io/sealedauction/payments"
	"github.com/cloudx-io/sealedauction/receipts"
	"github.com/cloudx-io/sealedauction/syncutil"
)

type Options struct {
	Ledger config.LedgerConfig
	// Workers sizes the keeper pool that settles the auction.
	Workers int

	// Start is the simulated time the auction opens at; zero means now.
	Start time.Time
	// Signer defaults to a fresh P-256 key.
	Signer  *receipts.Signer
	Logger  *zap.Logger
	Metrics *metrics.Recorder
}

type BidderOutcome struct {
	Address    common.Address  `json:"address"`
	Salt       common.Hash     `json:"salt"`
	Commitment common.Hash     `json:"commitment"`
	Committed  bool            `json:"committed"`
	Revealed   bool            `json:"revealed"`
	Received   decimal.Decimal `json:"received"`
	// Rejection is the ledger's reason for refusing the commit or reveal.
	Rejection string `json:"rejection,omitempty"`
}

type Result struct {
	AuctionID  string                             `json:"auction_id"`
	Settlement *core.Settlement                   `json:"settlement"`
	Snapshot   *ledgerapi.AuctionSnapshot         `json:"-"`
	Bundle     ledgerapi.SettlementBundle         `json:"-"`
	Bidders    []*BidderOutcome                   `json:"bidders"`
	Balances   map[common.Address]decimal.Decimal `json:"balances"`
	AssetOwner common.Address                     `json:"asset_owner"`
}

// simClock is advanced explicitly by the run; the ledger and keeper read it.
type simClock struct {
	mu  syncutil.Mutex
	now time.Time
}

func (c *simClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *simClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// recordingSettler keeps the settlements the keeper produces so the run can
// sign a receipt for them.
type recordingSettler struct {
	*ledger.Ledger
	mu      syncutil.Mutex
	settled map[string]*core.Settlement
}

func (r *recordingSettler) Settle(ctx context.Context, auctionID string) (*core.Settlement, error) {
	s, err := r.Ledger.Settle(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.settled[auctionID] = s
	r.mu.Unlock()
	return s, nil
}

type plannedBid struct {
	script     BidderScript
	address    common.Address
	bid        decimal.Decimal
	collateral decimal.Decimal
	outcome    *BidderOutcome
}

// Run plays the scenario start to finish: create, commit, reveal, settle
// through the keeper, sign the receipt, then pay out every credit and any
// requested reclaims.
func Run(ctx context.Context, s *Scenario, opts Options) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Start.IsZero() {
		opts.Start = time.Now().UTC()
	}
	if opts.Signer == nil {
		signer, err := receipts.NewSigner(opts.Logger)
		if err != nil {
			return nil, err
		}
		opts.Signer = signer
	}
	logger := opts.Logger.Named("sim")

	reserve, err := parseAmount("reserve", s.Auction.Reserve)
	if err != nil {
		return nil, err
	}
	seller := common.HexToAddress(s.Auction.Seller)
	plans := make([]*plannedBid, 0, len(s.Bidders))
	for _, b := range s.Bidders {
		bid, err := parseAmount("bid", b.Bid)
		if err != nil {
			return nil, err
		}
		collateral, err := parseAmount("collateral", b.Collateral)
		if err != nil {
			return nil, err
		}
		addr := common.HexToAddress(b.Address)
		plans = append(plans, &plannedBid{
			script:     b,
			address:    addr,
			bid:        bid,
			collateral: collateral,
			outcome:    &BidderOutcome{Address: addr, Received: decimal.Zero},
		})
	}

	ctrl, err := admin.FromConfig(opts.Ledger, opts.Logger)
	if err != nil {
		return nil, err
	}
	if s.FeeRate != "" {
		rate, err := parseAmount("fee_rate", s.FeeRate)
		if err != nil {
			return nil, err
		}
		if err := ctrl.SetFee(rate, common.HexToAddress(s.FeeRecipient)); err != nil {
			return nil, err
		}
	}

	clock := &simClock{now: opts.Start}
	vault := escrow.NewVault(opts.Logger)
	bank := payments.NewBank(opts.Logger)
	if err := vault.Register(s.Auction.Asset, seller); err != nil {
		return nil, err
	}

	l, err := ledger.New(ledger.Config{
		Escrow:            vault,
		Admin:             ctrl,
		Transferer:        bank,
		MinCommitDuration: opts.Ledger.MinCommitDuration,
		MinRevealDuration: opts.Ledger.MinRevealDuration,
		Clock:             clock.Now,
		Logger:            opts.Logger,
		Metrics:           opts.Metrics,
	})
	if err != nil {
		return nil, err
	}

	auction, err := l.CreateAuction(ctx, seller, ledger.CreateAuctionParams{
		AssetRef:       s.Auction.Asset,
		ReservePrice:   reserve,
		CommitDuration: s.Auction.CommitDuration,
		RevealDuration: s.Auction.RevealDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("create auction: %w", err)
	}
	logger.Info("auction opened",
		zap.String("auction_id", auction.ID),
		zap.Time("commit_deadline", auction.CommitDeadline),
		zap.Time("reveal_deadline", auction.RevealDeadline))

	for _, p := range plans {
		if err := commitBid(ctx, l, bank, auction.ID, p); err != nil {
			return nil, err
		}
	}

	clock.Set(auction.CommitDeadline.Add(time.Second))
	for _, p := range plans {
		if !p.outcome.Committed || !p.script.Reveal {
			continue
		}
		if err := l.Reveal(ctx, p.address, auction.ID, p.bid, p.outcome.Salt); err != nil {
			p.outcome.Rejection = err.Error()
			logger.Info("reveal rejected", zap.String("bidder", p.address.Hex()), zap.Error(err))
			continue
		}
		p.outcome.Revealed = true
	}

	clock.Set(auction.RevealDeadline.Add(time.Second))
	settler := &recordingSettler{Ledger: l, settled: make(map[string]*core.Settlement)}
	k, err := keeper.New(settler, keeper.Config{Interval: time.Minute, Workers: opts.Workers, Clock: clock.Now, Logger: opts.Logger})
	if err != nil {
		return nil, err
	}
	if _, err := k.Sweep(ctx); err != nil {
		return nil, err
	}
	settlement, ok := settler.settled[auction.ID]
	if !ok {
		return nil, fmt.Errorf("auction %s was not settled", auction.ID)
	}

	snapshot, err := l.Snapshot(auction.ID)
	if err != nil {
		return nil, err
	}
	bundle, err := buildBundle(opts.Signer, settlement, snapshot)
	if err != nil {
		return nil, err
	}

	for _, p := range plans {
		if err := reclaimStake(ctx, l, auction.ID, settlement, p); err != nil {
			return nil, err
		}
	}
	accounts := []common.Address{seller, ctrl.FeeRecipient()}
	for _, p := range plans {
		accounts = append(accounts, p.address)
	}
	received := make(map[common.Address]decimal.Decimal)
	for _, account := range accounts {
		if account == (common.Address{}) {
			continue
		}
		paid, err := l.Withdraw(ctx, account)
		switch {
		case err == nil:
			received[account] = received[account].Add(paid)
		case errors.Is(err, ledger.ErrNothingToClaim):
		default:
			return nil, fmt.Errorf("withdraw for %s: %w", account.Hex(), err)
		}
	}
	for _, p := range plans {
		p.outcome.Received = p.outcome.Received.Add(received[p.address])
	}

	owner, _, _ := vault.Owner(s.Auction.Asset)
	result := &Result{
		AuctionID:  auction.ID,
		Settlement: settlement,
		Snapshot:   snapshot,
		Bundle:     bundle,
		Balances:   make(map[common.Address]decimal.Decimal),
		AssetOwner: owner,
	}
	for _, account := range accounts {
		if account != (common.Address{}) {
			result.Balances[account] = bank.Balance(account)
		}
	}
	for _, p := range plans {
		result.Bidders = append(result.Bidders, p.outcome)
	}

	logger.Info("auction finished",
		zap.String("auction_id", auction.ID),
		zap.Bool("sold", settlement.Sold),
		zap.String("winner", settlement.Winner.Hex()),
		zap.String("clearing_price", settlement.ClearingPrice.String()),
		zap.String("asset_owner", owner.Hex()))
	return result, nil
}

// commitBid funds the bidder's wallet, seals the bid and posts the
// collateral. A ledger rejection is recorded on the outcome, not returned.
func commitBid(ctx context.Context, l *ledger.Ledger, bank *payments.Bank, auctionID string, p *plannedBid) error {
	salt, err := core.NewSalt()
	if err != nil {
		return err
	}
	hash, err := core.ComputeCommitment(p.bid, salt)
	if err != nil {
		p.outcome.Rejection = err.Error()
		return nil
	}
	p.outcome.Salt = salt
	p.outcome.Commitment = hash

	if err := bank.Mint(p.address, p.collateral); err != nil {
		p.outcome.Rejection = err.Error()
		return nil
	}
	if err := l.Commit(ctx, p.address, auctionID, hash, p.collateral); err != nil {
		p.outcome.Rejection = err.Error()
		return nil
	}
	if err := bank.Debit(p.address, p.collateral); err != nil {
		return fmt.Errorf("debit collateral for %s: %w", p.address.Hex(), err)
	}
	p.outcome.Committed = true
	return nil
}

// reclaimStake pulls back a losing or unrevealed stake when the scenario
// asks for it.
func reclaimStake(ctx context.Context, l *ledger.Ledger, auctionID string, s *core.Settlement, p *plannedBid) error {
	if !p.script.Reclaim || !p.outcome.Committed {
		return nil
	}
	if s.Sold && s.Winner == p.address {
		return nil
	}

	var (
		paid decimal.Decimal
		err  error
	)
	if p.outcome.Revealed {
		paid, err = l.ReclaimLosingBid(ctx, p.address, auctionID)
	} else {
		paid, err = l.ReclaimUnrevealedDeposit(ctx, p.address, auctionID)
	}
	switch {
	case err == nil:
		p.outcome.Received = p.outcome.Received.Add(paid)
	case errors.Is(err, ledger.ErrAlreadyReclaimed):
		// a zero bid leaves nothing staked
	default:
		return fmt.Errorf("reclaim for %s: %w", p.address.Hex(), err)
	}
	return nil
}

func buildBundle(signer *receipts.Signer, settlement *core.Settlement, snapshot *ledgerapi.AuctionSnapshot) (ledgerapi.SettlementBundle, error) {
	encoded, err := ledgerapi.EncodeSnapshot(snapshot)
	if err != nil {
		return ledgerapi.SettlementBundle{}, err
	}
	receipt, err := signer.Issue(settlement, ledgerapi.HashEncoded(encoded))
	if err != nil {
		return ledgerapi.SettlementBundle{}, err
	}
	keyPEM, err := signer.PublicKeyPEM()
	if err != nil {
		return ledgerapi.SettlementBundle{}, err
	}
	return ledgerapi.SettlementBundle{
		SnapshotCBOR:      encoded,
		ReceiptCOSEBase64: receipt.EncodeBase64(),
		PublicKeyPEM:      keyPEM,
	}, nil
}
