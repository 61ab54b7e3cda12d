// Package ledger implements the sealed-bid second-price auction ledger:
// commitments, reveals, settlement and the pull-payment credit table.
//
// Every operation runs against one auction under that auction's mutex. Any
// operation that sends value finalizes its ledger entries, releases the
// mutex and only then calls the Transferer; if the transfer fails the
// operation restores exactly what it zeroed and reports ErrTransferFailed.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/google/btree"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cloudx-io/sealedauction/core"
	"github.com/cloudx-io/sealedauction/metrics"
	"github.com/cloudx-io/sealedauction/syncutil"
)

// Config wires a Ledger to its collaborators.
type Config struct {
	Escrow     AssetEscrow
	Admin      Admin
	Transferer Transferer

	// MinCommitDuration and MinRevealDuration bound the windows a creator
	// may request.
	MinCommitDuration time.Duration
	MinRevealDuration time.Duration

	// Clock defaults to time.Now.
	Clock func() time.Time
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// Metrics defaults to metrics.Nop().
	Metrics *metrics.Recorder
}

// Ledger owns every auction, commitment and pending credit.
type Ledger struct {
	mu       syncutil.RWMutex // guards auctions and unsettled
	auctions map[string]*auctionState
	// unsettled orders auctions that have not been settled by reveal deadline.
	unsettled *btree.BTreeG[deadlineEntry]

	credits *creditTable

	escrow     AssetEscrow
	admin      Admin
	transferer Transferer

	minCommit time.Duration
	minReveal time.Duration

	now      func() time.Time
	logger   *zap.Logger
	metrics  *metrics.Recorder
	validate *validator.Validate
}

// auctionState is one auction plus its commitments. All fields are guarded by mu.
type auctionState struct {
	mu syncutil.Mutex

	auction     core.Auction
	commitments map[common.Address]*core.Commitment
	bidders     []common.Address // commit order
	reveals     []core.Reveal

	// per-auction accounting: everything collected, and where it went
	totalCollateral decimal.Decimal
	credited        decimal.Decimal
	reclaimed       decimal.Decimal

	// fee account credited at settlement; zero until a sale settles
	feeRecipient common.Address
}

type deadlineEntry struct {
	deadline time.Time
	id       string
}

func deadlineLess(a, b deadlineEntry) bool {
	if !a.deadline.Equal(b.deadline) {
		return a.deadline.Before(b.deadline)
	}
	return a.id < b.id
}

// New validates cfg and returns an empty ledger.
func New(cfg Config) (*Ledger, error) {
	if cfg.Escrow == nil {
		return nil, errors.New("ledger: escrow is required")
	}
	if cfg.Admin == nil {
		return nil, errors.New("ledger: admin is required")
	}
	if cfg.Transferer == nil {
		return nil, errors.New("ledger: transferer is required")
	}
	if cfg.MinCommitDuration <= 0 || cfg.MinRevealDuration <= 0 {
		return nil, fmt.Errorf("ledger: minimum durations must be positive (commit %s, reveal %s)",
			cfg.MinCommitDuration, cfg.MinRevealDuration)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop()
	}

	return &Ledger{
		auctions:   make(map[string]*auctionState),
		unsettled:  btree.NewG(2, deadlineLess),
		credits:    newCreditTable(),
		escrow:     cfg.Escrow,
		admin:      cfg.Admin,
		transferer: cfg.Transferer,
		minCommit:  cfg.MinCommitDuration,
		minReveal:  cfg.MinRevealDuration,
		now:        cfg.Clock,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		validate:   validator.New(),
	}, nil
}

func (l *Ledger) lookup(auctionID string) (*auctionState, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st, ok := l.auctions[auctionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAuctionNotFound, auctionID)
	}
	return st, nil
}

// lookupFor resolves the auction a state-changing operation in phase required
// acts on. A missing auction has not started, so it is a phase mismatch.
func (l *Ledger) lookupFor(auctionID string, required core.Phase) (*auctionState, error) {
	st, err := l.lookup(auctionID)
	if err != nil {
		return nil, &PhaseMismatchError{Required: required, Actual: core.PhaseNotStarted, cause: err}
	}
	return st, nil
}

func (l *Ledger) checkPaused() error {
	if l.admin.Paused() {
		return ErrPaused
	}
	return nil
}

func (l *Ledger) markSettled(st *auctionState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unsettled.Delete(deadlineEntry{deadline: st.auction.RevealDeadline, id: st.auction.ID})
}

// record reports an operation outcome to metrics and returns err unchanged.
func (l *Ledger) record(op string, err error) error {
	l.metrics.Operation(op, outcome(err))
	return err
}
