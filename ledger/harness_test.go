package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/ethereum/go-ethereum/common"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/sealedauction/admin"
	"github.com/cloudx-io/sealedauction/core"
	"github.com/cloudx-io/sealedauction/escrow"
	"github.com/cloudx-io/sealedauction/metrics"
	"github.com/cloudx-io/sealedauction/payments"
)

const (
	commitWindow = 2 * time.Hour
	revealWindow = time.Hour
)

var (
	seller   = common.HexToAddress("0x000000000000000000000000000000000000005e")
	treasury = common.HexToAddress("0x00000000000000000000000000000000000000fe")
	bidderA  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bidderB  = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	bidderC  = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func bidderN(n int) common.Address {
	return common.BigToAddress(big.NewInt(int64(0x1000 + n)))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// flakyEscrow is a vault whose releases can be made to fail.
type flakyEscrow struct {
	*escrow.Vault
	mu         sync.Mutex
	releaseErr error
}

func (f *flakyEscrow) Release(ctx context.Context, assetRef string, recipient common.Address) error {
	f.mu.Lock()
	err := f.releaseErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Vault.Release(ctx, assetRef, recipient)
}

func (f *flakyEscrow) failReleases(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseErr = err
}

// opCounter counts ledger.operation increments by tag set.
type opCounter struct {
	statsd.NoOpClient
	mu     sync.Mutex
	counts map[string]int
}

func (c *opCounter) Incr(name string, tags []string, rate float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[strings.Join(tags, ",")]++
	return nil
}

func (c *opCounter) count(op, outcome string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts["op:"+op+",outcome:"+outcome]
}

type harness struct {
	t      *testing.T
	ctx    context.Context
	clock  *fakeClock
	escrow *flakyEscrow
	admin  *admin.Controller
	bank   *payments.Bank
	stats  *opCounter
	ledger *Ledger

	minted decimal.Decimal
	assets int
}

func newHarness(t *testing.T, feeRate string) *harness {
	t.Helper()
	rate := amount(feeRate)
	recipient := common.Address{}
	if rate.IsPositive() {
		recipient = treasury
	}
	ctrl, err := admin.New(rate, recipient, nil)
	assert.NoError(t, err)

	h := &harness{
		t:      t,
		ctx:    context.Background(),
		clock:  &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		escrow: &flakyEscrow{Vault: escrow.NewVault(nil)},
		admin:  ctrl,
		bank:   payments.NewBank(nil),
		stats:  &opCounter{},
	}
	h.ledger, err = New(Config{
		Escrow:            h.escrow,
		Admin:             h.admin,
		Transferer:        h.bank,
		MinCommitDuration: time.Minute,
		MinRevealDuration: time.Minute,
		Clock:             h.clock.Now,
		Metrics:           metrics.NewWithClient(h.stats, nil),
	})
	assert.NoError(t, err)
	return h
}

func (h *harness) newAsset() string {
	h.assets++
	ref := fmt.Sprintf("asset-%d", h.assets)
	assert.NoError(h.t, h.escrow.Register(ref, seller))
	return ref
}

func (h *harness) createAuction(reserve string) string {
	h.t.Helper()
	a, err := h.ledger.CreateAuction(h.ctx, seller, CreateAuctionParams{
		AssetRef:       h.newAsset(),
		ReservePrice:   amount(reserve),
		CommitDuration: commitWindow,
		RevealDuration: revealWindow,
	})
	assert.NoError(h.t, err)
	return a.ID
}

func (h *harness) fund(account common.Address, amt string) {
	h.t.Helper()
	assert.NoError(h.t, h.bank.Mint(account, amount(amt)))
	h.minted = h.minted.Add(amount(amt))
}

// sealBid returns a fresh salt and the commitment for (bid, salt).
func (h *harness) sealBid(bid string) (common.Hash, common.Hash) {
	h.t.Helper()
	salt, err := core.NewSalt()
	assert.NoError(h.t, err)
	hash, err := core.ComputeCommitment(amount(bid), salt)
	assert.NoError(h.t, err)
	return hash, salt
}

// commit funds bidder, takes the collateral out of their balance and records
// the sealed bid. It returns the salt needed to reveal.
func (h *harness) commit(auctionID string, bidder common.Address, bid, collateral string) common.Hash {
	h.t.Helper()
	hash, salt := h.sealBid(bid)
	h.fund(bidder, collateral)
	assert.NoError(h.t, h.bank.Debit(bidder, amount(collateral)))
	assert.NoError(h.t, h.ledger.Commit(h.ctx, bidder, auctionID, hash, amount(collateral)))
	return salt
}

func (h *harness) reveal(auctionID string, bidder common.Address, bid string, salt common.Hash) {
	h.t.Helper()
	assert.NoError(h.t, h.ledger.Reveal(h.ctx, bidder, auctionID, amount(bid), salt))
}

func (h *harness) auction(auctionID string) *core.Auction {
	h.t.Helper()
	a, err := h.ledger.GetAuction(auctionID)
	assert.NoError(h.t, err)
	return a
}

func (h *harness) toReveal(auctionID string) {
	h.clock.Set(h.auction(auctionID).CommitDeadline.Add(time.Second))
}

func (h *harness) toEnded(auctionID string) {
	h.clock.Set(h.auction(auctionID).RevealDeadline.Add(time.Second))
}

func (h *harness) pending(account common.Address) string {
	return h.ledger.PendingCredit(account).String()
}

// checkConservation asserts that everything collected by the auction is
// still locked, sitting in a credit, or already paid back as a reclaim.
func (h *harness) checkConservation(auctionID string) {
	h.t.Helper()
	snap, err := h.ledger.Snapshot(auctionID)
	assert.NoError(h.t, err)
	accounted := snap.Outstanding().Add(snap.Credited).Add(snap.Reclaimed)
	check.True(h.t, snap.TotalCollateral.Equal(accounted))
}

// checkValueConserved asserts that every minted unit is in a bank balance,
// a pending credit, or a locked stake of one of the given auctions.
func (h *harness) checkValueConserved(auctionIDs ...string) {
	h.t.Helper()
	locked := decimal.Zero
	for _, id := range auctionIDs {
		snap, err := h.ledger.Snapshot(id)
		assert.NoError(h.t, err)
		locked = locked.Add(snap.Outstanding())
	}
	total := h.bank.Total().Add(h.ledger.TotalPendingCredits()).Add(locked)
	check.Equal(h.t, h.minted.String(), total.String())
}

func (h *harness) withdrawAll(accounts ...common.Address) {
	h.t.Helper()
	for _, acct := range accounts {
		if h.ledger.PendingCredit(acct).IsZero() {
			continue
		}
		_, err := h.ledger.Withdraw(h.ctx, acct)
		assert.NoError(h.t, err)
	}
}
