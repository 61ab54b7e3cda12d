package ledger

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/sealedauction/ledgerapi"
)

func TestSnapshot(t *testing.T) {
	h := newHarness(t, "0.025")
	id := settledVickrey(t, h)
	h.commit(h.createAuction("1"), bidderC, "1", "1") // another auction's stake is not included

	snap, err := h.ledger.Snapshot(id)
	assert.NoError(t, err)

	check.Equal(t, id, snap.Auction.ID)
	check.True(t, snap.Auction.Settled)
	check.Equal(t, "Ended", snap.Phase)
	check.True(t, snap.TakenAt.Equal(h.clock.Now()))

	assert.Equal(t, 2, len(snap.Commitments))
	check.Equal(t, bidderA, snap.Commitments[0].Bidder)
	check.True(t, snap.Commitments[0].LockedStake == nil)
	check.Equal(t, bidderB, snap.Commitments[1].Bidder)
	check.Equal(t, "2", snap.Commitments[1].LockedStake.String())
	check.Equal(t, "2", snap.Outstanding().String())

	check.Equal(t, "6.5", snap.TotalCollateral.String())
	check.Equal(t, "4.5", snap.Credited.String())
	check.True(t, snap.Reclaimed.IsZero())

	credits := map[string]string{}
	for _, c := range snap.Credits {
		credits[c.Account.Hex()] = c.Amount.String()
	}
	check.Equal(t, 4, len(credits))
	check.Equal(t, "1.95", credits[seller.Hex()])
	check.Equal(t, "0.05", credits[treasury.Hex()])
	check.Equal(t, "2", credits[bidderA.Hex()])
	check.Equal(t, "0.5", credits[bidderB.Hex()])

	entry, ok := snap.Commitment(bidderB)
	check.True(t, ok)
	check.True(t, entry.Revealed)
	_, ok = snap.Commitment(bidderC)
	check.False(t, ok)
}

func TestSnapshot_KeepsFeeAccountAfterFeeChange(t *testing.T) {
	h := newHarness(t, "0.025")
	id := settledVickrey(t, h)
	newTreasury := common.HexToAddress("0x00000000000000000000000000000000000000fd")
	assert.NoError(t, h.admin.SetFee(decimal.RequireFromString("0.01"), newTreasury))

	snap, err := h.ledger.Snapshot(id)
	assert.NoError(t, err)

	credits := map[common.Address]string{}
	for _, c := range snap.Credits {
		credits[c.Account] = c.Amount.String()
	}
	check.Equal(t, "0.05", credits[treasury])
	_, listed := credits[newTreasury]
	check.False(t, listed)
}

func TestSnapshot_CBORRoundTrip(t *testing.T) {
	h := newHarness(t, "0.025")
	id := settledVickrey(t, h)

	snap, err := h.ledger.Snapshot(id)
	assert.NoError(t, err)
	data, err := ledgerapi.EncodeSnapshot(snap)
	assert.NoError(t, err)

	decoded, err := ledgerapi.DecodeSnapshot(data)
	assert.NoError(t, err)
	check.Equal(t, snap.Auction.ID, decoded.Auction.ID)
	check.Equal(t, snap.Auction.HighestBidder, decoded.Auction.HighestBidder)
	check.True(t, snap.Auction.SecondHighestBid.Equal(decoded.Auction.SecondHighestBid))
	check.True(t, snap.Auction.RevealDeadline.Equal(decoded.Auction.RevealDeadline))
	check.Equal(t, len(snap.Reveals), len(decoded.Reveals))
	check.True(t, snap.Outstanding().Equal(decoded.Outstanding()))
}
