package ledgerapi

import (
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/sealedauction/core"
)

var (
	bidderA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bidderB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testSnapshot() *AuctionSnapshot {
	stake := amount("2")
	at := time.Date(2025, 3, 1, 15, 0, 1, 0, time.UTC)
	return &AuctionSnapshot{
		Auction: core.Auction{
			ID:               "auction-1",
			AssetRef:         "nft-1",
			ReservePrice:     amount("1"),
			RevealDeadline:   at.Add(-time.Second),
			HighestBidder:    bidderA,
			HighestBid:       amount("3"),
			SecondHighestBid: amount("2"),
			Settled:          true,
		},
		Phase: "Ended",
		Commitments: []CommitmentEntry{
			{Bidder: bidderA, Collateral: amount("4"), Revealed: true, Bid: amount("3")},
			{Bidder: bidderB, Collateral: amount("2.5"), Revealed: true, Bid: amount("2"), LockedStake: &stake},
		},
		Reveals: []core.Reveal{
			{Bidder: bidderA, Bid: amount("3"), RevealedAt: at.Add(-time.Hour)},
			{Bidder: bidderB, Bid: amount("2"), RevealedAt: at.Add(-time.Minute)},
		},
		TotalCollateral: amount("6.5"),
		Credited:        amount("4.5"),
		Reclaimed:       amount("0"),
		TakenAt:         at,
	}
}

func TestReceiptCOSE_Encode(t *testing.T) {
	raw := ReceiptCOSE([]byte("mock-cose-receipt"))

	encoded := raw.EncodeBase64()
	check.NotEqual(t, "", encoded.String())

	decoded, err := encoded.Decode()
	check.Nil(t, err)
	check.Equal(t, raw, decoded)
}

func TestReceiptCOSEBase64_Decode(t *testing.T) {
	tests := []struct {
		name      string
		input     ReceiptCOSEBase64
		wantErr   bool
		errSubstr string
	}{
		{
			name:    "valid base64",
			input:   "bW9jay1jb3NlLXJlY2VpcHQ=",
			wantErr: false,
		},
		{
			name:      "illegal characters",
			input:     "not-valid-base64!!!@@@",
			wantErr:   true,
			errSubstr: "decode COSE base64",
		},
		{
			name:      "wrong padding",
			input:     "abc",
			wantErr:   true,
			errSubstr: "decode COSE base64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.input.Decode()
			if tt.wantErr {
				check.NotNil(t, err)
				check.True(t, strings.Contains(err.Error(), tt.errSubstr))
				check.Nil(t, result)
			} else {
				check.Nil(t, err)
				check.NotNil(t, result)
			}
		})
	}
}

func TestAuctionSnapshot_Helpers(t *testing.T) {
	s := testSnapshot()

	check.Equal(t, "2", s.Outstanding().String())

	entry, ok := s.Commitment(bidderB)
	assert.True(t, ok)
	check.Equal(t, "2.5", entry.Collateral.String())

	_, ok = s.Commitment(common.Address{})
	check.False(t, ok)
}
