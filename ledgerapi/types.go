// Package ledgerapi holds the wire shapes shared by the ledger, the receipt
// signer and the offline validator.
package ledgerapi

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/sealedauction/core"
)

// AuctionSnapshot is a point-in-time export of one auction and everything the
// ledger holds for it.
type AuctionSnapshot struct {
	Auction     core.Auction      `json:"auction"`
	Phase       string            `json:"phase"`
	Commitments []CommitmentEntry `json:"commitments"`

	// Reveals lists accepted reveals in arrival order. Ties are broken by
	// this order.
	Reveals []core.Reveal `json:"reveals"`

	// Credits holds the pending credit of every participant (seller, fee
	// recipient, bidders) at snapshot time. Credits are pooled across
	// auctions, so an entry may include amounts owed by other auctions.
	Credits []CreditEntry `json:"credits"`

	TotalCollateral decimal.Decimal `json:"total_collateral"`
	Credited        decimal.Decimal `json:"credited"`
	Reclaimed       decimal.Decimal `json:"reclaimed"`

	TakenAt time.Time `json:"taken_at"`
}

// Outstanding sums the stakes still locked in commitments.
func (s *AuctionSnapshot) Outstanding() decimal.Decimal {
	total := decimal.Zero
	for _, c := range s.Commitments {
		if c.LockedStake != nil {
			total = total.Add(*c.LockedStake)
		}
	}
	return total
}

// Commitment looks up the entry for bidder.
func (s *AuctionSnapshot) Commitment(bidder common.Address) (*CommitmentEntry, bool) {
	for i := range s.Commitments {
		if s.Commitments[i].Bidder == bidder {
			return &s.Commitments[i], true
		}
	}
	return nil, false
}

// CommitmentEntry is one bidder's commitment, in commit order.
type CommitmentEntry struct {
	Bidder      common.Address   `json:"bidder"`
	Hash        common.Hash      `json:"hash"`
	Collateral  decimal.Decimal  `json:"collateral"`
	Revealed    bool             `json:"revealed"`
	Bid         decimal.Decimal  `json:"bid"`
	LockedStake *decimal.Decimal `json:"locked_stake,omitempty"`
}

// CreditEntry is one account's pending credit.
type CreditEntry struct {
	Account common.Address  `json:"account"`
	Amount  decimal.Decimal `json:"amount"`
}

// SettlementReceipt is the payload signed into a receipt. SnapshotHash binds
// the receipt to the snapshot taken right after settlement.
type SettlementReceipt struct {
	Settlement   core.Settlement `json:"settlement"`
	SnapshotHash common.Hash     `json:"snapshot_hash"`
	IssuedAt     time.Time       `json:"issued_at"`
}

// SettlementBundle is what a bidder needs to audit a settled auction
// offline. The snapshot travels as its canonical CBOR bytes so that the
// receipt's SnapshotHash can be checked against exactly what was signed.
type SettlementBundle struct {
	SnapshotCBOR      []byte            `json:"snapshot_cbor"`
	ReceiptCOSEBase64 ReceiptCOSEBase64 `json:"receipt_cose_base64"`
	PublicKeyPEM      string            `json:"public_key_pem"`
}

// ReceiptCOSE holds raw COSE_Sign1 bytes.
type ReceiptCOSE []byte

// ReceiptCOSEBase64 is a standard base64 encoding of ReceiptCOSE.
type ReceiptCOSEBase64 string

func (r ReceiptCOSE) EncodeBase64() ReceiptCOSEBase64 {
	return ReceiptCOSEBase64(base64.StdEncoding.EncodeToString(r))
}

func (r ReceiptCOSEBase64) Decode() (ReceiptCOSE, error) {
	data, err := base64.StdEncoding.DecodeString(string(r))
	if err != nil {
		return nil, fmt.Errorf("decode COSE base64: %w", err)
	}
	return ReceiptCOSE(data), nil
}

func (r ReceiptCOSEBase64) String() string {
	return string(r)
}
