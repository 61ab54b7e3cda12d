package ledgerapi

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fxamacker/cbor/v2"
)

var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("ledgerapi: cbor encoder: %v", err))
	}
	return em
}

// EncodeSnapshot returns the canonical CBOR encoding of s. Receipts hash
// these exact bytes, so verifiers must hash what they received rather than
// a re-encoding.
func EncodeSnapshot(s *AuctionSnapshot) ([]byte, error) {
	data, err := encMode.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func DecodeSnapshot(data []byte) (*AuctionSnapshot, error) {
	var s AuctionSnapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// SnapshotHash is the keccak256 of the canonical snapshot encoding.
func SnapshotHash(s *AuctionSnapshot) (common.Hash, error) {
	data, err := EncodeSnapshot(s)
	if err != nil {
		return common.Hash{}, err
	}
	return HashEncoded(data), nil
}

// HashEncoded hashes an already encoded snapshot.
func HashEncoded(data []byte) common.Hash {
	return crypto.Keccak256Hash(data)
}

func EncodeReceipt(r *SettlementReceipt) ([]byte, error) {
	data, err := encMode.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode receipt: %w", err)
	}
	return data, nil
}

func DecodeReceipt(data []byte) (*SettlementReceipt, error) {
	var r SettlementReceipt
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return &r, nil
}
