package core

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

func TestComputeCommitment(t *testing.T) {
	bid := decimal.RequireFromString("2.5")
	salt := common.HexToHash("0x0102030405060708091011121314151617181920212223242526272829303132")

	hash, err := ComputeCommitment(bid, salt)
	if err != nil {
		t.Fatalf("ComputeCommitment() error = %v", err)
	}

	// Same inputs should produce same hash (deterministic)
	hash2, _ := ComputeCommitment(bid, salt)
	if hash != hash2 {
		t.Errorf("ComputeCommitment() not deterministic")
	}

	// Verify exact layout: 32-byte big-endian bid in base units, then the salt
	word := common.LeftPadBytes(bid.Shift(AmountPrecision).BigInt().Bytes(), 32)
	expected := crypto.Keccak256Hash(append(word, salt[:]...))
	if hash != expected {
		t.Errorf("ComputeCommitment() = %v, want %v", hash.Hex(), expected.Hex())
	}
}

func TestComputeCommitment_KnownVector(t *testing.T) {
	// keccak256(abi.encodePacked(uint256(1 ether), bytes32(0)))
	hash, err := ComputeCommitment(decimal.NewFromInt(1), common.Hash{})
	if err != nil {
		t.Fatalf("ComputeCommitment() error = %v", err)
	}

	word := make([]byte, 32)
	copy(word[24:], []byte{0x0d, 0xe0, 0xb6, 0xb3, 0xa7, 0x64, 0x00, 0x00})
	expected := crypto.Keccak256Hash(word, make([]byte, 32))
	if hash != expected {
		t.Errorf("ComputeCommitment() = %v, want %v", hash.Hex(), expected.Hex())
	}
}

func TestComputeCommitment_DifferentInputs(t *testing.T) {
	salt1 := common.HexToHash("0x01")
	salt2 := common.HexToHash("0x02")

	hash1, _ := ComputeCommitment(decimal.RequireFromString("2.50"), salt1)
	hash2, _ := ComputeCommitment(decimal.RequireFromString("2.51"), salt1)
	if hash1 == hash2 {
		t.Errorf("Different bids should produce different hashes")
	}

	hash3, _ := ComputeCommitment(decimal.RequireFromString("2.50"), salt2)
	if hash1 == hash3 {
		t.Errorf("Different salts should produce different hashes")
	}

	// Trailing zeros do not change the encoded amount
	hash4, _ := ComputeCommitment(decimal.RequireFromString("2.5000"), salt1)
	if hash1 != hash4 {
		t.Errorf("Equal amounts with different scales should produce the same hash")
	}
}

func TestComputeCommitment_InvalidAmounts(t *testing.T) {
	testCases := []struct {
		name string
		bid  decimal.Decimal
	}{
		{"negative bid", decimal.RequireFromString("-1")},
		{"too many fractional digits", decimal.RequireFromString("0.0000000000000000001")},
		{"overflows 256 bits", decimal.New(1, 80)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeCommitment(tc.bid, common.Hash{})
			if !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("ComputeCommitment(%s) error = %v, want ErrInvalidAmount", tc.bid, err)
			}
		})
	}
}

func TestBaseUnitsRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "0.5", "123.000000000000000001"} {
		amount := decimal.RequireFromString(s)
		units, err := ToBaseUnits(amount)
		if err != nil {
			t.Fatalf("ToBaseUnits(%s) error = %v", s, err)
		}
		if back := FromBaseUnits(units); !back.Equal(amount) {
			t.Errorf("FromBaseUnits(ToBaseUnits(%s)) = %s", s, back)
		}
	}
}

func TestNewSalt(t *testing.T) {
	salt1, err := NewSalt()
	if err != nil {
		t.Fatalf("NewSalt() error = %v", err)
	}
	salt2, _ := NewSalt()
	if salt1 == salt2 {
		t.Errorf("NewSalt() returned the same salt twice")
	}
	if salt1 == (common.Hash{}) {
		t.Errorf("NewSalt() returned the zero hash")
	}
}
