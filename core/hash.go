package core

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// AmountPrecision is the number of fractional digits an amount may carry.
// One base unit is 10^-AmountPrecision.
const AmountPrecision int32 = 18

// ErrInvalidAmount is returned for negative amounts, amounts with more than
// AmountPrecision fractional digits, or amounts that overflow 256 bits.
var ErrInvalidAmount = errors.New("core: invalid amount")

// ValidateAmount checks that an amount is non-negative and representable in base units.
func ValidateAmount(amount decimal.Decimal) error {
	_, err := ToBaseUnits(amount)
	return err
}

// ToBaseUnits converts an amount to its 256-bit base-unit integer.
func ToBaseUnits(amount decimal.Decimal) (*uint256.Int, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, amount)
	}
	if !amount.Equal(amount.Truncate(AmountPrecision)) {
		return nil, fmt.Errorf("%w: %s has more than %d fractional digits", ErrInvalidAmount, amount, AmountPrecision)
	}
	units, overflow := uint256.FromBig(amount.Shift(AmountPrecision).BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: %s overflows 256 bits", ErrInvalidAmount, amount)
	}
	return units, nil
}

// FromBaseUnits converts a base-unit integer back to an amount.
func FromBaseUnits(units *uint256.Int) decimal.Decimal {
	return decimal.NewFromBigInt(units.ToBig(), -AmountPrecision)
}

// ComputeCommitment computes the sealed-bid commitment for a bid and salt.
// Bidders compute the same value off-ledger before committing.
//
// Formula: keccak256(uint256(bid * 10^18) || salt)
//
// The bid is encoded as a 32-byte big-endian word followed by the 32-byte
// salt, the same layout as Solidity's abi.encodePacked(uint256, bytes32).
func ComputeCommitment(bid decimal.Decimal, salt common.Hash) (common.Hash, error) {
	units, err := ToBaseUnits(bid)
	if err != nil {
		return common.Hash{}, err
	}
	word := units.Bytes32()
	return crypto.Keccak256Hash(word[:], salt[:]), nil
}

// NewSalt returns 32 bytes from crypto/rand.
func NewSalt() (common.Hash, error) {
	var salt common.Hash
	if _, err := rand.Read(salt[:]); err != nil {
		return common.Hash{}, fmt.Errorf("entropy generation failed: %w", err)
	}
	return salt, nil
}
