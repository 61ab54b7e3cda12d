package main

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/sealedauction/core"
)

func TestSeal_WithSalt(t *testing.T) {
	salt := "0x0101010101010101010101010101010101010101010101010101010101010101"
	sealed, err := seal("2.5", salt)
	assert.NoError(t, err)

	expected, err := core.ComputeCommitment(decimal.RequireFromString("2.5"), common.HexToHash(salt))
	assert.NoError(t, err)
	check.Equal(t, expected.Hex(), sealed.Commitment)
	check.Equal(t, "2500000000000000000", sealed.BaseUnits)
	check.Equal(t, salt, sealed.Salt)
}

func TestSeal_RandomSalt(t *testing.T) {
	first, err := seal("1", "")
	assert.NoError(t, err)
	second, err := seal("1", "")
	assert.NoError(t, err)
	check.NotEqual(t, first.Salt, second.Salt)
	check.NotEqual(t, first.Commitment, second.Commitment)
}

func TestSeal_Rejects(t *testing.T) {
	tests := []struct {
		name string
		bid  string
		salt string
	}{
		{"not a number", "two", ""},
		{"negative", "-1", ""},
		{"too precise", "1.0000000000000000001", ""},
		{"short salt", "1", "0x01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seal(tt.bid, tt.salt)
			check.Error(t, err)
		})
	}
}
