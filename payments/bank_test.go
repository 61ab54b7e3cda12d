package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBankMintDebit(t *testing.T) {
	b := NewBank(nil)
	assert.NoError(t, b.Mint(alice, amount("10")))
	assert.NoError(t, b.Debit(alice, amount("4")))
	check.Equal(t, "6", b.Balance(alice).String())

	err := b.Debit(alice, amount("6.000000000000000001"))
	check.True(t, errors.Is(err, ErrInsufficientFunds))
	check.Equal(t, "6", b.Balance(alice).String())

	check.Error(t, b.Mint(alice, amount("-1")))
	check.Error(t, b.Debit(alice, amount("0.0000000000000000001")))
}

func TestBankTransfer(t *testing.T) {
	ctx := context.Background()
	b := NewBank(nil)

	assert.NoError(t, b.Transfer(ctx, bob, amount("2.5")))
	check.Equal(t, "2.5", b.Balance(bob).String())
	check.Equal(t, "2.5", b.Total().String())
}

func TestBankHook(t *testing.T) {
	ctx := context.Background()
	b := NewBank(nil)
	boom := errors.New("receiver rejected")

	b.SetHook(bob, func(context.Context, common.Address, decimal.Decimal) error { return boom })
	check.True(t, errors.Is(b.Transfer(ctx, bob, amount("1")), boom))
	check.True(t, b.Balance(bob).IsZero())

	var seen decimal.Decimal
	b.SetHook(bob, func(_ context.Context, _ common.Address, amt decimal.Decimal) error {
		// the bank lock is not held here
		seen = b.Balance(bob).Add(amt)
		return nil
	})
	assert.NoError(t, b.Transfer(ctx, bob, amount("1")))
	check.Equal(t, "1", seen.String())

	b.SetHook(bob, nil)
	assert.NoError(t, b.Transfer(ctx, bob, amount("1")))
	check.Equal(t, "2", b.Balance(bob).String())
}
