// Package payments is an in-memory value store implementing the ledger's
// Transferer. Bidders are debited when they post collateral and credited
// when the ledger pays out.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cloudx-io/sealedauction/core"
	"github.com/cloudx-io/sealedauction/syncutil"
)

var ErrInsufficientFunds = errors.New("payments: insufficient funds")

// Hook runs before a transfer to `to` is booked. A non-nil error aborts the
// transfer. Hooks run without the bank lock held, so they may call back into
// the ledger.
type Hook func(ctx context.Context, to common.Address, amount decimal.Decimal) error

type Bank struct {
	mu       syncutil.Mutex
	balances map[common.Address]decimal.Decimal
	hooks    map[common.Address]Hook
	logger   *zap.Logger
}

func NewBank(logger *zap.Logger) *Bank {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bank{
		balances: make(map[common.Address]decimal.Decimal),
		hooks:    make(map[common.Address]Hook),
		logger:   logger,
	}
}

// Mint gives account new funds.
func (b *Bank) Mint(account common.Address, amount decimal.Decimal) error {
	if err := core.ValidateAmount(amount); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[account] = b.balances[account].Add(amount)
	return nil
}

// Debit takes amount from account, e.g. when posting collateral.
func (b *Bank) Debit(account common.Address, amount decimal.Decimal) error {
	if err := core.ValidateAmount(amount); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	bal := b.balances[account]
	if bal.LessThan(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, account.Hex(), bal, amount)
	}
	b.balances[account] = bal.Sub(amount)
	return nil
}

func (b *Bank) Transfer(ctx context.Context, to common.Address, amount decimal.Decimal) error {
	if err := core.ValidateAmount(amount); err != nil {
		return err
	}
	b.mu.Lock()
	hook := b.hooks[to]
	b.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, to, amount); err != nil {
			b.logger.Warn("transfer rejected by hook", zap.String("to", to.Hex()), zap.String("amount", amount.String()), zap.Error(err))
			return err
		}
	}

	b.mu.Lock()
	b.balances[to] = b.balances[to].Add(amount)
	b.mu.Unlock()
	b.logger.Debug("transfer booked", zap.String("to", to.Hex()), zap.String("amount", amount.String()))
	return nil
}

// SetHook installs hook for transfers to account; nil removes it.
func (b *Bank) SetHook(account common.Address, hook Hook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if hook == nil {
		delete(b.hooks, account)
		return
	}
	b.hooks[account] = hook
}

func (b *Bank) Balance(account common.Address) decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account]
}

// Total sums every balance held by the bank.
func (b *Bank) Total() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := decimal.Zero
	for _, bal := range b.balances {
		total = total.Add(bal)
	}
	return total
}
