// Package admin holds the fee schedule and the pause switch consulted by the
// ledger before every state change.
package admin

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cloudx-io/sealedauction/config"
	"github.com/cloudx-io/sealedauction/core"
	"github.com/cloudx-io/sealedauction/syncutil"
)

var ErrMissingFeeRecipient = errors.New("admin: fee recipient required for a non-zero fee rate")

type Controller struct {
	mu           syncutil.RWMutex
	feeRate      decimal.Decimal
	feeRecipient common.Address
	paused       atomic.Bool
	logger       *zap.Logger
}

func New(feeRate decimal.Decimal, feeRecipient common.Address, logger *zap.Logger) (*Controller, error) {
	if err := checkFee(feeRate, feeRecipient); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{feeRate: feeRate, feeRecipient: feeRecipient, logger: logger}, nil
}

// FromConfig builds a controller from the ledger section of the process
// config, including its initial pause state.
func FromConfig(cfg config.LedgerConfig, logger *zap.Logger) (*Controller, error) {
	c, err := New(cfg.FeeRate, cfg.FeeRecipient, logger)
	if err != nil {
		return nil, err
	}
	c.paused.Store(cfg.Paused)
	return c, nil
}

func checkFee(rate decimal.Decimal, recipient common.Address) error {
	if err := core.ValidateFeeRate(rate); err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	if rate.IsPositive() && recipient == (common.Address{}) {
		return ErrMissingFeeRecipient
	}
	return nil
}

func (c *Controller) FeeRate() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feeRate
}

func (c *Controller) FeeRecipient() common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feeRecipient
}

// SetFee changes the schedule used by later settlements. Settled auctions
// are unaffected.
func (c *Controller) SetFee(rate decimal.Decimal, recipient common.Address) error {
	if err := checkFee(rate, recipient); err != nil {
		return err
	}
	c.mu.Lock()
	c.feeRate = rate
	c.feeRecipient = recipient
	c.mu.Unlock()
	c.logger.Info("fee schedule updated", zap.String("fee_rate", rate.String()), zap.String("fee_recipient", recipient.Hex()))
	return nil
}

func (c *Controller) Paused() bool {
	return c.paused.Load()
}

func (c *Controller) Pause() {
	if !c.paused.Swap(true) {
		c.logger.Warn("ledger paused")
	}
}

func (c *Controller) Unpause() {
	if c.paused.Swap(false) {
		c.logger.Info("ledger unpaused")
	}
}
