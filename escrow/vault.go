// Package escrow is an in-memory asset custodian that satisfies the ledger's
// AssetEscrow contract.
package escrow

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/cloudx-io/sealedauction/syncutil"
)

var (
	ErrUnknownAsset  = errors.New("escrow: unknown asset")
	ErrNotOwner      = errors.New("escrow: caller does not own asset")
	ErrAlreadyLocked = errors.New("escrow: asset already locked")
	ErrNotLocked     = errors.New("escrow: asset not locked")
)

type holding struct {
	owner  common.Address
	locked bool
}

// Vault tracks who owns each asset and whether it is held for an auction.
// A released asset belongs to its recipient and may be locked again.
type Vault struct {
	mu     syncutil.Mutex
	assets map[string]*holding
	logger *zap.Logger
}

func NewVault(logger *zap.Logger) *Vault {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Vault{assets: make(map[string]*holding), logger: logger}
}

// Register records owner as the holder of a new asset.
func (v *Vault) Register(assetRef string, owner common.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.assets[assetRef]; ok {
		return fmt.Errorf("escrow: asset %s already registered", assetRef)
	}
	v.assets[assetRef] = &holding{owner: owner}
	return nil
}

func (v *Vault) Lock(_ context.Context, owner common.Address, assetRef string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	h, ok := v.assets[assetRef]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, assetRef)
	}
	if h.owner != owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, assetRef)
	}
	if h.locked {
		return fmt.Errorf("%w: %s", ErrAlreadyLocked, assetRef)
	}
	h.locked = true
	v.logger.Debug("asset locked", zap.String("asset_ref", assetRef), zap.String("owner", owner.Hex()))
	return nil
}

func (v *Vault) Release(_ context.Context, assetRef string, recipient common.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	h, ok := v.assets[assetRef]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, assetRef)
	}
	if !h.locked {
		return fmt.Errorf("%w: %s", ErrNotLocked, assetRef)
	}
	h.locked = false
	h.owner = recipient
	v.logger.Debug("asset released", zap.String("asset_ref", assetRef), zap.String("recipient", recipient.Hex()))
	return nil
}

// Owner reports the current owner of assetRef and whether it is locked.
func (v *Vault) Owner(assetRef string) (owner common.Address, locked bool, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	h, ok := v.assets[assetRef]
	if !ok {
		return common.Address{}, false, false
	}
	return h.owner, h.locked, true
}
