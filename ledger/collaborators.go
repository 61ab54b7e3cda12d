package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// AssetEscrow holds the auctioned item. Lock is called once on creation and
// Release exactly once per auction, to the winner or back to the seller.
// Implementations must not call back into the ledger.
type AssetEscrow interface {
	Lock(ctx context.Context, owner common.Address, assetRef string) error
	Release(ctx context.Context, assetRef string, recipient common.Address) error
}

// Admin supplies the platform fee and the pause switch.
type Admin interface {
	FeeRate() decimal.Decimal
	FeeRecipient() common.Address
	Paused() bool
}

// Transferer sends value out of the ledger. A transfer may fail, and it may
// run code controlled by the recipient, including calls back into the ledger.
type Transferer interface {
	Transfer(ctx context.Context, to common.Address, amount decimal.Decimal) error
}
