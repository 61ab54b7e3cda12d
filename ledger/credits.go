package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/cloudx-io/sealedauction/syncutil"
)

// creditTable is the pull-payment ledger. Entries only grow through add and
// are zeroed by take before any transfer is attempted.
type creditTable struct {
	mu      syncutil.Mutex
	entries map[common.Address]decimal.Decimal
	total   decimal.Decimal
}

func newCreditTable() *creditTable {
	return &creditTable{entries: make(map[common.Address]decimal.Decimal)}
}

func (c *creditTable) add(to common.Address, amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[to] = c.entries[to].Add(amount)
	c.total = c.total.Add(amount)
}

// take zeroes the entry for addr and returns what it held.
func (c *creditTable) take(addr common.Address) (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	amount, ok := c.entries[addr]
	if !ok || !amount.IsPositive() {
		return decimal.Zero, false
	}
	delete(c.entries, addr)
	c.total = c.total.Sub(amount)
	return amount, true
}

func (c *creditTable) get(addr common.Address) decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[addr]
}

func (c *creditTable) sum() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}
