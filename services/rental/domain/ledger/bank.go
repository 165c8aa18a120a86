package ledger

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Payment is a single outbound disbursement from escrow.
type Payment struct {
	To     uuid.UUID
	Amount uint64
}

// Bank issues outbound payments from the ledger's escrow holding.
//
// Pay must be all-or-nothing: either every payment in the batch is applied or
// none is. The ledger relies on that contract to keep its own rollback exact.
// Implementations may hand control to arbitrary account-owned code while a
// payment is in flight; the ledger's reentrancy guard is held across the call.
type Bank interface {
	Pay(payments ...Payment) error
}

// MemoryBank is an in-process Bank keeping plain account balances. It is the
// default wiring for a single-node deployment and the reference implementation
// for tests.
type MemoryBank struct {
	mu       sync.Mutex
	balances map[uuid.UUID]uint64
}

// NewMemoryBank returns an empty MemoryBank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{balances: make(map[uuid.UUID]uint64)}
}

// Pay credits every payment in the batch. A zero-amount payment is a no-op.
// The whole batch is validated before any balance changes, so a rejected
// batch leaves every account untouched.
func (b *MemoryBank) Pay(payments ...Payment) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range payments {
		if p.To == uuid.Nil {
			return fmt.Errorf("pay: payment to nil account")
		}
	}
	for _, p := range payments {
		b.balances[p.To] += p.Amount
	}
	return nil
}

// Balance returns the credited total for an account.
func (b *MemoryBank) Balance(account uuid.UUID) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account]
}
