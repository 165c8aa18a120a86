// Package ledger holds the escrow and settlement engine: the item registry,
// the rental state machine, and the funds that sit between rent and return.
//
// A Ledger is the single owned store for every Item record. Mutating
// operations are all-or-nothing: validation happens before any state change,
// and if the outbound bank transfer on return fails, the pre-operation
// snapshot is restored so the call has zero observable effect.
//
// Reentrancy: while Return hands funds to the Bank, control may reach
// arbitrary account-owned code. State is fully reset before any transfer is
// issued, and on top of that a non-blocking entered flag wraps every mutating
// entry point, so a nested Rent/Return/List/Delist during a transfer fails
// with ErrReentrantCall instead of observing half-finished state. Callers are
// expected to serialize mutating calls (the application layer does); the flag
// is defense against reentrancy, not a queue.
package ledger

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/rentledger/services/rental/domain"
	"github.com/ghuser/rentledger/services/rental/domain/fees"
	"github.com/ghuser/rentledger/services/rental/domain/models"
)

// Settlement is the outcome of a completed return. The fee figures are the
// uncapped economic amounts reported to observers; the transferred value is
// PaymentToOwner + DepositRefund, capped at the deposit.
type Settlement struct {
	ItemID uint64
	Owner  uuid.UUID
	Renter uuid.UUID
	fees.Quote
}

// Ledger owns the item records and the escrow balance. Construct with New;
// the zero value is not usable.
type Ledger struct {
	mu      sync.RWMutex
	entered atomic.Bool
	bank    Bank

	items  map[uint64]*models.Item
	total  uint64 // high-water mark of assigned ids
	escrow uint64
}

// New returns an empty Ledger that disburses settlements through bank.
func New(bank Bank) *Ledger {
	return &Ledger{
		bank:  bank,
		items: make(map[uint64]*models.Item),
	}
}

// begin acquires the non-reentrant flag for a mutating operation.
func (l *Ledger) begin() error {
	if !l.entered.CompareAndSwap(false, true) {
		return domain.ErrReentrantCall
	}
	return nil
}

func (l *Ledger) end() {
	l.entered.Store(false)
}

// List validates the listing input and creates a new Item owned by owner,
// listed and available to rent. Returns the assigned sequential id.
func (l *Ledger) List(title string, dailyRentalPrice, deposit uint64, metadataCID string, owner uuid.UUID) (uint64, error) {
	if err := l.begin(); err != nil {
		return 0, err
	}
	defer l.end()

	if owner == uuid.Nil {
		return 0, domain.ErrInvalidAccount
	}
	if title == "" {
		return 0, domain.ErrInvalidTitle
	}
	if dailyRentalPrice == 0 {
		return 0, domain.ErrInvalidPrice
	}
	if deposit == 0 {
		return 0, domain.ErrInvalidDeposit
	}
	if metadataCID == "" {
		return 0, domain.ErrInvalidMetadata
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.total++
	id := l.total
	l.items[id] = &models.Item{
		ID:               id,
		Title:            title,
		Owner:            owner,
		DailyRentalPrice: dailyRentalPrice,
		Deposit:          deposit,
		MetadataCID:      metadataCID,
		IsListed:         true,
	}
	return id, nil
}

// Delist takes an owned, currently listed item off the market. The record is
// kept; ids are never reused or deleted.
func (l *Ledger) Delist(id uint64, caller uuid.UUID) error {
	if err := l.begin(); err != nil {
		return err
	}
	defer l.end()

	if caller == uuid.Nil {
		return domain.ErrInvalidAccount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	if item.Owner != caller {
		return domain.ErrNotOwner
	}
	if !item.IsListed {
		return domain.ErrItemNotListed
	}
	item.IsListed = false
	return nil
}

// Rent moves a listed item into the rented state. payment must equal
// deposit + dailyRentalPrice exactly; both under- and overpayment are
// rejected. The full payment is held in escrow until Return; the owner
// receives nothing at rent time. Returns the updated item snapshot.
//
// The ledger does not stop owners renting their own items; that restriction
// belongs to the calling layer.
func (l *Ledger) Rent(id uint64, caller uuid.UUID, payment uint64, now time.Time) (models.Item, error) {
	if err := l.begin(); err != nil {
		return models.Item{}, err
	}
	defer l.end()

	if caller == uuid.Nil {
		return models.Item{}, domain.ErrInvalidAccount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[id]
	if !ok {
		return models.Item{}, domain.ErrItemNotFound
	}
	if !item.IsListed {
		return models.Item{}, domain.ErrItemNotListed
	}
	if payment != item.RentalPayment() {
		return models.Item{}, domain.ErrIncorrectPayment
	}

	l.escrow += payment
	item.IsListed = false
	item.Renter = caller
	item.RentalStartTime = now.UTC()
	return *item, nil
}

// Return settles a rental at now: it computes the fee quote from the stored
// pricing and start time, resets the item to listed, and only then pays the
// owner's share and the renter's refund out of escrow.
//
// State is reset before the bank is invoked, so code reached during the
// transfer observes the item as already returned. If the transfer fails the
// pre-operation state is restored and the error is returned with zero effect.
func (l *Ledger) Return(id uint64, caller uuid.UUID, now time.Time) (Settlement, error) {
	if err := l.begin(); err != nil {
		return Settlement{}, err
	}
	defer l.end()

	// The zero UUID is the internal "no renter" value; letting it through
	// would match a never-rented item below and settle against an empty
	// escrow.
	if caller == uuid.Nil {
		return Settlement{}, domain.ErrInvalidAccount
	}

	l.mu.Lock()

	item, ok := l.items[id]
	if !ok {
		l.mu.Unlock()
		return Settlement{}, domain.ErrItemNotFound
	}
	// A second return fails here too: the first one cleared Renter to nil,
	// which never equals a real caller.
	if item.Renter != caller {
		l.mu.Unlock()
		return Settlement{}, domain.ErrNotCurrentRenter
	}

	quote := fees.Calculate(item.RentalStartTime, now, item.DailyRentalPrice, item.Deposit)
	settlement := Settlement{
		ItemID: id,
		Owner:  item.Owner,
		Renter: item.Renter,
		Quote:  quote,
	}

	prev := *item
	prevEscrow := l.escrow

	item.IsListed = true
	item.Renter = uuid.Nil
	item.RentalStartTime = time.Time{}
	l.escrow -= quote.PaymentToOwner + quote.DepositRefund
	l.mu.Unlock()

	payments := []Payment{{To: settlement.Owner, Amount: quote.PaymentToOwner}}
	if quote.DepositRefund > 0 {
		payments = append(payments, Payment{To: settlement.Renter, Amount: quote.DepositRefund})
	}
	if err := l.bank.Pay(payments...); err != nil {
		l.mu.Lock()
		*item = prev
		l.escrow = prevEscrow
		l.mu.Unlock()
		return Settlement{}, err
	}

	return settlement, nil
}

// Get returns a snapshot of the item with the given id.
func (l *Ledger) Get(id uint64) (models.Item, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	item, ok := l.items[id]
	if !ok {
		return models.Item{}, domain.ErrItemNotFound
	}
	return *item, nil
}

// TotalItems returns the count of ids ever assigned. Delisting and renting do
// not decrease it; it is the scan bound for ListedIDs.
func (l *Ledger) TotalItems() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}

// ListedIDs returns up to limit ids of currently listed items, scanning
// id-space upward from offset+1. offset is an absolute position in id-space,
// not a count of matches: an offset landing on a non-listed id skips it
// without consuming a result slot. An offset at or past TotalItems yields an
// empty result.
func (l *Ledger) ListedIDs(offset, limit uint64) []uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]uint64, 0, limit)
	for id := offset + 1; id <= l.total && uint64(len(ids)) < limit; id++ {
		if item, ok := l.items[id]; ok && item.IsListed {
			ids = append(ids, id)
		}
	}
	return ids
}

// EscrowBalance returns the funds currently held between rent and return.
// Note the extra dailyRentalPrice collected at rent time stays in escrow
// after settlement: the owner's payout is capped at the deposit and the
// refund is the remainder of the deposit, so the prepaid day's rent has no
// disbursement path. This mirrors the reference behavior exactly.
func (l *Ledger) EscrowBalance() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.escrow
}

// Snapshot returns copies of the items owned or rented matching the filter.
// Used by the owner/renter views; iteration order is ascending id.
func (l *Ledger) Snapshot(match func(models.Item) bool) []models.Item {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Item, 0)
	for id := uint64(1); id <= l.total; id++ {
		if item, ok := l.items[id]; ok && match(*item) {
			out = append(out, *item)
		}
	}
	return out
}
