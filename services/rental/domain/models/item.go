package models

import (
	"time"

	"github.com/google/uuid"
)

// Item is the core aggregate for the rental bounded context. All monetary
// fields are in the smallest currency unit.
type Item struct {
	ID               uint64
	Title            string
	Owner            uuid.UUID // immutable after creation
	DailyRentalPrice uint64
	Deposit          uint64
	MetadataCID      string // opaque off-chain reference, never interpreted
	IsListed         bool
	Renter           uuid.UUID // uuid.Nil when not rented
	RentalStartTime  time.Time // zero when not rented
}

// Rented reports whether the item is currently held by a renter.
// Renter and RentalStartTime are set and cleared together.
func (i Item) Rented() bool {
	return i.Renter != uuid.Nil
}

// RentalPayment is the exact value a renter must attach to rent this item:
// the refundable deposit plus one day of rent prepaid.
func (i Item) RentalPayment() uint64 {
	return i.Deposit + i.DailyRentalPrice
}
