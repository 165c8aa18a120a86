// Package events defines the Watermill topics and payloads published after
// successful ledger operations. External observers (the projection worker,
// UIs) consume these plus the read operations; they never reach into ledger
// state directly.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Watermill topics, one per ledger mutation.
const (
	TopicItemListed   = "rental.item_listed"
	TopicItemRented   = "rental.item_rented"
	TopicItemReturned = "rental.item_returned"
	TopicItemDelisted = "rental.item_delisted"
)

// ItemListedEvent is published after a new item is listed. It carries the
// full listing so projections can be built without reading back ledger state.
type ItemListedEvent struct {
	EventID          uuid.UUID `json:"event_id"` // Unique publish-time identifier for deduplication
	Version          int       `json:"version"`  // Schema version; increment on breaking changes
	ItemID           uint64    `json:"item_id"`
	Owner            uuid.UUID `json:"owner"`
	Title            string    `json:"title"`
	DailyRentalPrice uint64    `json:"daily_rental_price"`
	Deposit          uint64    `json:"deposit"`
	MetadataCID      string    `json:"metadata_cid"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// ItemRentedEvent is published after a successful rent. DepositPaid is the
// deposit portion of the escrowed payment.
type ItemRentedEvent struct {
	EventID         uuid.UUID `json:"event_id"`
	Version         int       `json:"version"`
	ItemID          uint64    `json:"item_id"`
	Renter          uuid.UUID `json:"renter"`
	DepositPaid     uint64    `json:"deposit_paid"`
	RentalStartTime time.Time `json:"rental_start_time"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// ItemReturnedEvent is published after a settled return. RentalFeePaid and
// LateFeePaid are the computed economic figures even when the actual owner
// payout was capped at the deposit.
type ItemReturnedEvent struct {
	EventID         uuid.UUID `json:"event_id"`
	Version         int       `json:"version"`
	ItemID          uint64    `json:"item_id"`
	Renter          uuid.UUID `json:"renter"`
	RentalFeePaid   uint64    `json:"rental_fee_paid"`
	DepositRefunded uint64    `json:"deposit_refunded"`
	LateFeePaid     uint64    `json:"late_fee_paid"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// ItemDelistedEvent is published after an owner takes an item off the market.
type ItemDelistedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	ItemID     uint64    `json:"item_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
