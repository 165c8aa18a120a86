// Package postgres holds the read-side projection of the rental ledger.
// The worker feeds it from domain events; it is an external observer of the
// ledger, never a source for core state.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/rentledger/pkg/database"
)

// ItemRow is the projected item record kept in rental_items.
type ItemRow struct {
	ID        uint64
	Owner     uuid.UUID
	Title     string
	IsListed  bool
	Renter    uuid.UUID // uuid.Nil when not rented
	UpdatedAt time.Time
}

// SettlementRow is one completed return recorded in rental_settlements.
type SettlementRow struct {
	EventID         uuid.UUID
	ItemID          uint64
	Renter          uuid.UUID
	RentalFeePaid   uint64
	DepositRefunded uint64
	LateFeePaid     uint64
	SettledAt       time.Time
}

// HistoryRepository persists the event-driven projection. All writes are
// idempotent so the at-least-once event bus can redeliver safely.
type HistoryRepository struct {
	db *database.Database
}

// NewHistoryRepository returns a HistoryRepository backed by the given pool.
func NewHistoryRepository(db *database.Database) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// UpsertItem records the latest known state of an item. Later events simply
// overwrite earlier ones for the same id.
func (r *HistoryRepository) UpsertItem(ctx context.Context, row ItemRow) error {
	const query = `
		INSERT INTO rental_items (id, owner_id, title, is_listed, renter_id, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, '00000000-0000-0000-0000-000000000000'::uuid), $6)
		ON CONFLICT (id) DO UPDATE SET
			is_listed  = EXCLUDED.is_listed,
			renter_id  = EXCLUDED.renter_id,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.Pool().Exec(ctx, query,
		int64(row.ID), row.Owner, row.Title, row.IsListed, row.Renter, row.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert item %d: %w", row.ID, err)
	}
	return nil
}

// MarkListed flips the listed flag for an already projected item. Used for
// delist and re-list transitions where the event carries no title.
func (r *HistoryRepository) MarkListed(ctx context.Context, id uint64, listed bool, renter uuid.UUID, at time.Time) error {
	const query = `
		UPDATE rental_items
		SET is_listed  = $2,
		    renter_id  = NULLIF($3, '00000000-0000-0000-0000-000000000000'::uuid),
		    updated_at = $4
		WHERE id = $1
	`
	if _, err := r.db.Pool().Exec(ctx, query, int64(id), listed, renter, at); err != nil {
		return fmt.Errorf("mark item %d listed=%t: %w", id, listed, err)
	}
	return nil
}

// RecordSettlement inserts one completed return. The event id is the
// idempotency key; redeliveries are ignored.
func (r *HistoryRepository) RecordSettlement(ctx context.Context, row SettlementRow) error {
	const query = `
		INSERT INTO rental_settlements
			(event_id, item_id, renter_id, rental_fee_paid, deposit_refunded, late_fee_paid, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id) DO NOTHING
	`
	if _, err := r.db.Pool().Exec(ctx, query,
		row.EventID, int64(row.ItemID), row.Renter,
		int64(row.RentalFeePaid), int64(row.DepositRefunded), int64(row.LateFeePaid),
		row.SettledAt,
	); err != nil {
		return fmt.Errorf("record settlement for item %d: %w", row.ItemID, err)
	}
	return nil
}

// SettlementsByItem returns the settlement history for one item, most recent
// first.
func (r *HistoryRepository) SettlementsByItem(ctx context.Context, itemID uint64) ([]SettlementRow, error) {
	const query = `
		SELECT event_id, item_id, renter_id, rental_fee_paid, deposit_refunded, late_fee_paid, settled_at
		FROM rental_settlements
		WHERE item_id = $1
		ORDER BY settled_at DESC
	`
	rows, err := r.db.Pool().Query(ctx, query, int64(itemID))
	if err != nil {
		return nil, fmt.Errorf("query settlements for item %d: %w", itemID, err)
	}
	defer rows.Close()

	var out []SettlementRow
	for rows.Next() {
		var (
			row                   SettlementRow
			iid, fee, refund, late int64
		)
		if err := rows.Scan(&row.EventID, &iid, &row.Renter, &fee, &refund, &late, &row.SettledAt); err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		row.ItemID = uint64(iid)
		row.RentalFeePaid = uint64(fee)
		row.DepositRefunded = uint64(refund)
		row.LateFeePaid = uint64(late)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlements: %w", err)
	}
	return out, nil
}
