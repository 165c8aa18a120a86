package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/rentledger/pkg/config"
	"github.com/ghuser/rentledger/pkg/logger"
	"github.com/ghuser/rentledger/services/rental/domain"
	"github.com/ghuser/rentledger/services/rental/domain/ledger"
)

const (
	testDailyPrice = uint64(100)
	testDeposit    = uint64(1000)
	testRentValue  = testDeposit + testDailyPrice
)

// newTestService builds a service with an in-process bank, no event bus,
// and a controllable clock starting at base.
func newTestService(t *testing.T, base time.Time) *RentalService {
	t.Helper()
	log := logger.New(&config.Config{LogLevel: "error"})
	svc := NewRentalService(ledger.New(ledger.NewMemoryBank()), nil, log)
	svc.now = func() time.Time { return base }
	return svc
}

func TestRentItem_OwnItemRejected(t *testing.T) {
	svc := newTestService(t, time.Unix(1_700_000_000, 0))
	ctx := context.Background()
	owner := uuid.New()

	id, err := svc.ListItem(ctx, owner, "Table Saw", testDailyPrice, testDeposit, "QmCID")
	if err != nil {
		t.Fatalf("ListItem failed: %v", err)
	}

	_, err = svc.RentItem(ctx, id, owner, testRentValue)
	if !errors.Is(err, domain.ErrOwnItemRental) {
		t.Fatalf("expected ErrOwnItemRental, got %v", err)
	}

	// The listing must still be rentable by someone else.
	if _, err := svc.RentItem(ctx, id, uuid.New(), testRentValue); err != nil {
		t.Fatalf("rent by another caller failed: %v", err)
	}
}

func TestRentItem_NotFound(t *testing.T) {
	svc := newTestService(t, time.Unix(1_700_000_000, 0))

	_, err := svc.RentItem(context.Background(), 99, uuid.New(), testRentValue)
	if !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestQuote(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	svc := newTestService(t, base)
	ctx := context.Background()

	id, err := svc.ListItem(ctx, uuid.New(), "Table Saw", testDailyPrice, testDeposit, "QmCID")
	if err != nil {
		t.Fatalf("ListItem failed: %v", err)
	}

	t.Run("not rented", func(t *testing.T) {
		_, err := svc.Quote(ctx, id)
		if !errors.Is(err, domain.ErrNotCurrentRenter) {
			t.Fatalf("expected ErrNotCurrentRenter, got %v", err)
		}
	})

	renter := uuid.New()
	if _, err := svc.RentItem(ctx, id, renter, testRentValue); err != nil {
		t.Fatalf("RentItem failed: %v", err)
	}

	t.Run("five days in", func(t *testing.T) {
		svc.now = func() time.Time { return base.Add(5 * 24 * time.Hour) }

		quote, err := svc.Quote(ctx, id)
		if err != nil {
			t.Fatalf("Quote failed: %v", err)
		}
		if quote.RentalDays != 5 {
			t.Errorf("RentalDays = %d, want 5", quote.RentalDays)
		}
		if quote.PaymentToOwner != 500 || quote.DepositRefund != 500 {
			t.Errorf("split = %d/%d, want 500/500", quote.PaymentToOwner, quote.DepositRefund)
		}
	})

	t.Run("does not settle", func(t *testing.T) {
		item, err := svc.GetItem(ctx, id)
		if err != nil {
			t.Fatalf("GetItem failed: %v", err)
		}
		if !item.Rented() || item.Renter != renter {
			t.Error("quote must not change rental state")
		}
		if svc.EscrowBalance(ctx) != testRentValue {
			t.Errorf("escrow = %d, want %d", svc.EscrowBalance(ctx), testRentValue)
		}
	})
}

func TestReturnItem_RoundTrip(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	svc := newTestService(t, base)
	ctx := context.Background()
	owner, renter := uuid.New(), uuid.New()

	id, err := svc.ListItem(ctx, owner, "Table Saw", testDailyPrice, testDeposit, "QmCID")
	if err != nil {
		t.Fatalf("ListItem failed: %v", err)
	}
	if _, err := svc.RentItem(ctx, id, renter, testRentValue); err != nil {
		t.Fatalf("RentItem failed: %v", err)
	}

	svc.now = func() time.Time { return base.Add(24 * time.Hour) }
	settlement, err := svc.ReturnItem(ctx, id, renter)
	if err != nil {
		t.Fatalf("ReturnItem failed: %v", err)
	}
	if settlement.Owner != owner || settlement.Renter != renter {
		t.Errorf("settlement parties = %s/%s, want %s/%s",
			settlement.Owner, settlement.Renter, owner, renter)
	}
	if settlement.PaymentToOwner != 100 || settlement.DepositRefund != 900 {
		t.Errorf("split = %d/%d, want 100/900", settlement.PaymentToOwner, settlement.DepositRefund)
	}
}

func TestOwnerAndRenterViews(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	svc := newTestService(t, base)
	ctx := context.Background()
	owner, renter := uuid.New(), uuid.New()

	first, err := svc.ListItem(ctx, owner, "Table Saw", testDailyPrice, testDeposit, "QmA")
	if err != nil {
		t.Fatalf("ListItem failed: %v", err)
	}
	second, err := svc.ListItem(ctx, owner, "Ladder", testDailyPrice, testDeposit, "QmB")
	if err != nil {
		t.Fatalf("ListItem failed: %v", err)
	}
	if _, err := svc.ListItem(ctx, uuid.New(), "Drill", testDailyPrice, testDeposit, "QmC"); err != nil {
		t.Fatalf("ListItem failed: %v", err)
	}
	if _, err := svc.RentItem(ctx, first, renter, testRentValue); err != nil {
		t.Fatalf("RentItem failed: %v", err)
	}

	owned := svc.ItemsOwnedBy(ctx, owner)
	if len(owned) != 2 {
		t.Fatalf("ItemsOwnedBy returned %d items, want 2", len(owned))
	}
	gotIDs := map[uint64]bool{}
	for _, item := range owned {
		gotIDs[item.ID] = true
	}
	if !gotIDs[first] || !gotIDs[second] {
		t.Errorf("ItemsOwnedBy ids = %v, want %d and %d", gotIDs, first, second)
	}

	rented := svc.ItemsRentedBy(ctx, renter)
	if len(rented) != 1 || rented[0].ID != first {
		t.Fatalf("ItemsRentedBy = %+v, want single item %d", rented, first)
	}
}
