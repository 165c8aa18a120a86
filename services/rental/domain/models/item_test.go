package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestItemRented(t *testing.T) {
	t.Run("nil renter means not rented", func(t *testing.T) {
		item := Item{ID: 1, IsListed: true}
		if item.Rented() {
			t.Fatal("expected Rented() == false for nil renter")
		}
	})

	t.Run("set renter means rented", func(t *testing.T) {
		item := Item{ID: 1, Renter: uuid.New(), RentalStartTime: time.Now().UTC()}
		if !item.Rented() {
			t.Fatal("expected Rented() == true")
		}
	})
}

func TestItemRentalPayment(t *testing.T) {
	item := Item{DailyRentalPrice: 100, Deposit: 1000}
	if got := item.RentalPayment(); got != 1100 {
		t.Fatalf("RentalPayment() = %d, want 1100", got)
	}
}
