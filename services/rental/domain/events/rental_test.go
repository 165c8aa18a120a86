package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/rentledger/services/rental/domain/events"
)

func TestItemReturnedEventFieldNames(t *testing.T) {
	// The projection worker and external observers key off these names.
	evt := events.ItemReturnedEvent{
		EventID:         uuid.New(),
		Version:         1,
		ItemID:          7,
		Renter:          uuid.New(),
		RentalFeePaid:   1500,
		DepositRefunded: 0,
		LateFeePaid:     400,
		OccurredAt:      time.Now().UTC(),
	}

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal to map failed: %v", err)
	}

	for _, field := range []string{"event_id", "version", "item_id", "renter", "rental_fee_paid", "deposit_refunded", "late_fee_paid", "occurred_at"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("expected JSON field %q not found in: %s", field, data)
		}
	}
}

func TestTopicValues(t *testing.T) {
	topics := map[string]string{
		events.TopicItemListed:   "rental.item_listed",
		events.TopicItemRented:   "rental.item_rented",
		events.TopicItemReturned: "rental.item_returned",
		events.TopicItemDelisted: "rental.item_delisted",
	}
	for got, want := range topics {
		if got != want {
			t.Errorf("topic = %q, want %q", got, want)
		}
	}
}
