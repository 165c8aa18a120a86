package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Integration tests — skipped unless REDIS_URL is set.
func TestItemCacheIntegration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}

	rc, err := NewRedisClient(newTestConfig(redisURL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close() //nolint:errcheck

	ic := NewItemCache(rc)
	ctx := context.Background()

	t.Run("Get_Miss", func(t *testing.T) {
		_, err := ic.Get(ctx, 999_999_999)
		if !errors.Is(err, redis.Nil) {
			t.Fatalf("expected redis.Nil on miss, got %v", err)
		}
	})

	t.Run("Set_Get_Roundtrip", func(t *testing.T) {
		want := &CachedItem{
			ID:               42,
			Title:            "Cordless Drill",
			Owner:            uuid.New(),
			DailyRentalPrice: 100,
			Deposit:          1000,
			MetadataCID:      "QmTestCID",
			IsListed:         true,
		}
		if err := ic.Set(ctx, want); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		defer ic.Delete(ctx, want.ID) //nolint:errcheck

		got, err := ic.Get(ctx, want.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Title != want.Title || got.Owner != want.Owner || got.Deposit != want.Deposit {
			t.Fatalf("roundtrip mismatch: got %+v, want %+v", got, want)
		}
		if !got.RentalStartTime.IsZero() {
			t.Fatalf("expected zero rental start time, got %v", got.RentalStartTime)
		}
	})

	t.Run("Set_RentedItem", func(t *testing.T) {
		start := time.Now().UTC().Truncate(time.Millisecond)
		item := &CachedItem{
			ID:               43,
			Title:            "Pressure Washer",
			Owner:            uuid.New(),
			DailyRentalPrice: 250,
			Deposit:          2000,
			MetadataCID:      "QmOtherCID",
			IsListed:         false,
			Renter:           uuid.New(),
			RentalStartTime:  start,
		}
		if err := ic.Set(ctx, item); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		defer ic.Delete(ctx, item.ID) //nolint:errcheck

		got, err := ic.Get(ctx, item.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Renter != item.Renter {
			t.Fatalf("expected renter %s, got %s", item.Renter, got.Renter)
		}
		if !got.RentalStartTime.Equal(start) {
			t.Fatalf("expected start %v, got %v", start, got.RentalStartTime)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		item := &CachedItem{ID: 44, Title: "Ladder", Owner: uuid.New()}
		if err := ic.Set(ctx, item); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := ic.Delete(ctx, item.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := ic.Get(ctx, item.ID); !errors.Is(err, redis.Nil) {
			t.Fatalf("expected redis.Nil after delete, got %v", err)
		}
	})
}
