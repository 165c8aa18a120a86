package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// ItemCacheTTL is the time-to-live for cached rental items.
	ItemCacheTTL = 24 * time.Hour

	itemCacheKeyPrefix = "rental_item"
)

// CachedItem is the denormalized rental-item read model stored in Redis.
// The worker warms it from domain events; it is never authoritative and
// callers must fall back to the ledger on a miss.
type CachedItem struct {
	ID               uint64    `json:"id"`
	Title            string    `json:"title"`
	Owner            uuid.UUID `json:"owner"`
	DailyRentalPrice uint64    `json:"daily_rental_price"`
	Deposit          uint64    `json:"deposit"`
	MetadataCID      string    `json:"metadata_cid"`
	IsListed         bool      `json:"is_listed"`
	Renter           uuid.UUID `json:"renter"`
	RentalStartTime  time.Time `json:"rental_start_time"`
}

// ItemCache provides structured read/write operations for rental item
// cache entries. Key format: "rental_item:{itemID}"
type ItemCache struct {
	client *RedisClient
}

// NewItemCache creates a new ItemCache backed by the given RedisClient.
func NewItemCache(r *RedisClient) *ItemCache {
	return &ItemCache{client: r}
}

// Get retrieves a cached rental item by ID.
// Returns redis.Nil error when the key does not exist or has expired.
func (c *ItemCache) Get(ctx context.Context, itemID uint64) (*CachedItem, error) {
	key := c.key(itemID)
	vals, err := c.client.Client().HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, redis.Nil // key not found
	}

	id, err := strconv.ParseUint(vals["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache parse id: %w", err)
	}
	owner, err := uuid.Parse(vals["owner"])
	if err != nil {
		return nil, fmt.Errorf("cache parse owner: %w", err)
	}
	price, err := strconv.ParseUint(vals["daily_rental_price"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache parse daily_rental_price: %w", err)
	}
	deposit, err := strconv.ParseUint(vals["deposit"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cache parse deposit: %w", err)
	}
	listed, err := strconv.ParseBool(vals["is_listed"])
	if err != nil {
		return nil, fmt.Errorf("cache parse is_listed: %w", err)
	}
	renter, err := uuid.Parse(vals["renter"])
	if err != nil {
		return nil, fmt.Errorf("cache parse renter: %w", err)
	}

	item := &CachedItem{
		ID:               id,
		Title:            vals["title"],
		Owner:            owner,
		DailyRentalPrice: price,
		Deposit:          deposit,
		MetadataCID:      vals["metadata_cid"],
		IsListed:         listed,
		Renter:           renter,
	}
	if v := vals["rental_start_time"]; v != "" {
		start, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("cache parse rental_start_time: %w", err)
		}
		item.RentalStartTime = start
	}
	return item, nil
}

// Set writes a cached rental item as a Redis hash with a 24-hour TTL.
// Uses a pipeline to set all fields and the TTL atomically.
func (c *ItemCache) Set(ctx context.Context, item *CachedItem) error {
	key := c.key(item.ID)
	start := ""
	if !item.RentalStartTime.IsZero() {
		start = item.RentalStartTime.UTC().Format(time.RFC3339Nano)
	}
	pipe := c.client.Client().Pipeline()
	pipe.HSet(ctx, key,
		"id", strconv.FormatUint(item.ID, 10),
		"title", item.Title,
		"owner", item.Owner.String(),
		"daily_rental_price", strconv.FormatUint(item.DailyRentalPrice, 10),
		"deposit", strconv.FormatUint(item.Deposit, 10),
		"metadata_cid", item.MetadataCID,
		"is_listed", strconv.FormatBool(item.IsListed),
		"renter", item.Renter.String(),
		"rental_start_time", start,
	)
	pipe.Expire(ctx, key, ItemCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete removes a cached rental item.
func (c *ItemCache) Delete(ctx context.Context, itemID uint64) error {
	if err := c.client.Client().Del(ctx, c.key(itemID)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// key builds the Redis key: "rental_item:{itemID}"
func (c *ItemCache) key(itemID uint64) string {
	return fmt.Sprintf("%s:%d", itemCacheKeyPrefix, itemID)
}
