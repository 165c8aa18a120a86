package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	rentalmigrations "github.com/ghuser/rentledger/migrations/rental"
	"github.com/ghuser/rentledger/pkg/app"
	"github.com/ghuser/rentledger/pkg/cache"
	"github.com/ghuser/rentledger/pkg/config"
	"github.com/ghuser/rentledger/pkg/database"
	"github.com/ghuser/rentledger/pkg/events"
	"github.com/ghuser/rentledger/pkg/logger"
	"github.com/ghuser/rentledger/pkg/telemetry"
	rentalevents "github.com/ghuser/rentledger/services/rental/domain/events"
	"github.com/ghuser/rentledger/services/rental/infrastructure/persistence/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	ctx := context.Background()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	if err := rentalmigrations.Run(cfg); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure, deferred flushes are best-effort
	}
	log.Info("migrations applied")

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer pool.Close()
	log.Info("database pool connected")

	eventBus, err := events.NewEventBus(cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer redisClient.Close() //nolint:errcheck
	log.Info("redis connected")

	appConfig := &app.Application{
		Db:       pool,
		Logger:   log,
		EventBus: eventBus,
		Redis:    redisClient,
	}

	if err := registerSubscribers(ctx, appConfig); err != nil {
		log.Error("failed to register subscribers", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	// EventBus.Close() (via defer) waits up to 30s for in-flight handlers.
	log.Info("worker stopped")
}

// projector maintains the read side: Postgres rows for history queries and
// the Redis item cache. All handlers are idempotent: the EventBus retries
// up to 3× on failure and may redeliver.
type projector struct {
	app     *app.Application
	history *postgres.HistoryRepository
	items   *cache.ItemCache
}

// registerSubscribers wires one handler per rental topic.
func registerSubscribers(ctx context.Context, a *app.Application) error {
	p := &projector{
		app:     a,
		history: postgres.NewHistoryRepository(a.Db),
		items:   cache.NewItemCache(a.Redis),
	}

	subscriptions := map[string]func(context.Context, *message.Message) error{
		rentalevents.TopicItemListed:   p.handleItemListed,
		rentalevents.TopicItemRented:   p.handleItemRented,
		rentalevents.TopicItemReturned: p.handleItemReturned,
		rentalevents.TopicItemDelisted: p.handleItemDelisted,
	}

	topics := make([]string, 0, len(subscriptions))
	for topic, handler := range subscriptions {
		errCh, err := a.EventBus.Subscribe(ctx, topic, handler)
		if err != nil {
			return err
		}
		topics = append(topics, topic)

		// Drain subscriber errors in background so the channel never blocks.
		go func(topic string) {
			for err := range errCh {
				a.Logger.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
			}
		}(topic)
	}

	a.Logger.Info("event subscribers registered", "topics", topics)
	return nil
}

// handleItemListed inserts the item row and warms the Redis read-model cache.
func (p *projector) handleItemListed(ctx context.Context, msg *message.Message) error {
	var evt rentalevents.ItemListedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return err
	}

	if err := p.history.UpsertItem(ctx, postgres.ItemRow{
		ID:        evt.ItemID,
		Owner:     evt.Owner,
		Title:     evt.Title,
		IsListed:  true,
		Renter:    uuid.Nil,
		UpdatedAt: evt.OccurredAt,
	}); err != nil {
		return err
	}

	if err := p.items.Set(ctx, &cache.CachedItem{
		ID:               evt.ItemID,
		Title:            evt.Title,
		Owner:            evt.Owner,
		DailyRentalPrice: evt.DailyRentalPrice,
		Deposit:          evt.Deposit,
		MetadataCID:      evt.MetadataCID,
		IsListed:         true,
	}); err != nil {
		// Cache warming is best-effort; log but do not fail the handler.
		p.app.Logger.WarnContext(ctx, "cache warm failed for item_listed",
			"item_id", evt.ItemID, "error", err)
	}

	p.app.Logger.InfoContext(ctx, "projected item_listed", "item_id", evt.ItemID)
	return nil
}

// handleItemRented flips the row to rented and invalidates the cache entry.
func (p *projector) handleItemRented(ctx context.Context, msg *message.Message) error {
	var evt rentalevents.ItemRentedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return err
	}

	if err := p.history.MarkListed(ctx, evt.ItemID, false, evt.Renter, evt.OccurredAt); err != nil {
		return err
	}
	p.invalidate(ctx, evt.ItemID)

	p.app.Logger.InfoContext(ctx, "projected item_rented",
		"item_id", evt.ItemID, "renter", evt.Renter)
	return nil
}

// handleItemReturned records the settlement and relists the row.
// RecordSettlement dedupes on event_id, so redelivery is safe.
func (p *projector) handleItemReturned(ctx context.Context, msg *message.Message) error {
	var evt rentalevents.ItemReturnedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return err
	}

	if err := p.history.RecordSettlement(ctx, postgres.SettlementRow{
		EventID:         evt.EventID,
		ItemID:          evt.ItemID,
		Renter:          evt.Renter,
		RentalFeePaid:   evt.RentalFeePaid,
		DepositRefunded: evt.DepositRefunded,
		LateFeePaid:     evt.LateFeePaid,
		SettledAt:       evt.OccurredAt,
	}); err != nil {
		return err
	}
	if err := p.history.MarkListed(ctx, evt.ItemID, true, uuid.Nil, evt.OccurredAt); err != nil {
		return err
	}
	p.invalidate(ctx, evt.ItemID)

	p.app.Logger.InfoContext(ctx, "projected item_returned",
		"item_id", evt.ItemID, "rental_fee_paid", evt.RentalFeePaid, "late_fee_paid", evt.LateFeePaid)
	return nil
}

// handleItemDelisted takes the row off the market and invalidates the cache.
func (p *projector) handleItemDelisted(ctx context.Context, msg *message.Message) error {
	var evt rentalevents.ItemDelistedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return err
	}

	if err := p.history.MarkListed(ctx, evt.ItemID, false, uuid.Nil, evt.OccurredAt); err != nil {
		return err
	}
	p.invalidate(ctx, evt.ItemID)

	p.app.Logger.InfoContext(ctx, "projected item_delisted", "item_id", evt.ItemID)
	return nil
}

// invalidate drops the cached item; the next listed event rebuilds it.
// Best-effort: a stale cache entry expires on its own TTL.
func (p *projector) invalidate(ctx context.Context, itemID uint64) {
	if err := p.items.Delete(ctx, itemID); err != nil {
		p.app.Logger.WarnContext(ctx, "cache invalidation failed",
			"item_id", itemID, "error", err)
	}
}
