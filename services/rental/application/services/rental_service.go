package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	pkgevents "github.com/ghuser/rentledger/pkg/events"
	"github.com/ghuser/rentledger/pkg/logger"
	"github.com/ghuser/rentledger/services/rental/domain"
	domainevents "github.com/ghuser/rentledger/services/rental/domain/events"
	"github.com/ghuser/rentledger/services/rental/domain/fees"
	"github.com/ghuser/rentledger/services/rental/domain/ledger"
	"github.com/ghuser/rentledger/services/rental/domain/models"
)

// RentalService fronts the escrow ledger for the HTTP layer. It serializes
// mutating calls (the ledger's reentrancy flag is defense-in-depth, not a
// queue), publishes domain events after each successful mutation, and adds
// the calling-layer rules the ledger deliberately does not enforce.
type RentalService struct {
	// mu serializes mutating ledger calls across request goroutines so the
	// ledger's non-blocking reentrancy flag only ever trips on genuine
	// nested calls.
	mu     sync.Mutex
	ledger *ledger.Ledger
	bus    *pkgevents.EventBus
	log    logger.Logger
	now    func() time.Time

	opCounter metric.Int64Counter
}

// NewRentalService wires the service with the given ledger and event bus.
// bus may be nil in tests; events are then skipped.
func NewRentalService(l *ledger.Ledger, bus *pkgevents.EventBus, log logger.Logger) *RentalService {
	meter := otel.Meter("rentledger/rental")

	opCounter, err := meter.Int64Counter("rental_operations_total",
		metric.WithDescription("Completed ledger operations by kind and outcome"))
	if err != nil {
		log.Warn("failed to create operation counter", "error", err)
	}

	if _, err := meter.Int64ObservableGauge("rental_escrow_balance",
		metric.WithDescription("Funds currently held in escrow, smallest currency unit"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(l.EscrowBalance()))
			return nil
		}),
	); err != nil {
		log.Warn("failed to create escrow gauge", "error", err)
	}

	return &RentalService{
		ledger:    l,
		bus:       bus,
		log:       log,
		now:       time.Now,
		opCounter: opCounter,
	}
}

func (s *RentalService) count(ctx context.Context, op string, err error) {
	if s.opCounter == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.opCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("op", op), attribute.String("outcome", outcome)))
}

// ListItem validates and creates a new listing owned by caller. Publishes
// ItemListedEvent on success.
func (s *RentalService) ListItem(ctx context.Context, caller uuid.UUID, title string, dailyRentalPrice, deposit uint64, metadataCID string) (id uint64, err error) {
	defer func() { s.count(ctx, "list", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err = s.ledger.List(title, dailyRentalPrice, deposit, metadataCID, caller)
	if err != nil {
		return 0, fmt.Errorf("list item: %w", err)
	}

	s.publish(ctx, domainevents.TopicItemListed, domainevents.ItemListedEvent{
		EventID:          uuid.New(),
		Version:          1,
		ItemID:           id,
		Owner:            caller,
		Title:            title,
		DailyRentalPrice: dailyRentalPrice,
		Deposit:          deposit,
		MetadataCID:      metadataCID,
		OccurredAt:       s.now().UTC(),
	})
	return id, nil
}

// DelistItem takes caller's listed item off the market. Publishes
// ItemDelistedEvent on success.
func (s *RentalService) DelistItem(ctx context.Context, id uint64, caller uuid.UUID) (err error) {
	defer func() { s.count(ctx, "delist", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.ledger.Delist(id, caller); err != nil {
		return fmt.Errorf("delist item %d: %w", id, err)
	}

	s.publish(ctx, domainevents.TopicItemDelisted, domainevents.ItemDelistedEvent{
		EventID:    uuid.New(),
		Version:    1,
		ItemID:     id,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// RentItem rents a listed item for caller with the attached payment value.
// Owners may not rent their own items through this surface; that restriction
// lives here rather than in the ledger.
func (s *RentalService) RentItem(ctx context.Context, id uint64, caller uuid.UUID, payment uint64) (item models.Item, err error) {
	defer func() { s.count(ctx, "rent", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.ledger.Get(id)
	if err != nil {
		return models.Item{}, fmt.Errorf("rent item %d: %w", id, err)
	}
	if current.Owner == caller {
		return models.Item{}, fmt.Errorf("rent item %d: %w", id, domain.ErrOwnItemRental)
	}

	item, err = s.ledger.Rent(id, caller, payment, s.now())
	if err != nil {
		return models.Item{}, fmt.Errorf("rent item %d: %w", id, err)
	}

	s.publish(ctx, domainevents.TopicItemRented, domainevents.ItemRentedEvent{
		EventID:         uuid.New(),
		Version:         1,
		ItemID:          id,
		Renter:          caller,
		DepositPaid:     item.Deposit,
		RentalStartTime: item.RentalStartTime,
		OccurredAt:      s.now().UTC(),
	})
	return item, nil
}

// ReturnItem settles caller's rental at the current time and publishes
// ItemReturnedEvent with the computed (uncapped) fee figures.
func (s *RentalService) ReturnItem(ctx context.Context, id uint64, caller uuid.UUID) (settlement ledger.Settlement, err error) {
	defer func() { s.count(ctx, "return", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	settlement, err = s.ledger.Return(id, caller, s.now())
	if err != nil {
		return ledger.Settlement{}, fmt.Errorf("return item %d: %w", id, err)
	}

	s.publish(ctx, domainevents.TopicItemReturned, domainevents.ItemReturnedEvent{
		EventID:         uuid.New(),
		Version:         1,
		ItemID:          id,
		Renter:          caller,
		RentalFeePaid:   settlement.RentalFee,
		DepositRefunded: settlement.DepositRefund,
		LateFeePaid:     settlement.LateFee,
		OccurredAt:      s.now().UTC(),
	})
	return settlement, nil
}

// GetItem returns a snapshot of one item.
func (s *RentalService) GetItem(ctx context.Context, id uint64) (models.Item, error) {
	item, err := s.ledger.Get(id)
	if err != nil {
		return models.Item{}, fmt.Errorf("get item %d: %w", id, err)
	}
	return item, nil
}

// ListedItemIDs returns the ids of currently listed items. offset is an
// absolute position in id-space; see the ledger documentation.
func (s *RentalService) ListedItemIDs(ctx context.Context, offset, limit uint64) []uint64 {
	return s.ledger.ListedIDs(offset, limit)
}

// TotalItems returns the high-water mark of assigned ids.
func (s *RentalService) TotalItems(ctx context.Context) uint64 {
	return s.ledger.TotalItems()
}

// EscrowBalance returns the funds currently held by the ledger.
func (s *RentalService) EscrowBalance(ctx context.Context) uint64 {
	return s.ledger.EscrowBalance()
}

// Quote previews the settlement for an active rental at the current time
// without touching state. Fails ErrNotCurrentRenter when the item is not
// rented.
func (s *RentalService) Quote(ctx context.Context, id uint64) (fees.Quote, error) {
	item, err := s.ledger.Get(id)
	if err != nil {
		return fees.Quote{}, fmt.Errorf("quote item %d: %w", id, err)
	}
	if !item.Rented() {
		return fees.Quote{}, fmt.Errorf("quote item %d: %w", id, domain.ErrNotCurrentRenter)
	}
	return fees.Calculate(item.RentalStartTime, s.now(), item.DailyRentalPrice, item.Deposit), nil
}

// ItemsOwnedBy returns every item listed by owner, available or not.
func (s *RentalService) ItemsOwnedBy(ctx context.Context, owner uuid.UUID) []models.Item {
	return s.ledger.Snapshot(func(i models.Item) bool { return i.Owner == owner })
}

// ItemsRentedBy returns the items currently held by renter.
func (s *RentalService) ItemsRentedBy(ctx context.Context, renter uuid.UUID) []models.Item {
	return s.ledger.Snapshot(func(i models.Item) bool { return i.Renter == renter })
}

// publish sends one event to the bus. Funds have already moved by the time
// an event is built, so a publish failure is logged, not surfaced: the
// operation itself committed.
func (s *RentalService) publish(ctx context.Context, topic string, event any) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.log.ErrorContext(ctx, "marshal event", "topic", topic, "error", err)
		return
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("event_version", "1")
	if err := s.bus.Publish(ctx, topic, msg); err != nil {
		s.log.ErrorContext(ctx, "publish event", "topic", topic, "error", err)
	}
}
