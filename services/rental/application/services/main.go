package services

import (
	"github.com/ghuser/rentledger/pkg/app"
	"github.com/ghuser/rentledger/services/rental/domain/ledger"
	"github.com/ghuser/rentledger/services/rental/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
// It wires the in-memory escrow ledger with the event bus and the read-side
// projection.
type Services struct {
	Rental  *RentalService
	History *postgres.HistoryRepository
}

// New wires all rental application services with infrastructure from the
// Application container. The ledger disburses through an in-process bank;
// a different Bank can be injected with NewWithBank.
func New(a *app.Application) *Services {
	return NewWithBank(a, ledger.NewMemoryBank())
}

// NewWithBank wires the services with a caller-supplied settlement bank.
func NewWithBank(a *app.Application, bank ledger.Bank) *Services {
	return &Services{
		Rental:  NewRentalService(ledger.New(bank), a.EventBus, a.Logger),
		History: postgres.NewHistoryRepository(a.Db),
	}
}
