package domain

import "errors"

// Sentinel errors for the rental ledger. Use errors.Is() to check these.
// Every mutating operation that returns one of these had zero effect:
// no state change, no funds moved.
var (
	// Listing validation, checked in this order by Ledger.List.
	ErrInvalidTitle    = errors.New("title cannot be empty")
	ErrInvalidPrice    = errors.New("daily rental price must be greater than zero")
	ErrInvalidDeposit  = errors.New("deposit must be greater than zero")
	ErrInvalidMetadata = errors.New("metadata CID cannot be empty")

	// ErrItemNotFound indicates the id was never assigned.
	ErrItemNotFound = errors.New("item does not exist")

	// ErrItemNotListed indicates the operation requires the Listed state.
	// Covers both "currently rented" and "already delisted".
	ErrItemNotListed = errors.New("item is not listed for rent")

	// Authorization.
	ErrNotOwner         = errors.New("only the item owner can call this operation")
	ErrNotCurrentRenter = errors.New("only the current renter can call this operation")

	// ErrInvalidAccount indicates the caller identity is the zero UUID. The
	// zero value doubles as the "no renter" sentinel inside the ledger, so it
	// can never be accepted as a real account.
	ErrInvalidAccount = errors.New("caller account is not set")

	// ErrIncorrectPayment indicates the attached value does not equal
	// deposit + dailyRentalPrice exactly. Overpayment is rejected too.
	ErrIncorrectPayment = errors.New("incorrect payment amount sent")

	// ErrReentrantCall indicates a nested call into a mutating ledger
	// operation while an outbound transfer was in flight.
	ErrReentrantCall = errors.New("reentrant ledger call")

	// ErrOwnItemRental is enforced by the application layer, not the ledger:
	// owners may not rent their own items through the public API.
	ErrOwnItemRental = errors.New("cannot rent your own item")
)
