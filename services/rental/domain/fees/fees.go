// Package fees computes rental settlement amounts. Everything here is pure:
// the ledger and the quote endpoint both call Calculate with an explicit
// clock value and no state is touched.
package fees

import (
	"math"
	"math/bits"
	"time"
)

const (
	// LateFeePercent is the fixed late-fee rate: percent of the deposit
	// accrued per day past the grace period. Not owner-configurable.
	LateFeePercent = 10

	secondsPerDay = 86400
)

// Quote is the settlement breakdown for a rental at a given instant.
//
// RentalFee and LateFee are the uncapped economic figures; PaymentToOwner is
// what actually moves to the owner, capped at the deposit. DepositRefund is
// the remainder of the deposit returned to the renter. All divisions are
// integer floor divisions.
type Quote struct {
	RentalDays     uint64
	OverdueDays    uint64
	RentalFee      uint64
	LateFee        uint64
	PaymentToOwner uint64
	DepositRefund  uint64
}

// Calculate returns the settlement quote for a rental that started at start,
// evaluated at now, for the given daily price and deposit.
//
// A rental is always charged at least one full day. The deposit covers
// floor(deposit/dailyPrice) further days past the prepaid first day; only
// days beyond that grace period accrue the late fee.
func Calculate(start, now time.Time, dailyPrice, deposit uint64) Quote {
	elapsed := now.Unix() - start.Unix()
	if elapsed < 0 {
		elapsed = 0
	}

	days := uint64(elapsed) / secondsPerDay
	if days < 1 {
		days = 1
	}

	graceDays := 1 + deposit/dailyPrice

	var overdue uint64
	if days > graceDays {
		overdue = days - graceDays
	}

	// Saturating arithmetic: fees beyond uint64 range must not wrap back
	// under the deposit cap and shrink the owner's payout. Anything that
	// saturates settles as the full deposit below.
	lateFee := mulSat(mulSat(deposit, LateFeePercent), overdue) / 100
	rentalFee := mulSat(days, dailyPrice)

	due := addSat(rentalFee, lateFee)
	toOwner := due
	if toOwner > deposit {
		toOwner = deposit
	}

	return Quote{
		RentalDays:     days,
		OverdueDays:    overdue,
		RentalFee:      rentalFee,
		LateFee:        lateFee,
		PaymentToOwner: toOwner,
		DepositRefund:  deposit - toOwner,
	}
}

func mulSat(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

func addSat(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}
