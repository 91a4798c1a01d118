package domain

import "time"

type BookingStatus string

const (
	BookingStatusPendingDeposit BookingStatus = "PENDING_DEPOSIT"
	BookingStatusDepositPaid    BookingStatus = "DEPOSIT_PAID"
	BookingStatusBalancePaid    BookingStatus = "BALANCE_PAID"
)

type PackageType string

const (
	PackageFast   PackageType = "FAST"
	PackageCustom PackageType = "CUSTOM"
)

// All amounts are integer minor units (cents).
const (
	FastPackageTotal   int64 = 5000
	FastPackageBalance int64 = 4000
	DepositAmount      int64 = 1000
)

type Booking struct {
	ID               string
	EventDate        time.Time
	ClientID         string
	PackageType      PackageType
	TotalCost        int64
	DepositAmount    int64
	BalanceAmount    int64
	DepositPaid      bool
	DepositPaymentID string
	HeldUntil        *time.Time
	Status           BookingStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ActiveAt reports whether the booking blocks its event date at the given
// instant. A paid booking always blocks; an unpaid one blocks only while its
// hold window is open. An expired unpaid hold frees the date even though the
// row may still exist.
func (b *Booking) ActiveAt(now time.Time) bool {
	if b.DepositPaid {
		return true
	}
	return b.HeldUntil != nil && b.HeldUntil.After(now)
}

// PackageCosts returns total, deposit and balance for a package. CUSTOM
// packages start at zero; their balance is accumulated on the client
// dashboard as services are selected.
func PackageCosts(pt PackageType) (total, deposit, balance int64) {
	if pt == PackageFast {
		return FastPackageTotal, DepositAmount, FastPackageBalance
	}
	return 0, DepositAmount, 0
}
