package domain

import "time"

type DashboardStatus string

const (
	DashboardStatusBuilding  DashboardStatus = "BUILDING"
	DashboardStatusFinalized DashboardStatus = "FINALIZED"
)

// Dashboard is the 1:1 companion of a Booking where a CUSTOM package
// accumulates selected services. Created in the same transaction as the
// booking, deleted with it.
type Dashboard struct {
	ID        string
	BookingID string
	ClientID  string
	TotalCost int64
	Status    DashboardStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type DashboardService struct {
	ID          string
	DashboardID string
	VendorID    string
	Service     string
	Description string
	Cost        int64
	CreatedAt   time.Time
}
