package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tinydiner/weddingdesk/internal/domain"
)

type BookingRepository interface {
	CreateHold(ctx context.Context, now time.Time, booking *domain.Booking, dashboard *domain.Dashboard) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	MarkDepositPaid(ctx context.Context, id, paymentID string) (*domain.Booking, error)
	MarkBalancePaid(ctx context.Context, id string, totalCost int64) (*domain.Booking, error)
	Delete(ctx context.Context, id string) error
	ListActiveDates(ctx context.Context, now time.Time) ([]time.Time, error)
	DeleteExpiredHolds(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
	RecordPaymentAttempt(ctx context.Context, bookingID, paymentID, purpose string) error
	MarkPaymentApplied(ctx context.Context, paymentID string) error
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, event_date, client_id, package_type, total_cost, deposit_amount, balance_amount, deposit_paid, COALESCE(deposit_payment_id, ''), held_until, status, created_at, updated_at`

// CreateHold is the serialization point for the one-active-booking-per-date
// invariant. It locks the existing row for the date (if any) before deciding:
// an active row means conflict, a stale unpaid hold is deleted and superseded
// inside the same transaction. The unique index on event_date is the final
// arbiter against concurrent inserts that both saw an empty slot; its
// violation is translated to ErrDateUnavailable.
func (r *PGBookingRepository) CreateHold(ctx context.Context, now time.Time, booking *domain.Booking, dashboard *domain.Dashboard) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var existing domain.Booking
	err = tx.QueryRow(ctx, `SELECT id, deposit_paid, held_until FROM bookings WHERE event_date=$1 FOR UPDATE`, booking.EventDate).
		Scan(&existing.ID, &existing.DepositPaid, &existing.HeldUntil)
	switch {
	case err == nil:
		if existing.ActiveAt(now) {
			return domain.ErrDateUnavailable
		}
		// Stale hold: superseded by the new request. Dashboard and
		// services go with it via ON DELETE CASCADE.
		if _, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, existing.ID); err != nil {
			return err
		}
	case errors.Is(err, pgx.ErrNoRows):
		// date is free
	default:
		return err
	}

	booking.Status = domain.BookingStatusPendingDeposit
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (id, event_date, client_id, package_type, total_cost, deposit_amount, balance_amount, deposit_paid, held_until, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		booking.ID, booking.EventDate, booking.ClientID, booking.PackageType, booking.TotalCost, booking.DepositAmount, booking.BalanceAmount, booking.DepositPaid, booking.HeldUntil, booking.Status).
		Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return translateUnique(err)
	}

	dashboard.Status = domain.DashboardStatusBuilding
	if err := tx.QueryRow(ctx, `INSERT INTO dashboards (id, booking_id, client_id, total_cost, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		dashboard.ID, dashboard.BookingID, dashboard.ClientID, dashboard.TotalCost, dashboard.Status).
		Scan(&dashboard.CreatedAt, &dashboard.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	return scanBooking(row)
}

func (r *PGBookingRepository) MarkDepositPaid(ctx context.Context, id, paymentID string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings
		SET deposit_paid=true, deposit_payment_id=$1, status=$2, held_until=NULL, updated_at=now()
		WHERE id=$3
		RETURNING `+bookingColumns, paymentID, domain.BookingStatusDepositPaid, id)
	return scanBooking(row)
}

func (r *PGBookingRepository) MarkBalancePaid(ctx context.Context, id string, totalCost int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings
		SET status=$1, total_cost=$2, updated_at=now()
		WHERE id=$3
		RETURNING `+bookingColumns, domain.BookingStatusBalancePaid, totalCost, id)
	return scanBooking(row)
}

func (r *PGBookingRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGBookingRepository) ListActiveDates(ctx context.Context, now time.Time) ([]time.Time, error) {
	rows, err := r.db.Query(ctx, `SELECT event_date FROM bookings
		WHERE deposit_paid = true OR held_until > $1
		ORDER BY event_date`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// DeleteExpiredHolds removes stale unpaid rows for cleanliness. Correctness
// never depends on this: CreateHold decides availability against the clock
// at decision time regardless of whether the sweep has run.
func (r *PGBookingRepository) DeleteExpiredHolds(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `DELETE FROM bookings
		WHERE deposit_paid = false AND held_until IS NOT NULL AND held_until <= $1
		RETURNING `+bookingColumns, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *b)
	}
	return expired, rows.Err()
}

// RecordPaymentAttempt writes the durable marker between a successful charge
// and the booking update, so an orphaned charge (charged but never applied)
// can be found and reconciled.
func (r *PGBookingRepository) RecordPaymentAttempt(ctx context.Context, bookingID, paymentID, purpose string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO payment_attempts (booking_id, payment_id, purpose, state)
		VALUES ($1, $2, $3, 'pending')`, bookingID, paymentID, purpose)
	return err
}

func (r *PGBookingRepository) MarkPaymentApplied(ctx context.Context, paymentID string) error {
	_, err := r.db.Exec(ctx, `UPDATE payment_attempts SET state='applied', updated_at=now() WHERE payment_id=$1`, paymentID)
	return err
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.EventDate, &b.ClientID, &b.PackageType, &b.TotalCost, &b.DepositAmount, &b.BalanceAmount, &b.DepositPaid, &b.DepositPaymentID, &b.HeldUntil, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrDateUnavailable
	}
	return err
}

var _ BookingRepository = (*PGBookingRepository)(nil)
