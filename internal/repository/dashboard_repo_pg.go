package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tinydiner/weddingdesk/internal/domain"
)

type DashboardRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Dashboard, error)
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Dashboard, error)
	ListServices(ctx context.Context, dashboardID string) ([]domain.DashboardService, error)
	AddService(ctx context.Context, svc *domain.DashboardService) (int64, error)
	DeleteService(ctx context.Context, dashboardID, serviceID string) (int64, error)
	Finalize(ctx context.Context, bookingID string) error
}

type PGDashboardRepository struct {
	db *pgxpool.Pool
}

func NewDashboardRepository(db *pgxpool.Pool) DashboardRepository {
	return &PGDashboardRepository{db: db}
}

const dashboardColumns = `id, booking_id, client_id, total_cost, status, created_at, updated_at`

func (r *PGDashboardRepository) GetByID(ctx context.Context, id string) (*domain.Dashboard, error) {
	row := r.db.QueryRow(ctx, `SELECT `+dashboardColumns+` FROM dashboards WHERE id=$1`, id)
	return scanDashboard(row)
}

func (r *PGDashboardRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Dashboard, error) {
	row := r.db.QueryRow(ctx, `SELECT `+dashboardColumns+` FROM dashboards WHERE booking_id=$1`, bookingID)
	return scanDashboard(row)
}

func (r *PGDashboardRepository) ListServices(ctx context.Context, dashboardID string) ([]domain.DashboardService, error) {
	rows, err := r.db.Query(ctx, `SELECT id, dashboard_id, COALESCE(vendor_id, ''), service, COALESCE(description, ''), cost, created_at
		FROM dashboard_services WHERE dashboard_id=$1 ORDER BY created_at`, dashboardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]domain.DashboardService, 0)
	for rows.Next() {
		var s domain.DashboardService
		if err := rows.Scan(&s.ID, &s.DashboardID, &s.VendorID, &s.Service, &s.Description, &s.Cost, &s.CreatedAt); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// AddService inserts the service row and recomputes the dashboard total in
// one transaction. Returns the new total.
func (r *PGDashboardRepository) AddService(ctx context.Context, svc *domain.DashboardService) (int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `INSERT INTO dashboard_services (id, dashboard_id, vendor_id, service, description, cost)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		RETURNING created_at`,
		svc.ID, svc.DashboardID, svc.VendorID, svc.Service, svc.Description, svc.Cost).Scan(&svc.CreatedAt); err != nil {
		return 0, err
	}

	total, err := recalcTotal(ctx, tx, svc.DashboardID)
	if err != nil {
		return 0, err
	}
	return total, tx.Commit(ctx)
}

func (r *PGDashboardRepository) DeleteService(ctx context.Context, dashboardID, serviceID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `DELETE FROM dashboard_services WHERE id=$1 AND dashboard_id=$2`, serviceID, dashboardID)
	if err != nil {
		return 0, err
	}
	if cmd.RowsAffected() == 0 {
		return 0, domain.ErrNotFound
	}

	total, err := recalcTotal(ctx, tx, dashboardID)
	if err != nil {
		return 0, err
	}
	return total, tx.Commit(ctx)
}

func (r *PGDashboardRepository) Finalize(ctx context.Context, bookingID string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE dashboards SET status=$1, updated_at=now() WHERE booking_id=$2`, domain.DashboardStatusFinalized, bookingID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func recalcTotal(ctx context.Context, tx pgx.Tx, dashboardID string) (int64, error) {
	var total int64
	err := tx.QueryRow(ctx, `UPDATE dashboards
		SET total_cost = (SELECT COALESCE(SUM(cost), 0) FROM dashboard_services WHERE dashboard_id=$1), updated_at=now()
		WHERE id=$1
		RETURNING total_cost`, dashboardID).Scan(&total)
	return total, err
}

func scanDashboard(row pgx.Row) (*domain.Dashboard, error) {
	var d domain.Dashboard
	if err := row.Scan(&d.ID, &d.BookingID, &d.ClientID, &d.TotalCost, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

var _ DashboardRepository = (*PGDashboardRepository)(nil)
