package dashboard

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tinydiner/weddingdesk/internal/domain"
	"github.com/tinydiner/weddingdesk/internal/repository"
)

type DashboardUseCase interface {
	Get(ctx context.Context, dashboardID, requesterEmail string) (*domain.Dashboard, []domain.DashboardService, error)
	AddService(ctx context.Context, dashboardID, requesterEmail string, input AddServiceInput) (*domain.DashboardService, int64, error)
	RemoveService(ctx context.Context, dashboardID, serviceID, requesterEmail string) (int64, error)
}

type AddServiceInput struct {
	VendorID    string `json:"vendor_id"`
	Service     string `json:"service"`
	Description string `json:"description"`
	Cost        int64  `json:"cost"`
}

type DashboardService struct {
	dashboards repository.DashboardRepository
	users      repository.UserRepository
}

func NewDashboardService(dashboards repository.DashboardRepository, users repository.UserRepository) *DashboardService {
	return &DashboardService{dashboards: dashboards, users: users}
}

func (s *DashboardService) Get(ctx context.Context, dashboardID, requesterEmail string) (*domain.Dashboard, []domain.DashboardService, error) {
	dashboard, err := s.authorize(ctx, dashboardID, requesterEmail)
	if err != nil {
		return nil, nil, err
	}
	services, err := s.dashboards.ListServices(ctx, dashboardID)
	if err != nil {
		return nil, nil, err
	}
	return dashboard, services, nil
}

// AddService appends a vendor service to a building dashboard and returns
// the recomputed total. Finalized dashboards are immutable.
func (s *DashboardService) AddService(ctx context.Context, dashboardID, requesterEmail string, input AddServiceInput) (*domain.DashboardService, int64, error) {
	if input.Service == "" {
		return nil, 0, errors.New("service name is required")
	}
	if input.Cost < 0 {
		return nil, 0, errors.New("cost must not be negative")
	}

	dashboard, err := s.authorize(ctx, dashboardID, requesterEmail)
	if err != nil {
		return nil, 0, err
	}
	if dashboard.Status == domain.DashboardStatusFinalized {
		return nil, 0, domain.ErrInvalidState
	}

	svc := &domain.DashboardService{
		ID:          uuid.NewString(),
		DashboardID: dashboardID,
		VendorID:    input.VendorID,
		Service:     input.Service,
		Description: input.Description,
		Cost:        input.Cost,
	}
	total, err := s.dashboards.AddService(ctx, svc)
	if err != nil {
		return nil, 0, err
	}
	return svc, total, nil
}

func (s *DashboardService) RemoveService(ctx context.Context, dashboardID, serviceID, requesterEmail string) (int64, error) {
	dashboard, err := s.authorize(ctx, dashboardID, requesterEmail)
	if err != nil {
		return 0, err
	}
	if dashboard.Status == domain.DashboardStatusFinalized {
		return 0, domain.ErrInvalidState
	}
	return s.dashboards.DeleteService(ctx, dashboardID, serviceID)
}

func (s *DashboardService) authorize(ctx context.Context, dashboardID, requesterEmail string) (*domain.Dashboard, error) {
	dashboard, err := s.dashboards.GetByID(ctx, dashboardID)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.GetByID(ctx, dashboard.ClientID)
	if err != nil {
		return nil, err
	}
	if requesterEmail == "" || owner.Email != requesterEmail {
		return nil, domain.ErrForbidden
	}
	return dashboard, nil
}

var _ DashboardUseCase = (*DashboardService)(nil)
