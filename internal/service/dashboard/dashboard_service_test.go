package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tinydiner/weddingdesk/internal/domain"
)

type MockDashboardRepository struct {
	mock.Mock
}

func (m *MockDashboardRepository) GetByID(ctx context.Context, id string) (*domain.Dashboard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

func (m *MockDashboardRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Dashboard, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

func (m *MockDashboardRepository) ListServices(ctx context.Context, dashboardID string) ([]domain.DashboardService, error) {
	args := m.Called(ctx, dashboardID)
	return args.Get(0).([]domain.DashboardService), args.Error(1)
}

func (m *MockDashboardRepository) AddService(ctx context.Context, svc *domain.DashboardService) (int64, error) {
	args := m.Called(ctx, svc)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDashboardRepository) DeleteService(ctx context.Context, dashboardID, serviceID string) (int64, error) {
	args := m.Called(ctx, dashboardID, serviceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDashboardRepository) Finalize(ctx context.Context, bookingID string) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindOrCreate(ctx context.Context, email, fullName string) (*domain.User, error) {
	args := m.Called(ctx, email, fullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func TestDashboardService_AddService_Success(t *testing.T) {
	dashboards := &MockDashboardRepository{}
	users := &MockUserRepository{}
	service := NewDashboardService(dashboards, users)

	ctx := context.Background()
	dashboards.On("GetByID", ctx, "dash-1").Return(&domain.Dashboard{
		ID:       "dash-1",
		ClientID: "user-1",
		Status:   domain.DashboardStatusBuilding,
	}, nil).Once()
	users.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1", Email: "couple@example.com"}, nil).Once()
	dashboards.On("AddService", ctx, mock.AnythingOfType("*domain.DashboardService")).Return(int64(2500), nil).Once()

	svc, total, err := service.AddService(ctx, "dash-1", "couple@example.com", AddServiceInput{
		VendorID: "vendor-1",
		Service:  "Floral Design",
		Cost:     2500,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(2500), total)
	assert.Equal(t, "Floral Design", svc.Service)
	assert.NotEmpty(t, svc.ID)

	dashboards.AssertExpectations(t)
}

func TestDashboardService_AddService_Validation(t *testing.T) {
	service := NewDashboardService(&MockDashboardRepository{}, &MockUserRepository{})
	ctx := context.Background()

	_, _, err := service.AddService(ctx, "dash-1", "couple@example.com", AddServiceInput{Cost: 100})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "service name is required")

	_, _, err = service.AddService(ctx, "dash-1", "couple@example.com", AddServiceInput{Service: "Catering", Cost: -5})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cost must not be negative")
}

func TestDashboardService_AddService_Finalized(t *testing.T) {
	dashboards := &MockDashboardRepository{}
	users := &MockUserRepository{}
	service := NewDashboardService(dashboards, users)

	ctx := context.Background()
	dashboards.On("GetByID", ctx, "dash-1").Return(&domain.Dashboard{
		ID:       "dash-1",
		ClientID: "user-1",
		Status:   domain.DashboardStatusFinalized,
	}, nil).Once()
	users.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1", Email: "couple@example.com"}, nil).Once()

	_, _, err := service.AddService(ctx, "dash-1", "couple@example.com", AddServiceInput{Service: "Catering", Cost: 100})

	assert.ErrorIs(t, err, domain.ErrInvalidState)
	dashboards.AssertNotCalled(t, "AddService")
}

func TestDashboardService_Get_NotOwner(t *testing.T) {
	dashboards := &MockDashboardRepository{}
	users := &MockUserRepository{}
	service := NewDashboardService(dashboards, users)

	ctx := context.Background()
	dashboards.On("GetByID", ctx, "dash-1").Return(&domain.Dashboard{ID: "dash-1", ClientID: "user-1"}, nil).Once()
	users.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1", Email: "couple@example.com"}, nil).Once()

	_, _, err := service.Get(ctx, "dash-1", "stranger@example.com")

	assert.ErrorIs(t, err, domain.ErrForbidden)
	dashboards.AssertNotCalled(t, "ListServices")
}

func TestDashboardService_RemoveService(t *testing.T) {
	dashboards := &MockDashboardRepository{}
	users := &MockUserRepository{}
	service := NewDashboardService(dashboards, users)

	ctx := context.Background()
	dashboards.On("GetByID", ctx, "dash-1").Return(&domain.Dashboard{
		ID:       "dash-1",
		ClientID: "user-1",
		Status:   domain.DashboardStatusBuilding,
	}, nil).Once()
	users.On("GetByID", ctx, "user-1").Return(&domain.User{ID: "user-1", Email: "couple@example.com"}, nil).Once()
	dashboards.On("DeleteService", ctx, "dash-1", "svc-1").Return(int64(0), nil).Once()

	total, err := service.RemoveService(ctx, "dash-1", "svc-1", "couple@example.com")

	assert.NoError(t, err)
	assert.Equal(t, int64(0), total)
	dashboards.AssertExpectations(t)
}
