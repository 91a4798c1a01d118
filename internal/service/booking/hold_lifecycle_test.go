package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tinydiner/weddingdesk/internal/domain"
)

// memoryStore implements repository.BookingRepository over a map, making the
// same check-then-insert decision as the Postgres transaction: one row per
// date, active rows conflict, stale unpaid holds are superseded. The mutex
// stands in for the row lock, so concurrent requests serialize the same way.
type memoryStore struct {
	mu       sync.Mutex
	byDate   map[string]*domain.Booking
	byID     map[string]*domain.Booking
	attempts map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		byDate:   make(map[string]*domain.Booking),
		byID:     make(map[string]*domain.Booking),
		attempts: make(map[string]string),
	}
}

func (s *memoryStore) CreateHold(ctx context.Context, now time.Time, booking *domain.Booking, dashboard *domain.Dashboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := booking.EventDate.Format("2006-01-02")
	if existing, ok := s.byDate[key]; ok {
		if existing.ActiveAt(now) {
			return domain.ErrDateUnavailable
		}
		delete(s.byID, existing.ID)
		delete(s.byDate, key)
	}

	booking.Status = domain.BookingStatusPendingDeposit
	booking.CreatedAt = now
	booking.UpdatedAt = now
	copied := *booking
	s.byDate[key] = &copied
	s.byID[booking.ID] = &copied
	return nil
}

func (s *memoryStore) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *memoryStore) MarkDepositPaid(ctx context.Context, id, paymentID string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	b.DepositPaid = true
	b.DepositPaymentID = paymentID
	b.Status = domain.BookingStatusDepositPaid
	b.HeldUntil = nil
	copied := *b
	return &copied, nil
}

func (s *memoryStore) MarkBalancePaid(ctx context.Context, id string, totalCost int64) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	b.Status = domain.BookingStatusBalancePaid
	b.TotalCost = totalCost
	copied := *b
	return &copied, nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.byDate, b.EventDate.Format("2006-01-02"))
	delete(s.byID, id)
	return nil
}

func (s *memoryStore) ListActiveDates(ctx context.Context, now time.Time) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dates := make([]time.Time, 0)
	for _, b := range s.byDate {
		if b.ActiveAt(now) {
			dates = append(dates, b.EventDate)
		}
	}
	return dates, nil
}

func (s *memoryStore) DeleteExpiredHolds(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []domain.Booking
	for key, b := range s.byDate {
		if !b.DepositPaid && b.HeldUntil != nil && !b.HeldUntil.After(deadline) {
			expired = append(expired, *b)
			delete(s.byDate, key)
			delete(s.byID, b.ID)
		}
	}
	return expired, nil
}

func (s *memoryStore) RecordPaymentAttempt(ctx context.Context, bookingID, paymentID, purpose string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[paymentID] = "pending"
	return nil
}

func (s *memoryStore) MarkPaymentApplied(ctx context.Context, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[paymentID] = "applied"
	return nil
}

// staticUsers satisfies repository.UserRepository with a single client.
type staticUsers struct {
	user domain.User
}

func (s *staticUsers) FindOrCreate(ctx context.Context, email, fullName string) (*domain.User, error) {
	return &s.user, nil
}

func (s *staticUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return &s.user, nil
}

func TestHoldLifecycle_ConflictThenExpiryReopensDate(t *testing.T) {
	store := newMemoryStore()
	users := &staticUsers{user: domain.User{ID: "user-1", Email: "couple@example.com"}}

	current := time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)
	service := &BookingService{
		bookings: store,
		users:    users,
		holdTTL:  12 * time.Hour,
		currency: "usd",
		now:      func() time.Time { return current },
	}

	ctx := context.Background()
	input := RequestHoldInput{
		EventDate:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		PackageType: domain.PackageFast,
		ClientEmail: "couple@example.com",
	}

	// First request takes the date.
	first, err := service.RequestHold(ctx, input)
	assert.NoError(t, err)
	assert.Equal(t, current.Add(12*time.Hour), *first.Booking.HeldUntil)

	// Immediate second request conflicts.
	_, err = service.RequestHold(ctx, input)
	assert.ErrorIs(t, err, domain.ErrDateUnavailable)

	// 13 hours later the hold has lapsed and the date reopens; the stale
	// row is superseded without any sweep having run.
	current = current.Add(13 * time.Hour)
	second, err := service.RequestHold(ctx, input)
	assert.NoError(t, err)
	assert.NotEqual(t, first.Booking.ID, second.Booking.ID)

	_, err = store.GetByID(ctx, first.Booking.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHoldLifecycle_DepositPaidBlocksBeyondWindow(t *testing.T) {
	store := newMemoryStore()
	users := &staticUsers{user: domain.User{ID: "user-1", Email: "couple@example.com"}}
	gateway := &MockGateway{}

	current := time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)
	service := &BookingService{
		bookings: store,
		users:    users,
		gateway:  gateway,
		holdTTL:  12 * time.Hour,
		currency: "usd",
		now:      func() time.Time { return current },
	}

	ctx := context.Background()
	input := RequestHoldInput{
		EventDate:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		PackageType: domain.PackageFast,
		ClientEmail: "couple@example.com",
	}

	held, err := service.RequestHold(ctx, input)
	assert.NoError(t, err)

	gateway.On("Charge", ctx, int64(1000), "usd", "tok-ok", mock.Anything).Return("txn-1", nil).Once()
	_, err = service.PayDeposit(ctx, held.Booking.ID, "tok-ok")
	assert.NoError(t, err)

	// Days past the original hold window the date still conflicts, because
	// the deposit is what blocks it now, not the hold timer.
	current = current.Add(72 * time.Hour)
	_, err = service.RequestHold(ctx, input)
	assert.ErrorIs(t, err, domain.ErrDateUnavailable)
	assert.Equal(t, "applied", store.attempts["txn-1"])
}

func TestHoldLifecycle_ConcurrentRequestsOneWinner(t *testing.T) {
	store := newMemoryStore()
	users := &staticUsers{user: domain.User{ID: "user-1", Email: "couple@example.com"}}

	now := time.Date(2026, 5, 20, 9, 0, 0, 0, time.UTC)
	service := &BookingService{
		bookings: store,
		users:    users,
		holdTTL:  12 * time.Hour,
		currency: "usd",
		now:      func() time.Time { return now },
	}

	ctx := context.Background()
	input := RequestHoldInput{
		EventDate:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		PackageType: domain.PackageFast,
		ClientEmail: "couple@example.com",
	}

	const requests = 16
	var wg sync.WaitGroup
	results := make([]error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := service.RequestHold(ctx, input)
			results[i] = err
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, domain.ErrDateUnavailable)
		}
	}
	assert.Equal(t, 1, winners)

	dates, err := store.ListActiveDates(ctx, now)
	assert.NoError(t, err)
	assert.Len(t, dates, 1)
}
