package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/tinydiner/weddingdesk/internal/domain"
	"github.com/tinydiner/weddingdesk/internal/kafka"
	"github.com/tinydiner/weddingdesk/internal/repository"
)

type BookingUseCase interface {
	RequestHold(ctx context.Context, input RequestHoldInput) (*HoldResult, error)
	GetBooking(ctx context.Context, bookingID, requesterEmail string) (*domain.Booking, error)
	PayDeposit(ctx context.Context, bookingID, cardToken string) (string, error)
	PayBalance(ctx context.Context, bookingID, cardToken string) (string, error)
	ReleaseHold(ctx context.Context, bookingID, requesterEmail string) error
	ListBookedDates(ctx context.Context) ([]time.Time, error)
	ExpireStaleHolds(ctx context.Context) ([]domain.Booking, error)
}

type Cache interface {
	AcquireDateLock(ctx context.Context, eventDate time.Time, ttl time.Duration) (bool, error)
	ReleaseDateLock(ctx context.Context, eventDate time.Time) error
	GetBookedDates(ctx context.Context) ([]time.Time, error)
	SetBookedDates(ctx context.Context, dates []time.Time) error
	InvalidateBookedDates(ctx context.Context) error
}

// PaymentGateway is the opaque charge capability. Implementations report a
// decline as *domain.PaymentError; any other error is treated as unknown
// outcome and must not be retried under the same idempotency key.
type PaymentGateway interface {
	Charge(ctx context.Context, amountCents int64, currency, cardToken, idempotencyKey string) (string, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	users              repository.UserRepository
	dashboards         repository.DashboardRepository
	cache              Cache
	gateway            PaymentGateway
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	holdTTL            time.Duration
	currency           string
	rejectPastDates    bool
	now                func() time.Time
}

type RequestHoldInput struct {
	EventDate   time.Time          `json:"event_date"`
	PackageType domain.PackageType `json:"package_type"`
	ClientEmail string             `json:"client_email"`
	ClientName  string             `json:"client_name"`
}

type HoldResult struct {
	Booking   *domain.Booking
	Dashboard *domain.Dashboard
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithRejectPastDates(reject bool) BookingServiceOption {
	return func(s *BookingService) {
		s.rejectPastDates = reject
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	users repository.UserRepository,
	dashboards repository.DashboardRepository,
	cache Cache,
	gateway PaymentGateway,
	producer *kafka.Producer,
	bookingTopic string,
	holdTTL time.Duration,
	currency string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		users:        users,
		dashboards:   dashboards,
		cache:        cache,
		gateway:      gateway,
		producer:     producer,
		bookingTopic: bookingTopic,
		holdTTL:      holdTTL,
		currency:     currency,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// RequestHold reserves the event date for holdTTL without payment. The
// advisory Redis lock gives a cheap early conflict; the repository
// transaction is the authoritative check, where a stale unpaid hold on the
// same date is superseded in place.
func (s *BookingService) RequestHold(ctx context.Context, input RequestHoldInput) (*HoldResult, error) {
	if input.EventDate.IsZero() {
		return nil, errors.New("event date is required")
	}
	if input.ClientEmail == "" {
		return nil, errors.New("client email is required")
	}
	if input.PackageType != domain.PackageFast && input.PackageType != domain.PackageCustom {
		return nil, errors.New("unknown package type")
	}

	now := s.now()
	eventDate := input.EventDate.Truncate(24 * time.Hour)
	if s.rejectPastDates && eventDate.Before(now.Truncate(24*time.Hour)) {
		return nil, errors.New("event date is in the past")
	}

	locked := false
	if s.cache != nil {
		ok, err := s.cache.AcquireDateLock(ctx, eventDate, s.holdTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrDateUnavailable
		}
		locked = true
	}

	user, err := s.users.FindOrCreate(ctx, input.ClientEmail, input.ClientName)
	if err != nil {
		if locked {
			_ = s.cache.ReleaseDateLock(ctx, eventDate)
		}
		return nil, err
	}

	total, deposit, balance := domain.PackageCosts(input.PackageType)
	heldUntil := now.Add(s.holdTTL)
	booking := &domain.Booking{
		ID:            uuid.NewString(),
		EventDate:     eventDate,
		ClientID:      user.ID,
		PackageType:   input.PackageType,
		TotalCost:     total,
		DepositAmount: deposit,
		BalanceAmount: balance,
		HeldUntil:     &heldUntil,
		Status:        domain.BookingStatusPendingDeposit,
	}
	dashboard := &domain.Dashboard{
		ID:        uuid.NewString(),
		BookingID: booking.ID,
		ClientID:  user.ID,
		Status:    domain.DashboardStatusBuilding,
	}

	if err := s.bookings.CreateHold(ctx, now, booking, dashboard); err != nil {
		if locked && !errors.Is(err, domain.ErrDateUnavailable) {
			_ = s.cache.ReleaseDateLock(ctx, eventDate)
		}
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateBookedDates(ctx)
	}
	s.publish(ctx, "hold_created", booking, user.Email, 0)
	return &HoldResult{Booking: booking, Dashboard: dashboard}, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID, requesterEmail string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := s.owner(ctx, booking, requesterEmail); err != nil {
		return nil, err
	}
	return booking, nil
}

// PayDeposit charges the fixed deposit and confirms the hold. Every attempt
// uses a fresh idempotency key: a failed attempt is final for that key and
// the client re-submits before the hold expires or loses the date.
func (s *BookingService) PayDeposit(ctx context.Context, bookingID, cardToken string) (string, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if booking.DepositPaid {
		return "", domain.ErrAlreadyPaid
	}

	paymentID, err := s.gateway.Charge(ctx, booking.DepositAmount, s.currency, cardToken, uuid.NewString())
	if err != nil {
		// Booking untouched: the hold keeps counting down to its
		// original deadline.
		return "", err
	}

	if err := s.bookings.RecordPaymentAttempt(ctx, booking.ID, paymentID, "deposit"); err != nil {
		log.Printf("record payment attempt %s for booking %s: %v", paymentID, booking.ID, err)
	}

	updated, err := s.bookings.MarkDepositPaid(ctx, booking.ID, paymentID)
	if err != nil {
		// Money moved but the booking was not marked paid. The pending
		// payment_attempts row is the reconciliation handle.
		log.Printf("RECONCILE: deposit charge %s for booking %s succeeded but persistence failed: %v", paymentID, booking.ID, err)
		return "", &domain.PersistenceError{Op: "mark deposit paid", Err: err}
	}
	if err := s.bookings.MarkPaymentApplied(ctx, paymentID); err != nil {
		log.Printf("mark payment %s applied: %v", paymentID, err)
	}

	email := s.ownerEmail(ctx, updated)
	s.publish(ctx, "deposit_paid", updated, email, updated.DepositAmount)
	return paymentID, nil
}

// PayBalance charges the remaining amount: the fixed balance for FAST
// packages, the dashboard's accumulated total for CUSTOM.
func (s *BookingService) PayBalance(ctx context.Context, bookingID, cardToken string) (string, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if booking.Status == domain.BookingStatusBalancePaid {
		return "", domain.ErrAlreadyPaid
	}
	if !booking.DepositPaid {
		return "", domain.ErrInvalidState
	}

	amount := booking.BalanceAmount
	total := booking.TotalCost
	if booking.PackageType == domain.PackageCustom {
		dashboard, err := s.dashboards.GetByBookingID(ctx, booking.ID)
		if err != nil {
			return "", err
		}
		amount = dashboard.TotalCost
		total = booking.DepositAmount + amount
	}
	if amount <= 0 {
		return "", domain.ErrInvalidState
	}

	paymentID, err := s.gateway.Charge(ctx, amount, s.currency, cardToken, uuid.NewString())
	if err != nil {
		return "", err
	}

	if err := s.bookings.RecordPaymentAttempt(ctx, booking.ID, paymentID, "balance"); err != nil {
		log.Printf("record payment attempt %s for booking %s: %v", paymentID, booking.ID, err)
	}

	updated, err := s.bookings.MarkBalancePaid(ctx, booking.ID, total)
	if err != nil {
		log.Printf("RECONCILE: balance charge %s for booking %s succeeded but persistence failed: %v", paymentID, booking.ID, err)
		return "", &domain.PersistenceError{Op: "mark balance paid", Err: err}
	}
	if err := s.bookings.MarkPaymentApplied(ctx, paymentID); err != nil {
		log.Printf("mark payment %s applied: %v", paymentID, err)
	}
	if err := s.dashboards.Finalize(ctx, booking.ID); err != nil {
		log.Printf("finalize dashboard for booking %s: %v", booking.ID, err)
	}

	email := s.ownerEmail(ctx, updated)
	s.publish(ctx, "balance_paid", updated, email, amount)
	return paymentID, nil
}

// ReleaseHold deletes an unpaid booking and its dashboard. Only the owner
// may release, and never after the deposit was paid.
func (s *BookingService) ReleaseHold(ctx context.Context, bookingID, requesterEmail string) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	owner, err := s.owner(ctx, booking, requesterEmail)
	if err != nil {
		return err
	}
	if booking.DepositPaid {
		return domain.ErrInvalidState
	}

	if err := s.bookings.Delete(ctx, booking.ID); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.ReleaseDateLock(ctx, booking.EventDate)
		_ = s.cache.InvalidateBookedDates(ctx)
	}
	s.publish(ctx, "hold_released", booking, owner.Email, 0)
	return nil
}

func (s *BookingService) ListBookedDates(ctx context.Context) ([]time.Time, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetBookedDates(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	dates, err := s.bookings.ListActiveDates(ctx, s.now())
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetBookedDates(ctx, dates)
	}
	return dates, nil
}

// ExpireStaleHolds is the worker sweep. It only tidies up rows that lazy
// evaluation already treats as inactive.
func (s *BookingService) ExpireStaleHolds(ctx context.Context) ([]domain.Booking, error) {
	expired, err := s.bookings.DeleteExpiredHolds(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for i := range expired {
		b := &expired[i]
		if s.cache != nil {
			_ = s.cache.ReleaseDateLock(ctx, b.EventDate)
		}
		s.publish(ctx, "hold_expired", b, s.ownerEmail(ctx, b), 0)
	}
	if len(expired) > 0 && s.cache != nil {
		_ = s.cache.InvalidateBookedDates(ctx)
	}
	return expired, nil
}

func (s *BookingService) owner(ctx context.Context, booking *domain.Booking, requesterEmail string) (*domain.User, error) {
	owner, err := s.users.GetByID(ctx, booking.ClientID)
	if err != nil {
		return nil, err
	}
	if requesterEmail == "" || owner.Email != requesterEmail {
		return nil, domain.ErrForbidden
	}
	return owner, nil
}

func (s *BookingService) ownerEmail(ctx context.Context, booking *domain.Booking) string {
	owner, err := s.users.GetByID(ctx, booking.ClientID)
	if err != nil {
		return ""
	}
	return owner.Email
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, email string, amount int64) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:        eventType,
		BookingID:   booking.ID,
		EventDate:   booking.EventDate.Format("2006-01-02"),
		Email:       email,
		PackageType: string(booking.PackageType),
		Status:      string(booking.Status),
		AmountCents: amount,
	}
	if booking.HeldUntil != nil {
		event.HeldUntil = *booking.HeldUntil
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.ID, event); err != nil {
		log.Printf("publish %s event for booking %s: %v", eventType, booking.ID, err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event); err != nil {
			log.Printf("publish %s notification for booking %s: %v", eventType, booking.ID, err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
