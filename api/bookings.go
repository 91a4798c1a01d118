package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tinydiner/weddingdesk/internal/domain"
	"github.com/tinydiner/weddingdesk/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type requestHoldRequest struct {
	EventDate   string `json:"event_date"`
	PackageType string `json:"package_type"`
	ClientEmail string `json:"client_email"`
	ClientName  string `json:"client_name"`
}

type holdResponse struct {
	BookingID   string `json:"booking_id"`
	DashboardID string `json:"dashboard_id"`
	EventDate   string `json:"event_date"`
	Status      string `json:"status"`
	HeldUntil   string `json:"held_until"`
}

type paymentRequest struct {
	CardToken string `json:"card_token"`
}

type paymentResponse struct {
	PaymentID string `json:"payment_id"`
}

type bookingResponse struct {
	ID               string `json:"id"`
	EventDate        string `json:"event_date"`
	PackageType      string `json:"package_type"`
	TotalCost        int64  `json:"total_cost"`
	DepositAmount    int64  `json:"deposit_amount"`
	BalanceAmount    int64  `json:"balance_amount"`
	DepositPaid      bool   `json:"deposit_paid"`
	DepositPaymentID string `json:"deposit_payment_id,omitempty"`
	HeldUntil        string `json:"held_until,omitempty"`
	Status           string `json:"status"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup, authRequired, authOptional gin.HandlerFunc) {
	router.POST("/bookings", authOptional, h.requestHold)
	router.GET("/bookings/:id", authRequired, h.get)
	router.POST("/bookings/:id/deposit", authOptional, h.payDeposit)
	router.POST("/bookings/:id/balance", authOptional, h.payBalance)
	router.POST("/bookings/:id/release", authRequired, h.release)
	router.GET("/availability", h.availability)
}

func (h *BookingHandler) requestHold(c *gin.Context) {
	var req requestHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eventDate, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_date, want YYYY-MM-DD"})
		return
	}

	email := identityFromContext(c)
	if email == "" {
		email = req.ClientEmail
	}

	result, err := h.service.RequestHold(c.Request.Context(), booking.RequestHoldInput{
		EventDate:   eventDate,
		PackageType: domain.PackageType(req.PackageType),
		ClientEmail: email,
		ClientName:  req.ClientName,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, holdResponse{
		BookingID:   result.Booking.ID,
		DashboardID: result.Dashboard.ID,
		EventDate:   result.Booking.EventDate.Format("2006-01-02"),
		Status:      string(result.Booking.Status),
		HeldUntil:   result.Booking.HeldUntil.Format(time.RFC3339),
	})
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"), identityFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) payDeposit(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paymentID, err := h.service.PayDeposit(c.Request.Context(), c.Param("id"), req.CardToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentResponse{PaymentID: paymentID})
}

func (h *BookingHandler) payBalance(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paymentID, err := h.service.PayBalance(c.Request.Context(), c.Param("id"), req.CardToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentResponse{PaymentID: paymentID})
}

func (h *BookingHandler) release(c *gin.Context) {
	if err := h.service.ReleaseHold(c.Request.Context(), c.Param("id"), identityFromContext(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": true})
}

func (h *BookingHandler) availability(c *gin.Context) {
	dates, err := h.service.ListBookedDates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	booked := make([]string, 0, len(dates))
	for _, d := range dates {
		booked = append(booked, d.Format("2006-01-02"))
	}
	c.JSON(http.StatusOK, gin.H{"booked_dates": booked})
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:               b.ID,
		EventDate:        b.EventDate.Format("2006-01-02"),
		PackageType:      string(b.PackageType),
		TotalCost:        b.TotalCost,
		DepositAmount:    b.DepositAmount,
		BalanceAmount:    b.BalanceAmount,
		DepositPaid:      b.DepositPaid,
		DepositPaymentID: b.DepositPaymentID,
		Status:           string(b.Status),
	}
	if b.HeldUntil != nil {
		resp.HeldUntil = b.HeldUntil.Format(time.RFC3339)
	}
	return resp
}

// respondError maps the error taxonomy onto HTTP statuses. Conflict bodies
// never say who holds the date.
func respondError(c *gin.Context, err error) {
	var paymentErr *domain.PaymentError
	var persistenceErr *domain.PersistenceError

	switch {
	case errors.Is(err, domain.ErrDateUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "date unavailable"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, domain.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": "already paid"})
	case errors.Is(err, domain.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &paymentErr):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": paymentErr.Error()})
	case errors.As(err, &persistenceErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
