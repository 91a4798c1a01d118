package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tinydiner/weddingdesk/internal/domain"
	"github.com/tinydiner/weddingdesk/internal/service/dashboard"
)

type DashboardHandler struct {
	service dashboard.DashboardUseCase
}

type addServiceRequest struct {
	VendorID    string `json:"vendor_id"`
	Service     string `json:"service"`
	Description string `json:"description"`
	Cost        int64  `json:"cost"`
}

type dashboardServiceResponse struct {
	ID          string `json:"id"`
	VendorID    string `json:"vendor_id,omitempty"`
	Service     string `json:"service"`
	Description string `json:"description,omitempty"`
	Cost        int64  `json:"cost"`
	CreatedAt   string `json:"created_at"`
}

type dashboardResponse struct {
	ID        string                     `json:"id"`
	BookingID string                     `json:"booking_id"`
	TotalCost int64                      `json:"total_cost"`
	Status    string                     `json:"status"`
	Services  []dashboardServiceResponse `json:"services"`
}

func NewDashboardHandler(service dashboard.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) Register(router *gin.RouterGroup, authRequired gin.HandlerFunc) {
	router.GET("/dashboards/:id", authRequired, h.get)
	router.POST("/dashboards/:id/services", authRequired, h.addService)
	router.DELETE("/dashboards/:id/services/:serviceID", authRequired, h.removeService)
}

func (h *DashboardHandler) get(c *gin.Context) {
	d, services, err := h.service.Get(c.Request.Context(), c.Param("id"), identityFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dashboardResponse{
		ID:        d.ID,
		BookingID: d.BookingID,
		TotalCost: d.TotalCost,
		Status:    string(d.Status),
		Services:  make([]dashboardServiceResponse, 0, len(services)),
	}
	for _, s := range services {
		resp.Services = append(resp.Services, toServiceResponse(&s))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DashboardHandler) addService(c *gin.Context) {
	var req addServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc, total, err := h.service.AddService(c.Request.Context(), c.Param("id"), identityFromContext(c), dashboard.AddServiceInput{
		VendorID:    req.VendorID,
		Service:     req.Service,
		Description: req.Description,
		Cost:        req.Cost,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"service":    toServiceResponse(svc),
		"total_cost": total,
	})
}

func (h *DashboardHandler) removeService(c *gin.Context) {
	total, err := h.service.RemoveService(c.Request.Context(), c.Param("id"), c.Param("serviceID"), identityFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_cost": total})
}

func toServiceResponse(s *domain.DashboardService) dashboardServiceResponse {
	return dashboardServiceResponse{
		ID:          s.ID,
		VendorID:    s.VendorID,
		Service:     s.Service,
		Description: s.Description,
		Cost:        s.Cost,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
}
