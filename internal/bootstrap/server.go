package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tinydiner/weddingdesk/api"
	"github.com/tinydiner/weddingdesk/config"
	"github.com/tinydiner/weddingdesk/internal/service/booking"
	"github.com/tinydiner/weddingdesk/internal/service/dashboard"
)

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, bookingSvc booking.BookingUseCase, dashboardSvc dashboard.DashboardUseCase) error {
	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: newRouter(bookingSvc, dashboardSvc),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(bookingSvc booking.BookingUseCase, dashboardSvc dashboard.DashboardUseCase) *gin.Engine {
	router := gin.Default()

	secret := []byte(os.Getenv("JWT_SECRET"))
	authRequired := api.AuthRequired(secret)
	authOptional := api.AuthOptional(secret)

	group := router.Group("/api")
	api.NewBookingHandler(bookingSvc).Register(group, authRequired, authOptional)
	api.NewDashboardHandler(dashboardSvc).Register(group, authRequired)

	return router
}
