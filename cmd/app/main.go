package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/tinydiner/weddingdesk/config"
	"github.com/tinydiner/weddingdesk/internal/bootstrap"
	"github.com/tinydiner/weddingdesk/internal/cache"
	"github.com/tinydiner/weddingdesk/internal/kafka"
	"github.com/tinydiner/weddingdesk/internal/payment"
	"github.com/tinydiner/weddingdesk/internal/repository"
	"github.com/tinydiner/weddingdesk/internal/service/booking"
	"github.com/tinydiner/weddingdesk/internal/service/dashboard"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.BookedDatesCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	gateway, err := payment.NewOmiseGateway(os.Getenv("OMISE_PUBLIC_KEY"), os.Getenv("OMISE_SECRET_KEY"))
	if err != nil {
		log.Fatalf("init payment gateway: %v", err)
	}

	bookingRepo := repository.NewBookingRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	bookingService := booking.NewBookingService(
		bookingRepo,
		userRepo,
		dashboardRepo,
		redisCache,
		gateway,
		producer,
		cfg.Kafka.BookingTopic,
		time.Duration(cfg.Booking.HoldTTLHours)*time.Hour,
		cfg.Booking.Currency,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithRejectPastDates(cfg.Booking.RejectPastDates),
	)
	dashboardService := dashboard.NewDashboardService(dashboardRepo, userRepo)

	if err := bootstrap.Run(ctx, cfg, bookingService, dashboardService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
