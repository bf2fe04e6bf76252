// server/cmd/api/main.go
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"quickmeds-api-server/config"
	"quickmeds-api-server/internal/api/routes"
	"quickmeds-api-server/internal/auth"
	"quickmeds-api-server/internal/database"
	"quickmeds-api-server/internal/dispatch"
	"quickmeds-api-server/internal/invoice"
	"quickmeds-api-server/internal/metrics"
	"quickmeds-api-server/internal/notify"
	"quickmeds-api-server/internal/quote"
	"quickmeds-api-server/internal/registry"
	"quickmeds-api-server/internal/routing"
	"quickmeds-api-server/internal/s3"
	"quickmeds-api-server/internal/socket"
	"quickmeds-api-server/internal/sweeper"
)

func main() {
	// .env chỉ dành cho môi trường dev; thiếu file không phải là lỗi.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}

	ctx := context.Background()

	// 2. Kết nối MongoDB và chuẩn bị index (2dsphere cho truy vấn gần-nhất)
	db, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	if err := database.SeedAdmin(db); err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	// 3. Metrics registry
	promRegistry := prometheus.NewRegistry()
	m := metrics.New(promRegistry)

	// 4. Các collaborator biên: push/message, document store, routing
	notifier, err := notify.NewNotifier(ctx, cfg.FCM.CredentialsFile, db, m)
	if err != nil {
		log.Fatalf("Failed to initialize notifier: %v", err)
	}
	s3Uploader, err := s3.NewUploader(cfg.S3)
	if err != nil {
		log.Fatalf("Failed to initialize S3 uploader: %v", err)
	}
	oracle := routing.NewOracle(cfg.Routing.OSRMBaseURL)

	// 5. Core components: registry, offer bus, assignment engine, negotiation
	partnerRegistry := &registry.Registry{
		DB:              db,
		FreshnessWindow: cfg.Dispatch.FreshnessWindow,
	}
	wsHub := socket.NewHub()
	engine := &dispatch.Engine{
		DB:       db,
		Registry: partnerRegistry,
		Hub:      wsHub,
		Notifier: notifier,
		Invoices: &invoice.Generator{Uploader: s3Uploader},
		Metrics:  m,
	}
	negotiation := &quote.Negotiation{
		DB:       db,
		Engine:   engine,
		Notifier: notifier,
		Metrics:  m,
		QuoteTTL: cfg.Dispatch.QuoteTTL,
	}

	// 6. Background sweeper nhắc đối tác có vị trí nguội
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	freshnessSweeper := &sweeper.Sweeper{
		DB:             db,
		Notifier:       notifier,
		Metrics:        m,
		Interval:       cfg.Dispatch.SweeperInterval,
		StaleThreshold: cfg.Dispatch.StaleThreshold,
	}
	go freshnessSweeper.Run(sweepCtx)

	// 7. Auth service
	expiration, err := time.ParseDuration(cfg.JWT.Expiration)
	if err != nil {
		expiration = 24 * time.Hour
	}
	authService := auth.NewService(cfg.JWT.Secret, expiration)

	// 8. Router
	router := routes.SetupRouter(cfg, db, authService, partnerRegistry, engine,
		negotiation, notifier, s3Uploader, oracle, wsHub, promRegistry)

	// 9. Start server
	log.Printf("Starting API server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
