package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/adapters/cache"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/adapters/handler"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/adapters/middleware"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/adapters/repository"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/config"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/ports"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/services"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/validation"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	log.Println("Authenticated with Redis successfully")

	engine := validation.NewEngine(cfg.Rules.MinimumAmountFloor, cfg.Rules.MinimumPercentOfTotal)
	clock := ports.SystemClock{}

	linkStore := repository.NewGuardianLinkRepository(db)
	paymentStore := repository.NewPaymentRepository(db)
	directory := repository.NewSQLGuardianDirectory(db)
	replayGuard := cache.NewRedisReplayGuard(redisClient, cfg.Rules.ReplayGuardTTL)

	linkService := services.NewGuardianLinkService(
		linkStore, directory, engine, clock,
		cfg.Rules.MaxGuardiansPerStudent, cfg.Rules.LinkRequestTTL,
	)
	paymentService := services.NewPaymentService(paymentStore, engine, replayGuard, clock)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTPublicKey)
	linkHandler := handler.NewGuardianLinkHandler(linkService)
	paymentHandler := handler.NewPaymentHandler(paymentService, engine)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	staff := []string{middleware.RoleAdmin, middleware.RoleTeacher}
	anyActor := []string{middleware.RoleAdmin, middleware.RoleTeacher, middleware.RoleGuardian}
	guardians := []string{middleware.RoleGuardian}

	mux := http.NewServeMux()

	// Health endpoints (OpenShift compatible)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /health/ready", healthHandler.Ready)
	mux.HandleFunc("GET /health/live", healthHandler.Live)

	mux.Handle("GET /metrics", promhttp.Handler())

	// Guardian-link consent workflow
	mux.Handle("POST /guardian-links", authMiddleware.RequireRole(staff, linkHandler.Create))
	mux.Handle("GET /guardian-links/{id}", authMiddleware.RequireRole(anyActor, linkHandler.Get))
	mux.Handle("POST /guardian-links/{id}/approve", authMiddleware.RequireRole(guardians, linkHandler.Approve))
	mux.Handle("POST /guardian-links/{id}/reject", authMiddleware.RequireRole(guardians, linkHandler.Reject))

	// Payment settlement workflow
	mux.Handle("POST /payment-requests", authMiddleware.RequireRole(staff, paymentHandler.Create))
	mux.Handle("GET /payment-requests/{id}", authMiddleware.RequireRole(anyActor, paymentHandler.Get))
	mux.Handle("GET /payment-requests/{id}/suggestions", authMiddleware.RequireRole(anyActor, paymentHandler.Suggestions))
	mux.Handle("POST /payment-requests/{id}/approve", authMiddleware.RequireRole(staff, paymentHandler.Approve))
	mux.Handle("POST /payment-requests/{id}/reject", authMiddleware.RequireRole(staff, paymentHandler.Reject))
	mux.Handle("POST /payment-requests/{id}/payments", authMiddleware.RequireRole(guardians, paymentHandler.RecordPayment))

	root := middleware.CORSMiddleware(cfg.AllowedOrigins)(middleware.Metrics(mux))

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, root); err != nil {
		log.Fatalf("Could not start server: %s\n", err)
	}
}
