package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledger-service/config"
	httpHandler "ledger-service/internal/adapter/http/handler"
	"ledger-service/internal/adapter/storage/memory"
	pgStorage "ledger-service/internal/adapter/storage/postgres"
	redisStorage "ledger-service/internal/adapter/storage/redis"
	"ledger-service/internal/core/ports"
	"ledger-service/internal/service"
	"ledger-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	startingBalance, err := decimal.NewFromString(cfg.Ledger.StartingBalance)
	if err != nil || startingBalance.IsNegative() {
		log.Fatal().Str("starting_balance", cfg.Ledger.StartingBalance).Msg("Invalid ledger.starting_balance")
	}

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("starting_balance", startingBalance.StringFixed(2)).
		Dur("session_ttl", cfg.Session.TTL).
		Msg("Starting Ledger Service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// In-memory ledger core
	hashSvc := service.NewArgon2HashService()
	accounts := memory.NewAccountStore(hashSvc, startingBalance, cfg.Ledger.Shards)
	sessions := memory.NewSessionStore(service.NewUUIDTokenGenerator(), cfg.Session.TTL)

	var (
		healthCheckers []ports.HealthChecker
		rateLimitStore ports.RateLimitStore
		auditRepo      ports.AuditRepository
	)

	// Optional PostgreSQL audit sink
	if cfg.Database.Enabled {
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()

		if err := pgStorage.EnsureAuditSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare audit schema")
		}
		auditRepo = pgStorage.NewAuditRepository(pool)
		healthCheckers = append(healthCheckers, pgStorage.NewHealthCheck(pool))
		log.Info().Msg("PostgreSQL audit sink connected")
	}

	// Optional Redis rate limiter
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()

		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
		log.Info().Msg("Redis rate limiter connected")
	}

	// Business services
	authSvc := service.NewAuthService(accounts, sessions, logger.Component(log, "auth"))
	transferSvc := service.NewTransferService(accounts, logger.Component(log, "transfer"))
	querySvc := service.NewQueryService(accounts)
	auditSvc := service.NewAuditService(auditRepo, logger.Component(log, "audit"))

	// Load OpenAPI spec for Swagger UI
	specBytes, err := os.ReadFile(cfg.Server.OpenAPIPath)
	if err != nil {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
		specBytes = nil
	} else {
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		TransferSvc:    transferSvc,
		QuerySvc:       querySvc,
		Accounts:       accounts,
		RateLimitStore: rateLimitStore,
		AuditSvc:       auditSvc,
		HealthCheckers: healthCheckers,
		CORSOrigins:    cfg.Server.CORSOrigins,
		OpenAPISpec:    specBytes,
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Graceful shutdown on signal or server failure
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		return
	}

	log.Info().Int("accounts", accounts.Count(context.Background())).Msg("Server exited")
}
