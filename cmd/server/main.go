// ==============================================================================
// SPLIT PAYMENT SERVICE MAIN - cmd/server/main.go
// ==============================================================================
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"splitpay/internal/forex"
	"splitpay/internal/handler"
	"splitpay/internal/ledger"
	"splitpay/internal/middleware"
	"splitpay/internal/notification"
	"splitpay/internal/repository/postgres"
	"splitpay/internal/scheduler"
	"splitpay/internal/split"
	"splitpay/pkg/config"
	"splitpay/pkg/logger"
	"splitpay/pkg/validator"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewWithWriter(cfg.ServiceName, cfg.LogLevel, os.Stdout)

	if err := cfg.ValidateCore(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Starting split payment service", map[string]interface{}{
		"port":        cfg.Server.Port,
		"persistence": cfg.PersistenceEnabled(),
		"cache":       cfg.CacheEnabled(),
	})

	ctx := context.Background()

	// Database connection (optional)
	var db *sqlx.DB
	if cfg.PersistenceEnabled() {
		var err error
		db, err = sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatal("Failed to connect to database", map[string]interface{}{
				"error": err.Error(),
			})
		}
		defer db.Close()

		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	// Redis connection (optional)
	var redisClient *redis.Client
	if cfg.CacheEnabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", map[string]interface{}{
				"error": err.Error(),
			})
		}
		defer redisClient.Close()
	}

	// Forex
	var (
		forexRepo forex.Repository
		rateCache forex.RateCache
	)
	if db != nil {
		forexRepo = postgres.NewForexRepository(db)
	}
	if redisClient != nil {
		rateCache = forex.NewRedisRateCache(redisClient)
	}
	forexService := forex.NewService(forex.NewResolver(), forexRepo, rateCache, cfg.Forex.CacheTTL, log)
	if err := forexService.Load(ctx); err != nil {
		log.Fatal("Failed to load exchange rates", map[string]interface{}{"error": err.Error()})
	}

	// Ledger
	store := ledger.NewStore(log)
	var accountRepo *postgres.AccountRepository
	if db != nil {
		accountRepo = postgres.NewAccountRepository(db)
		states, err := accountRepo.FindAll(ctx)
		if err != nil {
			log.Fatal("Failed to load accounts", map[string]interface{}{"error": err.Error()})
		}
		if err := store.Restore(states); err != nil {
			log.Fatal("Failed to restore accounts", map[string]interface{}{"error": err.Error()})
		}
		log.Info("Accounts restored", map[string]interface{}{"count": len(states)})
	}

	var snapshots *scheduler.SnapshotScheduler
	if accountRepo != nil {
		snapshots = scheduler.NewSnapshotScheduler(store, accountRepo, cfg.Ledger.SnapshotInterval, log)
		snapshots.Start()
	}

	// Split coordinator and its observers
	hub := notification.NewHub(log)
	defer hub.Close()
	opts := []split.Option{split.WithObserver(hub.Observe)}
	if db != nil {
		journal := postgres.NewSplitJournalRepository(db)
		opts = append(opts, split.WithObserver(journal.Observer(log, cfg.HTTP.JournalTimeout)))
	}
	coord := split.NewCoordinator(store, forexService.Resolver(), log, opts...)

	// Handlers
	val := validator.New()
	accountHandler := handler.NewAccountHandler(store, coord, val, log)
	forexHandler := handler.NewForexHandler(forexService, val, log)
	splitHandler := handler.NewSplitHandler(coord, val, log)
	systemHandler := handler.NewSystemHandler(db, redisClient, log)

	// Setup router
	r := mux.NewRouter()

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	if redisClient != nil {
		r.Use(middleware.NewRateLimiter(redisClient, cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow, log).Limit)
	}

	r.HandleFunc("/health", systemHandler.Health).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	if redisClient != nil {
		api.Use(middleware.NewIdempotencyMiddleware(redisClient, cfg.HTTP.IdempotencyTTL, log).Handle)
	}
	handler.RegisterRoutes(api, accountHandler, forexHandler, splitHandler, hub)

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Split payment service started", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down split payment service...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if snapshots != nil {
		snapshots.Stop()
		// final snapshot after the last request has drained
		_ = snapshots.RunOnce(shutdownCtx)
	}

	log.Info("Split payment service stopped gracefully", nil)
}
