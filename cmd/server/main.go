package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	api "book-rental-backend/internal/api/grpc"
	httpapi "book-rental-backend/internal/api/http"
	"book-rental-backend/internal/cache"
	"book-rental-backend/internal/config"
	"book-rental-backend/internal/events"
	"book-rental-backend/internal/jobs"
	"book-rental-backend/internal/logger"
	"book-rental-backend/internal/repository"
	"book-rental-backend/internal/repository/memory"
	"book-rental-backend/internal/repository/postgres"
	"book-rental-backend/internal/returns"
	"book-rental-backend/internal/scheduler"
	"book-rental-backend/internal/security"
	"book-rental-backend/internal/service"

	_ "github.com/lib/pq"
)

// repos is the repository set shared by the memory and postgres stores.
type repos struct {
	Orders        repository.RentalOrderRepository
	Returns       repository.ReturnRequestRepository
	Customers     repository.CustomerRepository
	Ledger        repository.LedgerRepository
	Notifications repository.NotificationRepository
}

func openStore(ctx context.Context, cfg *config.Config) (*repos, func(), error) {
	if cfg.Database.Type == "memory" {
		store := memory.NewStore()
		if cfg.Database.SeedFile != "" {
			if err := store.LoadSeed(cfg.Database.SeedFile); err != nil {
				return nil, nil, err
			}
			logger.Info("Memory store seeded", "file", cfg.Database.SeedFile)
		}
		return &repos{store.Orders, store.Returns, store.Customers, store.Ledger, store.Notifications}, func() {}, nil
	}

	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	return &repos{store.Orders, store.Returns, store.Customers, store.Ledger, store.Notifications}, func() { db.Close() }, nil
}

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Book Rental Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "grpc_address", cfg.GetServerAddress(), "http_address", cfg.GetHTTPAddress())
	logger.Info("Store configuration", "type", cfg.Database.Type)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	// Event publishing
	var publisher service.EventPublisher = events.LogPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.BufferSize)
		producer.Start()
		defer producer.Close()
		publisher = producer
		logger.Info("Publishing return events to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	// Idempotent create
	var idempotency service.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb := cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis not reachable, idempotency keys will fail open", "addr", cfg.Redis.Addr, "error", err)
		}
		idempotency = cache.NewIdempotencyStore(rdb, cfg.Returns.IdempotencyTTL)
	}

	// Email
	emailSvc := service.NewLogEmailService()
	if cfg.SendGrid.APIKey != "" {
		emailSvc = service.NewSendGridEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	}

	// Initialize Services
	settings := service.ReturnSettings{
		UpstreamTimeout: cfg.Returns.UpstreamTimeout,
		MaxRetries:      cfg.Returns.MaxRetries,
		RetryBackoff:    cfg.Returns.RetryBackoff,
	}
	engine := returns.NewEngine()
	orderSvc := service.NewRentalOrderService(store.Orders, store.Returns, publisher, engine.Now, settings)
	returnSvc := service.NewReturnRequestService(service.ReturnRequestDeps{
		Engine:       engine,
		Orders:       orderSvc,
		OrderRepo:    store.Orders,
		ReturnRepo:   store.Returns,
		CustomerRepo: store.Customers,
		NoteRepo:     store.Notifications,
		EmailSvc:     emailSvc,
		AdminEmail:   cfg.SendGrid.AdminEmail,
		Publisher:    publisher,
		Idempotency:  idempotency,
		Settings:     settings,
	})
	ledgerSvc := service.NewLedgerService(store.Ledger)
	noteSvc := service.NewNotificationService(store.Notifications)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	// Set up gRPC server
	lis, err := net.Listen("tcp", cfg.GetServerAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetServerAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	s := api.NewServer(api.Handlers{
		Orders:        orderSvc,
		Returns:       returnSvc,
		Ledger:        ledgerSvc,
		Notifications: noteSvc,
	}, tokenManager)

	// Scheduler runs in-process alongside the servers
	jobRunner := jobs.NewJobRunner(&jobs.Deps{
		Orders:        orderSvc,
		Email:         emailSvc,
		OrderRepo:     store.Orders,
		ReturnRepo:    store.Returns,
		CustomerRepo:  store.Customers,
		Notifications: store.Notifications,
	}, cfg)
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("gRPC server listening", "address", cfg.GetServerAddress())
		return s.Serve(lis)
	})

	var httpServer *http.Server
	if addr := cfg.GetHTTPAddress(); addr != "" {
		httpServer = &http.Server{
			Addr: addr,
			Handler: httpapi.NewRouter(httpapi.Services{
				Orders:        orderSvc,
				Returns:       returnSvc,
				Ledger:        ledgerSvc,
				Notifications: noteSvc,
			}, tokenManager),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("HTTP server listening", "address", addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down servers...")
		if httpServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP shutdown error", "error", err)
			}
		}
		s.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		log.Fatalf("Server error: %v", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
