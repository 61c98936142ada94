package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"book-rental-backend/internal/config"
	"book-rental-backend/internal/events"
	"book-rental-backend/internal/jobs"
	"book-rental-backend/internal/logger"
	"book-rental-backend/internal/repository/postgres"
	"book-rental-backend/internal/scheduler"
	"book-rental-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'mark-overdue-orders', 'send-return-reminders', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Book Rental Cronjob Runner...", "log_level", cfg.Log.Level)

	// The memory store lives inside the server process; run the scheduler there instead.
	if cfg.Database.Type != "postgres" {
		log.Fatalf("Cronjob runner requires database.type postgres, got %q", cfg.Database.Type)
	}

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	if err := postgres.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
	var publisher service.EventPublisher = events.LogPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.BufferSize)
		producer.Start()
		defer producer.Close()
		publisher = producer
	}

	emailService := service.NewLogEmailService()
	if cfg.SendGrid.APIKey != "" {
		emailService = service.NewSendGridEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	}

	orderService := service.NewRentalOrderService(
		store.Orders,
		store.Returns,
		publisher,
		nil,
		service.ReturnSettings{
			UpstreamTimeout: cfg.Returns.UpstreamTimeout,
			MaxRetries:      cfg.Returns.MaxRetries,
			RetryBackoff:    cfg.Returns.RetryBackoff,
		},
	)

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(&jobs.Deps{
		Orders:        orderService,
		Email:         emailService,
		OrderRepo:     store.Orders,
		ReturnRepo:    store.Returns,
		CustomerRepo:  store.Customers,
		Notifications: store.Notifications,
	}, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "mark-overdue-orders":
		jobRunner.MarkOverdueOrders()
	case "send-return-reminders":
		jobRunner.SendReturnReminders()
	case "all":
		jobRunner.RunAllNightlyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - mark-overdue-orders\n")
		fmt.Printf("  - send-return-reminders\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
