package jobs

import (
	"time"

	"book-rental-backend/internal/config"
	"book-rental-backend/internal/logger"
	"book-rental-backend/internal/repository"
	"book-rental-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	deps   *Deps
	config *config.Config
	now    func() time.Time
}

// Deps holds the services and repositories needed by jobs
type Deps struct {
	Orders        service.RentalOrderService
	Email         service.EmailService
	OrderRepo     repository.RentalOrderRepository
	ReturnRepo    repository.ReturnRequestRepository
	CustomerRepo  repository.CustomerRepository
	Notifications repository.NotificationRepository
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(deps *Deps, cfg *config.Config) *JobRunner {
	return &JobRunner{
		deps:   deps,
		config: cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	start := time.Now()
	jobFunc()
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.MarkOverdueOrders()
	jr.SendReturnReminders()
}
