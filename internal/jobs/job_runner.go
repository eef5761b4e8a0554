package jobs

import (
	"time"

	"book-reservation-backend/internal/config"
	"book-reservation-backend/internal/logger"
	"book-reservation-backend/internal/repository"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	reservations repository.ReservationRepository
	books        repository.BookRepository
	config       *config.Config
	now          func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(reservations repository.ReservationRepository, books repository.BookRepository, cfg *config.Config) *JobRunner {
	return &JobRunner{
		reservations: reservations,
		books:        books,
		config:       cfg,
		now:          time.Now,
	}
}

// Config returns the configuration the jobs were built with
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
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.ReportAccruingLateFees()
}
