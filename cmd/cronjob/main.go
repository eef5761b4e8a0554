package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"book-reservation-backend/internal/config"
	"book-reservation-backend/internal/jobs"
	"book-reservation-backend/internal/logger"
	"book-reservation-backend/internal/repository/memory"
	"book-reservation-backend/internal/repository/postgres"
	"book-reservation-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'accrual-report', 'all-nightly')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Book Reservation Cronjob Runner...", "log_level", cfg.Log.Level)

	jobRunner, closeStore, err := newJobRunner(cfg)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

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

func newJobRunner(cfg *config.Config) (*jobs.JobRunner, func(), error) {
	if cfg.Storage.Type == "memory" {
		store := memory.NewStore()
		if cfg.Storage.SeedFile != "" {
			seeded, err := memory.LoadSeed(cfg.Storage.SeedFile)
			if err != nil {
				return nil, nil, err
			}
			store = seeded
		}
		return jobs.NewJobRunner(store.Reservations(), store.Books(), cfg), func() {}, nil
	}

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver, "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := postgres.Open(cfg.Database.Driver, cfg.GetDatabaseConnectionString(), cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	return jobs.NewJobRunner(store.ReservationRepository, store.BookRepository, cfg), func() { db.Close() }, nil
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "accrual-report":
		jobRunner.ReportAccruingLateFees()
	case "all-nightly":
		jobRunner.RunAllNightlyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - accrual-report\n")
		fmt.Printf("  - all-nightly\n")
		os.Exit(1)
	}
}
