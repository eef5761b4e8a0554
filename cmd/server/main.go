package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcapi "book-reservation-backend/internal/api/grpc"
	httpapi "book-reservation-backend/internal/api/http"
	"book-reservation-backend/internal/config"
	"book-reservation-backend/internal/logger"
	"book-reservation-backend/internal/repository"
	"book-reservation-backend/internal/repository/memory"
	"book-reservation-backend/internal/repository/postgres"
	"book-reservation-backend/internal/security"
	"book-reservation-backend/internal/service"
)

type repositories struct {
	users        repository.UserRepository
	books        repository.BookRepository
	reservations repository.ReservationRepository
	tx           repository.Transactor
	ping         grpcapi.HealthProbe
	close        func()
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
	logger.Info("Starting Book Reservation Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http_address", cfg.GetServerAddress(), "grpc_port", cfg.Server.GRPCPort)

	repos, err := openRepositories(cfg)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "type", cfg.Storage.Type)
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer repos.close()

	reservationSvc := service.NewReservationService(repos.reservations, repos.books, repos.users, repos.tx)

	// Initialize Security
	var tokenManager security.TokenManager
	if cfg.JWT.Enabled {
		tokenManager = security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	} else {
		logger.Warn("JWT authentication is disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// gRPC health server
	var grpcServer *grpcapi.Server
	if cfg.Server.GRPCPort != 0 {
		lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
			log.Fatalf("Failed to listen: %v", err)
		}
		grpcServer = grpcapi.NewServer(repos.ping)
		go grpcServer.MonitorHealth(ctx, 30*time.Second)
		go func() {
			logger.Info("gRPC server listening", "address", cfg.GetGRPCAddress())
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("Failed to serve gRPC", "error", err)
			}
		}()
	}

	// HTTP API
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(reservationSvc, tokenManager),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	logger.Info("Server stopped. Goodbye!")
}

func openRepositories(cfg *config.Config) (*repositories, error) {
	if cfg.Storage.Type == "memory" {
		store := memory.NewStore()
		if cfg.Storage.SeedFile != "" {
			seeded, err := memory.LoadSeed(cfg.Storage.SeedFile)
			if err != nil {
				return nil, err
			}
			store = seeded
		}
		logger.Info("Using in-memory storage", "seed_file", cfg.Storage.SeedFile)
		return &repositories{
			users:        store.Users(),
			books:        store.Books(),
			reservations: store.Reservations(),
			tx:           store.Transactor(),
			close:        func() {},
		}, nil
	}

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver, "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := postgres.Open(cfg.Database.Driver, cfg.GetDatabaseConnectionString(), cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	return &repositories{
		users:        store.UserRepository,
		books:        store.BookRepository,
		reservations: store.ReservationRepository,
		tx:           store.Transactor,
		ping:         db.PingContext,
		close:        func() { db.Close() },
	}, nil
}
