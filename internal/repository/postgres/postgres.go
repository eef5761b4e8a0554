package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"book-reservation-backend/internal/repository"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

// Supported values of database.driver
const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

type Store struct {
	repository.UserRepository
	repository.BookRepository
	repository.ReservationRepository
	repository.Transactor
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		UserRepository:        NewUserRepository(db),
		BookRepository:        NewBookRepository(db),
		ReservationRepository: NewReservationRepository(db),
		Transactor:            NewTransactor(db),
	}
}

// Open connects to PostgreSQL through lib/pq ("postgres") or pgx ("pgx")
// and checks the connection.
func Open(driver, dsn string, maxOpenConns int) (*sqlx.DB, error) {
	switch driver {
	case "", DriverPQ:
		driver = DriverPQ
	case DriverPGX:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return db, nil
}
