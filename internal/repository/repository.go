package repository

import (
	"context"

	"book-reservation-backend/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type BookRepository interface {
	GetByExternalID(ctx context.Context, externalID int64) (*domain.Book, error)
	// DecreaseAvailableQuantity takes one unit out of stock atomically.
	// It fails with domain.ErrUnavailable when no unit is free.
	DecreaseAvailableQuantity(ctx context.Context, externalID int64) error
	IncreaseAvailableQuantity(ctx context.Context, externalID int64) error
}

type ReservationRepository interface {
	// Create persists a new reservation and assigns its ID
	Create(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	Update(ctx context.Context, r *domain.Reservation) error
	List(ctx context.Context) ([]domain.Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error)
	ListByStatus(ctx context.Context, status domain.ReservationStatus) ([]domain.Reservation, error)
	ListOverdue(ctx context.Context) ([]domain.Reservation, error)
}

// Transactor runs fn inside a single all-or-nothing unit of work. Repositories
// called with the ctx handed to fn take part in it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
