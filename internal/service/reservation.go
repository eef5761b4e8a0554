package service

import (
	"context"
	"fmt"
	"time"

	"book-reservation-backend/internal/domain"
	"book-reservation-backend/internal/logger"
	"book-reservation-backend/internal/repository"
)

type reservationService struct {
	reservationRepo repository.ReservationRepository
	bookRepo        repository.BookRepository
	userRepo        repository.UserRepository
	tx              repository.Transactor
}

func NewReservationService(
	reservationRepo repository.ReservationRepository,
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	tx repository.Transactor,
) ReservationService {
	return &reservationService{
		reservationRepo: reservationRepo,
		bookRepo:        bookRepo,
		userRepo:        userRepo,
		tx:              tx,
	}
}

func (s *reservationService) CreateReservation(ctx context.Context, req CreateReservationRequest) (*ReservationView, error) {
	const method = "reservationService.CreateReservation"
	logger.EnterMethod(method, "userID", req.UserID, "bookExternalID", req.BookExternalID, "rentalDays", req.RentalDays)

	if req.RentalDays <= 0 {
		err := fmt.Errorf("%w: rental days must be positive, got %d", domain.ErrInvalidInput, req.RentalDays)
		logger.ExitMethodWithError(method, err)
		return nil, err
	}
	if req.StartDate.IsZero() {
		err := fmt.Errorf("%w: start date is required", domain.ErrInvalidInput)
		logger.ExitMethodWithError(method, err)
		return nil, err
	}

	var view ReservationView
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := s.userRepo.GetByID(ctx, req.UserID)
		if err != nil {
			return err
		}
		book, err := s.bookRepo.GetByExternalID(ctx, req.BookExternalID)
		if err != nil {
			return err
		}

		// The unit must be taken before anything is written
		logger.CollaboratorCall(ctx, "inventory", "DecreaseAvailableQuantity", "bookExternalID", book.ExternalID)
		err = s.bookRepo.DecreaseAvailableQuantity(ctx, book.ExternalID)
		logger.CollaboratorResult(ctx, "inventory", "DecreaseAvailableQuantity", err, "bookExternalID", book.ExternalID)
		if err != nil {
			return err
		}

		rs, err := domain.NewReservation(user.ID, book, req.RentalDays, req.StartDate, time.Now())
		if err != nil {
			s.releaseUnit(ctx, book.ExternalID)
			return err
		}
		if err := s.reservationRepo.Create(ctx, &rs); err != nil {
			s.releaseUnit(ctx, book.ExternalID)
			return err
		}

		view = newReservationView(&rs, user, book)
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(method, err, "userID", req.UserID, "bookExternalID", req.BookExternalID)
		return nil, err
	}

	logger.InfoContext(ctx, "Reservation created",
		"reservation_id", view.ID,
		"user_id", view.UserID,
		"book_external_id", view.BookExternalID,
		"total_fee", view.TotalFee.StringFixed(2))
	logger.ExitMethod(method, "reservationID", view.ID)
	return &view, nil
}

// releaseUnit gives back a unit taken earlier in a create that could not be
// persisted. Under a database transaction the rollback already undoes the
// decrement and this call is a no-op or fails harmlessly.
func (s *reservationService) releaseUnit(ctx context.Context, externalID int64) {
	logger.CollaboratorCall(ctx, "inventory", "IncreaseAvailableQuantity", "bookExternalID", externalID, "compensation", true)
	err := s.bookRepo.IncreaseAvailableQuantity(ctx, externalID)
	logger.CollaboratorResult(ctx, "inventory", "IncreaseAvailableQuantity", err, "bookExternalID", externalID, "compensation", true)
}

func (s *reservationService) ReturnBook(ctx context.Context, reservationID int64, returnDate time.Time) (*ReservationView, error) {
	const method = "reservationService.ReturnBook"
	logger.EnterMethod(method, "reservationID", reservationID, "returnDate", returnDate)

	if returnDate.IsZero() {
		err := fmt.Errorf("%w: return date is required", domain.ErrInvalidInput)
		logger.ExitMethodWithError(method, err)
		return nil, err
	}

	var view ReservationView
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		rs, err := s.reservationRepo.GetByID(ctx, reservationID)
		if err != nil {
			return err
		}
		// A closed reservation is rejected before its book is looked up
		if err := rs.CheckReturnable(); err != nil {
			return err
		}
		book, err := s.bookRepo.GetByExternalID(ctx, rs.BookExternalID)
		if err != nil {
			return err
		}

		returned, err := rs.ApplyReturn(returnDate, book.Price)
		if err != nil {
			return err
		}

		logger.CollaboratorCall(ctx, "inventory", "IncreaseAvailableQuantity", "bookExternalID", book.ExternalID)
		err = s.bookRepo.IncreaseAvailableQuantity(ctx, book.ExternalID)
		logger.CollaboratorResult(ctx, "inventory", "IncreaseAvailableQuantity", err, "bookExternalID", book.ExternalID)
		if err != nil {
			return err
		}

		if err := s.reservationRepo.Update(ctx, &returned); err != nil {
			return err
		}

		user, err := s.userRepo.GetByID(ctx, returned.UserID)
		if err != nil {
			return err
		}
		view = newReservationView(&returned, user, book)
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError(method, err, "reservationID", reservationID)
		return nil, err
	}

	logger.InfoContext(ctx, "Book returned",
		"reservation_id", view.ID,
		"status", view.Status,
		"late_fee", view.LateFee.StringFixed(2),
		"total_fee", view.TotalFee.StringFixed(2))
	logger.ExitMethod(method, "reservationID", view.ID, "status", view.Status)
	return &view, nil
}

func (s *reservationService) GetReservation(ctx context.Context, reservationID int64) (*ReservationView, error) {
	rs, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	views, err := s.project(ctx, []domain.Reservation{*rs})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *reservationService) ListReservations(ctx context.Context) ([]ReservationView, error) {
	reservations, err := s.reservationRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, reservations)
}

func (s *reservationService) ListReservationsByUser(ctx context.Context, userID int64) ([]ReservationView, error) {
	reservations, err := s.reservationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, reservations)
}

func (s *reservationService) ListReservationsByStatus(ctx context.Context, status domain.ReservationStatus) ([]ReservationView, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown reservation status %q", domain.ErrInvalidInput, status)
	}
	reservations, err := s.reservationRepo.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, reservations)
}

func (s *reservationService) ListActiveReservations(ctx context.Context) ([]ReservationView, error) {
	return s.ListReservationsByStatus(ctx, domain.ReservationStatusActive)
}

func (s *reservationService) ListOverdueReservations(ctx context.Context) ([]ReservationView, error) {
	reservations, err := s.reservationRepo.ListOverdue(ctx)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, reservations)
}

// project maps reservations to views, looking each user and book up once
func (s *reservationService) project(ctx context.Context, reservations []domain.Reservation) ([]ReservationView, error) {
	users := make(map[int64]*domain.User)
	books := make(map[int64]*domain.Book)

	views := make([]ReservationView, 0, len(reservations))
	for i := range reservations {
		rs := &reservations[i]

		user, ok := users[rs.UserID]
		if !ok {
			u, err := s.userRepo.GetByID(ctx, rs.UserID)
			if err != nil {
				return nil, fmt.Errorf("reservation %d: %w", rs.ID, err)
			}
			users[rs.UserID], user = u, u
		}

		book, ok := books[rs.BookExternalID]
		if !ok {
			b, err := s.bookRepo.GetByExternalID(ctx, rs.BookExternalID)
			if err != nil {
				return nil, fmt.Errorf("reservation %d: %w", rs.ID, err)
			}
			books[rs.BookExternalID], book = b, b
		}

		views = append(views, newReservationView(rs, user, book))
	}
	return views, nil
}
