package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"book-reservation-backend/internal/domain"
)

type ReservationService interface {
	CreateReservation(ctx context.Context, req CreateReservationRequest) (*ReservationView, error)
	ReturnBook(ctx context.Context, reservationID int64, returnDate time.Time) (*ReservationView, error)
	GetReservation(ctx context.Context, reservationID int64) (*ReservationView, error)
	ListReservations(ctx context.Context) ([]ReservationView, error)
	ListReservationsByUser(ctx context.Context, userID int64) ([]ReservationView, error)
	ListReservationsByStatus(ctx context.Context, status domain.ReservationStatus) ([]ReservationView, error)
	ListActiveReservations(ctx context.Context) ([]ReservationView, error)
	ListOverdueReservations(ctx context.Context) ([]ReservationView, error)
}

type CreateReservationRequest struct {
	UserID         int64
	BookExternalID int64
	RentalDays     int
	StartDate      time.Time
}

// ReservationView is the read-only projection of a reservation, with the
// user name and book title denormalized for display
type ReservationView struct {
	ID                 int64
	UserID             int64
	UserName           string
	BookExternalID     int64
	BookTitle          string
	RentalDays         int
	StartDate          time.Time
	ExpectedReturnDate time.Time
	ActualReturnDate   *time.Time
	DailyRate          decimal.Decimal
	TotalFee           decimal.Decimal
	LateFee            decimal.Decimal
	Status             domain.ReservationStatus
	CreatedAt          time.Time
}

func newReservationView(rs *domain.Reservation, user *domain.User, book *domain.Book) ReservationView {
	return ReservationView{
		ID:                 rs.ID,
		UserID:             rs.UserID,
		UserName:           user.Name,
		BookExternalID:     rs.BookExternalID,
		BookTitle:          book.Title,
		RentalDays:         rs.RentalDays,
		StartDate:          rs.StartDate,
		ExpectedReturnDate: rs.ExpectedReturnDate,
		ActualReturnDate:   rs.ActualReturnDate,
		DailyRate:          rs.DailyRate,
		TotalFee:           rs.TotalFee,
		LateFee:            rs.LateFee,
		Status:             rs.Status,
		CreatedAt:          rs.CreatedAt,
	}
}
