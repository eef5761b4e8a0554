package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"book-reservation-backend/internal/utils"
)

type ReservationStatus string

const (
	ReservationStatusActive   ReservationStatus = "ACTIVE"
	ReservationStatusReturned ReservationStatus = "RETURNED"
	ReservationStatusOverdue  ReservationStatus = "OVERDUE"
)

// Valid reports whether s is one of the known statuses
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusActive, ReservationStatusReturned, ReservationStatusOverdue:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusReturned || s == ReservationStatusOverdue
}

// CanTransitionTo is the single transition table of a reservation:
// ACTIVE may become RETURNED or OVERDUE, nothing else moves.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	return s == ReservationStatusActive &&
		(next == ReservationStatusReturned || next == ReservationStatusOverdue)
}

// ParseReservationStatus converts user input into a ReservationStatus
func ParseReservationStatus(v string) (ReservationStatus, error) {
	s := ReservationStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown reservation status %q", ErrInvalidInput, v)
	}
	return s, nil
}

type Reservation struct {
	ID             int64 `json:"id" db:"id"`
	UserID         int64 `json:"user_id" db:"user_id"`
	BookExternalID int64 `json:"book_external_id" db:"book_external_id"`
	RentalDays     int   `json:"rental_days" db:"rental_days"`
	// Calendar dates, always UTC midnight
	StartDate          time.Time  `json:"start_date" db:"start_date"`
	ExpectedReturnDate time.Time  `json:"expected_return_date" db:"expected_return_date"`
	ActualReturnDate   *time.Time `json:"actual_return_date,omitempty" db:"actual_return_date"`
	// DailyRate is a snapshot of the book price taken at creation time.
	DailyRate decimal.Decimal   `json:"daily_rate" db:"daily_rate"`
	TotalFee  decimal.Decimal   `json:"total_fee" db:"total_fee"`
	LateFee   decimal.Decimal   `json:"late_fee" db:"late_fee"`
	Status    ReservationStatus `json:"status" db:"status"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}

// NewReservation builds the creation-time state of a reservation of book by
// userID. The identifier is assigned later by the repository.
func NewReservation(userID int64, book *Book, rentalDays int, startDate, now time.Time) (Reservation, error) {
	if rentalDays <= 0 {
		return Reservation{}, fmt.Errorf("%w: rental days must be positive, got %d", ErrInvalidInput, rentalDays)
	}
	if book == nil {
		return Reservation{}, fmt.Errorf("%w: book is required", ErrInvalidInput)
	}

	start := utils.ToDate(startDate)
	dailyRate := utils.Round2(book.Price)

	return Reservation{
		UserID:             userID,
		BookExternalID:     book.ExternalID,
		RentalDays:         rentalDays,
		StartDate:          start,
		ExpectedReturnDate: utils.AddDays(start, rentalDays),
		DailyRate:          dailyRate,
		TotalFee:           utils.RentalFee(dailyRate, rentalDays),
		LateFee:            utils.Round2(decimal.Zero),
		Status:             ReservationStatusActive,
		CreatedAt:          now,
	}, nil
}

// DaysLate returns how many calendar days past the expected return date
// asOf is. Zero or negative means not late.
func (r Reservation) DaysLate(asOf time.Time) int {
	return utils.DaysBetween(r.ExpectedReturnDate, asOf)
}

// CheckReturnable fails with ErrInvalidState once r has been closed
func (r Reservation) CheckReturnable() error {
	// Both return outcomes leave from the same state
	if !r.Status.CanTransitionTo(ReservationStatusReturned) {
		return fmt.Errorf("%w: reservation %d is %s", ErrInvalidState, r.ID, r.Status)
	}
	return nil
}

// ApplyReturn returns the reservation as it is after the book comes back on
// returnDate. bookPrice is the reference price used for the late fee.
// The receiver is left untouched, so a failed return mutates nothing.
func (r Reservation) ApplyReturn(returnDate time.Time, bookPrice decimal.Decimal) (Reservation, error) {
	if err := r.CheckReturnable(); err != nil {
		return r, err
	}

	returned := utils.ToDate(returnDate)
	if returned.Before(r.StartDate) {
		return r, fmt.Errorf("%w: return date %s precedes start date %s",
			ErrInvalidInput, utils.FormatDate(returned), utils.FormatDate(r.StartDate))
	}

	daysLate := r.DaysLate(returned)
	if daysLate > 0 {
		return r.applyOverdueReturn(returned, utils.LateFee(bookPrice, daysLate)), nil
	}
	return r.applyOnTimeReturn(returned), nil
}

func (r Reservation) applyOnTimeReturn(returned time.Time) Reservation {
	r.ActualReturnDate = &returned
	r.LateFee = utils.Round2(decimal.Zero)
	r.Status = ReservationStatusReturned
	return r
}

func (r Reservation) applyOverdueReturn(returned time.Time, lateFee decimal.Decimal) Reservation {
	r.ActualReturnDate = &returned
	r.LateFee = lateFee
	r.TotalFee = utils.Round2(r.TotalFee.Add(lateFee))
	r.Status = ReservationStatusOverdue
	return r
}
