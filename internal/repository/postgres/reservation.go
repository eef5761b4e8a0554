package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"book-reservation-backend/internal/domain"
	"book-reservation-backend/internal/logger"
	"book-reservation-backend/internal/repository"
	"book-reservation-backend/internal/utils"
)

const reservationsTable = "reservations"

var reservationColumns = []interface{}{
	"id", "user_id", "book_external_id", "rental_days", "start_date", "expected_return_date",
	"actual_return_date", "daily_rate", "total_fee", "late_fee", "status", "created_at",
}

var dialect = goqu.Dialect("postgres")

type reservationRepository struct {
	db *sqlx.DB
}

func NewReservationRepository(db *sqlx.DB) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, rs *domain.Reservation) error {
	logger.EnterMethod("reservationRepository.Create", "userID", rs.UserID, "bookExternalID", rs.BookExternalID)

	query := `INSERT INTO reservations (user_id, book_external_id, rental_days, start_date, expected_return_date, actual_return_date, daily_rate, total_fee, late_fee, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query,
		rs.UserID, rs.BookExternalID, rs.RentalDays, rs.StartDate, rs.ExpectedReturnDate, rs.ActualReturnDate,
		rs.DailyRate, rs.TotalFee, rs.LateFee, rs.Status, rs.CreatedAt,
	).Scan(&rs.ID)
	if err != nil {
		logger.ExitMethodWithError("reservationRepository.Create", err, "userID", rs.UserID)
		return errors.Wrap(err, "insert reservation")
	}

	logger.ExitMethod("reservationRepository.Create", "reservationID", rs.ID)
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	query, args, err := r.selectReservations().Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build reservation query")
	}

	rs := &domain.Reservation{}
	if err := conn(ctx, r.db).GetContext(ctx, rs, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: reservation %d", domain.ErrNotFound, id)
		}
		return nil, errors.Wrapf(err, "get reservation %d", id)
	}
	normalizeDates(rs)
	return rs, nil
}

// Update writes the fields a return may change. Creation-time fields are
// immutable and never rewritten. Only an ACTIVE row is written, so of two
// concurrent returns of the same reservation the second fails with
// domain.ErrInvalidState.
func (r *reservationRepository) Update(ctx context.Context, rs *domain.Reservation) error {
	const method = "reservationRepository.Update"
	logger.EnterMethod(method, "reservationID", rs.ID, "status", rs.Status)

	query := `UPDATE reservations SET actual_return_date=$1, late_fee=$2, total_fee=$3, status=$4 WHERE id=$5 AND status=$6`
	logger.DatabaseCall("UpdateReservation", query, "id", rs.ID)
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		rs.ActualReturnDate, rs.LateFee, rs.TotalFee, rs.Status, rs.ID, domain.ReservationStatusActive)
	if err != nil {
		logger.ExitMethodWithError(method, err, "reservationID", rs.ID)
		return errors.Wrapf(err, "update reservation %d", rs.ID)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("UpdateReservation", n, err)
	if err != nil {
		logger.ExitMethodWithError(method, err, "reservationID", rs.ID)
		return errors.Wrap(err, "rows affected")
	}

	if n == 0 {
		// Either the row is gone or it was already closed
		current, err := r.GetByID(ctx, rs.ID)
		if err == nil {
			err = fmt.Errorf("%w: reservation %d is %s", domain.ErrInvalidState, rs.ID, current.Status)
		}
		logger.ExitMethodWithError(method, err, "reservationID", rs.ID)
		return err
	}

	logger.ExitMethod(method, "reservationID", rs.ID)
	return nil
}

func (r *reservationRepository) List(ctx context.Context) ([]domain.Reservation, error) {
	return r.list(ctx, r.selectReservations())
}

func (r *reservationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	return r.list(ctx, r.selectReservations().Where(goqu.C("user_id").Eq(userID)))
}

func (r *reservationRepository) ListByStatus(ctx context.Context, status domain.ReservationStatus) ([]domain.Reservation, error) {
	return r.list(ctx, r.selectReservations().Where(goqu.C("status").Eq(string(status))))
}

func (r *reservationRepository) ListOverdue(ctx context.Context) ([]domain.Reservation, error) {
	return r.ListByStatus(ctx, domain.ReservationStatusOverdue)
}

func (r *reservationRepository) selectReservations() *goqu.SelectDataset {
	return dialect.From(reservationsTable).
		Select(reservationColumns...).
		Order(goqu.C("id").Asc()).
		Prepared(true)
}

func (r *reservationRepository) list(ctx context.Context, ds *goqu.SelectDataset) ([]domain.Reservation, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build reservation query")
	}

	logger.DatabaseCall("ListReservations", query, "args", args)
	var reservations []domain.Reservation
	err = conn(ctx, r.db).SelectContext(ctx, &reservations, query, args...)
	logger.DatabaseResult("ListReservations", int64(len(reservations)), err)
	if err != nil {
		return nil, errors.Wrap(err, "list reservations")
	}

	for i := range reservations {
		normalizeDates(&reservations[i])
	}
	return reservations, nil
}

// normalizeDates turns DATE columns back into UTC midnights regardless of
// how the driver located them.
func normalizeDates(rs *domain.Reservation) {
	rs.StartDate = utils.ToDate(rs.StartDate)
	rs.ExpectedReturnDate = utils.ToDate(rs.ExpectedReturnDate)
	if rs.ActualReturnDate != nil {
		d := utils.ToDate(*rs.ActualReturnDate)
		rs.ActualReturnDate = &d
	}
}
