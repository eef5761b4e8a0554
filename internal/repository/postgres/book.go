package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"book-reservation-backend/internal/domain"
	"book-reservation-backend/internal/logger"
	"book-reservation-backend/internal/repository"
)

type bookRepository struct {
	db *sqlx.DB
}

func NewBookRepository(db *sqlx.DB) repository.BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) GetByExternalID(ctx context.Context, externalID int64) (*domain.Book, error) {
	b := &domain.Book{}
	query := `SELECT external_id, title, price, stock_quantity, available_quantity FROM books WHERE external_id = $1`
	if err := conn(ctx, r.db).GetContext(ctx, b, query, externalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: book with external id %d", domain.ErrNotFound, externalID)
		}
		return nil, errors.Wrapf(err, "get book %d", externalID)
	}
	return b, nil
}

func (r *bookRepository) DecreaseAvailableQuantity(ctx context.Context, externalID int64) error {
	query := `UPDATE books SET available_quantity = available_quantity - 1 WHERE external_id = $1 AND available_quantity > 0`
	logger.DatabaseCall("DecreaseAvailableQuantity", query, "external_id", externalID)

	res, err := conn(ctx, r.db).ExecContext(ctx, query, externalID)
	if err != nil {
		logger.DatabaseResult("DecreaseAvailableQuantity", 0, err)
		return errors.Wrapf(err, "decrease availability of book %d", externalID)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("DecreaseAvailableQuantity", n, err)
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}

	if n == 0 {
		// Either the book does not exist or every unit is out
		if _, err := r.GetByExternalID(ctx, externalID); err != nil {
			return err
		}
		return fmt.Errorf("%w: book %d has no available units", domain.ErrUnavailable, externalID)
	}
	return nil
}

func (r *bookRepository) IncreaseAvailableQuantity(ctx context.Context, externalID int64) error {
	query := `UPDATE books SET available_quantity = available_quantity + 1 WHERE external_id = $1`
	logger.DatabaseCall("IncreaseAvailableQuantity", query, "external_id", externalID)

	res, err := conn(ctx, r.db).ExecContext(ctx, query, externalID)
	if err != nil {
		logger.DatabaseResult("IncreaseAvailableQuantity", 0, err)
		return errors.Wrapf(err, "increase availability of book %d", externalID)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("IncreaseAvailableQuantity", n, err)
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return fmt.Errorf("%w: book with external id %d", domain.ErrNotFound, externalID)
	}
	return nil
}
