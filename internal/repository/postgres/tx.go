package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"book-reservation-backend/internal/logger"
	"book-reservation-backend/internal/repository"
)

type txKey struct{}

// dbtx is the part of *sqlx.DB and *sqlx.Tx the repositories use
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

// conn returns the transaction bound to ctx, or db when there is none
func conn(ctx context.Context, db *sqlx.DB) dbtx {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

type transactor struct {
	db *sqlx.DB
}

func NewTransactor(db *sqlx.DB) repository.Transactor {
	return &transactor{db: db}
}

// WithinTx commits when fn returns nil and rolls back otherwise. A call made
// while a transaction is already bound to ctx joins it.
func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.ErrorContext(ctx, "Failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	return errors.Wrap(tx.Commit(), "commit transaction")
}
