package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-reservation-backend/internal/domain"
)

var bookColumns = []string{"external_id", "title", "price", "stock_quantity", "available_quantity"}

func TestBookRepository_GetByExternalID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM books WHERE external_id = \\$1").
			WithArgs(int64(258027)).
			WillReturnRows(sqlmock.NewRows(bookColumns).AddRow(258027, "The Lord of the Rings", "15.99", 10, 5))

		book, err := repo.GetByExternalID(ctx, 258027)
		require.NoError(t, err)
		assert.Equal(t, "The Lord of the Rings", book.Title)
		assert.Equal(t, "15.99", book.Price.StringFixed(2))
		assert.Equal(t, int32(5), book.AvailableQuantity)
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM books").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(bookColumns))

		_, err := repo.GetByExternalID(ctx, 1)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestBookRepository_DecreaseAvailableQuantity(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE books SET available_quantity = available_quantity - 1").
			WithArgs(int64(258027)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.DecreaseAvailableQuantity(ctx, 258027))
	})

	t.Run("No units left", func(t *testing.T) {
		mock.ExpectExec("UPDATE books SET available_quantity = available_quantity - 1").
			WithArgs(int64(258027)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM books").
			WithArgs(int64(258027)).
			WillReturnRows(sqlmock.NewRows(bookColumns).AddRow(258027, "The Lord of the Rings", "15.99", 10, 0))

		err := repo.DecreaseAvailableQuantity(ctx, 258027)
		assert.True(t, errors.Is(err, domain.ErrUnavailable))
	})

	t.Run("Unknown book", func(t *testing.T) {
		mock.ExpectExec("UPDATE books").
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM books").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(bookColumns))

		err := repo.DecreaseAvailableQuantity(ctx, 5)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_IncreaseAvailableQuantity(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE books SET available_quantity = available_quantity \\+ 1").
		WithArgs(int64(258027)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.IncreaseAvailableQuantity(ctx, 258027))

	mock.ExpectExec("UPDATE books").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, errors.Is(repo.IncreaseAvailableQuantity(ctx, 5), domain.ErrNotFound))
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT id, name, email FROM users WHERE id = \\$1").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(1, "Juan Pérez", "juan@example.com"))

	user, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Juan Pérez", user.Name)

	mock.ExpectQuery("SELECT id, name, email FROM users").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}))

	_, err = repo.GetByID(ctx, 2)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestTransactor_WithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		db, mock := newMockDB(t)
		tx := NewTransactor(db)
		books := NewBookRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE books").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			return books.DecreaseAvailableQuantity(ctx, 1)
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rollback on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		tx := NewTransactor(db)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := tx.WithinTx(ctx, func(ctx context.Context) error { return boom })
		assert.Equal(t, boom, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nested call joins outer transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		tx := NewTransactor(db)

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			return tx.WithinTx(ctx, func(ctx context.Context) error { return nil })
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
