package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"book-reservation-backend/internal/domain"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockBookRepo
type MockBookRepo struct {
	mock.Mock
}

func (m *MockBookRepo) GetByExternalID(ctx context.Context, externalID int64) (*domain.Book, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}
func (m *MockBookRepo) DecreaseAvailableQuantity(ctx context.Context, externalID int64) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}
func (m *MockBookRepo) IncreaseAvailableQuantity(ctx context.Context, externalID int64) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}

// MockReservationRepo
type MockReservationRepo struct {
	mock.Mock
}

func (m *MockReservationRepo) Create(ctx context.Context, r *domain.Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockReservationRepo) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Hand out a copy, as a real store would
	rs := *args.Get(0).(*domain.Reservation)
	return &rs, args.Error(1)
}
func (m *MockReservationRepo) Update(ctx context.Context, r *domain.Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockReservationRepo) List(ctx context.Context) ([]domain.Reservation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) ListByStatus(ctx context.Context, status domain.ReservationStatus) ([]domain.Reservation, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) ListOverdue(ctx context.Context) ([]domain.Reservation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

// passthroughTx runs the unit of work directly and counts invocations
type passthroughTx struct {
	calls int
}

func (p *passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}
