package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"book-reservation-backend/internal/domain"
	"book-reservation-backend/internal/repository"
)

// Store keeps users, books and reservations in process memory.
// This is for demo/testing without a PostgreSQL instance.
type Store struct {
	mu           sync.RWMutex
	txMu         sync.Mutex
	users        map[int64]domain.User
	books        map[int64]domain.Book
	reservations map[int64]domain.Reservation
	nextID       int64
}

// Seed is the YAML layout accepted by LoadSeed
type Seed struct {
	Users []domain.User `yaml:"users"`
	Books []domain.Book `yaml:"books"`
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		users:        make(map[int64]domain.User),
		books:        make(map[int64]domain.Book),
		reservations: make(map[int64]domain.Reservation),
	}
}

// LoadSeed reads users and books from a YAML file into a new store
func LoadSeed(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	s := NewStore()
	for _, u := range seed.Users {
		s.PutUser(u)
	}
	for _, b := range seed.Books {
		if b.AvailableQuantity > b.StockQuantity {
			return nil, fmt.Errorf("book %d: available quantity %d exceeds stock %d", b.ExternalID, b.AvailableQuantity, b.StockQuantity)
		}
		s.PutBook(b)
	}
	return s, nil
}

// PutUser adds or replaces a user
func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// PutBook adds or replaces a book
func (s *Store) PutBook(b domain.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[b.ExternalID] = b
}

// Users, Books, Reservations and Transactor expose the store through the
// repository interfaces.
func (s *Store) Users() repository.UserRepository               { return userRepo{s} }
func (s *Store) Books() repository.BookRepository               { return bookRepo{s} }
func (s *Store) Reservations() repository.ReservationRepository { return reservationRepo{s} }
func (s *Store) Transactor() repository.Transactor              { return transactor{s} }

type transactor struct{ s *Store }

// WithinTx serializes units of work. There is no rollback; callers
// compensate the changes they made when a later step fails.
func (t transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()
	return fn(ctx)
}

type userRepo struct{ s *Store }

func (r userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}
	return &u, nil
}

type bookRepo struct{ s *Store }

func (r bookRepo) GetByExternalID(ctx context.Context, externalID int64) (*domain.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.books[externalID]
	if !ok {
		return nil, fmt.Errorf("%w: book with external id %d", domain.ErrNotFound, externalID)
	}
	return &b, nil
}

func (r bookRepo) DecreaseAvailableQuantity(ctx context.Context, externalID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.books[externalID]
	if !ok {
		return fmt.Errorf("%w: book with external id %d", domain.ErrNotFound, externalID)
	}
	if b.AvailableQuantity <= 0 {
		return fmt.Errorf("%w: book %d has no available units", domain.ErrUnavailable, externalID)
	}
	b.AvailableQuantity--
	r.s.books[externalID] = b
	return nil
}

func (r bookRepo) IncreaseAvailableQuantity(ctx context.Context, externalID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.books[externalID]
	if !ok {
		return fmt.Errorf("%w: book with external id %d", domain.ErrNotFound, externalID)
	}
	b.AvailableQuantity++
	r.s.books[externalID] = b
	return nil
}

type reservationRepo struct{ s *Store }

func (r reservationRepo) Create(ctx context.Context, rs *domain.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextID++
	rs.ID = r.s.nextID
	r.s.reservations[rs.ID] = copyReservation(*rs)
	return nil
}

func (r reservationRepo) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rs, ok := r.s.reservations[id]
	if !ok {
		return nil, fmt.Errorf("%w: reservation %d", domain.ErrNotFound, id)
	}
	out := copyReservation(rs)
	return &out, nil
}

func (r reservationRepo) Update(ctx context.Context, rs *domain.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.reservations[rs.ID]
	if !ok {
		return fmt.Errorf("%w: reservation %d", domain.ErrNotFound, rs.ID)
	}
	if current.Status.IsTerminal() {
		return fmt.Errorf("%w: reservation %d is %s", domain.ErrInvalidState, rs.ID, current.Status)
	}
	r.s.reservations[rs.ID] = copyReservation(*rs)
	return nil
}

func (r reservationRepo) List(ctx context.Context) ([]domain.Reservation, error) {
	return r.filter(func(domain.Reservation) bool { return true }), nil
}

func (r reservationRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	return r.filter(func(rs domain.Reservation) bool { return rs.UserID == userID }), nil
}

func (r reservationRepo) ListByStatus(ctx context.Context, status domain.ReservationStatus) ([]domain.Reservation, error) {
	return r.filter(func(rs domain.Reservation) bool { return rs.Status == status }), nil
}

func (r reservationRepo) ListOverdue(ctx context.Context) ([]domain.Reservation, error) {
	return r.ListByStatus(ctx, domain.ReservationStatusOverdue)
}

// filter returns matching reservations ordered by ID
func (r reservationRepo) filter(keep func(domain.Reservation) bool) []domain.Reservation {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Reservation, 0, len(r.s.reservations))
	for _, rs := range r.s.reservations {
		if keep(rs) {
			out = append(out, copyReservation(rs))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// copyReservation detaches the optional return date from the caller's copy
func copyReservation(rs domain.Reservation) domain.Reservation {
	if rs.ActualReturnDate != nil {
		d := *rs.ActualReturnDate
		rs.ActualReturnDate = &d
	}
	return rs
}
