package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-reservation-backend/internal/domain"
	"book-reservation-backend/internal/repository/memory"
	"book-reservation-backend/internal/security"
	"book-reservation-backend/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestStore() *memory.Store {
	store := memory.NewStore()
	store.PutUser(domain.User{ID: 1, Name: "Juan Pérez", Email: "juan@example.com"})
	store.PutBook(domain.Book{
		ExternalID:        258027,
		Title:             "The Lord of the Rings",
		Price:             decimal.RequireFromString("15.99"),
		StockQuantity:     2,
		AvailableQuantity: 1,
	})
	return store
}

func newTestRouter(store *memory.Store, tm security.TokenManager) http.Handler {
	svc := service.NewReservationService(store.Reservations(), store.Books(), store.Users(), store.Transactor())
	return NewRouter(svc, tm)
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestReservationLifecycle(t *testing.T) {
	store := newTestStore()
	router := newTestRouter(store, nil)

	rec := do(t, router, http.MethodPost, "/api/v1/reservations",
		`{"userId":1,"bookExternalId":258027,"rentalDays":7,"startDate":"2024-03-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	created := decode[ReservationResponse](t, rec)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Juan Pérez", created.UserName)
	assert.Equal(t, "The Lord of the Rings", created.BookTitle)
	assert.Equal(t, "2024-03-08", created.ExpectedReturnDate)
	assert.Equal(t, "15.99", created.DailyRate)
	assert.Equal(t, "111.93", created.TotalFee)
	assert.Equal(t, "0.00", created.LateFee)
	assert.Equal(t, "ACTIVE", created.Status)
	assert.Nil(t, created.ActualReturnDate)

	// The only free unit is taken
	rec = do(t, router, http.MethodPost, "/api/v1/reservations",
		`{"userId":1,"bookExternalId":258027,"rentalDays":3,"startDate":"2024-03-01"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/reservations/active", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ReservationResponse](t, rec), 1)

	rec = do(t, router, http.MethodPost, "/api/v1/reservations/1/return", `{"returnDate":"2024-03-11"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	returned := decode[ReservationResponse](t, rec)
	assert.Equal(t, "OVERDUE", returned.Status)
	assert.Equal(t, "7.20", returned.LateFee)
	assert.Equal(t, "119.13", returned.TotalFee)
	require.NotNil(t, returned.ActualReturnDate)
	assert.Equal(t, "2024-03-11", *returned.ActualReturnDate)

	rec = do(t, router, http.MethodPost, "/api/v1/reservations/1/return", `{"returnDate":"2024-03-12"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	book, err := store.Books().GetByExternalID(context.Background(), 258027)
	require.NoError(t, err)
	assert.Equal(t, int32(1), book.AvailableQuantity)

	rec = do(t, router, http.MethodGet, "/api/v1/reservations/overdue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ReservationResponse](t, rec), 1)

	rec = do(t, router, http.MethodGet, "/api/v1/reservations/user/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ReservationResponse](t, rec), 1)

	rec = do(t, router, http.MethodGet, "/api/v1/reservations/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OVERDUE", decode[ReservationResponse](t, rec).Status)

	rec = do(t, router, http.MethodGet, "/api/v1/reservations?status=overdue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ReservationResponse](t, rec), 1)

	rec = do(t, router, http.MethodGet, "/api/v1/reservations?status=ACTIVE", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]ReservationResponse](t, rec))
}

func TestErrorMapping(t *testing.T) {
	router := newTestRouter(newTestStore(), nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"Unknown reservation", http.MethodGet, "/api/v1/reservations/99", "", http.StatusNotFound},
		{"Unknown user", http.MethodPost, "/api/v1/reservations", `{"userId":7,"bookExternalId":258027,"rentalDays":3,"startDate":"2024-03-01"}`, http.StatusNotFound},
		{"Unknown book", http.MethodPost, "/api/v1/reservations", `{"userId":1,"bookExternalId":1,"rentalDays":3,"startDate":"2024-03-01"}`, http.StatusNotFound},
		{"Zero rental days", http.MethodPost, "/api/v1/reservations", `{"userId":1,"bookExternalId":258027,"rentalDays":0,"startDate":"2024-03-01"}`, http.StatusBadRequest},
		{"Bad start date", http.MethodPost, "/api/v1/reservations", `{"userId":1,"bookExternalId":258027,"rentalDays":3,"startDate":"01/03/2024"}`, http.StatusBadRequest},
		{"Malformed body", http.MethodPost, "/api/v1/reservations", `{"userId":`, http.StatusBadRequest},
		{"Unknown field", http.MethodPost, "/api/v1/reservations", `{"user":1}`, http.StatusBadRequest},
		{"Return unknown", http.MethodPost, "/api/v1/reservations/5/return", `{"returnDate":"2024-03-01"}`, http.StatusNotFound},
		{"Unknown status filter", http.MethodGet, "/api/v1/reservations?status=LOST", "", http.StatusBadRequest},
		{"Unknown route", http.MethodGet, "/api/v1/books", "", http.StatusNotFound},
		{"Wrong method", http.MethodDelete, "/api/v1/reservations/1", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[errorResponse](t, rec)
			assert.Equal(t, tt.status, resp.Status)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestReturnBeforeStartDate(t *testing.T) {
	store := newTestStore()
	router := newTestRouter(store, nil)

	rec := do(t, router, http.MethodPost, "/api/v1/reservations",
		`{"userId":1,"bookExternalId":258027,"rentalDays":7,"startDate":"2024-03-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/reservations/1/return", `{"returnDate":"2024-02-28"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rs, err := store.Reservations().GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusActive, rs.Status)
	assert.Nil(t, rs.ActualReturnDate)

	book, err := store.Books().GetByExternalID(context.Background(), 258027)
	require.NoError(t, err)
	assert.Equal(t, int32(0), book.AvailableQuantity)
}

func TestAuthentication(t *testing.T) {
	tm := security.NewTokenManager(testSecret, time.Hour)
	router := newTestRouter(newTestStore(), tm)

	t.Run("Health is public", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Missing token", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/reservations", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Invalid token", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/reservations", "", "Authorization", "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Valid token", func(t *testing.T) {
		token, err := tm.GenerateAccessToken(1, "juan@example.com")
		require.NoError(t, err)

		rec := do(t, router, http.MethodGet, "/api/v1/reservations", "", "Authorization", "Bearer "+token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[[]ReservationResponse](t, rec))
	})

	t.Run("Reservation defaults to the token's user", func(t *testing.T) {
		token, err := tm.GenerateAccessToken(1, "juan@example.com")
		require.NoError(t, err)

		rec := do(t, router, http.MethodPost, "/api/v1/reservations",
			`{"bookExternalId":258027,"rentalDays":2,"startDate":"2024-03-01"}`,
			"Authorization", "Bearer "+token)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		created := decode[ReservationResponse](t, rec)
		assert.Equal(t, int64(1), created.UserID)
		assert.Equal(t, "Juan Pérez", created.UserName)
	})

	t.Run("Request ID is echoed", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/healthz", "", requestIDHeader, "abc-123")
		assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
	})
}
