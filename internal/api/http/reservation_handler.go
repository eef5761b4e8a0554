package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"book-reservation-backend/internal/domain"
	"book-reservation-backend/internal/service"
	"book-reservation-backend/internal/utils"
)

// ReservationHandler serves the reservation endpoints
type ReservationHandler struct {
	svc service.ReservationService
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(svc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

// CreateReservation handles POST /api/v1/reservations
func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var body createReservationRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	startDate, err := utils.ParseDate(body.StartDate)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: startDate: %v", domain.ErrInvalidInput, err))
		return
	}

	// The caller reserves for themselves unless the body names a user
	userID := body.UserID
	if userID == 0 {
		if id, ok := UserIDFromContext(r.Context()); ok {
			userID = id
		}
	}

	view, err := h.svc.CreateReservation(r.Context(), service.CreateReservationRequest{
		UserID:         userID,
		BookExternalID: body.BookExternalID,
		RentalDays:     body.RentalDays,
		StartDate:      startDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationResponse(view))
}

// ReturnBook handles POST /api/v1/reservations/{id}/return
func (h *ReservationHandler) ReturnBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body returnBookRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	returnDate, err := utils.ParseDate(body.ReturnDate)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: returnDate: %v", domain.ErrInvalidInput, err))
		return
	}

	view, err := h.svc.ReturnBook(r.Context(), id, returnDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(view))
}

// GetReservation handles GET /api/v1/reservations/{id}
func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.svc.GetReservation(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(view))
}

// ListReservations handles GET /api/v1/reservations with an optional
// ?status= filter
func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		h.writeList(w, r)(h.svc.ListReservations(r.Context()))
		return
	}
	status, err := domain.ParseReservationStatus(strings.ToUpper(raw))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeList(w, r)(h.svc.ListReservationsByStatus(r.Context(), status))
}

func (h *ReservationHandler) ListReservationsByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeList(w, r)(h.svc.ListReservationsByUser(r.Context(), userID))
}

func (h *ReservationHandler) ListActiveReservations(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r)(h.svc.ListActiveReservations(r.Context()))
}

func (h *ReservationHandler) ListOverdueReservations(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r)(h.svc.ListOverdueReservations(r.Context()))
}

func (h *ReservationHandler) writeList(w http.ResponseWriter, r *http.Request) func([]service.ReservationView, error) {
	return func(views []service.ReservationView, err error) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toReservationResponses(views))
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", domain.ErrInvalidInput, name, raw)
	}
	return id, nil
}
