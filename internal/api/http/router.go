package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"book-reservation-backend/internal/security"
	"book-reservation-backend/internal/service"
)

// NewRouter registers the reservation API. Route names double as keys into
// config.EndpointSecurityConfig. A nil token manager disables authentication.
func NewRouter(svc service.ReservationService, tokenManager security.TokenManager) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, r, http.StatusNotFound, "route not found")
	}))
	router.MethodNotAllowedHandler = requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}))

	router.Use(requestIDMiddleware, loggingMiddleware)
	if tokenManager != nil {
		auth := &authMiddleware{tokenManager: tokenManager}
		router.Use(auth.handler)
	}

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet).Name("Health")

	h := NewReservationHandler(svc)
	api := router.PathPrefix("/api/v1/reservations").Subrouter()
	api.HandleFunc("", h.CreateReservation).Methods(http.MethodPost).Name("CreateReservation")
	api.HandleFunc("", h.ListReservations).Methods(http.MethodGet).Name("ListReservations")
	api.HandleFunc("/active", h.ListActiveReservations).Methods(http.MethodGet).Name("ListActiveReservations")
	api.HandleFunc("/overdue", h.ListOverdueReservations).Methods(http.MethodGet).Name("ListOverdueReservations")
	api.HandleFunc("/user/{userId:[0-9]+}", h.ListReservationsByUser).Methods(http.MethodGet).Name("ListReservationsByUser")
	api.HandleFunc("/{id:[0-9]+}", h.GetReservation).Methods(http.MethodGet).Name("GetReservation")
	api.HandleFunc("/{id:[0-9]+}/return", h.ReturnBook).Methods(http.MethodPost).Name("ReturnBook")

	return router
}
