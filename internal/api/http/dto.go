package http

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"book-reservation-backend/internal/service"
	"book-reservation-backend/internal/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type createReservationRequest struct {
	UserID         int64  `json:"userId"`
	BookExternalID int64  `json:"bookExternalId"`
	RentalDays     int    `json:"rentalDays"`
	StartDate      string `json:"startDate"`
}

type returnBookRequest struct {
	ReturnDate string `json:"returnDate"`
}

// ReservationResponse is the wire form of a reservation. Dates are
// yyyy-mm-dd and money always carries two fractional digits.
type ReservationResponse struct {
	ID                 int64   `json:"id"`
	UserID             int64   `json:"userId"`
	UserName           string  `json:"userName"`
	BookExternalID     int64   `json:"bookExternalId"`
	BookTitle          string  `json:"bookTitle"`
	RentalDays         int     `json:"rentalDays"`
	StartDate          string  `json:"startDate"`
	ExpectedReturnDate string  `json:"expectedReturnDate"`
	ActualReturnDate   *string `json:"actualReturnDate"`
	DailyRate          string  `json:"dailyRate"`
	TotalFee           string  `json:"totalFee"`
	LateFee            string  `json:"lateFee"`
	Status             string  `json:"status"`
	CreatedAt          string  `json:"createdAt"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Status    int    `json:"status"`
	RequestID string `json:"requestId,omitempty"`
}

func toReservationResponse(v *service.ReservationView) ReservationResponse {
	resp := ReservationResponse{
		ID:                 v.ID,
		UserID:             v.UserID,
		UserName:           v.UserName,
		BookExternalID:     v.BookExternalID,
		BookTitle:          v.BookTitle,
		RentalDays:         v.RentalDays,
		StartDate:          utils.FormatDate(v.StartDate),
		ExpectedReturnDate: utils.FormatDate(v.ExpectedReturnDate),
		DailyRate:          v.DailyRate.StringFixed(utils.MonetaryScale),
		TotalFee:           v.TotalFee.StringFixed(utils.MonetaryScale),
		LateFee:            v.LateFee.StringFixed(utils.MonetaryScale),
		Status:             string(v.Status),
		CreatedAt:          v.CreatedAt.UTC().Format(time.RFC3339),
	}
	if v.ActualReturnDate != nil {
		d := utils.FormatDate(*v.ActualReturnDate)
		resp.ActualReturnDate = &d
	}
	return resp
}

func toReservationResponses(views []service.ReservationView) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(views))
	for i := range views {
		out = append(out, toReservationResponse(&views[i]))
	}
	return out
}
