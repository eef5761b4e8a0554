package jobs

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"book-reservation-backend/internal/domain"
	"book-reservation-backend/internal/logger"
	"book-reservation-backend/internal/utils"
)

// AccrualEntry is one active reservation already past its expected return
// date
type AccrualEntry struct {
	ReservationID  int64
	UserID         int64
	BookExternalID int64
	DaysLate       int
	LateFee        decimal.Decimal
}

// AccrualReport lists the late fees active reservations would be charged if
// their books came back on AsOf
type AccrualReport struct {
	AsOf    time.Time
	Entries []AccrualEntry
	Total   decimal.Decimal
}

// ReportAccruingLateFees logs the late fees accruing on active reservations.
// It never changes a reservation.
func (jr *JobRunner) ReportAccruingLateFees() {
	jr.runWithRecovery("ReportAccruingLateFees", func() {
		report, err := jr.BuildAccrualReport(context.Background(), jr.now())
		if err != nil {
			logger.Error("Failed to build late fee accrual report", "error", err)
			return
		}

		for _, e := range report.Entries {
			logger.Debug("Late fee accruing",
				"reservation_id", e.ReservationID,
				"user_id", e.UserID,
				"book_external_id", e.BookExternalID,
				"days_late", e.DaysLate,
				"late_fee", e.LateFee.StringFixed(utils.MonetaryScale))
		}
		logger.Info("Late fee accrual report",
			"as_of", utils.FormatDate(report.AsOf),
			"late_reservations", len(report.Entries),
			"total_late_fees", report.Total.StringFixed(utils.MonetaryScale))
	})
}

// BuildAccrualReport computes, for every ACTIVE reservation past its
// expected return date on asOf, the late fee at the book's current price
func (jr *JobRunner) BuildAccrualReport(ctx context.Context, asOf time.Time) (*AccrualReport, error) {
	asOf = utils.ToDate(asOf)
	active, err := jr.reservations.ListByStatus(ctx, domain.ReservationStatusActive)
	if err != nil {
		return nil, err
	}

	report := &AccrualReport{AsOf: asOf, Total: utils.Round2(decimal.Zero)}
	prices := make(map[int64]decimal.Decimal)
	for _, rs := range active {
		daysLate := rs.DaysLate(asOf)
		if daysLate <= 0 {
			continue
		}

		price, ok := prices[rs.BookExternalID]
		if !ok {
			book, err := jr.books.GetByExternalID(ctx, rs.BookExternalID)
			if err != nil {
				logger.Warn("Skipping reservation with unknown book",
					"reservation_id", rs.ID, "book_external_id", rs.BookExternalID, "error", err)
				continue
			}
			price = book.Price
			prices[rs.BookExternalID] = price
		}

		fee := utils.LateFee(price, daysLate)
		report.Entries = append(report.Entries, AccrualEntry{
			ReservationID:  rs.ID,
			UserID:         rs.UserID,
			BookExternalID: rs.BookExternalID,
			DaysLate:       daysLate,
			LateFee:        fee,
		})
		report.Total = utils.Round2(report.Total.Add(fee))
	}
	return report, nil
}
