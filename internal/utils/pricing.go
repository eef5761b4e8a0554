package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the yyyy-mm-dd layout used for every calendar date
const DateLayout = "2006-01-02"

// MonetaryScale is the number of fractional digits kept on every amount
const MonetaryScale = 2

// LateFeeRate is the share of the book price charged per day late
var LateFeeRate = decimal.RequireFromString("0.15")

// Round2 rounds an amount to two fractional digits, half away from zero.
// Amounts in this package are never negative, so this is half-up.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MonetaryScale)
}

// RentalFee returns the charge for renting at dailyRate for rentalDays
func RentalFee(dailyRate decimal.Decimal, rentalDays int) decimal.Decimal {
	return Round2(dailyRate.Mul(decimal.NewFromInt(int64(rentalDays))))
}

// LateFee returns the penalty for returning a book daysLate days after the
// expected date. daysLate must be positive; callers branch before calling.
func LateFee(bookPrice decimal.Decimal, daysLate int) decimal.Decimal {
	if daysLate <= 0 {
		panic(fmt.Sprintf("utils.LateFee: daysLate must be positive, got %d", daysLate))
	}
	return Round2(bookPrice.Mul(LateFeeRate).Mul(decimal.NewFromInt(int64(daysLate))))
}

// ParseDate converts a yyyy-mm-dd formatted string into a calendar date
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd: %w", err)
	}
	return t, nil
}

// FormatDate renders a calendar date as yyyy-mm-dd
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ToDate drops the clock part of t, keeping its calendar day in UTC
func ToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays moves a calendar date by n days
func AddDays(date time.Time, n int) time.Time {
	return ToDate(date).AddDate(0, 0, n)
}

// DaysBetween returns the number of whole calendar days from "from" to "to".
// The result is negative when to is before from.
func DaysBetween(from, to time.Time) int {
	// Both sides are UTC midnights, so the hour count is always a multiple of 24
	return int(ToDate(to).Sub(ToDate(from)).Hours() / 24)
}
