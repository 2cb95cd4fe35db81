package pricing

import (
	"math"
	"time"

	"campuspark/internal/clock"
)

// DefaultHourlyRate applies when a lot has no hourly rate configured.
const DefaultHourlyRate = 2.50

const (
	billableStartHour = 7.0  // 7am Eastern
	billableEndHour   = 19.0 // 7pm Eastern
)

// BillableAmount computes the metered charge for a time window.
//
// Weekends (determined by the civil start date) are free. On weekdays only
// the 7am-7pm Eastern portion of the window is billed, at the given hourly
// rate. The same function sizes refunds: the unconsumed portion of a window
// is the original amount minus the billable amount of the elapsed part.
func BillableAmount(start, end time.Time, hourlyRate float64) float64 {
	if hourlyRate <= 0 {
		hourlyRate = DefaultHourlyRate
	}
	if clock.IsWeekend(start) {
		return 0
	}

	startHour := clock.FractionalHour(start)
	endHour := clock.FractionalHour(end)

	billableStart := math.Max(startHour, billableStartHour)
	billableEnd := math.Min(endHour, billableEndHour)
	billableHours := math.Max(0, billableEnd-billableStart)

	return billableHours * hourlyRate
}

// RefundableAmount returns how much of an original charge can be returned
// when the window was consumed only up to elapsedEnd. A refund is issued
// only for the unconsumed portion and never exceeds the original charge;
// zero means no adjustment line should be recorded.
func RefundableAmount(start, elapsedEnd time.Time, hourlyRate, originalAmount float64) float64 {
	consumed := BillableAmount(start, elapsedEnd, hourlyRate)
	if consumed >= originalAmount {
		return 0
	}
	return originalAmount - consumed
}

// Cents converts a dollar amount to integer cents for the payment provider.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
