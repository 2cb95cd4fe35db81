package clock

import "time"

// Clock supplies the current instant. Services take a Clock instead of
// calling time.Now directly so tests can pin arbitrary instants.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

var eastern *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60) // fallback EST
	}
	eastern = loc
}

// Eastern returns the campus timezone. All billing-window and expiration
// rules are defined in US Eastern civil time, not UTC.
func Eastern() *time.Location {
	return eastern
}

// ToCivil converts an absolute instant to its Eastern wall-clock
// representation, following IANA daylight-saving rules.
func ToCivil(t time.Time) time.Time {
	return t.In(eastern)
}

// FractionalHour returns the civil hour-of-day with minutes as a fraction,
// e.g. 09:30 -> 9.5.
func FractionalHour(t time.Time) float64 {
	civil := ToCivil(t)
	return float64(civil.Hour()) + float64(civil.Minute())/60.0
}

// StartOfDay returns midnight Eastern of the instant's civil date.
func StartOfDay(t time.Time) time.Time {
	civil := ToCivil(t)
	return time.Date(civil.Year(), civil.Month(), civil.Day(), 0, 0, 0, 0, eastern)
}

// IsAfterHour reports whether the instant's civil time is at or past the
// given hour of day.
func IsAfterHour(t time.Time, hour int) bool {
	return ToCivil(t).Hour() >= hour
}

// IsWeekend reports whether the instant's civil date falls on Saturday or
// Sunday.
func IsWeekend(t time.Time) bool {
	day := ToCivil(t).Weekday()
	return day == time.Saturday || day == time.Sunday
}
