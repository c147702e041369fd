package entities

import "time"

// DateLayout is the civil date format used for keys, logs and reports
const DateLayout = "2006-01-02"

// NoExpiryYear marks an expiry that the source system records as "never expires"
const NoExpiryYear = 2070

const secondsPerDay = 24 * 60 * 60

// Day truncates t to its civil date at UTC midnight
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a civil date
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AddDays adds a whole number of calendar days to a civil date
func AddDays(t time.Time, days int) time.Time {
	return Day(t).AddDate(0, 0, days)
}

// DaysBetween returns to - from in whole calendar days
func DaysBetween(from, to time.Time) int {
	return int((Day(to).Unix() - Day(from).Unix()) / secondsPerDay)
}

// DatePtr returns a pointer to the civil date of t
func DatePtr(t time.Time) *time.Time {
	d := Day(t)
	return &d
}

// FormatDate renders an optional date, empty when absent
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
