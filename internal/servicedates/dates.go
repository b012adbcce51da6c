package servicedates

import (
	"fmt"
	"strings"
	"time"
)

const (
	// Window is the service time shown alongside each date.
	Window = "8am-2pm"

	LongLayout     = "Monday, January 2, 2006"
	DayMonthLayout = "Jan 2"

	DefaultCount = 3
)

// ServiceDate is one selectable collection day.
type ServiceDate struct {
	ID        int       `json:"id"`
	Date      time.Time `json:"date"`
	ISO       string    `json:"iso"`
	Formatted string    `json:"formatted"`
	DayMonth  string    `json:"dayMonth"`
}

// NextMondays lists n consecutive Mondays in loc, starting with the first
// Monday strictly after today.
func NextMondays(now time.Time, n int, loc *time.Location) []ServiceDate {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	days := (int(time.Monday) - int(today.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	first := today.AddDate(0, 0, days)

	out := make([]ServiceDate, 0, n)
	for i := 0; i < n; i++ {
		d := first.AddDate(0, 0, 7*i)
		out = append(out, ServiceDate{
			ID:        i + 1,
			Date:      d,
			ISO:       d.Format(time.RFC3339),
			Formatted: d.Format(LongLayout),
			DayMonth:  d.Format(DayMonthLayout),
		})
	}
	return out
}

// Parse accepts an RFC 3339 timestamp or a bare YYYY-MM-DD date, the latter
// interpreted as midnight in loc.
func Parse(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("date %q is not RFC 3339 or YYYY-MM-DD", raw)
}

// Describe derives the display and normalized forms of a service date from
// the same instant.
func Describe(t time.Time, loc *time.Location) (formatted, iso string) {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(LongLayout), t.UTC().Format(time.RFC3339)
}
