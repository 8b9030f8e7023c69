package schedule

import (
	"errors"
	"time"
)

var (
	ErrInvalidWeekday = errors.New("day_of_week must be a calendar weekday name")
	ErrInvalidTime    = errors.New("time must be HH:MM or HH:MM:SS in 24h format")
	ErrInvalidWindow  = errors.New("end_time must be after start_time")
)

// timeOfDayLayout is the canonical fixed-width 24h form. Fixed width means
// lexicographic comparison orders times correctly, in Go and in SQL.
const timeOfDayLayout = "15:04:05"

// Availability is a recurring weekly window during which a doctor
// accepts bookings. Times are canonical "HH:MM:SS" strings.
type Availability struct {
	ID        int64
	DoctorID  int64
	DayOfWeek string
	StartTime string
	EndTime   string
	IsActive  bool
}

// AvailabilityPatch carries the optional fields of a partial window update.
type AvailabilityPatch struct {
	DayOfWeek *string
	StartTime *string
	EndTime   *string
	IsActive  *bool
}

func (p AvailabilityPatch) Apply(a *Availability) {
	if p.DayOfWeek != nil {
		a.DayOfWeek = *p.DayOfWeek
	}
	if p.StartTime != nil {
		a.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		a.EndTime = *p.EndTime
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
}

// ValidWeekday reports whether the name matches one of the seven
// English weekday names produced by time.Weekday.String.
func ValidWeekday(name string) bool {
	switch name {
	case "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday":
		return true
	}
	return false
}

// NormalizeTimeOfDay parses "HH:MM" or "HH:MM:SS" and returns the
// canonical "HH:MM:SS" form.
func NormalizeTimeOfDay(s string) (string, error) {
	if t, err := time.Parse(timeOfDayLayout, s); err == nil {
		return t.Format(timeOfDayLayout), nil
	}
	if t, err := time.Parse("15:04", s); err == nil {
		return t.Format(timeOfDayLayout), nil
	}
	return "", ErrInvalidTime
}

// TimeOfDay renders the clock portion of t in the canonical form used
// for window comparisons.
func TimeOfDay(t time.Time) string {
	return t.Format(timeOfDayLayout)
}

// Validate normalizes the window in place and checks its invariants.
func (a *Availability) Validate() error {
	if !ValidWeekday(a.DayOfWeek) {
		return ErrInvalidWeekday
	}

	start, err := NormalizeTimeOfDay(a.StartTime)
	if err != nil {
		return err
	}
	end, err := NormalizeTimeOfDay(a.EndTime)
	if err != nil {
		return err
	}

	if end <= start {
		return ErrInvalidWindow
	}

	a.StartTime = start
	a.EndTime = end
	return nil
}
