package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/clinichq/clinic-booking/internal/schedule"
)

// WindowFinder is the slice of the schedule repository the checker needs.
type WindowFinder interface {
	HasActiveWindow(ctx context.Context, doctorID int64, weekday, timeOfDay string) (bool, error)
}

// ConflictFinder is the slice of the booking repository the checker needs.
type ConflictFinder interface {
	HasBlockingAppointment(ctx context.Context, doctorID int64, from, to time.Time) (bool, error)
}

// Checker decides whether a candidate date-time is bookable for a doctor.
type Checker struct {
	windows      WindowFinder
	appointments ConflictFinder
}

func NewChecker(windows WindowFinder, appointments ConflictFinder) *Checker {
	return &Checker{
		windows:      windows,
		appointments: appointments,
	}
}

// IsBookable cross-references the doctor's weekly windows and existing
// appointments:
//
//  1. An active window for the candidate's weekday must contain its
//     time of day, bounds inclusive.
//  2. No pending or confirmed appointment of the doctor may start in
//     [candidate, candidate+30m).
//
// The collision scan looks forward only: an appointment that started
// before the candidate and is still running at the candidate time is not
// detected. That asymmetry is part of the service's documented contract.
func (c *Checker) IsBookable(ctx context.Context, doctorID int64, at time.Time) (bool, error) {
	weekday := at.Weekday().String()
	timeOfDay := schedule.TimeOfDay(at)

	open, err := c.windows.HasActiveWindow(ctx, doctorID, weekday, timeOfDay)
	if err != nil {
		return false, fmt.Errorf("check availability window: %w", err)
	}
	if !open {
		return false, nil
	}

	taken, err := c.appointments.HasBlockingAppointment(ctx, doctorID, at, at.Add(SlotDuration))
	if err != nil {
		return false, fmt.Errorf("check appointment collision: %w", err)
	}
	if taken {
		return false, nil
	}

	return true, nil
}
