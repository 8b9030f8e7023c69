package schedule

import (
	"context"
	"errors"
)

var ErrAvailabilityNotFound = errors.New("availability not found")

// Repository contains all DB interactions needed by the schedule service
// and the booking conflict checker.
type Repository interface {
	Create(ctx context.Context, a *Availability) (*Availability, error)
	GetOwned(ctx context.Context, id, doctorID int64) (*Availability, error)
	ListByDoctor(ctx context.Context, doctorID int64, activeOnly bool) ([]Availability, error)
	Update(ctx context.Context, a *Availability) (*Availability, error)
	Delete(ctx context.Context, id, doctorID int64) error

	// HasActiveWindow reports whether an active window of the doctor covers
	// the weekday and time of day, bounds inclusive.
	HasActiveWindow(ctx context.Context, doctorID int64, weekday, timeOfDay string) (bool, error)
}
