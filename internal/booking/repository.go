package booking

import (
	"context"
	"errors"
	"time"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	CreatePending(ctx context.Context, appt *Appointment) (*Appointment, error)

	// Owner-scoped lookups; a miss and a foreign record are indistinguishable.
	GetOwnedByDoctor(ctx context.Context, id, doctorID int64) (*Appointment, error)
	GetOwnedByPatient(ctx context.Context, id, patientID int64) (*Appointment, error)

	ListByDoctor(ctx context.Context, doctorID int64) ([]Appointment, error)
	ListByPatient(ctx context.Context, patientID int64) ([]Appointment, error)

	SetStatus(ctx context.Context, id int64, status Status) (*Appointment, error)
	Reschedule(ctx context.Context, id int64, newTime time.Time) (*Appointment, error)

	// HasBlockingAppointment reports whether a PENDING or CONFIRMED
	// appointment of the doctor starts in [from, to).
	HasBlockingAppointment(ctx context.Context, doctorID int64, from, to time.Time) (bool, error)

	// Event logging
	InsertEvent(ctx context.Context, ev BookingEvent) error
}
