package booking

import "time"

type Status string

const (
	StatusPending     Status = "pending"
	StatusConfirmed   Status = "confirmed"
	StatusCancelled   Status = "cancelled"
	StatusCompleted   Status = "completed"
	StatusRescheduled Status = "rescheduled"
)

// SlotDuration is the fixed appointment length. Not configurable per
// doctor or per appointment type.
const SlotDuration = 30 * time.Minute

type Appointment struct {
	ID          int64
	DoctorID    int64
	PatientID   int64
	ScheduledAt time.Time
	Status      Status
	Reason      *string
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Blocks reports whether an appointment in this status occupies its slot
// for conflict purposes.
func (s Status) Blocks() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Reschedulable reports whether the appointment may still be moved.
// CANCELLED and COMPLETED are terminal for rescheduling.
func (s Status) Reschedulable() bool {
	return s != StatusCancelled && s != StatusCompleted
}

type BookingEvent struct {
	ID            int64
	EventType     string
	AppointmentID *int64
	Payload       []byte
	CreatedAt     time.Time
}
