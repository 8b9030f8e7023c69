package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinichq/clinic-booking/internal/observability/metrics"
	redisclient "github.com/clinichq/clinic-booking/internal/redis"
)

const (
	EventAppointmentCreated     = "APPOINTMENT_CREATED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
)

var (
	ErrDoctorNotFound   = errors.New("doctor not found")
	ErrSlotUnavailable  = errors.New("doctor is not available at this time")
	ErrSlotBeingBooked  = errors.New("slot is currently being booked, please retry")
	ErrAlreadyCancelled = errors.New("appointment is already cancelled")
	ErrNotReschedulable = errors.New("appointment can no longer be rescheduled")
)

// DoctorDirectory answers whether a doctor id exists. Implemented by the
// clinic service.
type DoctorDirectory interface {
	DoctorExists(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	repo    Repository
	checker *Checker
	doctors DoctorDirectory
	locker  redisclient.Locker
	metrics *metrics.BookingMetrics
	log     zerolog.Logger
}

func NewService(repo Repository, checker *Checker, doctors DoctorDirectory, locker redisclient.Locker, m *metrics.BookingMetrics, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		checker: checker,
		doctors: doctors,
		locker:  locker,
		metrics: m,
		log:     log.With().Str("component", "booking").Logger(),
	}
}

// NewAppointment is the patient-side creation input.
type NewAppointment struct {
	DoctorID    int64
	ScheduledAt time.Time
	Reason      *string
	Notes       *string
}

// Create books a pending appointment for the patient. The conflict check
// and insert run under a per-(doctor,slot) lock so that two concurrent
// requests for the same open slot cannot both be inserted.
func (s *Service) Create(ctx context.Context, patientID int64, in NewAppointment) (*Appointment, error) {
	exists, err := s.doctors.DoctorExists(ctx, in.DoctorID)
	if err != nil {
		s.observe("create", "error")
		return nil, fmt.Errorf("check doctor: %w", err)
	}
	if !exists {
		s.observe("create", "not_found")
		return nil, ErrDoctorNotFound
	}

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, in.DoctorID, in.ScheduledAt, func(lockCtx context.Context) error {
		bookable, err := s.checker.IsBookable(lockCtx, in.DoctorID, in.ScheduledAt)
		if err != nil {
			return err
		}
		if !bookable {
			return ErrSlotUnavailable
		}

		appt, err := s.repo.CreatePending(lockCtx, &Appointment{
			DoctorID:    in.DoctorID,
			PatientID:   patientID,
			ScheduledAt: in.ScheduledAt,
			Reason:      in.Reason,
			Notes:       in.Notes,
		})
		if err != nil {
			return fmt.Errorf("create pending appointment: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentCreated, map[string]any{
			"doctor_id":    in.DoctorID,
			"patient_id":   patientID,
			"scheduled_at": in.ScheduledAt,
		})
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			s.observe("create", "contended")
			return nil, ErrSlotBeingBooked
		case errors.Is(err, ErrSlotUnavailable):
			s.observe("create", "conflict")
			return nil, err
		default:
			s.observe("create", "error")
			return nil, err
		}
	}

	s.observe("create", "success")
	s.log.Info().
		Int64("appointment_id", created.ID).
		Int64("doctor_id", created.DoctorID).
		Int64("patient_id", created.PatientID).
		Time("scheduled_at", created.ScheduledAt).
		Msg("appointment created")
	return created, nil
}

// Cancel sets an appointment owned by the doctor to CANCELLED. Only an
// already-cancelled appointment is rejected; a completed one can still be
// cancelled, matching the service's original contract.
func (s *Service) Cancel(ctx context.Context, doctorID, appointmentID int64) (*Appointment, error) {
	appt, err := s.repo.GetOwnedByDoctor(ctx, appointmentID, doctorID)
	if err != nil {
		s.observe("cancel", "not_found")
		return nil, err
	}

	if appt.Status == StatusCancelled {
		s.observe("cancel", "invalid_state")
		return nil, ErrAlreadyCancelled
	}

	updated, err := s.repo.SetStatus(ctx, appt.ID, StatusCancelled)
	if err != nil {
		s.observe("cancel", "error")
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{
		"doctor_id":       doctorID,
		"previous_status": appt.Status,
	})

	s.observe("cancel", "success")
	s.log.Info().Int64("appointment_id", updated.ID).Msg("appointment cancelled")
	return updated, nil
}

// Reschedule moves an appointment owned by the patient to a new date-time,
// re-running the conflict check against the doctor's schedule. On success
// the status becomes RESCHEDULED (not PENDING). The original record is
// untouched when the new slot is unavailable.
func (s *Service) Reschedule(ctx context.Context, patientID, appointmentID int64, newTime time.Time) (*Appointment, error) {
	appt, err := s.repo.GetOwnedByPatient(ctx, appointmentID, patientID)
	if err != nil {
		s.observe("reschedule", "not_found")
		return nil, err
	}

	if !appt.Status.Reschedulable() {
		s.observe("reschedule", "invalid_state")
		return nil, ErrNotReschedulable
	}

	var updated *Appointment

	err = s.locker.WithSlotLock(ctx, appt.DoctorID, newTime, func(lockCtx context.Context) error {
		bookable, err := s.checker.IsBookable(lockCtx, appt.DoctorID, newTime)
		if err != nil {
			return err
		}
		if !bookable {
			return ErrSlotUnavailable
		}

		moved, err := s.repo.Reschedule(lockCtx, appt.ID, newTime)
		if err != nil {
			return fmt.Errorf("reschedule appointment: %w", err)
		}

		updated = moved

		s.logEvent(lockCtx, moved.ID, EventAppointmentRescheduled, map[string]any{
			"patient_id": patientID,
			"from":       appt.ScheduledAt,
			"to":         newTime,
		})
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			s.observe("reschedule", "contended")
			return nil, ErrSlotBeingBooked
		case errors.Is(err, ErrSlotUnavailable):
			s.observe("reschedule", "conflict")
			return nil, err
		default:
			s.observe("reschedule", "error")
			return nil, err
		}
	}

	s.observe("reschedule", "success")
	s.log.Info().
		Int64("appointment_id", updated.ID).
		Time("scheduled_at", updated.ScheduledAt).
		Msg("appointment rescheduled")
	return updated, nil
}

// ListForDoctor returns all appointments belonging to the doctor.
func (s *Service) ListForDoctor(ctx context.Context, doctorID int64) ([]Appointment, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

// ListForPatient returns all appointments belonging to the patient.
func (s *Service) ListForPatient(ctx context.Context, patientID int64) ([]Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) observe(operation, outcome string) {
	s.metrics.ObserveOperation(operation, outcome)
}

func (s *Service) logEvent(ctx context.Context, appointmentID int64, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event_type", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := BookingEvent{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("event_type", eventType).
			Int64("appointment_id", appointmentID).
			Msg("insert booking event")
	}
}
