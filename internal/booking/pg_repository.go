package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/clinichq/clinic-booking/internal/db"
)

type PgRepository struct {
	db db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{db: q}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var reason, notes *string

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.ScheduledAt,
		&a.Status,
		&reason,
		&notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Reason = reason
	a.Notes = notes
	return &a, nil
}

func (r *PgRepository) CreatePending(ctx context.Context, appt *Appointment) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (doctor_id, patient_id, appointment_datetime, status, reason, notes, created_at, updated_at)
		VALUES ($1, $2, $3, 'pending', $4, $5, now(), now())
		RETURNING id, doctor_id, patient_id, appointment_datetime, status, reason, notes, created_at, updated_at
	`, appt.DoctorID, appt.PatientID, appt.ScheduledAt, appt.Reason, appt.Notes)
	return scanAppointment(row)
}

func (r *PgRepository) GetOwnedByDoctor(ctx context.Context, id, doctorID int64) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, doctor_id, patient_id, appointment_datetime, status, reason, notes, created_at, updated_at
		FROM appointments
		WHERE id = $1 AND doctor_id = $2
	`, id, doctorID)
	return scanAppointment(row)
}

func (r *PgRepository) GetOwnedByPatient(ctx context.Context, id, patientID int64) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, doctor_id, patient_id, appointment_datetime, status, reason, notes, created_at, updated_at
		FROM appointments
		WHERE id = $1 AND patient_id = $2
	`, id, patientID)
	return scanAppointment(row)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]Appointment, error) {
	return r.list(ctx, `
		SELECT id, doctor_id, patient_id, appointment_datetime, status, reason, notes, created_at, updated_at
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY appointment_datetime
	`, doctorID)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID int64) ([]Appointment, error) {
	return r.list(ctx, `
		SELECT id, doctor_id, patient_id, appointment_datetime, status, reason, notes, created_at, updated_at
		FROM appointments
		WHERE patient_id = $1
		ORDER BY appointment_datetime
	`, patientID)
}

func (r *PgRepository) list(ctx context.Context, sql string, arg any) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) SetStatus(ctx context.Context, id int64, status Status) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, doctor_id, patient_id, appointment_datetime, status, reason, notes, created_at, updated_at
	`, id, status)
	return scanAppointment(row)
}

func (r *PgRepository) Reschedule(ctx context.Context, id int64, newTime time.Time) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET appointment_datetime = $2,
		    status = 'rescheduled',
		    updated_at = now()
		WHERE id = $1
		RETURNING id, doctor_id, patient_id, appointment_datetime, status, reason, notes, created_at, updated_at
	`, id, newTime)
	return scanAppointment(row)
}

func (r *PgRepository) HasBlockingAppointment(ctx context.Context, doctorID int64, from, to time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE doctor_id = $1
			  AND appointment_datetime >= $2
			  AND appointment_datetime < $3
			  AND status IN ('pending', 'confirmed')
		)
	`, doctorID, from, to).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev BookingEvent) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO booking_events (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	return err
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
