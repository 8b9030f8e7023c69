package schedule

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/clinichq/clinic-booking/internal/db"
)

type PgRepository struct {
	db db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{db: q}
}

func scanAvailability(row pgx.Row) (*Availability, error) {
	var a Availability

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.DayOfWeek,
		&a.StartTime,
		&a.EndTime,
		&a.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAvailabilityNotFound
		}
		return nil, err
	}

	return &a, nil
}

func (r *PgRepository) Create(ctx context.Context, a *Availability) (*Availability, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO availabilities (doctor_id, day_of_week, start_time, end_time, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, doctor_id, day_of_week, start_time, end_time, is_active
	`, a.DoctorID, a.DayOfWeek, a.StartTime, a.EndTime, a.IsActive)
	return scanAvailability(row)
}

func (r *PgRepository) GetOwned(ctx context.Context, id, doctorID int64) (*Availability, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, doctor_id, day_of_week, start_time, end_time, is_active
		FROM availabilities
		WHERE id = $1 AND doctor_id = $2
	`, id, doctorID)
	return scanAvailability(row)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID int64, activeOnly bool) ([]Availability, error) {
	sql := `
		SELECT id, doctor_id, day_of_week, start_time, end_time, is_active
		FROM availabilities
		WHERE doctor_id = $1
		ORDER BY id`
	if activeOnly {
		sql = `
		SELECT id, doctor_id, day_of_week, start_time, end_time, is_active
		FROM availabilities
		WHERE doctor_id = $1 AND is_active = true
		ORDER BY id`
	}

	rows, err := r.db.Query(ctx, sql, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Availability
	for rows.Next() {
		a, err := scanAvailability(rows)
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

func (r *PgRepository) Update(ctx context.Context, a *Availability) (*Availability, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE availabilities
		SET day_of_week = $3,
		    start_time = $4,
		    end_time = $5,
		    is_active = $6
		WHERE id = $1 AND doctor_id = $2
		RETURNING id, doctor_id, day_of_week, start_time, end_time, is_active
	`, a.ID, a.DoctorID, a.DayOfWeek, a.StartTime, a.EndTime, a.IsActive)
	return scanAvailability(row)
}

func (r *PgRepository) Delete(ctx context.Context, id, doctorID int64) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM availabilities
		WHERE id = $1 AND doctor_id = $2
	`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAvailabilityNotFound
	}
	return nil
}

func (r *PgRepository) HasActiveWindow(ctx context.Context, doctorID int64, weekday, timeOfDay string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM availabilities
			WHERE doctor_id = $1
			  AND day_of_week = $2
			  AND start_time <= $3
			  AND end_time >= $3
			  AND is_active = true
		)
	`, doctorID, weekday, timeOfDay).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
