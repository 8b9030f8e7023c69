package clinic

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinichq/clinic-booking/internal/db"
)

type PgRepository struct {
	db db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{db: q}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var phone *string

	err := row.Scan(
		&d.ID,
		&d.Email,
		&d.HashedPassword,
		&d.FullName,
		&d.Specialization,
		&phone,
		&d.IsActive,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.PhoneNumber = phone
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var dob *time.Time
	var phone, address *string

	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.HashedPassword,
		&p.FullName,
		&dob,
		&phone,
		&address,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.DateOfBirth = dob
	p.PhoneNumber = phone
	p.Address = address
	return &p, nil
}

// isUniqueViolation reports whether the error is a Postgres unique
// constraint violation, the backstop behind the service's email check.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Interface methods

func (r *PgRepository) CreateDoctor(ctx context.Context, d *Doctor) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO doctors (email, hashed_password, full_name, specialization, phone_number, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, true, now(), now())
		RETURNING id, email, hashed_password, full_name, specialization, phone_number, is_active, created_at, updated_at
	`, d.Email, d.HashedPassword, d.FullName, d.Specialization, d.PhoneNumber)

	created, err := scanDoctor(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id int64) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, hashed_password, full_name, specialization, phone_number, is_active, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) GetDoctorByEmail(ctx context.Context, email string) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, hashed_password, full_name, specialization, phone_number, is_active, created_at, updated_at
		FROM doctors
		WHERE email = $1
	`, email)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctors(ctx context.Context, limit, offset int) ([]Doctor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, email, hashed_password, full_name, specialization, phone_number, is_active, created_at, updated_at
		FROM doctors
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdateDoctor(ctx context.Context, d *Doctor) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE doctors
		SET email = $2,
		    hashed_password = $3,
		    full_name = $4,
		    specialization = $5,
		    phone_number = $6,
		    is_active = $7,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, email, hashed_password, full_name, specialization, phone_number, is_active, created_at, updated_at
	`, d.ID, d.Email, d.HashedPassword, d.FullName, d.Specialization, d.PhoneNumber, d.IsActive)

	updated, err := scanDoctor(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) AddWorkExperience(ctx context.Context, exp *WorkExperience) (*WorkExperience, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO work_experience (doctor_id, hospital_name, position, start_date, end_date, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, doctor_id, hospital_name, position, start_date, end_date, description
	`, exp.DoctorID, exp.HospitalName, exp.Position, exp.StartDate, exp.EndDate, exp.Description)

	var created WorkExperience
	err := row.Scan(
		&created.ID,
		&created.DoctorID,
		&created.HospitalName,
		&created.Position,
		&created.StartDate,
		&created.EndDate,
		&created.Description,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *PgRepository) AddAcademicHistory(ctx context.Context, hist *AcademicHistory) (*AcademicHistory, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO academic_history (doctor_id, institution, degree, field_of_study, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, doctor_id, institution, degree, field_of_study, start_date, end_date
	`, hist.DoctorID, hist.Institution, hist.Degree, hist.FieldOfStudy, hist.StartDate, hist.EndDate)

	var created AcademicHistory
	err := row.Scan(
		&created.ID,
		&created.DoctorID,
		&created.Institution,
		&created.Degree,
		&created.FieldOfStudy,
		&created.StartDate,
		&created.EndDate,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *PgRepository) ListWorkExperience(ctx context.Context, doctorID int64) ([]WorkExperience, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, doctor_id, hospital_name, position, start_date, end_date, description
		FROM work_experience
		WHERE doctor_id = $1
		ORDER BY start_date
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []WorkExperience
	for rows.Next() {
		var exp WorkExperience
		if err := rows.Scan(&exp.ID, &exp.DoctorID, &exp.HospitalName, &exp.Position, &exp.StartDate, &exp.EndDate, &exp.Description); err != nil {
			return nil, err
		}
		result = append(result, exp)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListAcademicHistory(ctx context.Context, doctorID int64) ([]AcademicHistory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, doctor_id, institution, degree, field_of_study, start_date, end_date
		FROM academic_history
		WHERE doctor_id = $1
		ORDER BY start_date
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AcademicHistory
	for rows.Next() {
		var hist AcademicHistory
		if err := rows.Scan(&hist.ID, &hist.DoctorID, &hist.Institution, &hist.Degree, &hist.FieldOfStudy, &hist.StartDate, &hist.EndDate); err != nil {
			return nil, err
		}
		result = append(result, hist)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO patients (email, hashed_password, full_name, date_of_birth, phone_number, address, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, true, now(), now())
		RETURNING id, email, hashed_password, full_name, date_of_birth, phone_number, address, is_active, created_at, updated_at
	`, p.Email, p.HashedPassword, p.FullName, p.DateOfBirth, p.PhoneNumber, p.Address)

	created, err := scanPatient(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id int64) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, hashed_password, full_name, date_of_birth, phone_number, address, is_active, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetPatientByEmail(ctx context.Context, email string) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, hashed_password, full_name, date_of_birth, phone_number, address, is_active, created_at, updated_at
		FROM patients
		WHERE email = $1
	`, email)
	return scanPatient(row)
}

func (r *PgRepository) UpdatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE patients
		SET email = $2,
		    hashed_password = $3,
		    full_name = $4,
		    date_of_birth = $5,
		    phone_number = $6,
		    address = $7,
		    is_active = $8,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, email, hashed_password, full_name, date_of_birth, phone_number, address, is_active, created_at, updated_at
	`, p.ID, p.Email, p.HashedPassword, p.FullName, p.DateOfBirth, p.PhoneNumber, p.Address, p.IsActive)

	updated, err := scanPatient(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return updated, nil
}
