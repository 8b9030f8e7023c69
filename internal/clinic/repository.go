package clinic

import (
	"context"
	"errors"
)

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrEmailTaken      = errors.New("email already registered")
)

// Repository contains all DB interactions needed by the clinic service.
type Repository interface {
	CreateDoctor(ctx context.Context, d *Doctor) (*Doctor, error)
	GetDoctorByID(ctx context.Context, id int64) (*Doctor, error)
	GetDoctorByEmail(ctx context.Context, email string) (*Doctor, error)
	ListDoctors(ctx context.Context, limit, offset int) ([]Doctor, error)
	UpdateDoctor(ctx context.Context, d *Doctor) (*Doctor, error)

	AddWorkExperience(ctx context.Context, exp *WorkExperience) (*WorkExperience, error)
	AddAcademicHistory(ctx context.Context, hist *AcademicHistory) (*AcademicHistory, error)
	ListWorkExperience(ctx context.Context, doctorID int64) ([]WorkExperience, error)
	ListAcademicHistory(ctx context.Context, doctorID int64) ([]AcademicHistory, error)

	CreatePatient(ctx context.Context, p *Patient) (*Patient, error)
	GetPatientByID(ctx context.Context, id int64) (*Patient, error)
	GetPatientByEmail(ctx context.Context, email string) (*Patient, error)
	UpdatePatient(ctx context.Context, p *Patient) (*Patient, error)
}
