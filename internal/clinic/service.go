package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinichq/clinic-booking/internal/auth"
)

var ErrInvalidCredentials = errors.New("incorrect email or password")

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "clinic").Logger(),
	}
}

// NewDoctor is the registration input for a doctor, optionally with
// inline career records.
type NewDoctor struct {
	Email             string
	Password          string
	FullName          string
	Specialization    string
	PhoneNumber       *string
	WorkExperiences   []NewWorkExperience
	AcademicHistories []NewAcademicHistory
}

type NewWorkExperience struct {
	HospitalName string
	Position     string
	StartDate    time.Time
	EndDate      *time.Time
	Description  *string
}

type NewAcademicHistory struct {
	Institution  string
	Degree       string
	FieldOfStudy string
	StartDate    time.Time
	EndDate      *time.Time
}

type NewPatient struct {
	Email       string
	Password    string
	FullName    string
	DateOfBirth *time.Time
	PhoneNumber *string
	Address     *string
}

// RegisterDoctor creates a doctor account. The email must not be in use.
func (s *Service) RegisterDoctor(ctx context.Context, in NewDoctor) (*DoctorProfile, error) {
	if _, err := s.repo.GetDoctorByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrDoctorNotFound) {
		return nil, fmt.Errorf("check doctor email: %w", err)
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.CreateDoctor(ctx, &Doctor{
		Email:          in.Email,
		HashedPassword: hashed,
		FullName:       in.FullName,
		Specialization: in.Specialization,
		PhoneNumber:    in.PhoneNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}

	profile := &DoctorProfile{Doctor: *created}

	for _, exp := range in.WorkExperiences {
		rec, err := s.repo.AddWorkExperience(ctx, &WorkExperience{
			DoctorID:     created.ID,
			HospitalName: exp.HospitalName,
			Position:     exp.Position,
			StartDate:    exp.StartDate,
			EndDate:      exp.EndDate,
			Description:  exp.Description,
		})
		if err != nil {
			return nil, fmt.Errorf("add work experience: %w", err)
		}
		profile.WorkExperiences = append(profile.WorkExperiences, *rec)
	}

	for _, hist := range in.AcademicHistories {
		rec, err := s.repo.AddAcademicHistory(ctx, &AcademicHistory{
			DoctorID:     created.ID,
			Institution:  hist.Institution,
			Degree:       hist.Degree,
			FieldOfStudy: hist.FieldOfStudy,
			StartDate:    hist.StartDate,
			EndDate:      hist.EndDate,
		})
		if err != nil {
			return nil, fmt.Errorf("add academic history: %w", err)
		}
		profile.AcademicHistories = append(profile.AcademicHistories, *rec)
	}

	s.log.Info().Int64("doctor_id", created.ID).Msg("doctor registered")
	return profile, nil
}

// RegisterPatient creates a patient account. The email must not be in use.
func (s *Service) RegisterPatient(ctx context.Context, in NewPatient) (*Patient, error) {
	if _, err := s.repo.GetPatientByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("check patient email: %w", err)
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.CreatePatient(ctx, &Patient{
		Email:          in.Email,
		HashedPassword: hashed,
		FullName:       in.FullName,
		DateOfBirth:    in.DateOfBirth,
		PhoneNumber:    in.PhoneNumber,
		Address:        in.Address,
	})
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	s.log.Info().Int64("patient_id", created.ID).Msg("patient registered")
	return created, nil
}

// Authenticate resolves email+password to a caller identity, trying the
// doctor table first and falling back to patients, as the login endpoint
// accepts either user class.
func (s *Service) Authenticate(ctx context.Context, email, password string) (auth.Identity, error) {
	doctor, err := s.repo.GetDoctorByEmail(ctx, email)
	if err == nil {
		if auth.ComparePassword(doctor.HashedPassword, password) {
			return auth.Identity{Role: auth.RoleDoctor, ID: doctor.ID}, nil
		}
		return auth.Identity{}, ErrInvalidCredentials
	}
	if !errors.Is(err, ErrDoctorNotFound) {
		return auth.Identity{}, fmt.Errorf("load doctor by email: %w", err)
	}

	patient, err := s.repo.GetPatientByEmail(ctx, email)
	if err == nil {
		if auth.ComparePassword(patient.HashedPassword, password) {
			return auth.Identity{Role: auth.RolePatient, ID: patient.ID}, nil
		}
		return auth.Identity{}, ErrInvalidCredentials
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return auth.Identity{}, fmt.Errorf("load patient by email: %w", err)
	}

	return auth.Identity{}, ErrInvalidCredentials
}

func (s *Service) GetDoctor(ctx context.Context, id int64) (*DoctorProfile, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, id)
	if err != nil {
		return nil, err
	}

	experiences, err := s.repo.ListWorkExperience(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list work experience: %w", err)
	}
	histories, err := s.repo.ListAcademicHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list academic history: %w", err)
	}

	return &DoctorProfile{
		Doctor:            *doctor,
		WorkExperiences:   experiences,
		AcademicHistories: histories,
	}, nil
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]Doctor, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListDoctors(ctx, limit, offset)
}

// DoctorExists reports whether the doctor id resolves to a record.
// Satisfies the directory interfaces of the schedule and booking services.
func (s *Service) DoctorExists(ctx context.Context, id int64) (bool, error) {
	_, err := s.repo.GetDoctorByID(ctx, id)
	if errors.Is(err, ErrDoctorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateDoctor applies a partial profile update to the doctor's own record.
// An email change is rejected when the new address is already registered.
func (s *Service) UpdateDoctor(ctx context.Context, id int64, patch DoctorPatch) (*Doctor, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil && *patch.Email != doctor.Email {
		if _, err := s.repo.GetDoctorByEmail(ctx, *patch.Email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, ErrDoctorNotFound) {
			return nil, fmt.Errorf("check doctor email: %w", err)
		}
	}

	if patch.Password != nil {
		hashed, err := auth.HashPassword(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		doctor.HashedPassword = hashed
	}

	patch.Apply(doctor)

	updated, err := s.repo.UpdateDoctor(ctx, doctor)
	if err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	return updated, nil
}

func (s *Service) AddWorkExperience(ctx context.Context, doctorID int64, in NewWorkExperience) (*WorkExperience, error) {
	rec, err := s.repo.AddWorkExperience(ctx, &WorkExperience{
		DoctorID:     doctorID,
		HospitalName: in.HospitalName,
		Position:     in.Position,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Description:  in.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("add work experience: %w", err)
	}
	return rec, nil
}

func (s *Service) AddAcademicHistory(ctx context.Context, doctorID int64, in NewAcademicHistory) (*AcademicHistory, error) {
	rec, err := s.repo.AddAcademicHistory(ctx, &AcademicHistory{
		DoctorID:     doctorID,
		Institution:  in.Institution,
		Degree:       in.Degree,
		FieldOfStudy: in.FieldOfStudy,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
	})
	if err != nil {
		return nil, fmt.Errorf("add academic history: %w", err)
	}
	return rec, nil
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.GetPatientByID(ctx, id)
}

// UpdatePatient applies a partial profile update to the patient's own record.
func (s *Service) UpdatePatient(ctx context.Context, id int64, patch PatientPatch) (*Patient, error) {
	patient, err := s.repo.GetPatientByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil && *patch.Email != patient.Email {
		if _, err := s.repo.GetPatientByEmail(ctx, *patch.Email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, ErrPatientNotFound) {
			return nil, fmt.Errorf("check patient email: %w", err)
		}
	}

	if patch.Password != nil {
		hashed, err := auth.HashPassword(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		patient.HashedPassword = hashed
	}

	patch.Apply(patient)

	updated, err := s.repo.UpdatePatient(ctx, patient)
	if err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return updated, nil
}
