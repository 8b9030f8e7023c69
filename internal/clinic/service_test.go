package clinic

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinichq/clinic-booking/internal/auth"
)

type fakeRepo struct {
	doctors     map[int64]*Doctor
	patients    map[int64]*Patient
	experiences []WorkExperience
	histories   []AcademicHistory
	nextID      int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		doctors:  make(map[int64]*Doctor),
		patients: make(map[int64]*Patient),
		nextID:   1,
	}
}

func (f *fakeRepo) id() int64 {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeRepo) CreateDoctor(_ context.Context, d *Doctor) (*Doctor, error) {
	cp := *d
	cp.ID = f.id()
	cp.IsActive = true
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.doctors[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRepo) GetDoctorByID(_ context.Context, id int64) (*Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeRepo) GetDoctorByEmail(_ context.Context, email string) (*Doctor, error) {
	for _, d := range f.doctors {
		if d.Email == email {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (f *fakeRepo) ListDoctors(_ context.Context, limit, offset int) ([]Doctor, error) {
	var out []Doctor
	for id := int64(1); id < f.nextID; id++ {
		if d, ok := f.doctors[id]; ok {
			out = append(out, *d)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) UpdateDoctor(_ context.Context, d *Doctor) (*Doctor, error) {
	if _, ok := f.doctors[d.ID]; !ok {
		return nil, ErrDoctorNotFound
	}
	cp := *d
	cp.UpdatedAt = time.Now()
	f.doctors[d.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRepo) AddWorkExperience(_ context.Context, exp *WorkExperience) (*WorkExperience, error) {
	cp := *exp
	cp.ID = f.id()
	f.experiences = append(f.experiences, cp)
	out := cp
	return &out, nil
}

func (f *fakeRepo) AddAcademicHistory(_ context.Context, hist *AcademicHistory) (*AcademicHistory, error) {
	cp := *hist
	cp.ID = f.id()
	f.histories = append(f.histories, cp)
	out := cp
	return &out, nil
}

func (f *fakeRepo) ListWorkExperience(_ context.Context, doctorID int64) ([]WorkExperience, error) {
	var out []WorkExperience
	for _, exp := range f.experiences {
		if exp.DoctorID == doctorID {
			out = append(out, exp)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAcademicHistory(_ context.Context, doctorID int64) ([]AcademicHistory, error) {
	var out []AcademicHistory
	for _, hist := range f.histories {
		if hist.DoctorID == doctorID {
			out = append(out, hist)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreatePatient(_ context.Context, p *Patient) (*Patient, error) {
	cp := *p
	cp.ID = f.id()
	cp.IsActive = true
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.patients[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRepo) GetPatientByID(_ context.Context, id int64) (*Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) GetPatientByEmail(_ context.Context, email string) (*Patient, error) {
	for _, p := range f.patients {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (f *fakeRepo) UpdatePatient(_ context.Context, p *Patient) (*Patient, error) {
	if _, ok := f.patients[p.ID]; !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	cp.UpdatedAt = time.Now()
	f.patients[p.ID] = &cp
	out := cp
	return &out, nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, zerolog.Nop())
}

func strPtr(s string) *string { return &s }

func TestRegisterDoctorWithCareerRecords(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	end := time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC)
	profile, err := svc.RegisterDoctor(context.Background(), NewDoctor{
		Email:          "gregory@clinic.example",
		Password:       "lupus-is-never-it",
		FullName:       "Gregory House",
		Specialization: "Diagnostics",
		WorkExperiences: []NewWorkExperience{
			{
				HospitalName: "Princeton General",
				Position:     "Attending",
				StartDate:    time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:      &end,
			},
		},
		AcademicHistories: []NewAcademicHistory{
			{
				Institution:  "Johns Hopkins",
				Degree:       "MD",
				FieldOfStudy: "Medicine",
				StartDate:    time.Date(2005, 9, 1, 0, 0, 0, 0, time.UTC),
			},
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, profile.ID)
	assert.True(t, profile.IsActive)
	assert.NotEqual(t, "lupus-is-never-it", profile.HashedPassword)
	require.Len(t, profile.WorkExperiences, 1)
	require.Len(t, profile.AcademicHistories, 1)
	assert.Equal(t, profile.ID, profile.WorkExperiences[0].DoctorID)
}

func TestRegisterDoctorDuplicateEmail(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	in := NewDoctor{Email: "dup@clinic.example", Password: "pw", FullName: "A", Specialization: "GP"}
	_, err := svc.RegisterDoctor(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.RegisterDoctor(context.Background(), in)
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Len(t, repo.doctors, 1)
}

func TestRegisterPatientDuplicateEmail(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	in := NewPatient{Email: "dup@patients.example", Password: "pw", FullName: "B"}
	_, err := svc.RegisterPatient(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.RegisterPatient(context.Background(), in)
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Len(t, repo.patients, 1)
}

func TestAuthenticate(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	doc, err := svc.RegisterDoctor(context.Background(), NewDoctor{
		Email: "doc@clinic.example", Password: "doc-pw", FullName: "Doc", Specialization: "GP",
	})
	require.NoError(t, err)

	pat, err := svc.RegisterPatient(context.Background(), NewPatient{
		Email: "pat@patients.example", Password: "pat-pw", FullName: "Pat",
	})
	require.NoError(t, err)

	id, err := svc.Authenticate(context.Background(), "doc@clinic.example", "doc-pw")
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{Role: auth.RoleDoctor, ID: doc.ID}, id)

	id, err = svc.Authenticate(context.Background(), "pat@patients.example", "pat-pw")
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{Role: auth.RolePatient, ID: pat.ID}, id)

	_, err = svc.Authenticate(context.Background(), "doc@clinic.example", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@clinic.example", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateDoctorAppliesOnlySetFields(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	doc, err := svc.RegisterDoctor(context.Background(), NewDoctor{
		Email: "doc@clinic.example", Password: "pw", FullName: "Before", Specialization: "GP",
		PhoneNumber: strPtr("555-0100"),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateDoctor(context.Background(), doc.ID, DoctorPatch{
		FullName: strPtr("After"),
	})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.FullName)
	assert.Equal(t, "doc@clinic.example", updated.Email)
	assert.Equal(t, "GP", updated.Specialization)
	require.NotNil(t, updated.PhoneNumber)
	assert.Equal(t, "555-0100", *updated.PhoneNumber)
}

func TestUpdateDoctorEmailConflict(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	_, err := svc.RegisterDoctor(context.Background(), NewDoctor{
		Email: "first@clinic.example", Password: "pw", FullName: "First", Specialization: "GP",
	})
	require.NoError(t, err)

	second, err := svc.RegisterDoctor(context.Background(), NewDoctor{
		Email: "second@clinic.example", Password: "pw", FullName: "Second", Specialization: "GP",
	})
	require.NoError(t, err)

	_, err = svc.UpdateDoctor(context.Background(), second.ID, DoctorPatch{
		Email: strPtr("first@clinic.example"),
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdatePatientPasswordRehashed(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	pat, err := svc.RegisterPatient(context.Background(), NewPatient{
		Email: "pat@patients.example", Password: "old-pw", FullName: "Pat",
	})
	require.NoError(t, err)

	_, err = svc.UpdatePatient(context.Background(), pat.ID, PatientPatch{
		Password: strPtr("new-pw"),
	})
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "pat@patients.example", "old-pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	id, err := svc.Authenticate(context.Background(), "pat@patients.example", "new-pw")
	require.NoError(t, err)
	assert.Equal(t, pat.ID, id.ID)
}

func TestGetDoctorHydratesProfile(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	doc, err := svc.RegisterDoctor(context.Background(), NewDoctor{
		Email: "doc@clinic.example", Password: "pw", FullName: "Doc", Specialization: "GP",
	})
	require.NoError(t, err)

	_, err = svc.AddWorkExperience(context.Background(), doc.ID, NewWorkExperience{
		HospitalName: "St Mary", Position: "Resident",
		StartDate: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	profile, err := svc.GetDoctor(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Len(t, profile.WorkExperiences, 1)

	_, err = svc.GetDoctor(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}
