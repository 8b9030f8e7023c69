package clinic

import "time"

type Doctor struct {
	ID             int64
	Email          string
	HashedPassword string
	FullName       string
	Specialization string
	PhoneNumber    *string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Patient struct {
	ID             int64
	Email          string
	HashedPassword string
	FullName       string
	DateOfBirth    *time.Time
	PhoneNumber    *string
	Address        *string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type WorkExperience struct {
	ID           int64
	DoctorID     int64
	HospitalName string
	Position     string
	StartDate    time.Time
	EndDate      *time.Time
	Description  *string
}

type AcademicHistory struct {
	ID           int64
	DoctorID     int64
	Institution  string
	Degree       string
	FieldOfStudy string
	StartDate    time.Time
	EndDate      *time.Time
}

// DoctorProfile is a doctor hydrated with its owned sub-records.
type DoctorProfile struct {
	Doctor
	WorkExperiences   []WorkExperience
	AcademicHistories []AcademicHistory
}

// DoctorPatch carries the optional fields of a partial profile update.
// Fields left nil are untouched.
type DoctorPatch struct {
	Email          *string
	Password       *string
	FullName       *string
	Specialization *string
	PhoneNumber    *string
	IsActive       *bool
}

// Apply copies every set field onto the doctor. Password is not applied
// here; the service hashes it first.
func (p DoctorPatch) Apply(d *Doctor) {
	if p.Email != nil {
		d.Email = *p.Email
	}
	if p.FullName != nil {
		d.FullName = *p.FullName
	}
	if p.Specialization != nil {
		d.Specialization = *p.Specialization
	}
	if p.PhoneNumber != nil {
		d.PhoneNumber = p.PhoneNumber
	}
	if p.IsActive != nil {
		d.IsActive = *p.IsActive
	}
}

// PatientPatch carries the optional fields of a partial profile update.
type PatientPatch struct {
	Email       *string
	Password    *string
	FullName    *string
	DateOfBirth *time.Time
	PhoneNumber *string
	Address     *string
	IsActive    *bool
}

func (p PatientPatch) Apply(pt *Patient) {
	if p.Email != nil {
		pt.Email = *p.Email
	}
	if p.FullName != nil {
		pt.FullName = *p.FullName
	}
	if p.DateOfBirth != nil {
		pt.DateOfBirth = p.DateOfBirth
	}
	if p.PhoneNumber != nil {
		pt.PhoneNumber = p.PhoneNumber
	}
	if p.Address != nil {
		pt.Address = p.Address
	}
	if p.IsActive != nil {
		pt.IsActive = *p.IsActive
	}
}
