package api

import (
	"time"

	"github.com/clinichq/clinic-booking/internal/booking"
	"github.com/clinichq/clinic-booking/internal/clinic"
	"github.com/clinichq/clinic-booking/internal/schedule"
)

// Wire formats. The service runs in a single timezone, so appointment
// date-times travel as zoneless "2006-01-02T15:04:05" strings; RFC 3339
// input is accepted too.
const (
	dateTimeLayout = "2006-01-02T15:04:05"
	dateLayout     = "2006-01-02"
)

func parseDateTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateTimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// Auth

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserType    string `json:"user_type"`
	UserID      int64  `json:"user_id"`
}

// Doctors

type WorkExperienceRequest struct {
	HospitalName string  `json:"hospital_name"`
	Position     string  `json:"position"`
	StartDate    string  `json:"start_date"`
	EndDate      *string `json:"end_date,omitempty"`
	Description  *string `json:"description,omitempty"`
}

type AcademicHistoryRequest struct {
	Institution  string  `json:"institution"`
	Degree       string  `json:"degree"`
	FieldOfStudy string  `json:"field_of_study"`
	StartDate    string  `json:"start_date"`
	EndDate      *string `json:"end_date,omitempty"`
}

type CreateDoctorRequest struct {
	Email             string                   `json:"email"`
	Password          string                   `json:"password"`
	FullName          string                   `json:"full_name"`
	Specialization    string                   `json:"specialization"`
	PhoneNumber       *string                  `json:"phone_number,omitempty"`
	WorkExperiences   []WorkExperienceRequest  `json:"work_experiences,omitempty"`
	AcademicHistories []AcademicHistoryRequest `json:"academic_histories,omitempty"`
}

type UpdateDoctorRequest struct {
	Email          *string `json:"email,omitempty"`
	Password       *string `json:"password,omitempty"`
	FullName       *string `json:"full_name,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
	PhoneNumber    *string `json:"phone_number,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

type WorkExperienceResponse struct {
	ID           int64   `json:"id"`
	HospitalName string  `json:"hospital_name"`
	Position     string  `json:"position"`
	StartDate    string  `json:"start_date"`
	EndDate      *string `json:"end_date,omitempty"`
	Description  *string `json:"description,omitempty"`
}

type AcademicHistoryResponse struct {
	ID           int64   `json:"id"`
	Institution  string  `json:"institution"`
	Degree       string  `json:"degree"`
	FieldOfStudy string  `json:"field_of_study"`
	StartDate    string  `json:"start_date"`
	EndDate      *string `json:"end_date,omitempty"`
}

type DoctorResponse struct {
	ID                int64                     `json:"id"`
	Email             string                    `json:"email"`
	FullName          string                    `json:"full_name"`
	Specialization    string                    `json:"specialization"`
	PhoneNumber       *string                   `json:"phone_number,omitempty"`
	IsActive          bool                      `json:"is_active"`
	WorkExperiences   []WorkExperienceResponse  `json:"work_experiences,omitempty"`
	AcademicHistories []AcademicHistoryResponse `json:"academic_histories,omitempty"`
}

func toDoctorResponse(d clinic.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:             d.ID,
		Email:          d.Email,
		FullName:       d.FullName,
		Specialization: d.Specialization,
		PhoneNumber:    d.PhoneNumber,
		IsActive:       d.IsActive,
	}
}

func toDoctorProfileResponse(p *clinic.DoctorProfile) DoctorResponse {
	resp := toDoctorResponse(p.Doctor)
	for _, exp := range p.WorkExperiences {
		resp.WorkExperiences = append(resp.WorkExperiences, WorkExperienceResponse{
			ID:           exp.ID,
			HospitalName: exp.HospitalName,
			Position:     exp.Position,
			StartDate:    formatDate(exp.StartDate),
			EndDate:      formatDatePtr(exp.EndDate),
			Description:  exp.Description,
		})
	}
	for _, hist := range p.AcademicHistories {
		resp.AcademicHistories = append(resp.AcademicHistories, AcademicHistoryResponse{
			ID:           hist.ID,
			Institution:  hist.Institution,
			Degree:       hist.Degree,
			FieldOfStudy: hist.FieldOfStudy,
			StartDate:    formatDate(hist.StartDate),
			EndDate:      formatDatePtr(hist.EndDate),
		})
	}
	return resp
}

// Patients

type CreatePatientRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FullName    string  `json:"full_name"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Address     *string `json:"address,omitempty"`
}

type UpdatePatientRequest struct {
	Email       *string `json:"email,omitempty"`
	Password    *string `json:"password,omitempty"`
	FullName    *string `json:"full_name,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Address     *string `json:"address,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type PatientResponse struct {
	ID          int64   `json:"id"`
	Email       string  `json:"email"`
	FullName    string  `json:"full_name"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Address     *string `json:"address,omitempty"`
	IsActive    bool    `json:"is_active"`
}

func toPatientResponse(p *clinic.Patient) PatientResponse {
	return PatientResponse{
		ID:          p.ID,
		Email:       p.Email,
		FullName:    p.FullName,
		DateOfBirth: formatDatePtr(p.DateOfBirth),
		PhoneNumber: p.PhoneNumber,
		Address:     p.Address,
		IsActive:    p.IsActive,
	}
}

// Availabilities

type CreateAvailabilityRequest struct {
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type UpdateAvailabilityRequest struct {
	DayOfWeek *string `json:"day_of_week,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

type AvailabilityResponse struct {
	ID        int64  `json:"id"`
	DoctorID  int64  `json:"doctor_id"`
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsActive  bool   `json:"is_active"`
}

func toAvailabilityResponse(a *schedule.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		ID:        a.ID,
		DoctorID:  a.DoctorID,
		DayOfWeek: a.DayOfWeek,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		IsActive:  a.IsActive,
	}
}

// Appointments

type CreateAppointmentRequest struct {
	DoctorID            int64   `json:"doctor_id"`
	AppointmentDatetime string  `json:"appointment_datetime"`
	Reason              *string `json:"reason,omitempty"`
	Notes               *string `json:"notes,omitempty"`
}

type RescheduleAppointmentRequest struct {
	AppointmentDatetime string `json:"appointment_datetime"`
}

type AppointmentResponse struct {
	ID                  int64   `json:"id"`
	DoctorID            int64   `json:"doctor_id"`
	PatientID           int64   `json:"patient_id"`
	AppointmentDatetime string  `json:"appointment_datetime"`
	Status              string  `json:"status"`
	Reason              *string `json:"reason,omitempty"`
	Notes               *string `json:"notes,omitempty"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                  a.ID,
		DoctorID:            a.DoctorID,
		PatientID:           a.PatientID,
		AppointmentDatetime: a.ScheduledAt.Format(dateTimeLayout),
		Status:              string(a.Status),
		Reason:              a.Reason,
		Notes:               a.Notes,
	}
}
