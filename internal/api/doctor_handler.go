package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/clinichq/clinic-booking/internal/clinic"
)

type DoctorHandler struct {
	clinic *clinic.Service
	log    zerolog.Logger
}

func NewDoctorHandler(clinicSvc *clinic.Service, log zerolog.Logger) *DoctorHandler {
	return &DoctorHandler{
		clinic: clinicSvc,
		log:    log.With().Str("handler", "doctors").Logger(),
	}
}

// Register creates a doctor account, optionally with inline career records.
func (h *DoctorHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CreateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.Email == "" || req.Password == "" || req.FullName == "" || req.Specialization == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email, password, full_name and specialization are required")
		return
	}

	in := clinic.NewDoctor{
		Email:          req.Email,
		Password:       req.Password,
		FullName:       req.FullName,
		Specialization: req.Specialization,
		PhoneNumber:    req.PhoneNumber,
	}

	for _, exp := range req.WorkExperiences {
		rec, err := toNewWorkExperience(exp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		in.WorkExperiences = append(in.WorkExperiences, rec)
	}
	for _, hist := range req.AcademicHistories {
		rec, err := toNewAcademicHistory(hist)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		in.AcademicHistories = append(in.AcademicHistories, rec)
	}

	profile, err := h.clinic.RegisterDoctor(r.Context(), in)
	if err != nil {
		h.handleError(w, err, "register doctor")
		return
	}

	writeJSON(w, http.StatusCreated, toDoctorProfileResponse(profile))
}

func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	doctors, err := h.clinic.ListDoctors(r.Context(), limit, offset)
	if err != nil {
		h.handleError(w, err, "list doctors")
		return
	}

	resp := make([]DoctorResponse, 0, len(doctors))
	for _, d := range doctors {
		resp = append(resp, toDoctorResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *DoctorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "doctor id must be an integer")
		return
	}

	profile, err := h.clinic.GetDoctor(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "get doctor")
		return
	}

	writeJSON(w, http.StatusOK, toDoctorProfileResponse(profile))
}

// Me returns the authenticated doctor's own hydrated profile.
func (h *DoctorHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	profile, err := h.clinic.GetDoctor(r.Context(), identity.ID)
	if err != nil {
		h.handleError(w, err, "get own profile")
		return
	}

	writeJSON(w, http.StatusOK, toDoctorProfileResponse(profile))
}

// UpdateMe applies a partial update to the authenticated doctor's profile.
func (h *DoctorHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var req UpdateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	updated, err := h.clinic.UpdateDoctor(r.Context(), identity.ID, clinic.DoctorPatch{
		Email:          req.Email,
		Password:       req.Password,
		FullName:       req.FullName,
		Specialization: req.Specialization,
		PhoneNumber:    req.PhoneNumber,
		IsActive:       req.IsActive,
	})
	if err != nil {
		h.handleError(w, err, "update doctor")
		return
	}

	writeJSON(w, http.StatusOK, toDoctorResponse(*updated))
}

// AddWorkExperience appends a work-experience record to the
// authenticated doctor's profile.
func (h *DoctorHandler) AddWorkExperience(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var req WorkExperienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	in, err := toNewWorkExperience(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	rec, err := h.clinic.AddWorkExperience(r.Context(), identity.ID, in)
	if err != nil {
		h.handleError(w, err, "add work experience")
		return
	}

	writeJSON(w, http.StatusCreated, WorkExperienceResponse{
		ID:           rec.ID,
		HospitalName: rec.HospitalName,
		Position:     rec.Position,
		StartDate:    formatDate(rec.StartDate),
		EndDate:      formatDatePtr(rec.EndDate),
		Description:  rec.Description,
	})
}

// AddAcademicHistory appends an academic-history record to the
// authenticated doctor's profile.
func (h *DoctorHandler) AddAcademicHistory(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var req AcademicHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	in, err := toNewAcademicHistory(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	rec, err := h.clinic.AddAcademicHistory(r.Context(), identity.ID, in)
	if err != nil {
		h.handleError(w, err, "add academic history")
		return
	}

	writeJSON(w, http.StatusCreated, AcademicHistoryResponse{
		ID:           rec.ID,
		Institution:  rec.Institution,
		Degree:       rec.Degree,
		FieldOfStudy: rec.FieldOfStudy,
		StartDate:    formatDate(rec.StartDate),
		EndDate:      formatDatePtr(rec.EndDate),
	})
}

func (h *DoctorHandler) handleError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, clinic.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_already_registered", "the email address is already in use")
	case errors.Is(err, clinic.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", "")
	default:
		h.log.Error().Err(err).Msg(action)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func toNewWorkExperience(req WorkExperienceRequest) (clinic.NewWorkExperience, error) {
	if req.HospitalName == "" || req.Position == "" || req.StartDate == "" {
		return clinic.NewWorkExperience{}, errors.New("hospital_name, position and start_date are required")
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return clinic.NewWorkExperience{}, errors.New("start_date must be formatted as YYYY-MM-DD")
	}
	end, err := parseDatePtr(req.EndDate)
	if err != nil {
		return clinic.NewWorkExperience{}, errors.New("end_date must be formatted as YYYY-MM-DD")
	}
	return clinic.NewWorkExperience{
		HospitalName: req.HospitalName,
		Position:     req.Position,
		StartDate:    start,
		EndDate:      end,
		Description:  req.Description,
	}, nil
}

func toNewAcademicHistory(req AcademicHistoryRequest) (clinic.NewAcademicHistory, error) {
	if req.Institution == "" || req.Degree == "" || req.FieldOfStudy == "" || req.StartDate == "" {
		return clinic.NewAcademicHistory{}, errors.New("institution, degree, field_of_study and start_date are required")
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return clinic.NewAcademicHistory{}, errors.New("start_date must be formatted as YYYY-MM-DD")
	}
	end, err := parseDatePtr(req.EndDate)
	if err != nil {
		return clinic.NewAcademicHistory{}, errors.New("end_date must be formatted as YYYY-MM-DD")
	}
	return clinic.NewAcademicHistory{
		Institution:  req.Institution,
		Degree:       req.Degree,
		FieldOfStudy: req.FieldOfStudy,
		StartDate:    start,
		EndDate:      end,
	}, nil
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
