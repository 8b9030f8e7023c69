package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/clinichq/clinic-booking/internal/clinic"
)

type PatientHandler struct {
	clinic *clinic.Service
	log    zerolog.Logger
}

func NewPatientHandler(clinicSvc *clinic.Service, log zerolog.Logger) *PatientHandler {
	return &PatientHandler{
		clinic: clinicSvc,
		log:    log.With().Str("handler", "patients").Logger(),
	}
}

// Register creates a patient account.
func (h *PatientHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email, password and full_name are required")
		return
	}

	dob, err := parseDatePtr(req.DateOfBirth)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "date_of_birth must be formatted as YYYY-MM-DD")
		return
	}

	patient, err := h.clinic.RegisterPatient(r.Context(), clinic.NewPatient{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		DateOfBirth: dob,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	})
	if err != nil {
		h.handleError(w, err, "register patient")
		return
	}

	writeJSON(w, http.StatusCreated, toPatientResponse(patient))
}

func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "patient id must be an integer")
		return
	}

	patient, err := h.clinic.GetPatient(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "get patient")
		return
	}

	writeJSON(w, http.StatusOK, toPatientResponse(patient))
}

// Me returns the authenticated patient's own record.
func (h *PatientHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	patient, err := h.clinic.GetPatient(r.Context(), identity.ID)
	if err != nil {
		h.handleError(w, err, "get own record")
		return
	}

	writeJSON(w, http.StatusOK, toPatientResponse(patient))
}

// UpdateMe applies a partial update to the authenticated patient's record.
func (h *PatientHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var req UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	dob, err := parseDatePtr(req.DateOfBirth)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "date_of_birth must be formatted as YYYY-MM-DD")
		return
	}

	updated, err := h.clinic.UpdatePatient(r.Context(), identity.ID, clinic.PatientPatch{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		DateOfBirth: dob,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.handleError(w, err, "update patient")
		return
	}

	writeJSON(w, http.StatusOK, toPatientResponse(updated))
}

func (h *PatientHandler) handleError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, clinic.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_already_registered", "the email address is already in use")
	case errors.Is(err, clinic.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", "")
	default:
		h.log.Error().Err(err).Msg(action)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}
