package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/clinichq/clinic-booking/internal/booking"
)

type AppointmentHandler struct {
	booking *booking.Service
	log     zerolog.Logger
}

func NewAppointmentHandler(bookingSvc *booking.Service, log zerolog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		booking: bookingSvc,
		log:     log.With().Str("handler", "appointments").Logger(),
	}
}

// Create books an appointment for the authenticated patient.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.DoctorID <= 0 || req.AppointmentDatetime == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "doctor_id and appointment_datetime are required")
		return
	}

	at, err := parseDateTime(req.AppointmentDatetime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "appointment_datetime must be formatted as YYYY-MM-DDTHH:MM:SS")
		return
	}

	appt, err := h.booking.Create(r.Context(), identity.ID, booking.NewAppointment{
		DoctorID:    req.DoctorID,
		ScheduledAt: at,
		Reason:      req.Reason,
		Notes:       req.Notes,
	})
	if err != nil {
		h.handleError(w, err, "create appointment")
		return
	}

	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

// ListForDoctor returns the authenticated doctor's appointments.
func (h *AppointmentHandler) ListForDoctor(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	appts, err := h.booking.ListForDoctor(r.Context(), identity.ID)
	if err != nil {
		h.handleError(w, err, "list doctor appointments")
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
}

// ListForPatient returns the authenticated patient's appointments.
func (h *AppointmentHandler) ListForPatient(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	appts, err := h.booking.ListForPatient(r.Context(), identity.ID)
	if err != nil {
		h.handleError(w, err, "list patient appointments")
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
}

// Cancel sets an appointment owned by the authenticated doctor to cancelled.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "appointment id must be an integer")
		return
	}

	appt, err := h.booking.Cancel(r.Context(), identity.ID, id)
	if err != nil {
		h.handleError(w, err, "cancel appointment")
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

// Reschedule moves an appointment owned by the authenticated patient to a
// new date-time.
func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "appointment id must be an integer")
		return
	}

	var req RescheduleAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.AppointmentDatetime == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "appointment_datetime is required")
		return
	}

	at, err := parseDateTime(req.AppointmentDatetime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "appointment_datetime must be formatted as YYYY-MM-DDTHH:MM:SS")
		return
	}

	appt, err := h.booking.Reschedule(r.Context(), identity.ID, id, at)
	if err != nil {
		h.handleError(w, err, "reschedule appointment")
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *AppointmentHandler) handleError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, booking.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", "")
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", "")
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", "doctor is not available at the requested time")
	case errors.Is(err, booking.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_contended", "the slot is being booked by another request, retry shortly")
	case errors.Is(err, booking.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "already_cancelled", "the appointment is already cancelled")
	case errors.Is(err, booking.ErrNotReschedulable):
		writeError(w, http.StatusConflict, "not_reschedulable", "the appointment can no longer be rescheduled")
	default:
		h.log.Error().Err(err).Msg(action)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func toAppointmentResponses(appts []booking.Appointment) []AppointmentResponse {
	resp := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		resp = append(resp, toAppointmentResponse(&appts[i]))
	}
	return resp
}
