package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/clinichq/clinic-booking/internal/schedule"
)

type AvailabilityHandler struct {
	schedule *schedule.Service
	log      zerolog.Logger
}

func NewAvailabilityHandler(scheduleSvc *schedule.Service, log zerolog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		schedule: scheduleSvc,
		log:      log.With().Str("handler", "availabilities").Logger(),
	}
}

// Create adds a weekly availability window for the authenticated doctor.
func (h *AvailabilityHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var req CreateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.DayOfWeek == "" || req.StartTime == "" || req.EndTime == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "day_of_week, start_time and end_time are required")
		return
	}

	created, err := h.schedule.Create(r.Context(), identity.ID, schedule.NewAvailability{
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		h.handleError(w, err, "create availability")
		return
	}

	writeJSON(w, http.StatusCreated, toAvailabilityResponse(created))
}

// ListOwn returns every window of the authenticated doctor, active or not.
func (h *AvailabilityHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	windows, err := h.schedule.ListOwn(r.Context(), identity.ID)
	if err != nil {
		h.handleError(w, err, "list availabilities")
		return
	}

	resp := make([]AvailabilityResponse, 0, len(windows))
	for i := range windows {
		resp = append(resp, toAvailabilityResponse(&windows[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "availability id must be an integer")
		return
	}

	window, err := h.schedule.GetOwned(r.Context(), id, identity.ID)
	if err != nil {
		h.handleError(w, err, "get availability")
		return
	}

	writeJSON(w, http.StatusOK, toAvailabilityResponse(window))
}

// Update applies a partial update to an owned window. The patched window
// is re-validated as a whole before persisting.
func (h *AvailabilityHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "availability id must be an integer")
		return
	}

	var req UpdateAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	updated, err := h.schedule.Update(r.Context(), id, identity.ID, schedule.AvailabilityPatch{
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsActive:  req.IsActive,
	})
	if err != nil {
		h.handleError(w, err, "update availability")
		return
	}

	writeJSON(w, http.StatusOK, toAvailabilityResponse(updated))
}

func (h *AvailabilityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "availability id must be an integer")
		return
	}

	if err := h.schedule.Delete(r.Context(), id, identity.ID); err != nil {
		h.handleError(w, err, "delete availability")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListByDoctor is the public view of a doctor's active windows.
func (h *AvailabilityHandler) ListByDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, err := strconv.ParseInt(chi.URLParam(r, "doctor_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "doctor id must be an integer")
		return
	}

	windows, err := h.schedule.ListActiveByDoctor(r.Context(), doctorID)
	if err != nil {
		h.handleError(w, err, "list doctor availabilities")
		return
	}

	resp := make([]AvailabilityResponse, 0, len(windows))
	for i := range windows {
		resp = append(resp, toAvailabilityResponse(&windows[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AvailabilityHandler) handleError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, schedule.ErrAvailabilityNotFound):
		writeError(w, http.StatusNotFound, "availability_not_found", "")
	case errors.Is(err, schedule.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", "")
	case errors.Is(err, schedule.ErrInvalidWeekday),
		errors.Is(err, schedule.ErrInvalidTime),
		errors.Is(err, schedule.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		h.log.Error().Err(err).Msg(action)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}
