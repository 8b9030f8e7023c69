package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// DoctorDirectory answers whether a doctor id exists. Implemented by the
// clinic service.
type DoctorDirectory interface {
	DoctorExists(ctx context.Context, id int64) (bool, error)
}

// ErrDoctorNotFound is returned by ListActiveByDoctor when the doctor id
// does not resolve.
var ErrDoctorNotFound = errors.New("doctor not found")

type Service struct {
	repo    Repository
	doctors DoctorDirectory
	log     zerolog.Logger
}

func NewService(repo Repository, doctors DoctorDirectory, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		doctors: doctors,
		log:     log.With().Str("component", "schedule").Logger(),
	}
}

// NewAvailability is the creation input for a weekly window.
type NewAvailability struct {
	DayOfWeek string
	StartTime string
	EndTime   string
}

// Create adds an active weekly window for the doctor. Overlapping windows
// on the same day are permitted, matching the stored data's contract.
func (s *Service) Create(ctx context.Context, doctorID int64, in NewAvailability) (*Availability, error) {
	window := &Availability{
		DoctorID:  doctorID,
		DayOfWeek: in.DayOfWeek,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		IsActive:  true,
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("create availability: %w", err)
	}

	s.log.Info().
		Int64("doctor_id", doctorID).
		Str("day", created.DayOfWeek).
		Str("window", created.StartTime+"-"+created.EndTime).
		Msg("availability created")
	return created, nil
}

// ListOwn returns all of the doctor's windows, active or not.
func (s *Service) ListOwn(ctx context.Context, doctorID int64) ([]Availability, error) {
	return s.repo.ListByDoctor(ctx, doctorID, false)
}

// GetOwned returns the window only when the caller owns it.
func (s *Service) GetOwned(ctx context.Context, id, doctorID int64) (*Availability, error) {
	return s.repo.GetOwned(ctx, id, doctorID)
}

// Update applies a partial update to an owned window, then re-validates
// the patched window as a whole.
func (s *Service) Update(ctx context.Context, id, doctorID int64, patch AvailabilityPatch) (*Availability, error) {
	window, err := s.repo.GetOwned(ctx, id, doctorID)
	if err != nil {
		return nil, err
	}

	patch.Apply(window)
	if err := window.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("update availability: %w", err)
	}
	return updated, nil
}

// Delete removes an owned window. Deactivating via the is_active flag is
// the gentler path, but hard deletion stays supported.
func (s *Service) Delete(ctx context.Context, id, doctorID int64) error {
	return s.repo.Delete(ctx, id, doctorID)
}

// ListActiveByDoctor is the public view of a doctor's bookable windows.
func (s *Service) ListActiveByDoctor(ctx context.Context, doctorID int64) ([]Availability, error) {
	exists, err := s.doctors.DoctorExists(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("check doctor: %w", err)
	}
	if !exists {
		return nil, ErrDoctorNotFound
	}
	return s.repo.ListByDoctor(ctx, doctorID, true)
}
