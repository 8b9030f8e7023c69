package schedule

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduleRepo struct {
	windows map[int64]*Availability
	nextID  int64
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{windows: make(map[int64]*Availability), nextID: 1}
}

func (f *fakeScheduleRepo) Create(_ context.Context, a *Availability) (*Availability, error) {
	cp := *a
	cp.ID = f.nextID
	f.nextID++
	f.windows[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeScheduleRepo) GetOwned(_ context.Context, id, doctorID int64) (*Availability, error) {
	a, ok := f.windows[id]
	if !ok || a.DoctorID != doctorID {
		return nil, ErrAvailabilityNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeScheduleRepo) ListByDoctor(_ context.Context, doctorID int64, activeOnly bool) ([]Availability, error) {
	var out []Availability
	for id := int64(1); id < f.nextID; id++ {
		a, ok := f.windows[id]
		if !ok || a.DoctorID != doctorID {
			continue
		}
		if activeOnly && !a.IsActive {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeScheduleRepo) Update(_ context.Context, a *Availability) (*Availability, error) {
	existing, ok := f.windows[a.ID]
	if !ok || existing.DoctorID != a.DoctorID {
		return nil, ErrAvailabilityNotFound
	}
	cp := *a
	f.windows[a.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeScheduleRepo) Delete(_ context.Context, id, doctorID int64) error {
	a, ok := f.windows[id]
	if !ok || a.DoctorID != doctorID {
		return ErrAvailabilityNotFound
	}
	delete(f.windows, id)
	return nil
}

func (f *fakeScheduleRepo) HasActiveWindow(_ context.Context, doctorID int64, weekday, timeOfDay string) (bool, error) {
	for _, a := range f.windows {
		if a.DoctorID == doctorID && a.IsActive && a.DayOfWeek == weekday &&
			a.StartTime <= timeOfDay && a.EndTime >= timeOfDay {
			return true, nil
		}
	}
	return false, nil
}

type fakeDirectory struct {
	known map[int64]bool
}

func (f fakeDirectory) DoctorExists(_ context.Context, id int64) (bool, error) {
	return f.known[id], nil
}

func newScheduleService(repo Repository, known ...int64) *Service {
	dir := fakeDirectory{known: make(map[int64]bool)}
	for _, id := range known {
		dir.known[id] = true
	}
	return NewService(repo, dir, zerolog.Nop())
}

func TestCreateValidatesAndNormalizes(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := newScheduleService(repo, 1)

	created, err := svc.Create(context.Background(), 1, NewAvailability{
		DayOfWeek: "Tuesday", StartTime: "10:00", EndTime: "14:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "10:00:00", created.StartTime)
	assert.Equal(t, "14:00:00", created.EndTime)
	assert.True(t, created.IsActive)

	_, err = svc.Create(context.Background(), 1, NewAvailability{
		DayOfWeek: "Blursday", StartTime: "10:00", EndTime: "14:00",
	})
	assert.ErrorIs(t, err, ErrInvalidWeekday)

	_, err = svc.Create(context.Background(), 1, NewAvailability{
		DayOfWeek: "Monday", StartTime: "14:00", EndTime: "10:00",
	})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestOwnerScoping(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := newScheduleService(repo, 1, 2)

	created, err := svc.Create(context.Background(), 1, NewAvailability{
		DayOfWeek: "Monday", StartTime: "09:00", EndTime: "12:00",
	})
	require.NoError(t, err)

	_, err = svc.GetOwned(context.Background(), created.ID, 2)
	assert.ErrorIs(t, err, ErrAvailabilityNotFound)

	_, err = svc.Update(context.Background(), created.ID, 2, AvailabilityPatch{})
	assert.ErrorIs(t, err, ErrAvailabilityNotFound)

	err = svc.Delete(context.Background(), created.ID, 2)
	assert.ErrorIs(t, err, ErrAvailabilityNotFound)

	err = svc.Delete(context.Background(), created.ID, 1)
	assert.NoError(t, err)
}

func TestUpdateRevalidatesPatchedWindow(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := newScheduleService(repo, 1)

	created, err := svc.Create(context.Background(), 1, NewAvailability{
		DayOfWeek: "Monday", StartTime: "09:00", EndTime: "12:00",
	})
	require.NoError(t, err)

	// Moving only end_time below start_time must fail even though each
	// field alone is well formed.
	bad := "08:00"
	_, err = svc.Update(context.Background(), created.ID, 1, AvailabilityPatch{EndTime: &bad})
	assert.ErrorIs(t, err, ErrInvalidWindow)

	day := "Wednesday"
	active := false
	updated, err := svc.Update(context.Background(), created.ID, 1, AvailabilityPatch{
		DayOfWeek: &day, IsActive: &active,
	})
	require.NoError(t, err)
	assert.Equal(t, "Wednesday", updated.DayOfWeek)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "09:00:00", updated.StartTime)
}

func TestListActiveByDoctor(t *testing.T) {
	repo := newFakeScheduleRepo()
	svc := newScheduleService(repo, 1)

	_, err := svc.Create(context.Background(), 1, NewAvailability{
		DayOfWeek: "Monday", StartTime: "09:00", EndTime: "12:00",
	})
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), 1, NewAvailability{
		DayOfWeek: "Tuesday", StartTime: "10:00", EndTime: "14:00",
	})
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(context.Background(), second.ID, 1, AvailabilityPatch{IsActive: &inactive})
	require.NoError(t, err)

	active, err := svc.ListActiveByDoctor(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.ListOwn(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.ListActiveByDoctor(context.Background(), 42)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}
