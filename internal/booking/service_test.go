package booking

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/clinichq/clinic-booking/internal/redis"
)

type fakeBookingRepo struct {
	appointments map[int64]*Appointment
	events       []BookingEvent
	nextID       int64
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{appointments: make(map[int64]*Appointment), nextID: 1}
}

func (f *fakeBookingRepo) CreatePending(_ context.Context, appt *Appointment) (*Appointment, error) {
	cp := *appt
	cp.ID = f.nextID
	f.nextID++
	cp.Status = StatusPending
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.appointments[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeBookingRepo) GetOwnedByDoctor(_ context.Context, id, doctorID int64) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok || a.DoctorID != doctorID {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeBookingRepo) GetOwnedByPatient(_ context.Context, id, patientID int64) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok || a.PatientID != patientID {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeBookingRepo) ListByDoctor(_ context.Context, doctorID int64) ([]Appointment, error) {
	var out []Appointment
	for id := int64(1); id < f.nextID; id++ {
		if a, ok := f.appointments[id]; ok && a.DoctorID == doctorID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) ListByPatient(_ context.Context, patientID int64) ([]Appointment, error) {
	var out []Appointment
	for id := int64(1); id < f.nextID; id++ {
		if a, ok := f.appointments[id]; ok && a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) SetStatus(_ context.Context, id int64, status Status) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (f *fakeBookingRepo) Reschedule(_ context.Context, id int64, newTime time.Time) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.ScheduledAt = newTime
	a.Status = StatusRescheduled
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (f *fakeBookingRepo) HasBlockingAppointment(_ context.Context, doctorID int64, from, to time.Time) (bool, error) {
	for _, a := range f.appointments {
		if a.DoctorID == doctorID && a.Status.Blocks() &&
			!a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookingRepo) InsertEvent(_ context.Context, ev BookingEvent) error {
	f.events = append(f.events, ev)
	return nil
}

// passLocker runs the critical section without real locking.
type passLocker struct{}

func (passLocker) WithSlotLock(ctx context.Context, _ int64, _ time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// heldLocker simulates a lock currently held by another booking attempt.
type heldLocker struct{}

func (heldLocker) WithSlotLock(context.Context, int64, time.Time, func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

type fakeDoctors struct {
	known map[int64]bool
}

func (f fakeDoctors) DoctorExists(_ context.Context, id int64) (bool, error) {
	return f.known[id], nil
}

type fixture struct {
	repo    *fakeBookingRepo
	windows *fakeWindows
	svc     *Service
}

func newFixture(knownDoctors ...int64) *fixture {
	repo := newFakeBookingRepo()
	windows := &fakeWindows{}
	doctors := fakeDoctors{known: make(map[int64]bool)}
	for _, id := range knownDoctors {
		doctors.known[id] = true
	}
	svc := NewService(repo, NewChecker(windows, repo), doctors, passLocker{}, nil, zerolog.Nop())
	return &fixture{repo: repo, windows: windows, svc: svc}
}

func TestCreateAppointment(t *testing.T) {
	fx := newFixture(1)
	fx.windows.add(1, "Tuesday", "10:00:00", "14:00:00", true)

	reason := "Annual checkup"
	appt, err := fx.svc.Create(context.Background(), 5, NewAppointment{
		DoctorID:    1,
		ScheduledAt: tuesday(11, 0),
		Reason:      &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, int64(1), appt.DoctorID)
	assert.Equal(t, int64(5), appt.PatientID)

	require.Len(t, fx.repo.events, 1)
	assert.Equal(t, EventAppointmentCreated, fx.repo.events[0].EventType)
}

func TestCreateAppointmentDoctorMissing(t *testing.T) {
	fx := newFixture(1)

	_, err := fx.svc.Create(context.Background(), 5, NewAppointment{
		DoctorID:    42,
		ScheduledAt: tuesday(11, 0),
	})
	assert.ErrorIs(t, err, ErrDoctorNotFound)
	assert.Empty(t, fx.repo.appointments)
}

func TestCreateAppointmentOutsideAvailability(t *testing.T) {
	fx := newFixture(1)
	fx.windows.add(1, "Tuesday", "10:00:00", "14:00:00", true)

	_, err := fx.svc.Create(context.Background(), 5, NewAppointment{
		DoctorID:    1,
		ScheduledAt: tuesday(15, 0),
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Empty(t, fx.repo.appointments)
}

func TestCreateAppointmentSlotTaken(t *testing.T) {
	fx := newFixture(1)
	fx.windows.add(1, "Tuesday", "10:00:00", "14:00:00", true)

	_, err := fx.svc.Create(context.Background(), 5, NewAppointment{
		DoctorID: 1, ScheduledAt: tuesday(11, 0),
	})
	require.NoError(t, err)

	_, err = fx.svc.Create(context.Background(), 6, NewAppointment{
		DoctorID: 1, ScheduledAt: tuesday(11, 0),
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Len(t, fx.repo.appointments, 1)
}

func TestCreateAppointmentLockContended(t *testing.T) {
	fx := newFixture(1)
	fx.windows.add(1, "Tuesday", "10:00:00", "14:00:00", true)
	fx.svc.locker = heldLocker{}

	_, err := fx.svc.Create(context.Background(), 5, NewAppointment{
		DoctorID: 1, ScheduledAt: tuesday(11, 0),
	})
	assert.ErrorIs(t, err, ErrSlotBeingBooked)
}

func TestCancelAppointment(t *testing.T) {
	fx := newFixture(1)
	fx.windows.add(1, "Tuesday", "10:00:00", "14:00:00", true)

	appt, err := fx.svc.Create(context.Background(), 5, NewAppointment{
		DoctorID: 1, ScheduledAt: tuesday(11, 0),
	})
	require.NoError(t, err)

	cancelled, err := fx.svc.Cancel(context.Background(), 1, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = fx.svc.Cancel(context.Background(), 1, appt.ID)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestCancelAppointmentNotOwned(t *testing.T) {
	fx := newFixture(1)
	fx.windows.add(1, "Tuesday", "10:00:00", "14:00:00", true)

	appt, err := fx.svc.Create(context.Background(), 5, NewAppointment{
		DoctorID: 1, ScheduledAt: tuesday(11, 0),
	})
	require.NoError(t, err)

	_, err = fx.svc.Cancel(context.Background(), 2, appt.ID)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	_, err = fx.svc.Cancel(context.Background(), 1, 999)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestCancelCompletedAppointmentStillAllowed(t *testing.T) {
	fx := newFixture(1)
	fx.windows.add(1, "Tuesday", "10:00:00", "14:00:00", true)

	appt, err := fx.svc.Create(context.Background(), 5, NewAppointment{
		DoctorID: 1, ScheduledAt: tuesday(11, 0),
	})
	require.NoError(t, err)

	_, err = fx.repo.SetStatus(context.Background(), appt.ID, StatusCompleted)
	require.NoError(t, err)

	// The cancel guard only rejects already-cancelled appointments.
	cancelled, err := fx.svc.Cancel(context.Background(), 1, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
}

func TestRescheduleAppointment(t *testing.T) {
	fx := newFixture(1)
	fx.windows.add(1, "Tuesday", "10:00:00", "14:00:00", true)

	appt, err := fx.svc.Create(context.Background(), 5, NewAppointment{
		DoctorID: 1, ScheduledAt: tuesday(11, 0),
	})
	require.NoError(t, err)

	moved, err := fx.svc.Reschedule(context.Background(), 5, appt.ID, tuesday(13, 0))
	require.NoError(t, err)
	assert.Equal(t, StatusRescheduled, moved.Status)
	assert.True(t, moved.ScheduledAt.Equal(tuesday(13, 0)))
}

func TestRescheduleToUnavailableSlotLeavesRecordUnchanged(t *testing.T) {
	fx := newFixture(1)
	fx.windows.add(1, "Tuesday", "10:00:00", "14:00:00", true)

	appt, err := fx.svc.Create(context.Background(), 5, NewAppointment{
		DoctorID: 1, ScheduledAt: tuesday(11, 0),
	})
	require.NoError(t, err)

	// 2025-05-22 is a Thursday; the doctor has no Thursday window.
	thursday := time.Date(2025, 5, 22, 14, 0, 0, 0, time.Local)
	_, err = fx.svc.Reschedule(context.Background(), 5, appt.ID, thursday)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	unchanged := fx.repo.appointments[appt.ID]
	assert.True(t, unchanged.ScheduledAt.Equal(tuesday(11, 0)))
	assert.Equal(t, StatusPending, unchanged.Status)
}

func TestRescheduleGuardsTerminalStatuses(t *testing.T) {
	for _, status := range []Status{StatusCancelled, StatusCompleted} {
		fx := newFixture(1)
		fx.windows.add(1, "Tuesday", "10:00:00", "14:00:00", true)

		appt, err := fx.svc.Create(context.Background(), 5, NewAppointment{
			DoctorID: 1, ScheduledAt: tuesday(11, 0),
		})
		require.NoError(t, err)

		_, err = fx.repo.SetStatus(context.Background(), appt.ID, status)
		require.NoError(t, err)

		_, err = fx.svc.Reschedule(context.Background(), 5, appt.ID, tuesday(13, 0))
		assert.ErrorIs(t, err, ErrNotReschedulable, "status %s", status)
	}
}

func TestRescheduleNotOwned(t *testing.T) {
	fx := newFixture(1)
	fx.windows.add(1, "Tuesday", "10:00:00", "14:00:00", true)

	appt, err := fx.svc.Create(context.Background(), 5, NewAppointment{
		DoctorID: 1, ScheduledAt: tuesday(11, 0),
	})
	require.NoError(t, err)

	_, err = fx.svc.Reschedule(context.Background(), 6, appt.ID, tuesday(13, 0))
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestRescheduledAppointmentFreesItsOldSlot(t *testing.T) {
	fx := newFixture(1)
	fx.windows.add(1, "Tuesday", "10:00:00", "14:00:00", true)

	appt, err := fx.svc.Create(context.Background(), 5, NewAppointment{
		DoctorID: 1, ScheduledAt: tuesday(11, 0),
	})
	require.NoError(t, err)

	_, err = fx.svc.Reschedule(context.Background(), 5, appt.ID, tuesday(13, 0))
	require.NoError(t, err)

	// A rescheduled appointment no longer blocks either slot: it is not
	// PENDING or CONFIRMED.
	second, err := fx.svc.Create(context.Background(), 6, NewAppointment{
		DoctorID: 1, ScheduledAt: tuesday(11, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, second.Status)

	third, err := fx.svc.Create(context.Background(), 7, NewAppointment{
		DoctorID: 1, ScheduledAt: tuesday(13, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, third.Status)
}

// TestBookingWalkthrough covers the end-to-end scenario: a doctor with a
// Tuesday 10:00-14:00 window, two patients racing for the same slot, and
// a reschedule to a weekday with no availability.
func TestBookingWalkthrough(t *testing.T) {
	fx := newFixture(1)
	fx.windows.add(1, "Tuesday", "10:00:00", "14:00:00", true)

	slot := time.Date(2025, 5, 20, 11, 0, 0, 0, time.Local)

	first, err := fx.svc.Create(context.Background(), 10, NewAppointment{
		DoctorID: 1, ScheduledAt: slot,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, first.Status)

	_, err = fx.svc.Create(context.Background(), 11, NewAppointment{
		DoctorID: 1, ScheduledAt: slot,
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	thursday := time.Date(2025, 5, 22, 14, 0, 0, 0, time.Local)
	_, err = fx.svc.Reschedule(context.Background(), 10, first.ID, thursday)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	kept, err := fx.repo.GetOwnedByPatient(context.Background(), first.ID, 10)
	require.NoError(t, err)
	assert.True(t, kept.ScheduledAt.Equal(slot))
	assert.Equal(t, StatusPending, kept.Status)
}

func TestListScoping(t *testing.T) {
	fx := newFixture(1, 2)
	fx.windows.add(1, "Tuesday", "10:00:00", "14:00:00", true)
	fx.windows.add(2, "Tuesday", "10:00:00", "14:00:00", true)

	_, err := fx.svc.Create(context.Background(), 5, NewAppointment{DoctorID: 1, ScheduledAt: tuesday(10, 0)})
	require.NoError(t, err)
	_, err = fx.svc.Create(context.Background(), 5, NewAppointment{DoctorID: 2, ScheduledAt: tuesday(11, 0)})
	require.NoError(t, err)
	_, err = fx.svc.Create(context.Background(), 6, NewAppointment{DoctorID: 1, ScheduledAt: tuesday(12, 0)})
	require.NoError(t, err)

	byDoctor, err := fx.svc.ListForDoctor(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, byDoctor, 2)

	byPatient, err := fx.svc.ListForPatient(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, byPatient, 2)
}
