package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

func TestCreateAppointment_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	got, err := f.svc.CreateAppointment(ctx, drAna, carla, mustDate(t, "2030-03-20"), mustClock(t, "09:00"))

	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "1234", got.PractitionerCode)
	assert.Equal(t, "12345678901", got.PatientCode)
	assert.Equal(t, []Appointment{got}, f.store.List())
	assert.Equal(t, []Appointment{got}, f.persist.appended)
	assert.Empty(t, f.persist.overwritten)
}

func TestCreateAppointment_Conflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	date, clock := mustDate(t, "2030-03-20"), mustClock(t, "09:00")

	_, err := f.svc.CreateAppointment(ctx, drAna, carla, date, clock)
	require.NoError(t, err)

	_, err = f.svc.CreateAppointment(ctx, drAna, daniel, date, clock)
	assert.ErrorIs(t, err, ErrSlotConflict)
	assert.Equal(t, 1, f.store.Len())
	assert.Len(t, f.persist.appended, 1)

	// same slot with another practitioner is fine
	_, err = f.svc.CreateAppointment(ctx, drBruno, daniel, date, clock)
	assert.NoError(t, err)
}

func TestCreateAppointment_PastDateRegardlessOfTime(t *testing.T) {
	f := newFixture()

	for _, clock := range []string{"00:00", "12:00", "23:59"} {
		_, err := f.svc.CreateAppointment(context.Background(), drAna, carla, mustDate(t, "2030-03-14"), mustClock(t, clock))
		assert.ErrorIs(t, err, ErrPastDate)
		assert.Equal(t, apperr.KindPastDate, apperr.KindOf(err))
	}
	assert.Zero(t, f.store.Len())
}

func TestCreateAppointment_SameDayEarlierTimeAccepted(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateAppointment(context.Background(), drAna, carla, mustDate(t, "2030-03-15"), mustClock(t, "07:00"))
	assert.NoError(t, err)
}

func TestCreateAppointment_PersistenceFailureKeepsMemory(t *testing.T) {
	f := newFixture()
	f.persist.err = errors.New("disk full")

	got, err := f.svc.CreateAppointment(context.Background(), drAna, carla, mustDate(t, "2030-03-20"), mustClock(t, "09:00"))

	assert.True(t, apperr.IsPersistence(err))
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, 1, f.store.Len())
}

func TestRescheduleAppointment_ToOwnSlot(t *testing.T) {
	existing := appt(t, "2030-03-20", "09:00", carla.Code, drAna.Code, StatusPending)
	f := newFixture(existing)

	got, err := f.svc.RescheduleAppointment(context.Background(), existing.Key(), existing.Date, existing.Time)

	require.NoError(t, err)
	assert.Equal(t, existing, got)
	assert.Equal(t, 1, f.store.Len())
	require.Len(t, f.persist.overwritten, 1)
	assert.Equal(t, []Appointment{existing}, f.persist.overwritten[0])
}

func TestRescheduleAppointment_Conflict(t *testing.T) {
	a := appt(t, "2030-03-20", "09:00", carla.Code, drAna.Code, StatusPending)
	b := appt(t, "2030-03-20", "10:00", daniel.Code, drAna.Code, StatusPending)
	f := newFixture(a, b)

	_, err := f.svc.RescheduleAppointment(context.Background(), a.Key(), b.Date, b.Time)

	assert.ErrorIs(t, err, ErrSlotConflict)
	assert.Equal(t, []Appointment{a, b}, f.store.List())
	assert.Empty(t, f.persist.overwritten)
}

func TestRescheduleAppointment_PastDate(t *testing.T) {
	a := appt(t, "2030-03-20", "09:00", carla.Code, drAna.Code, StatusPending)
	f := newFixture(a)

	_, err := f.svc.RescheduleAppointment(context.Background(), a.Key(), mustDate(t, "2030-03-01"), a.Time)

	assert.ErrorIs(t, err, ErrPastDate)
	assert.Equal(t, []Appointment{a}, f.store.List())
}

func TestRescheduleAppointment_NotFoundAndTerminal(t *testing.T) {
	cancelled := appt(t, "2030-03-20", "09:00", carla.Code, drAna.Code, StatusCancelled)
	completed := appt(t, "2030-03-21", "09:00", carla.Code, drAna.Code, StatusCompleted)
	f := newFixture(cancelled, completed)
	ctx := context.Background()
	target := mustDate(t, "2030-04-01")

	ghost := appt(t, "2030-03-22", "09:00", carla.Code, drAna.Code, StatusPending)
	_, err := f.svc.RescheduleAppointment(ctx, ghost.Key(), target, ghost.Time)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.True(t, apperr.IsNotFound(err))

	_, err = f.svc.RescheduleAppointment(ctx, cancelled.Key(), target, cancelled.Time)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = f.svc.RescheduleAppointment(ctx, completed.Key(), target, completed.Time)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	assert.Equal(t, []Appointment{cancelled, completed}, f.store.List())
}

func TestCancelAppointment(t *testing.T) {
	a := appt(t, "2030-03-20", "09:00", carla.Code, drAna.Code, StatusPending)
	f := newFixture(a)
	ctx := context.Background()

	got, err := f.svc.CancelAppointment(ctx, a.Key())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, StatusCancelled, f.store.List()[0].Status)
	require.Len(t, f.persist.overwritten, 1)
	assert.Equal(t, StatusCancelled, f.persist.overwritten[0][0].Status)

	assert.Empty(t, f.query.Future(drAna.Code))
	assert.Empty(t, f.query.Upcoming(drAna.Code, Window{Kind: WindowMonth}))

	_, err = f.svc.CancelAppointment(ctx, a.Key())
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestCancelAppointment_NotFound(t *testing.T) {
	f := newFixture()
	ghost := appt(t, "2030-03-20", "09:00", carla.Code, drAna.Code, StatusPending)

	_, err := f.svc.CancelAppointment(context.Background(), ghost.Key())

	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.Empty(t, f.persist.overwritten)
}

type busyLocker struct{}

func (busyLocker) WithLock(context.Context, string, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

func TestLockContentionReportsBusy(t *testing.T) {
	store := NewStore(nil)
	svc := NewService(store, &fakePersister{}, busyLocker{}, WithNow(clockAt(fixedNow)))

	_, err := svc.CreateAppointment(context.Background(), drAna, carla, mustDate(t, "2030-03-20"), mustClock(t, "09:00"))

	assert.ErrorIs(t, err, ErrCalendarBusy)
	assert.Zero(t, store.Len())
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.CreateAppointment(ctx, drAna, carla, mustDate(t, "2099-01-10"), mustClock(t, "09:00"))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, first.Status)
	future := f.query.Future("1234")
	require.Len(t, future, 1)
	assert.Equal(t, first, future[0])

	_, err = f.svc.CreateAppointment(ctx, drAna, daniel, mustDate(t, "2099-01-10"), mustClock(t, "09:00"))
	assert.ErrorIs(t, err, ErrSlotConflict)
	assert.Equal(t, 1, f.store.Len())

	moved, err := f.svc.RescheduleAppointment(ctx, first.Key(), mustDate(t, "2099-01-11"), mustClock(t, "10:00"))
	require.NoError(t, err)
	future = f.query.Future("1234")
	require.Len(t, future, 1)
	assert.Equal(t, "2099-01-11", future[0].Date.String())
	assert.Equal(t, "10:00", future[0].Time.String())
	assert.Equal(t, StatusPending, future[0].Status)
	assert.Equal(t, 1, f.store.Len())

	cancelled, err := f.svc.CancelAppointment(ctx, moved.Key())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Empty(t, f.query.Future("1234"))
}

func TestWritesAreSerializedAcrossPractitioners(t *testing.T) {
	ctx := context.Background()
	a := appt(t, "2099-01-10", "09:00", carla.Code, drAna.Code, StatusPending)
	durable := &durableStore{
		records: []Appointment{a},
		entered: make(chan struct{}, 1),
		hold:    make(chan struct{}),
	}
	store := NewStore([]Appointment{a})
	svc := NewService(store, durable, redisclient.NewLocalLocker(), WithNow(clockAt(fixedNow)))

	cancelled := make(chan error, 1)
	go func() {
		_, err := svc.CancelAppointment(ctx, a.Key())
		cancelled <- err
	}()
	<-durable.entered

	created := make(chan error, 1)
	go func() {
		_, err := svc.CreateAppointment(ctx, drBruno, daniel, a.Date, a.Time)
		created <- err
	}()

	select {
	case err := <-created:
		t.Fatalf("create finished while a rewrite was in flight: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(durable.hold)
	require.NoError(t, <-cancelled)
	require.NoError(t, <-created)

	assert.Len(t, durable.Records(), 2)
	assert.Equal(t, store.List(), durable.Records())
}

func TestSharedStoreSeesOtherWriters(t *testing.T) {
	ctx := context.Background()
	durable := &durableStore{}
	store := NewStore(nil)
	locker := &keyRecorder{Locker: redisclient.NewLocalLocker()}
	svc := NewService(store, durable, locker, WithNow(clockAt(fixedNow)), WithSharedStore(durable))

	// booked by another process after this one loaded
	other := appt(t, "2099-01-10", "09:00", carla.Code, drAna.Code, StatusPending)
	require.NoError(t, durable.AppendAppointment(ctx, other))

	_, err := svc.CreateAppointment(ctx, drAna, daniel, other.Date, other.Time)
	assert.ErrorIs(t, err, ErrSlotConflict)
	assert.Equal(t, []Appointment{other}, durable.Records())

	got, err := svc.CancelAppointment(ctx, other.Key())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, []Appointment{got}, durable.Records())

	assert.Equal(t, []string{redisclient.StoreKey, redisclient.StoreKey}, locker.keys)
}

func TestSharedStoreReloadFailureLeavesStoreUntouched(t *testing.T) {
	durable := &durableStore{loadErr: errors.New("connection refused")}
	store := NewStore(nil)
	svc := NewService(store, durable, redisclient.NewLocalLocker(), WithNow(clockAt(fixedNow)), WithSharedStore(durable))

	_, err := svc.CreateAppointment(context.Background(), drAna, carla, mustDate(t, "2099-01-10"), mustClock(t, "09:00"))

	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Zero(t, store.Len())
	assert.Empty(t, durable.Records())
	assert.Error(t, svc.Sync(context.Background()))
}

func TestSyncWithoutSharedStoreIsNoop(t *testing.T) {
	f := newFixture(appt(t, "2099-01-10", "09:00", carla.Code, drAna.Code, StatusPending))

	require.NoError(t, f.svc.Sync(context.Background()))
	assert.Equal(t, 1, f.store.Len())
}

func TestPractitionerLockKeyByDefault(t *testing.T) {
	locker := &keyRecorder{Locker: redisclient.NewLocalLocker()}
	svc := NewService(NewStore(nil), &fakePersister{}, locker, WithNow(clockAt(fixedNow)))

	_, err := svc.CreateAppointment(context.Background(), drAna, carla, mustDate(t, "2099-01-10"), mustClock(t, "09:00"))

	require.NoError(t, err)
	assert.Equal(t, []string{redisclient.PractitionerKey(drAna.Code)}, locker.keys)
}
