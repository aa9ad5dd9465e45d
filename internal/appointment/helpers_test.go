package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/directory"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

// fixedNow is 2030-03-15 10:00 UTC.
var fixedNow = time.Date(2030, time.March, 15, 10, 0, 0, 0, time.UTC)

func clockAt(t time.Time) func() time.Time { return func() time.Time { return t } }

type fakePersister struct {
	appended    []Appointment
	overwritten [][]Appointment
	err         error
}

func (p *fakePersister) AppendAppointment(_ context.Context, a Appointment) error {
	if p.err != nil {
		return p.err
	}
	p.appended = append(p.appended, a)
	return nil
}

func (p *fakePersister) OverwriteAppointments(_ context.Context, all []Appointment) error {
	if p.err != nil {
		return p.err
	}
	p.overwritten = append(p.overwritten, all)
	return nil
}

// durableStore behaves like a real backend: appends extend the stored
// collection and overwrites replace it. When hold is set, an overwrite
// reports on entered and then waits for hold to close.
type durableStore struct {
	mu      sync.Mutex
	records []Appointment
	loadErr error
	entered chan struct{}
	hold    chan struct{}
}

func (d *durableStore) AppendAppointment(_ context.Context, a Appointment) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, a)
	return nil
}

func (d *durableStore) OverwriteAppointments(_ context.Context, all []Appointment) error {
	if d.entered != nil {
		d.entered <- struct{}{}
	}
	if d.hold != nil {
		<-d.hold
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append([]Appointment(nil), all...)
	return nil
}

func (d *durableStore) LoadAppointments(context.Context) ([]Appointment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loadErr != nil {
		return nil, d.loadErr
	}
	return append([]Appointment(nil), d.records...), nil
}

func (d *durableStore) Records() []Appointment {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Appointment(nil), d.records...)
}

// keyRecorder wraps a locker and remembers the keys it was asked for.
type keyRecorder struct {
	redisclient.Locker
	mu   sync.Mutex
	keys []string
}

func (k *keyRecorder) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	k.mu.Lock()
	k.keys = append(k.keys, key)
	k.mu.Unlock()
	return k.Locker.WithLock(ctx, key, fn)
}

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func mustClock(t *testing.T, s string) Clock {
	t.Helper()
	c, err := ParseClock(s)
	require.NoError(t, err)
	return c
}

func appt(t *testing.T, date, clock, patient, practitioner string, st AppointmentStatus) Appointment {
	t.Helper()
	return Appointment{
		Date:             mustDate(t, date),
		Time:             mustClock(t, clock),
		PatientCode:      patient,
		PractitionerCode: practitioner,
		Status:           st,
	}
}

type fixture struct {
	store   *Store
	persist *fakePersister
	svc     *Service
	query   *Query
}

func newFixture(initial ...Appointment) *fixture {
	store := NewStore(initial)
	p := &fakePersister{}
	return &fixture{
		store:   store,
		persist: p,
		svc:     NewService(store, p, redisclient.NewLocalLocker(), WithNow(clockAt(fixedNow))),
		query:   NewQuery(store, clockAt(fixedNow)),
	}
}

var (
	drAna   = directory.Practitioner{Code: "1234", Name: "Ana Souza"}
	drBruno = directory.Practitioner{Code: "5678", Name: "Bruno Lima"}
	carla   = directory.Patient{Code: "12345678901", Name: "Carla Mendes"}
	daniel  = directory.Patient{Code: "98765432100", Name: "Daniel Carvalho"}
)
