// Package clinic assembles a scheduling session from a storage backend:
// the directory, the in-memory appointment store, the scheduling service
// and the query engine all share one loaded state.
package clinic

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/directory"
	"github.com/hackgods/clinic-scheduling/internal/metrics"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/internal/storage"
)

type Clinic struct {
	Directory *directory.Directory
	Store     *appointment.Store
	Service   *appointment.Service
	Query     *appointment.Query
	Backend   storage.Backend

	now func() time.Time
}

type options struct {
	now     func() time.Time
	log     zerolog.Logger
	metrics *metrics.Metrics
	locker  redisclient.Locker
	shared  bool
}

type Option func(*options)

func WithNow(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLocker overrides the in-process practitioner locker.
func WithLocker(l redisclient.Locker) Option {
	return func(o *options) { o.locker = l }
}

// WithSharedStore marks the backend as shared with other processes: writes
// take one store-wide lock and reload appointments before checking.
func WithSharedStore() Option {
	return func(o *options) { o.shared = true }
}

// Load reads every collection from backend and builds the session.
func Load(ctx context.Context, backend storage.Backend, opts ...Option) (*Clinic, error) {
	o := options{now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.locker == nil {
		o.locker = redisclient.NewLocalLocker()
	}

	practitioners, err := backend.LoadPractitioners(ctx)
	if err != nil {
		return nil, fmt.Errorf("load practitioners: %w", err)
	}
	patients, err := backend.LoadPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	appts, err := backend.LoadAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	o.log.Info().
		Int("practitioners", len(practitioners)).
		Int("patients", len(patients)).
		Int("appointments", len(appts)).
		Msg("records loaded")

	store := appointment.NewStore(appts)
	svcOpts := []appointment.Option{
		appointment.WithNow(o.now),
		appointment.WithLogger(o.log),
		appointment.WithMetrics(o.metrics),
	}
	if o.shared {
		svcOpts = append(svcOpts, appointment.WithSharedStore(backend))
	}
	svc := appointment.NewService(store, backend, o.locker, svcOpts...)
	return &Clinic{
		Directory: directory.New(practitioners, patients, backend),
		Store:     store,
		Service:   svc,
		Query:     appointment.NewQuery(store, o.now),
		Backend:   backend,
		now:       o.now,
	}, nil
}

// Now is the session clock.
func (c *Clinic) Now() time.Time {
	return c.now()
}

// Authenticate resolves the practitioner owning a session.
func (c *Clinic) Authenticate(code string) (directory.Practitioner, error) {
	return c.Directory.FindPractitioner(code)
}

// Schedule parses the textual slot, resolves the patient and books it.
func (c *Clinic) Schedule(ctx context.Context, pr directory.Practitioner, patientCode, date, clock string) (appointment.Appointment, error) {
	pt, err := c.Directory.FindPatient(patientCode)
	if err != nil {
		return appointment.Appointment{}, err
	}
	d, t, err := ParseSlot(date, clock)
	if err != nil {
		return appointment.Appointment{}, err
	}
	return c.Service.CreateAppointment(ctx, pr, pt, d, t)
}

// Reschedule moves one of pr's appointments to a new textual slot.
func (c *Clinic) Reschedule(ctx context.Context, pr directory.Practitioner, existing appointment.Key, date, clock string) (appointment.Appointment, error) {
	d, t, err := ParseSlot(date, clock)
	if err != nil {
		return appointment.Appointment{}, err
	}
	existing.PractitionerCode = pr.Code
	return c.Service.RescheduleAppointment(ctx, existing, d, t)
}

// Cancel cancels one of pr's appointments.
func (c *Clinic) Cancel(ctx context.Context, pr directory.Practitioner, existing appointment.Key) (appointment.Appointment, error) {
	existing.PractitionerCode = pr.Code
	return c.Service.CancelAppointment(ctx, existing)
}

// ParseSlot parses a yyyy-MM-dd date and an HH:mm time.
func ParseSlot(date, clock string) (appointment.Date, appointment.Clock, error) {
	d, err := appointment.ParseDate(date)
	if err != nil {
		return appointment.Date{}, appointment.Clock{}, err
	}
	t, err := appointment.ParseClock(clock)
	if err != nil {
		return appointment.Date{}, appointment.Clock{}, err
	}
	return d, t, nil
}

// KeyFor builds the natural key of one of pr's appointments from text.
func KeyFor(pr directory.Practitioner, patientCode, date, clock string) (appointment.Key, error) {
	if err := directory.ValidatePatientCode(patientCode); err != nil {
		return appointment.Key{}, err
	}
	d, t, err := ParseSlot(date, clock)
	if err != nil {
		return appointment.Key{}, err
	}
	return appointment.Key{Date: d, Time: t, PatientCode: patientCode, PractitionerCode: pr.Code}, nil
}

func (c *Clinic) Close() error {
	return c.Backend.Close()
}
