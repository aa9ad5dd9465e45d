package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/directory"
)

// Backend is the durable record store behind a session. Loads return the
// records in their stored order.
type Backend interface {
	LoadPractitioners(ctx context.Context) ([]directory.Practitioner, error)
	LoadPatients(ctx context.Context) ([]directory.Patient, error)
	LoadAppointments(ctx context.Context) ([]appointment.Appointment, error)

	AppendPractitioner(ctx context.Context, p directory.Practitioner) error
	AppendPatient(ctx context.Context, p directory.Patient) error
	AppendAppointment(ctx context.Context, a appointment.Appointment) error
	OverwriteAppointments(ctx context.Context, all []appointment.Appointment) error

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend                 = (*CSVBackend)(nil)
	_ Backend                 = (*PostgresBackend)(nil)
	_ appointment.Persister   = Backend(nil)
	_ appointment.Loader      = Backend(nil)
	_ directory.PatientWriter = Backend(nil)
)

// Open returns the backend selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return NewPostgresBackend(pool, log), nil
	case config.BackendCSV, "":
		return NewCSVBackend(cfg.DataDir, log)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
