package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/directory"
)

const (
	PractitionersFile = "practitioners.csv"
	PatientsFile      = "patients.csv"
	AppointmentsFile  = "appointments.csv"
)

// CSVBackend keeps each collection in a flat file under dir. Writes are
// serialized by mu; overwrites go through a temp file and a rename.
type CSVBackend struct {
	dir string
	log zerolog.Logger
	mu  sync.Mutex
}

func NewCSVBackend(dir string, log zerolog.Logger) (*CSVBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &CSVBackend{dir: dir, log: log}, nil
}

func (b *CSVBackend) path(name string) string {
	return filepath.Join(b.dir, name)
}

func (b *CSVBackend) LoadPractitioners(ctx context.Context) ([]directory.Practitioner, error) {
	return loadFile(ctx, b, PractitionersFile, parsePractitioner)
}

func (b *CSVBackend) LoadPatients(ctx context.Context) ([]directory.Patient, error) {
	return loadFile(ctx, b, PatientsFile, parsePatient)
}

func (b *CSVBackend) LoadAppointments(ctx context.Context) ([]appointment.Appointment, error) {
	return loadFile(ctx, b, AppointmentsFile, parseAppointment)
}

func (b *CSVBackend) AppendPractitioner(_ context.Context, p directory.Practitioner) error {
	return b.append(PractitionersFile, practitionerRecord(p))
}

func (b *CSVBackend) AppendPatient(_ context.Context, p directory.Patient) error {
	return b.append(PatientsFile, patientRecord(p))
}

func (b *CSVBackend) AppendAppointment(_ context.Context, a appointment.Appointment) error {
	return b.append(AppointmentsFile, appointmentRecord(a))
}

// OverwriteAppointments replaces the appointments file with all, in order.
func (b *CSVBackend) OverwriteAppointments(ctx context.Context, all []appointment.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	tmp, err := os.CreateTemp(b.dir, AppointmentsFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	for _, a := range all {
		if err := w.Write(appointmentRecord(a)); err != nil {
			tmp.Close()
			return fmt.Errorf("write appointment: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush appointments: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync appointments: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path(AppointmentsFile)); err != nil {
		return fmt.Errorf("replace appointments file: %w", err)
	}
	return nil
}

func (b *CSVBackend) Ping(context.Context) error {
	info, err := os.Stat(b.dir)
	if err != nil {
		return fmt.Errorf("stat data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", b.dir)
	}
	return nil
}

func (b *CSVBackend) Close() error { return nil }

func (b *CSVBackend) append(name string, rec []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := os.OpenFile(b.path(name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(rec); err != nil {
		f.Close()
		return fmt.Errorf("append to %s: %w", name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("append to %s: %w", name, err)
	}
	return f.Close()
}

// loadFile reads every record of name. A missing file is an empty
// collection; malformed rows are logged and skipped.
func loadFile[T any](ctx context.Context, b *CSVBackend, name string, parse func([]string) (T, error)) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	out := []T{}
	f, err := os.Open(b.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		v, err := parse(rec)
		if err != nil {
			line, _ := r.FieldPos(0)
			b.log.Warn().Err(err).Str("file", name).Int("line", line).Msg("skipping malformed record")
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
