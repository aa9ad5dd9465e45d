package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/directory"
)

// PostgresBackend stores the collections in PostgreSQL. Every appointment
// write is also recorded in event_logs.
type PostgresBackend struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewPostgresBackend(pool *pgxpool.Pool, log zerolog.Logger) *PostgresBackend {
	return &PostgresBackend{pool: pool, log: log}
}

// Helpers

func scanAppointment(row pgx.Row) (appointment.Appointment, error) {
	var (
		day    time.Time
		clock  string
		status string
		a      appointment.Appointment
	)
	if err := row.Scan(&day, &clock, &a.PatientCode, &a.PractitionerCode, &status); err != nil {
		return appointment.Appointment{}, err
	}

	c, err := appointment.ParseClock(clock)
	if err != nil {
		return appointment.Appointment{}, err
	}
	st, err := appointment.ParseStatus(status)
	if err != nil {
		return appointment.Appointment{}, err
	}
	a.Date = appointment.DateOf(day)
	a.Time = c
	a.Status = st
	return a, nil
}

func appointmentRow(seq int, a appointment.Appointment) []any {
	return []any{int64(seq), a.Date.Time(), a.Time.String(), a.PatientCode, a.PractitionerCode, string(a.Status)}
}

var appointmentColumns = []string{"seq", "appointment_date", "appointment_time", "patient_code", "practitioner_code", "status"}

// Event types written to event_logs.
const (
	EventAppointmentAppended = "appointment.appended"
	EventAppointmentsRewrite = "appointments.rewritten"
)

func insertEvent(ctx context.Context, tx pgx.Tx, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO event_logs (id, event_type, payload, created_at)
		VALUES ($1, $2, $3, now())
	`, uuid.New(), eventType, body)
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

// Interface methods

func (b *PostgresBackend) LoadPractitioners(ctx context.Context) ([]directory.Practitioner, error) {
	rows, err := b.pool.Query(ctx, `SELECT code, name FROM practitioners ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query practitioners: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (directory.Practitioner, error) {
		var p directory.Practitioner
		err := row.Scan(&p.Code, &p.Name)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan practitioners: %w", err)
	}
	return out, nil
}

func (b *PostgresBackend) LoadPatients(ctx context.Context) ([]directory.Patient, error) {
	rows, err := b.pool.Query(ctx, `SELECT name, code FROM patients ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (directory.Patient, error) {
		var p directory.Patient
		err := row.Scan(&p.Name, &p.Code)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan patients: %w", err)
	}
	return out, nil
}

func (b *PostgresBackend) LoadAppointments(ctx context.Context) ([]appointment.Appointment, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT appointment_date, appointment_time, patient_code, practitioner_code, status
		FROM appointments
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	result := []appointment.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			b.log.Warn().Err(err).Msg("skipping malformed appointment row")
			continue
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read appointments: %w", err)
	}
	return result, nil
}

func (b *PostgresBackend) AppendPractitioner(ctx context.Context, p directory.Practitioner) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO practitioners (code, name) VALUES ($1, $2)
		ON CONFLICT (code) DO NOTHING
	`, p.Code, p.Name)
	if err != nil {
		return fmt.Errorf("insert practitioner: %w", err)
	}
	return nil
}

func (b *PostgresBackend) AppendPatient(ctx context.Context, p directory.Patient) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO patients (code, name) VALUES ($1, $2)
		ON CONFLICT (code) DO NOTHING
	`, p.Code, p.Name)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (b *PostgresBackend) AppendAppointment(ctx context.Context, a appointment.Appointment) error {
	return pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO appointments (seq, appointment_date, appointment_time, patient_code, practitioner_code, status)
			SELECT COALESCE(MAX(seq), 0) + 1, $1::date, $2::text, $3::text, $4::text, $5::text FROM appointments
		`, a.Date.Time(), a.Time.String(), a.PatientCode, a.PractitionerCode, string(a.Status))
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		return insertEvent(ctx, tx, EventAppointmentAppended, map[string]string{
			"key":    a.Key().String(),
			"status": string(a.Status),
		})
	})
}

// OverwriteAppointments replaces the table contents with all inside one
// transaction.
func (b *PostgresBackend) OverwriteAppointments(ctx context.Context, all []appointment.Appointment) error {
	return pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM appointments`); err != nil {
			return fmt.Errorf("clear appointments: %w", err)
		}

		rows := make([][]any, 0, len(all))
		for i, a := range all {
			rows = append(rows, appointmentRow(i+1, a))
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"appointments"}, appointmentColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy appointments: %w", err)
		}

		return insertEvent(ctx, tx, EventAppointmentsRewrite, map[string]int{"count": len(all)})
	})
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}
