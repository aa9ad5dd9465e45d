package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// Schema creates the clinic tables when missing. Appointments keep their
// insertion order through seq so reloads see the same sequence.
const Schema = `
CREATE TABLE IF NOT EXISTS practitioners (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS patients (
	seq  BIGSERIAL,
	code CHAR(11) PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS appointments (
	seq               BIGINT NOT NULL,
	appointment_date  DATE NOT NULL,
	appointment_time  TEXT NOT NULL,
	patient_code      CHAR(11) NOT NULL,
	practitioner_code TEXT NOT NULL,
	status            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS appointments_seq_idx ON appointments (seq);

CREATE TABLE IF NOT EXISTS event_logs (
	id         UUID PRIMARY KEY,
	event_type TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
