package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"platsbanken-sync/internal/config"
	"platsbanken-sync/internal/logging"
)

// Connect opens a pgx connection pool against the configured database and
// verifies connectivity before returning it.
func Connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database url is not configured")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.GetGlobalLogger().Info("Connected to database", map[string]interface{}{
		"max_conns": cfg.Database.MaxConns,
	})

	return pool, nil
}

// schemaStatements create the schema on startup. Every statement is
// idempotent so repeated boots are safe.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE TABLE IF NOT EXISTS companies (
		id                  UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name                TEXT NOT NULL,
		organization_number TEXT UNIQUE,
		website             TEXT,
		description         TEXT,
		logo                TEXT,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id                       UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		company_id               UUID NOT NULL REFERENCES companies(id),
		title                    TEXT NOT NULL,
		description              TEXT NOT NULL DEFAULT '',
		url                      TEXT,
		occupation               TEXT,
		occupation_group         TEXT,
		occupation_field         TEXT,
		published_at             TIMESTAMPTZ NOT NULL,
		last_publication_date    TIMESTAMPTZ,
		expires_at               TIMESTAMPTZ,
		removed                  BOOLEAN NOT NULL DEFAULT FALSE,
		removed_at               TIMESTAMPTZ,
		last_checked             TIMESTAMPTZ NOT NULL DEFAULT now(),
		employment_type          TEXT,
		working_hours_type       TEXT,
		duration                 TEXT,
		vacancies                INTEGER,
		start_date               TEXT,
		workload_min             DOUBLE PRECISION,
		workload_max             DOUBLE PRECISION,
		salary_type              TEXT,
		salary_description       TEXT,
		experience_required      BOOLEAN NOT NULL DEFAULT FALSE,
		driving_license_required BOOLEAN NOT NULL DEFAULT FALSE,
		access_to_own_car        BOOLEAN NOT NULL DEFAULT FALSE,
		application_deadline     TIMESTAMPTZ,
		application_instructions TEXT,
		application_url          TEXT,
		application_email        TEXT,
		application_reference    TEXT,
		application_via_af       BOOLEAN NOT NULL DEFAULT FALSE,
		application_other        TEXT,
		workplace                TEXT,
		remote                   BOOLEAN NOT NULL DEFAULT FALSE,
		street_address           TEXT,
		city                     TEXT,
		municipality             TEXT,
		municipality_code        TEXT,
		region                   TEXT,
		region_code              TEXT,
		postal_code              TEXT,
		country                  TEXT NOT NULL,
		country_code             TEXT,
		location_formatted       TEXT,
		coordinates              geometry(Point, 4326),
		created_at               TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS job_source_links (
		id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		job_id     UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		source     TEXT NOT NULL,
		source_id  TEXT NOT NULL,
		source_url TEXT NOT NULL,
		UNIQUE (source, source_id)
	)`,
	`CREATE TABLE IF NOT EXISTS job_requirements (
		id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		job_id           UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		requirement_type TEXT NOT NULL,
		category         TEXT NOT NULL,
		label            TEXT NOT NULL,
		weight           DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS job_contacts (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		job_id      UUID NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		name        TEXT,
		role        TEXT,
		email       TEXT,
		phone       TEXT,
		description TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_last_checked ON jobs (last_checked)`,
	`CREATE INDEX IF NOT EXISTS idx_job_requirements_job_id ON job_requirements (job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_job_contacts_job_id ON job_contacts (job_id)`,
}

// Bootstrap creates the schema if it does not exist yet.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}
	return nil
}
