package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"platsbanken-sync/pkg/models"
)

// Store is the persistence contract the importer and syncer work against.
type Store interface {
	UpsertCompany(ctx context.Context, company models.TransformedCompany) (string, error)
	FindJobIDBySource(ctx context.Context, source, sourceID string) (string, bool, error)
	CreateJob(ctx context.Context, companyID, source string, job *models.TransformedJob) (string, error)
	UpdateJob(ctx context.Context, jobID, companyID string, job *models.TransformedJob) error
	SetJobCoordinates(ctx context.Context, jobID string, coords *models.Coordinates) error
	ReplaceJobRequirements(ctx context.Context, jobID string, reqs []models.TransformedRequirement) error
	ReplaceJobContacts(ctx context.Context, jobID string, contacts []models.TransformedContact) error
	MarkJobRemoved(ctx context.Context, source, sourceID string, removedAt time.Time) (bool, error)
	LatestCheckedAt(ctx context.Context, source string) (*time.Time, error)

	// InTx runs fn against a store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Store) error) error

	Ping(ctx context.Context) error
}

// querier is the subset of pgx shared by a pool and a transaction, so the
// same query code runs inside and outside InTx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on top of a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   querier
}

// NewPostgresStore creates a store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, db: pool}
}

// InTx begins a transaction and hands fn a store bound to it. Nested calls
// reuse the ambient transaction.
func (s *PostgresStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}

	txStore := &PostgresStore{db: tx}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	_, err := s.db.Exec(ctx, "SELECT 1")
	return err
}
