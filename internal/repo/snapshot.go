// Package repo contains the local durable cache for the itinerary.
// The cache holds the last known-good snapshot (the last successful load or
// save) so the service has data to serve before, or without, the remote sheet.
// Each backend has its own file; only storage and type mapping live here.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/KarenSyu/travel/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SnapshotRepo stores whole-itinerary snapshots under a string key.
// The service layer depends on this interface, so it can be unit-tested with a
// mock and backed by either Postgres or Redis in production.
type SnapshotRepo interface {
	// Get returns the snapshot stored under key.
	// Returns domain.ErrNotFound if nothing has been stored yet.
	Get(ctx context.Context, key string) (domain.Itinerary, error)

	// Put stores it under key, replacing any previous snapshot.
	Put(ctx context.Context, key string, it domain.Itinerary) error
}

// pgSnapshotRepo is the Postgres implementation of SnapshotRepo.
type pgSnapshotRepo struct {
	db db
}

// NewSnapshotRepo constructs a Postgres-backed SnapshotRepo.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewSnapshotRepo(db db) SnapshotRepo {
	return &pgSnapshotRepo{db: db}
}

// Get reads the snapshot body for key.
func (r *pgSnapshotRepo) Get(ctx context.Context, key string) (domain.Itinerary, error) {
	const q = `SELECT body FROM itinerary_snapshots WHERE key = @key`

	var body []byte
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"key": key}).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Itinerary{}, fmt.Errorf("repo.SnapshotRepo.Get: %w", domain.ErrNotFound)
		}
		return domain.Itinerary{}, fmt.Errorf("repo.SnapshotRepo.Get: %w", err)
	}

	it, err := decodeSnapshot(body)
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("repo.SnapshotRepo.Get: %w", err)
	}
	return it, nil
}

// Put upserts the snapshot for key and refreshes updated_at.
func (r *pgSnapshotRepo) Put(ctx context.Context, key string, it domain.Itinerary) error {
	const q = `
		INSERT INTO itinerary_snapshots (key, body, updated_at)
		VALUES (@key, @body, @updated_at)
		ON CONFLICT (key) DO UPDATE
		SET body       = EXCLUDED.body,
		    updated_at = EXCLUDED.updated_at`

	body, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("repo.SnapshotRepo.Put: encode: %w", err)
	}

	args := pgx.NamedArgs{
		"key":        key,
		"body":       string(body),
		"updated_at": time.Now().UTC(),
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.SnapshotRepo.Put: %w", err)
	}
	return nil
}

// decodeSnapshot unmarshals a stored body. Days and activity slices are cloned
// so a snapshot that stored "null" still reads back as empty slices.
func decodeSnapshot(body []byte) (domain.Itinerary, error) {
	var it domain.Itinerary
	if err := json.Unmarshal(body, &it); err != nil {
		return domain.Itinerary{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return it.Clone(), nil
}
