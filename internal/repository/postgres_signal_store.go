package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"SlinkyTA/internal/domain/models"
	domrepo "SlinkyTA/internal/domain/repository"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS signals (
		id          BIGSERIAL PRIMARY KEY,
		asset       TEXT NOT NULL,
		pattern     TEXT NOT NULL,
		entry       DOUBLE PRECISION NOT NULL,
		sl          DOUBLE PRECISION NOT NULL,
		tp1         DOUBLE PRECISION NOT NULL,
		tp2         DOUBLE PRECISION NOT NULL,
		confidence  DOUBLE PRECISION NOT NULL,
		detected_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS signals_asset_detected_at_idx ON signals (asset, detected_at DESC)`,
}

// PostgresSignalStore keeps signals in PostgreSQL.
type PostgresSignalStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

var _ domrepo.SignalStore = (*PostgresSignalStore)(nil)

// NewPostgresSignalStore creates the store. timeout bounds each statement.
func NewPostgresSignalStore(db *sqlx.DB, timeout time.Duration) *PostgresSignalStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PostgresSignalStore{db: db, timeout: timeout}
}

// Init creates the signals table if it does not exist.
func (s *PostgresSignalStore) Init(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &models.PersistenceError{Op: "init", Err: err}
		}
	}
	return nil
}

// Insert appends sig and fills in its ID and DetectedAt.
func (s *PostgresSignalStore) Insert(ctx context.Context, sig *models.Signal) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	const q = `
		INSERT INTO signals (asset, pattern, entry, sl, tp1, tp2, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, detected_at`

	err := s.db.QueryRowxContext(ctx, q,
		sig.Asset, sig.Pattern, sig.Entry, sig.SL, sig.TP1, sig.TP2, sig.Confidence).
		Scan(&sig.ID, &sig.DetectedAt)
	if err != nil {
		return &models.PersistenceError{Op: "insert", Err: err}
	}
	return nil
}

// List returns matching signals, newest first.
func (s *PostgresSignalStore) List(ctx context.Context, q models.SignalQuery) ([]models.Signal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query, args := buildListQuery("signals", signalColumns, q, sqlx.DOLLAR)
	out := []models.Signal{}
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	return out, nil
}

// Health pings the database.
func (s *PostgresSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool is owned by pkg/postgres.
func (s *PostgresSignalStore) Close() error {
	return nil
}
