package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"SlinkyTA/internal/domain/models"
	domrepo "SlinkyTA/internal/domain/repository"
	applogger "SlinkyTA/pkg/logger"
)

var clickhouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS signals (
		id          UInt64,
		asset       LowCardinality(String),
		pattern     LowCardinality(String),
		entry       Float64,
		sl          Float64,
		tp1         Float64,
		tp2         Float64,
		confidence  Float64,
		detected_at DateTime64(3) DEFAULT now64(3)
	) ENGINE = MergeTree
	ORDER BY (asset, detected_at, id)`,
}

// ClickHouseSignalStore keeps signals in ClickHouse. ClickHouse has no
// auto-increment, so ids come from a sequence seeded with max(id) at Init.
// A single writer process is assumed.
type ClickHouseSignalStore struct {
	db  *sqlx.DB
	l   *applogger.Logger
	now func() time.Time

	mu     sync.Mutex
	lastID int64
}

var _ domrepo.SignalStore = (*ClickHouseSignalStore)(nil)

// NewClickHouseSignalStore creates the store.
func NewClickHouseSignalStore(db *sqlx.DB, l *applogger.Logger) *ClickHouseSignalStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseSignalStore{db: db, l: l, now: time.Now}
}

// Init creates the table and seeds the id sequence.
func (s *ClickHouseSignalStore) Init(ctx context.Context) error {
	for _, stmt := range clickhouseSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &models.PersistenceError{Op: "init", Err: err}
		}
	}

	var maxID sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT toInt64(max(id)) FROM signals").Scan(&maxID); err != nil {
		return &models.PersistenceError{Op: "init", Err: fmt.Errorf("seed id: %w", err)}
	}

	s.mu.Lock()
	s.lastID = maxID.Int64
	s.mu.Unlock()

	s.l.Info("clickhouse signal store ready", applogger.Int64("last_id", maxID.Int64))
	return nil
}

// Insert appends sig and fills in its ID and DetectedAt.
func (s *ClickHouseSignalStore) Insert(ctx context.Context, sig *models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.lastID + 1
	at := s.now().UTC().Truncate(time.Millisecond)

	const q = `INSERT INTO signals (id, asset, pattern, entry, sl, tp1, tp2, confidence, detected_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		uint64(id), sig.Asset, sig.Pattern, sig.Entry, sig.SL, sig.TP1, sig.TP2, sig.Confidence, at)
	if err != nil {
		return &models.PersistenceError{Op: "insert", Err: err}
	}

	s.lastID = id
	sig.ID = id
	sig.DetectedAt = at
	return nil
}

// List returns matching signals, newest first.
func (s *ClickHouseSignalStore) List(ctx context.Context, q models.SignalQuery) ([]models.Signal, error) {
	const columns = "toInt64(id) AS id, asset, pattern, entry, sl, tp1, tp2, confidence, detected_at"
	query, args := buildListQuery("signals", columns, q, sqlx.QUESTION)

	out := []models.Signal{}
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		s.l.Error("clickhouse list signals failed", applogger.Error(err))
		return nil, fmt.Errorf("list signals: %w", err)
	}
	return out, nil
}

// Health pings the server.
func (s *ClickHouseSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool is owned by pkg/clickhouse.
func (s *ClickHouseSignalStore) Close() error {
	return nil
}
