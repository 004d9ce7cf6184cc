package repository

import (
	"context"
	"time"

	"SlinkyTA/internal/domain/models"
)

// SignalStore is the append-only sink for derived signals.
type SignalStore interface {
	Init(ctx context.Context) error // ensure schema
	// Insert appends s as one committed row and fills s.ID and s.DetectedAt.
	Insert(ctx context.Context, s *models.Signal) error
	List(ctx context.Context, q models.SignalQuery) ([]models.Signal, error)
	Health(ctx context.Context) error
	Close() error
}

// SignalPublisher fans persisted signals out to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, s *models.Signal) error
	Close() error
}

// LatestSignals caches the most recent signal per asset.
type LatestSignals interface {
	Put(ctx context.Context, s *models.Signal) error
	Get(ctx context.Context, asset string) (*models.Signal, bool, error)
}

type Metrics interface {
	RecordRun(asset, result string)
	RecordSignal(asset, pattern string)
	RecordDropped(asset, reason string)
	RecordError(kind string)
	RecordPriceRange(asset string, r models.PriceRange)
	RecordLatency(op string, d time.Duration)
}
