package repository

import (
	"context"
	"errors"
	"time"

	"SlinkyTA/internal/domain/models"
	domrepo "SlinkyTA/internal/domain/repository"
	"SlinkyTA/pkg/cache"
)

// LatestSignalCache remembers the newest signal per asset for the query API.
type LatestSignalCache struct {
	c   cache.Service
	ttl time.Duration
}

var _ domrepo.LatestSignals = (*LatestSignalCache)(nil)

// NewLatestSignalCache creates the cache adapter.
func NewLatestSignalCache(c cache.Service, ttl time.Duration) *LatestSignalCache {
	return &LatestSignalCache{c: c, ttl: ttl}
}

func latestKey(asset string) string { return "latest:" + asset }

// Put stores sig as the newest signal of its asset.
func (l *LatestSignalCache) Put(ctx context.Context, sig *models.Signal) error {
	return l.c.Set(ctx, latestKey(sig.Asset), sig, l.ttl)
}

// Get returns the cached newest signal, reporting false on a miss.
func (l *LatestSignalCache) Get(ctx context.Context, asset string) (*models.Signal, bool, error) {
	var sig models.Signal
	if err := l.c.Get(ctx, latestKey(asset), &sig); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &sig, true, nil
}
