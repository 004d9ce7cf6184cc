package usecase

import (
	"context"
	"errors"
	"fmt"

	"SlinkyTA/internal/domain/models"
	domrepo "SlinkyTA/internal/domain/repository"
	"SlinkyTA/internal/services/rules"
	"SlinkyTA/pkg/logger"
)

// ErrSignalNotFound is returned when an asset has no stored signal yet.
var ErrSignalNotFound = errors.New("signal not found")

// SignalQueryUseCase serves stored signals to the read API.
type SignalQueryUseCase struct {
	store  domrepo.SignalStore
	latest domrepo.LatestSignals
	assets []models.Asset
	log    *logger.Logger
}

func NewSignalQueryUseCase(store domrepo.SignalStore, latest domrepo.LatestSignals, assets []models.Asset, log *logger.Logger) *SignalQueryUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &SignalQueryUseCase{store: store, latest: latest, assets: assets, log: log}
}

// List returns stored signals, newest first.
func (uc *SignalQueryUseCase) List(ctx context.Context, q models.SignalQuery) ([]models.Signal, error) {
	if q.Pattern != "" {
		q.Pattern = rules.Normalize(q.Pattern)
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Limit > 1000 {
		q.Limit = 1000
	}

	out, err := uc.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	for i := range out {
		withDirection(&out[i])
	}
	return out, nil
}

// Latest returns the newest signal for asset, from the cache when it has one.
func (uc *SignalQueryUseCase) Latest(ctx context.Context, asset string) (*models.Signal, error) {
	if uc.latest != nil {
		sig, ok, err := uc.latest.Get(ctx, asset)
		if err != nil {
			uc.log.Warn("latest signal cache read failed", logger.String("asset", asset), logger.Error(err))
		} else if ok {
			withDirection(sig)
			return sig, nil
		}
	}

	out, err := uc.store.List(ctx, models.SignalQuery{Asset: asset, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("latest signal: %w", err)
	}
	if len(out) == 0 {
		return nil, ErrSignalNotFound
	}
	sig := out[0]
	withDirection(&sig)
	return &sig, nil
}

// Assets returns the configured assets.
func (uc *SignalQueryUseCase) Assets() []models.Asset {
	return uc.assets
}

// Health reports whether the store is reachable.
func (uc *SignalQueryUseCase) Health(ctx context.Context) error {
	return uc.store.Health(ctx)
}

func withDirection(s *models.Signal) {
	if s.Direction != "" {
		return
	}
	if rule, ok := rules.Lookup(s.Pattern); ok {
		s.Direction = rule.Direction()
	}
}
