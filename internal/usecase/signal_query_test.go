package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SlinkyTA/internal/domain/models"
)

type queryStore struct {
	memStore
	queries []models.SignalQuery
	err     error
}

func (q *queryStore) List(_ context.Context, sq models.SignalQuery) ([]models.Signal, error) {
	q.queries = append(q.queries, sq)
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

type brokenLatest struct{}

func (brokenLatest) Put(context.Context, *models.Signal) error { return nil }
func (brokenLatest) Get(context.Context, string) (*models.Signal, bool, error) {
	return nil, false, errors.New("redis down")
}

func TestSignalQueryListNormalizesAndClamps(t *testing.T) {
	store := &queryStore{}
	uc := NewSignalQueryUseCase(store, nil, nil, nil)

	_, err := uc.List(context.Background(), models.SignalQuery{Pattern: "  Cup And Handle "})
	require.NoError(t, err)
	_, err = uc.List(context.Background(), models.SignalQuery{Limit: 5000})
	require.NoError(t, err)

	require.Len(t, store.queries, 2)
	assert.Equal(t, "cup and handle", store.queries[0].Pattern)
	assert.Equal(t, 50, store.queries[0].Limit)
	assert.Equal(t, 1000, store.queries[1].Limit)
}

func TestSignalQueryListFillsDirection(t *testing.T) {
	store := &queryStore{}
	store.rows = []models.Signal{{Pattern: "resistance"}, {Pattern: "triangle"}, {Pattern: "unknown"}}
	uc := NewSignalQueryUseCase(store, nil, nil, nil)

	out, err := uc.List(context.Background(), models.SignalQuery{})
	require.NoError(t, err)
	assert.Equal(t, models.DirectionShort, out[0].Direction)
	assert.Equal(t, models.DirectionLong, out[1].Direction)
	assert.Empty(t, out[2].Direction)
}

func TestSignalQueryListWrapsStoreError(t *testing.T) {
	store := &queryStore{err: errors.New("timeout")}
	uc := NewSignalQueryUseCase(store, nil, nil, nil)

	_, err := uc.List(context.Background(), models.SignalQuery{})
	assert.ErrorIs(t, err, store.err)
}

func TestSignalQueryLatest(t *testing.T) {
	store := &queryStore{}
	latest := &recLatest{}
	require.NoError(t, latest.Put(context.Background(), &models.Signal{ID: 3, Asset: "BTC", Pattern: "flag"}))
	uc := NewSignalQueryUseCase(store, latest, nil, nil)

	sig, err := uc.Latest(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, int64(3), sig.ID)
	assert.Equal(t, models.DirectionLong, sig.Direction)
	assert.Empty(t, store.queries)

	_, err = uc.Latest(context.Background(), "ETH")
	assert.ErrorIs(t, err, ErrSignalNotFound)
	require.Len(t, store.queries, 1)
	assert.Equal(t, models.SignalQuery{Asset: "ETH", Limit: 1}, store.queries[0])
}

func TestSignalQueryLatestIgnoresCacheErrors(t *testing.T) {
	store := &queryStore{}
	store.rows = []models.Signal{{ID: 7, Asset: "BTC", Pattern: "channel"}}
	uc := NewSignalQueryUseCase(store, brokenLatest{}, nil, nil)

	sig, err := uc.Latest(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, int64(7), sig.ID)
}
