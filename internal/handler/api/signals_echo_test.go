package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SlinkyTA/internal/domain/models"
	domrepo "SlinkyTA/internal/domain/repository"
	"SlinkyTA/internal/repository"
	"SlinkyTA/internal/usecase"
	"SlinkyTA/pkg/cache"
	xhttp "SlinkyTA/pkg/http"
)

type stubStore struct {
	rows      []models.Signal
	lastQuery models.SignalQuery
	err       error
	healthErr error
}

func (s *stubStore) Init(context.Context) error                   { return nil }
func (s *stubStore) Insert(context.Context, *models.Signal) error { return nil }
func (s *stubStore) Health(context.Context) error                 { return s.healthErr }
func (s *stubStore) Close() error                                 { return nil }

func (s *stubStore) List(_ context.Context, q models.SignalQuery) ([]models.Signal, error) {
	s.lastQuery = q
	if s.err != nil {
		return nil, s.err
	}
	out := s.rows
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

var at = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(store *stubStore, latest *repository.LatestSignalCache) *echo.Echo {
	assets := []models.Asset{{Symbol: "BTC", Name: "Bitcoin", URL: "https://example.com/btc"}}
	var l domrepo.LatestSignals
	if latest != nil {
		l = latest
	}
	uc := usecase.NewSignalQueryUseCase(store, l, assets, nil)
	e := echo.New()
	NewSignalsEchoHandler(nil, uc).RegisterRoutes(e)
	return e
}

func do(t *testing.T, e *echo.Echo, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestListSignals(t *testing.T) {
	store := &stubStore{rows: []models.Signal{
		{ID: 2, Asset: "BTC", Pattern: "resistance", Entry: 110, SL: 111, TP1: 108.5, TP2: 108, Confidence: 0.7, DetectedAt: at},
		{ID: 1, Asset: "BTC", Pattern: "flag", Entry: 110, SL: 100, TP1: 125, TP2: 130, Confidence: 0.8, DetectedAt: at},
	}}
	e := newTestServer(store, nil)

	rec, env := do(t, e, "/api/signals?asset=BTC&pattern=Flag&since=2024-05-01&limit=10")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "BTC", store.lastQuery.Asset)
	assert.Equal(t, "flag", store.lastQuery.Pattern)
	assert.Equal(t, 10, store.lastQuery.Limit)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), store.lastQuery.Since)

	var list struct {
		Rows  []models.Signal `json:"rows"`
		Total int64           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(2), list.Total)
	assert.Equal(t, models.DirectionShort, list.Rows[0].Direction)
	assert.Equal(t, models.DirectionLong, list.Rows[1].Direction)
}

func TestListSignalsDefaultLimit(t *testing.T) {
	store := &stubStore{}
	e := newTestServer(store, nil)

	rec, _ := do(t, e, "/api/signals")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, store.lastQuery.Limit)
}

func TestListSignalsRejectsBadInput(t *testing.T) {
	e := newTestServer(&stubStore{}, nil)

	for _, target := range []string{
		"/api/signals?limit=5000",
		"/api/signals?limit=abc",
		"/api/signals?since=yesterday",
	} {
		rec, env := do(t, e, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, http.StatusBadRequest, env.Status, target)
	}
}

func TestValidationErrorsUseParamNames(t *testing.T) {
	e := newTestServer(&stubStore{}, nil)

	tests := []struct {
		target string
		want   xhttp.ValidationError
	}{
		{
			target: "/api/signals?limit=5000",
			want: xhttp.ValidationError{
				Code:    "ERR_LTE",
				Field:   "limit",
				Message: "limit must be at most 1000",
				Params:  map[string]interface{}{"max": "1000"},
			},
		},
		{
			target: "/api/signals/latest",
			want: xhttp.ValidationError{
				Code:    "ERR_REQUIRED",
				Field:   "asset",
				Message: "asset is required",
			},
		},
	}
	for _, tt := range tests {
		rec, env := do(t, e, tt.target)
		require.Equal(t, http.StatusBadRequest, rec.Code, tt.target)

		var errs []xhttp.ValidationError
		require.NoError(t, json.Unmarshal(env.Data, &errs), tt.target)
		require.Len(t, errs, 1, tt.target)
		assert.Equal(t, tt.want, errs[0], tt.target)
	}
}

func TestListSignalsStoreError(t *testing.T) {
	e := newTestServer(&stubStore{err: errors.New("db down")}, nil)

	rec, _ := do(t, e, "/api/signals")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLatestSignalFromCache(t *testing.T) {
	store := &stubStore{}
	latest := repository.NewLatestSignalCache(cache.NewMemoryCache(), time.Hour)
	require.NoError(t, latest.Put(context.Background(), &models.Signal{ID: 9, Asset: "BTC", Pattern: "channel", DetectedAt: at}))
	e := newTestServer(store, latest)

	rec, env := do(t, e, "/api/signals/latest?asset=BTC")
	require.Equal(t, http.StatusOK, rec.Code)

	var sig models.Signal
	require.NoError(t, json.Unmarshal(env.Data, &sig))
	assert.Equal(t, int64(9), sig.ID)
	assert.Equal(t, models.DirectionLong, sig.Direction)
	assert.Empty(t, store.lastQuery.Asset, "store must not be queried on a cache hit")
}

func TestLatestSignalFallsBackToStore(t *testing.T) {
	store := &stubStore{rows: []models.Signal{{ID: 4, Asset: "BTC", Pattern: "flag", DetectedAt: at}}}
	latest := repository.NewLatestSignalCache(cache.NewMemoryCache(), time.Hour)
	e := newTestServer(store, latest)

	rec, env := do(t, e, "/api/signals/latest?asset=BTC")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, store.lastQuery.Limit)

	var sig models.Signal
	require.NoError(t, json.Unmarshal(env.Data, &sig))
	assert.Equal(t, int64(4), sig.ID)
}

func TestLatestSignalNotFound(t *testing.T) {
	e := newTestServer(&stubStore{}, nil)

	rec, _ := do(t, e, "/api/signals/latest?asset=DOGE")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, e, "/api/signals/latest")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssetsAndHealth(t *testing.T) {
	store := &stubStore{}
	e := newTestServer(store, nil)

	rec, env := do(t, e, "/api/assets")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"symbol":"BTC"`)

	rec, _ = do(t, e, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	store.healthErr = errors.New("down")
	rec, _ = do(t, e, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
