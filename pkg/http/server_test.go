package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "SlinkyTA/pkg/logger"
)

type routes struct{}

func (routes) RegisterRoutes(e *echo.Echo) {
	e.GET("/ok", func(c echo.Context) error { return SuccessResponse(c, "pong") })
	e.GET("/boom", func(c echo.Context) error { panic("kaboom") })
	e.GET("/missing", func(c echo.Context) error { return AppErrorResponse(c, NotFoundError("gone")) })
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(echo.HeaderOrigin, "https://example.com")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestServerMiddlewareChain(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(applogger.Nop(), routes{}, WithRegistry(reg))

	rec := serve(s, http.MethodGet, "/ok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"message":"OK","data":"pong"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))

	rec = serve(s, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = serve(s, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `slinky_http_requests_total{method="GET",route="/ok",status="200"} 1`)
	assert.Contains(t, body, `slinky_http_requests_total{method="GET",route="/boom",status="500"} 1`)
	assert.Contains(t, body, `slinky_http_requests_total{method="GET",route="/missing",status="404"} 1`)
}

func TestServerWithoutCORS(t *testing.T) {
	s := NewServer(nil, routes{}, WithRegistry(prometheus.NewRegistry()), WithCORS(false))

	rec := serve(s, http.MethodGet, "/ok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
