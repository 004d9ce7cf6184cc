package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"SlinkyTA/internal/domain/models"
	"SlinkyTA/internal/usecase"
	xhttp "SlinkyTA/pkg/http"
	xlogger "SlinkyTA/pkg/logger"
	"SlinkyTA/pkg/util"
)

// SignalsEchoHandler serves the read-only signal API.
type SignalsEchoHandler struct {
	logger *xlogger.Logger
	uc     *usecase.SignalQueryUseCase
}

func NewSignalsEchoHandler(logger *xlogger.Logger, uc *usecase.SignalQueryUseCase) *SignalsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &SignalsEchoHandler{logger: logger, uc: uc}
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/signals", h.List)
	g.GET("/signals/latest", h.Latest)
	g.GET("/assets", h.Assets)
}

func (h *SignalsEchoHandler) List(c echo.Context) error {
	req := &models.ListSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	q := models.SignalQuery{Asset: req.Asset, Pattern: req.Pattern, Limit: req.Limit}
	if req.Since != "" {
		since, ok := util.ParseTime(req.Since)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("since %q is not a valid time", req.Since).
				WithParam("formats", []string{"RFC3339", "2006-01-02", "unix seconds"}))
		}
		q.Since = since
	}

	rows, err := h.uc.List(c.Request().Context(), q)
	if err != nil {
		h.logger.Error("list signals error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not list signals").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *SignalsEchoHandler) Latest(c echo.Context) error {
	req := &models.LatestSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sig, err := h.uc.Latest(c.Request().Context(), req.Asset)
	if errors.Is(err, usecase.ErrSignalNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no signal for asset %s", req.Asset))
	}
	if err != nil {
		h.logger.Error("latest signal error", xlogger.String("asset", req.Asset), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not load latest signal").WithError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, sig)
}

func (h *SignalsEchoHandler) Assets(c echo.Context) error {
	assets := h.uc.Assets()
	return xhttp.ListResponse(c, assets, int64(len(assets)))
}

func (h *SignalsEchoHandler) Health(c echo.Context) error {
	if err := h.uc.Health(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", xlogger.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
