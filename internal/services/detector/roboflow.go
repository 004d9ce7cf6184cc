// Package detector calls a hosted object-detection model that finds chart
// patterns on a screenshot.
package detector

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"

	"SlinkyTA/internal/domain/models"
	"SlinkyTA/internal/service/metrics"
	"SlinkyTA/internal/service/ratelimit"
	xhttp "SlinkyTA/pkg/http"
	"SlinkyTA/pkg/logger"
)

// Config holds the detector endpoint and protection settings.
type Config struct {
	APIURL      string
	APIKey      string
	ModelID     string
	Timeout     time.Duration
	RPS         float64
	Burst       int
	MaxFailures uint32
	OpenTimeout time.Duration
}

// ErrEmptyImage is returned when Detect is called without image bytes.
var ErrEmptyImage = errors.New("empty image")

var errMalformed = errors.New("malformed inference response")

type prediction struct {
	Class      *string  `json:"class" validate:"required"`
	Confidence *float64 `json:"confidence" validate:"required,gte=0,lte=1"`
	X          *float64 `json:"x"`
	Y          *float64 `json:"y" validate:"required"`
	Width      *float64 `json:"width" validate:"omitempty,gte=0"`
	Height     *float64 `json:"height" validate:"required,gte=0"`
}

type inferResponse struct {
	Predictions []prediction `json:"predictions" validate:"required,dive"`
	Image       struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"image"`
}

// Roboflow is a Detector backed by the Roboflow hosted inference API.
type Roboflow struct {
	cfg      Config
	client   *xhttp.Client
	limiter  *ratelimit.Limiter
	breaker  *gobreaker.CircuitBreaker
	validate *validator.Validate
	log      *logger.Logger
}

// NewRoboflow creates a detector client.
func NewRoboflow(cfg Config, log *logger.Logger) *Roboflow {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 3
	}

	st := gobreaker.Settings{Name: "detector", Timeout: cfg.OpenTimeout}
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= cfg.MaxFailures
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}

	metrics.Register()
	metrics.BreakerState.WithLabelValues(st.Name).Set(float64(gobreaker.StateClosed))

	return &Roboflow{
		cfg:      cfg,
		client:   xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		limiter:  ratelimit.New(cfg.RPS, cfg.Burst),
		breaker:  gobreaker.NewCircuitBreaker(st),
		validate: validator.New(),
		log:      log,
	}
}

// Detect sends the image to the model and returns its predictions in image pixels.
func (r *Roboflow) Detect(ctx context.Context, image []byte) ([]models.Detection, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	if err := r.limiter.Wait(ctx, r.cfg.ModelID); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.infer(ctx, image)
	})
	if err != nil {
		metrics.DetectorLatency.WithLabelValues("error").Observe(time.Since(start).Seconds())
		metrics.DetectorErrors.WithLabelValues(errorReason(err)).Inc()
		return nil, err
	}
	metrics.DetectorLatency.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	return out.([]models.Detection), nil
}

func errorReason(err error) string {
	var se *xhttp.StatusError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.As(err, &se):
		return "status"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, errMalformed):
		return "malformed"
	default:
		return "transport"
	}
}

func (r *Roboflow) infer(ctx context.Context, image []byte) ([]models.Detection, error) {
	var resp inferResponse
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodPost,
		URL:         strings.TrimRight(r.cfg.APIURL, "/") + "/" + r.cfg.ModelID,
		Headers:     map[string]string{"Content-Type": xhttp.ContentTypeForm},
		QueryParams: map[string][]string{"api_key": {r.cfg.APIKey}},
		Body:        base64.StdEncoding.EncodeToString(image),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if err := r.validate.Struct(&resp); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}

	dets := make([]models.Detection, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		dets = append(dets, models.Detection{
			Class:      *p.Class,
			Confidence: *p.Confidence,
			Y:          *p.Y,
			Height:     *p.Height,
			X:          p.X,
			Width:      p.Width,
		})
	}
	r.log.Debug("inference done",
		logger.Int("predictions", len(dets)),
		logger.Float64("image_height", resp.Image.Height),
	)
	return dets, nil
}
