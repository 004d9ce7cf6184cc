package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"SlinkyTA/internal/domain/models"
	domrepo "SlinkyTA/internal/domain/repository"
	"SlinkyTA/internal/domain/service"
	"SlinkyTA/internal/services/chart"
	"SlinkyTA/internal/services/rules"
	"SlinkyTA/pkg/logger"
)

// PipelineConfig bounds the external calls of one asset run.
type PipelineConfig struct {
	RenderTimeout time.Duration
	DetectTimeout time.Duration
}

// Pipeline turns a chart snapshot into persisted signals, one asset at a time.
type Pipeline struct {
	renderer  service.Renderer
	detector  service.Detector
	engine    *rules.Engine
	store     domrepo.SignalStore
	publisher domrepo.SignalPublisher
	latest    domrepo.LatestSignals
	metrics   domrepo.Metrics
	log       *logger.Logger
	cfg       PipelineConfig
	now       func() time.Time
}

// NewPipeline wires a pipeline. publisher and latest may be nil.
func NewPipeline(
	renderer service.Renderer,
	detector service.Detector,
	engine *rules.Engine,
	store domrepo.SignalStore,
	publisher domrepo.SignalPublisher,
	latest domrepo.LatestSignals,
	metrics domrepo.Metrics,
	log *logger.Logger,
	cfg PipelineConfig,
) *Pipeline {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		renderer:  renderer,
		detector:  detector,
		engine:    engine,
		store:     store,
		publisher: publisher,
		latest:    latest,
		metrics:   metrics,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
	}
}

// RunAll processes assets sequentially under one tick id and returns the total persisted.
func (p *Pipeline) RunAll(ctx context.Context, assets []models.Asset) int {
	tickID := uuid.NewString()
	log := p.log.With(logger.String("tick_id", tickID))
	log.Info("tick started", logger.Int("assets", len(assets)))

	total := 0
	for _, a := range assets {
		if ctx.Err() != nil {
			log.Warn("tick cancelled", logger.Error(ctx.Err()))
			break
		}
		total += p.runIsolated(ctx, a, log)
	}

	log.Info("tick finished", logger.Int("persisted", total))
	return total
}

// RunForAsset runs the whole chain for one asset. Every failure is logged and
// counted, never returned; the result is the number of signals persisted.
func (p *Pipeline) RunForAsset(ctx context.Context, asset models.Asset) int {
	return p.runIsolated(ctx, asset, p.log.With(logger.String("tick_id", uuid.NewString())))
}

func (p *Pipeline) runIsolated(ctx context.Context, asset models.Asset, log *logger.Logger) int {
	log = log.With(logger.String("asset", asset.Symbol))
	start := time.Now()

	persisted, err := p.runForAsset(ctx, asset, log)
	p.metrics.RecordLatency("run", time.Since(start))

	if err != nil {
		kind := models.ErrorKind(err)
		p.metrics.RecordError(kind)
		p.metrics.RecordRun(asset.Symbol, "error")
		log.Error("asset run failed",
			logger.String("error_type", kind),
			logger.Int("persisted", persisted),
			logger.Error(err),
		)
		return persisted
	}

	p.metrics.RecordRun(asset.Symbol, "ok")
	log.Info("asset run finished", logger.Int("persisted", persisted))
	return persisted
}

func (p *Pipeline) runForAsset(ctx context.Context, asset models.Asset, log *logger.Logger) (persisted int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	snap, err := p.render(ctx, asset)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := snap.Close(); cerr != nil {
			log.Warn("snapshot cleanup failed", logger.Error(cerr))
		}
	}()

	r, err := chart.Calibrate(snap.Labels)
	if err != nil {
		return 0, err
	}
	p.metrics.RecordPriceRange(asset.Symbol, r)
	log.Debug("axis calibrated",
		logger.Float64("top", r.Top),
		logger.Float64("bottom", r.Bottom),
		logger.Int("labels", len(snap.Labels)),
	)

	img, err := snap.Image()
	if err != nil {
		return 0, models.NewExternalServiceError("renderer", err)
	}
	dets, err := p.detect(ctx, img)
	if err != nil {
		return 0, err
	}
	log.Debug("patterns detected", logger.Int("detections", len(dets)))

	at := p.now()
	for _, d := range dets {
		if !p.engine.Allowed(d.Class) {
			p.metrics.RecordDropped(asset.Symbol, "unrecognized")
			log.Debug("detection skipped", logger.String("class", d.Class))
			continue
		}
		sig, ok := p.engine.Derive(asset.Symbol, d, snap.Height, r, at)
		if !ok {
			p.metrics.RecordDropped(asset.Symbol, "invalid")
			log.Warn("detection has no usable levels",
				logger.String("class", d.Class),
				logger.Float64("y", d.Y),
				logger.Float64("height", d.Height),
			)
			continue
		}

		if err := p.insert(ctx, &sig); err != nil {
			return persisted, err
		}
		persisted++
		p.metrics.RecordSignal(asset.Symbol, sig.Pattern)
		log.Info("signal persisted",
			logger.Int64("id", sig.ID),
			logger.String("pattern", sig.Pattern),
			logger.String("direction", sig.Direction),
			logger.Float64("entry", sig.Entry),
			logger.Float64("sl", sig.SL),
			logger.Float64("tp1", sig.TP1),
			logger.Float64("tp2", sig.TP2),
			logger.Float64("confidence", sig.Confidence),
		)
		p.fanOut(ctx, &sig, log)
	}
	return persisted, nil
}

func (p *Pipeline) render(ctx context.Context, asset models.Asset) (*models.Snapshot, error) {
	ctx, cancel := withTimeout(ctx, p.cfg.RenderTimeout)
	defer cancel()

	start := time.Now()
	snap, err := p.renderer.Render(ctx, asset)
	p.metrics.RecordLatency("render", time.Since(start))
	if err != nil {
		return nil, models.NewExternalServiceError("renderer", err)
	}
	if snap == nil {
		return nil, models.NewExternalServiceError("renderer", errors.New("no snapshot"))
	}
	return snap, nil
}

func (p *Pipeline) detect(ctx context.Context, img []byte) ([]models.Detection, error) {
	ctx, cancel := withTimeout(ctx, p.cfg.DetectTimeout)
	defer cancel()

	start := time.Now()
	dets, err := p.detector.Detect(ctx, img)
	p.metrics.RecordLatency("detect", time.Since(start))
	if err != nil {
		return nil, models.NewExternalServiceError("detector", err)
	}
	return dets, nil
}

func (p *Pipeline) insert(ctx context.Context, sig *models.Signal) error {
	start := time.Now()
	err := p.store.Insert(ctx, sig)
	p.metrics.RecordLatency("insert", time.Since(start))
	if err == nil {
		return nil
	}
	var pe *models.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &models.PersistenceError{Op: "insert", Err: err}
}

// fanOut pushes a persisted signal to the optional side channels. Their
// failures are logged only; the row is already committed.
func (p *Pipeline) fanOut(ctx context.Context, sig *models.Signal, log *logger.Logger) {
	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, sig); err != nil {
			p.metrics.RecordError("publish")
			log.Warn("signal publish failed", logger.Int64("id", sig.ID), logger.Error(err))
		}
	}
	if p.latest != nil {
		if err := p.latest.Put(ctx, sig); err != nil {
			p.metrics.RecordError("cache")
			log.Warn("latest signal cache update failed", logger.Int64("id", sig.ID), logger.Error(err))
		}
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

type nopMetrics struct{}

func (nopMetrics) RecordRun(string, string)                   {}
func (nopMetrics) RecordSignal(string, string)                {}
func (nopMetrics) RecordDropped(string, string)               {}
func (nopMetrics) RecordError(string)                         {}
func (nopMetrics) RecordPriceRange(string, models.PriceRange) {}
func (nopMetrics) RecordLatency(string, time.Duration)        {}
