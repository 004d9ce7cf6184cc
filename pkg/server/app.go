package server

import (
	"context"
	"fmt"
	"time"

	"SlinkyTA/internal/domain/models"
	"SlinkyTA/internal/domain/repository"
	"SlinkyTA/pkg/config"
	xhttp "SlinkyTA/pkg/http"
	applogger "SlinkyTA/pkg/logger"
	"SlinkyTA/pkg/scheduler"
)

const pipelineJob = "pipeline"

// TickRunner processes every asset once.
type TickRunner interface {
	RunAll(ctx context.Context, assets []models.Asset) int
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	runner     TickRunner
	store      repository.SignalStore
	sched      *scheduler.Scheduler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. httpServer may be nil.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	runner TickRunner,
	store repository.SignalStore,
	sched *scheduler.Scheduler,
	httpServer *xhttp.Server,
) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		log:        log,
		runner:     runner,
		store:      store,
		sched:      sched,
		httpServer: httpServer,
	}
}

// Run prepares the store, starts the scheduler and the HTTP API, and blocks
// until ctx is cancelled. Only startup failures are returned.
func (a *App) Run(ctx context.Context) error {
	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := a.store.Init(initCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	assets := a.cfg.Assets
	if err := a.sched.Add(scheduler.Job{
		Name:       pipelineJob,
		Interval:   a.cfg.Scheduler.Interval,
		RunOnStart: a.cfg.Scheduler.RunOnStart,
		Fn: func(ctx context.Context) {
			a.runner.RunAll(ctx, assets)
		},
	}); err != nil {
		return fmt.Errorf("schedule pipeline: %w", err)
	}

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			return fmt.Errorf("start http server: %w", err)
		}
	}

	schedDone := make(chan error, 1)
	go func() {
		schedDone <- a.sched.Run(ctx)
	}()

	symbols := make([]string, 0, len(assets))
	for _, as := range assets {
		symbols = append(symbols, as.Symbol)
	}
	next, _ := a.sched.NextRun(pipelineJob)
	a.log.Info("app started",
		applogger.Strings("assets", symbols),
		applogger.Duration("interval", a.cfg.Scheduler.Interval),
		applogger.String("next_run", next.Format(time.RFC3339)),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown(schedDone)
}

// shutdown stops the API first, then waits for an in-flight tick to wind down.
func (a *App) shutdown(schedDone <-chan error) error {
	if a.httpServer != nil {
		if err := a.httpServer.Stop(context.Background()); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if err := <-schedDone; err != nil {
		a.log.Warn("scheduler stop error", applogger.Error(err))
	}

	a.log.Info("shutdown complete", applogger.Int("ticks", a.sched.Runs(pipelineJob)))
	return nil
}
