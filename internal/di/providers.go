package di

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"SlinkyTA/internal/domain/repository"
	"SlinkyTA/internal/domain/service"
	"SlinkyTA/internal/handler/api"
	internalrepo "SlinkyTA/internal/repository"
	"SlinkyTA/internal/services/detector"
	"SlinkyTA/internal/services/renderer"
	"SlinkyTA/internal/services/rules"
	"SlinkyTA/internal/usecase"
	"SlinkyTA/pkg/cache"
	pkgch "SlinkyTA/pkg/clickhouse"
	"SlinkyTA/pkg/config"
	xhttp "SlinkyTA/pkg/http"
	pkgkafka "SlinkyTA/pkg/kafka"
	applogger "SlinkyTA/pkg/logger"
	"SlinkyTA/pkg/metrics"
	"SlinkyTA/pkg/postgres"
	"SlinkyTA/pkg/scheduler"
	"SlinkyTA/pkg/server"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSignalStore opens the configured backend. The cleanup closes its pool.
func ProvideSignalStore(cfg *config.Config, l *applogger.Logger) (repository.SignalStore, func(), error) {
	switch cfg.Store.Backend {
	case "clickhouse":
		ch := cfg.Store.ClickHouse
		client, err := pkgch.NewClient(
			pkgch.WithHost(ch.Host),
			pkgch.WithPort(ch.Port),
			pkgch.WithDatabase(ch.Database),
			pkgch.WithCredentials(ch.User, ch.Password),
			pkgch.WithMaxConnections(4, 2),
			pkgch.WithHTTP(ch.UseHTTP),
			pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
			pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				l.Warn("clickhouse close error", applogger.Error(err))
			}
		}
		return internalrepo.NewClickHouseSignalStore(client.DBx(), l), cleanup, nil

	default:
		pg := cfg.Store.Postgres
		client, err := postgres.NewClient(
			postgres.WithDSN(pg.DSN),
			postgres.WithMaxConnections(pg.MaxOpenConns, pg.MaxIdleConns),
			postgres.WithConnMaxLifetime(pg.ConnMaxLifetime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres client: %w", err)
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				l.Warn("postgres close error", applogger.Error(err))
			}
		}
		return internalrepo.NewPostgresSignalStore(client.DB(), pg.QueryTimeout), cleanup, nil
	}
}

// ProvideSignalPublisher returns a Kafka publisher when kafka is enabled, otherwise a no-op.
func ProvideSignalPublisher(cfg *config.Config, l *applogger.Logger) (repository.SignalPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopPublisher{}, func() {}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	pub := internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
	cleanup := func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return pub, cleanup, nil
}

// ProvideCache returns an in-process cache, layered over Redis when redis is enabled.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	mem := cache.NewMemoryCache(cache.WithMemoryMaxSize(4 * len(cfg.Assets)))
	if !cfg.Redis.Enabled {
		return mem, func() { _ = mem.Close() }, nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}

	lc := cache.NewLayeredCache(rc, mem, time.Minute)
	cleanup := func() {
		if err := lc.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}
	return lc, cleanup, nil
}

// ProvideLatestSignals creates the latest-signal cache adapter.
func ProvideLatestSignals(c cache.Service, cfg *config.Config) repository.LatestSignals {
	return internalrepo.NewLatestSignalCache(c, cfg.Redis.LatestTTL)
}

// ProvideRenderer creates the headless Chrome renderer.
func ProvideRenderer(cfg *config.Config, l *applogger.Logger) service.Renderer {
	r := cfg.Renderer
	return renderer.NewChrome(renderer.Config{
		ChromePath:     r.ChromePath,
		Headless:       r.Headless,
		Width:          r.Width,
		Height:         r.Height,
		LoadDelay:      r.LoadDelay,
		SettleDelay:    r.SettleDelay,
		Timeout:        r.Timeout,
		ScreenshotDir:  r.ScreenshotDir,
		LabelSelectors: r.LabelSelectors,
	}, l)
}

// ProvideDetector creates the Roboflow detector client.
func ProvideDetector(cfg *config.Config, l *applogger.Logger) service.Detector {
	d := cfg.Detector
	return detector.NewRoboflow(detector.Config{
		APIURL:      d.APIURL,
		APIKey:      d.APIKey,
		ModelID:     d.ModelID,
		Timeout:     d.Timeout,
		RPS:         d.RateLimit.RPS,
		Burst:       d.RateLimit.Burst,
		MaxFailures: d.Breaker.MaxFailures,
		OpenTimeout: d.Breaker.OpenTimeout,
	}, l)
}

// ProvideRuleEngine creates the rule engine over the configured allow-list.
func ProvideRuleEngine(cfg *config.Config) *rules.Engine {
	return rules.NewEngine(cfg.Patterns, cfg.Risk)
}

// ProvidePipeline creates the pipeline use case.
func ProvidePipeline(
	cfg *config.Config,
	r service.Renderer,
	d service.Detector,
	engine *rules.Engine,
	store repository.SignalStore,
	pub repository.SignalPublisher,
	latest repository.LatestSignals,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Pipeline {
	return usecase.NewPipeline(r, d, engine, store, pub, latest, m, l, usecase.PipelineConfig{
		RenderTimeout: cfg.Renderer.Timeout,
		DetectTimeout: cfg.Detector.Timeout,
	})
}

// ProvideSignalQuery creates the read-side use case.
func ProvideSignalQuery(cfg *config.Config, store repository.SignalStore, latest repository.LatestSignals, l *applogger.Logger) *usecase.SignalQueryUseCase {
	return usecase.NewSignalQueryUseCase(store, latest, cfg.Assets, l)
}

// ProvideSignalsHandler creates the HTTP handler.
func ProvideSignalsHandler(l *applogger.Logger, uc *usecase.SignalQueryUseCase) *api.SignalsEchoHandler {
	return api.NewSignalsEchoHandler(l, uc)
}

// ProvideHTTPServer creates the echo server, or nil when the API is disabled.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.SignalsEchoHandler) *xhttp.Server {
	if !cfg.Server.Enabled {
		return nil
	}
	return xhttp.NewServer(l, h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
}

// ProvideScheduler creates a wall-clock scheduler.
func ProvideScheduler(cfg *config.Config, l *applogger.Logger) *scheduler.Scheduler {
	return scheduler.New(clock.New(), cfg.Scheduler.PollInterval, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	p *usecase.Pipeline,
	store repository.SignalStore,
	sched *scheduler.Scheduler,
	httpServer *xhttp.Server,
) *server.App {
	return server.New(cfg, l, p, store, sched, httpServer)
}
