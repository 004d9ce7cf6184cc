//go:build wireinject
// +build wireinject

package di

import (
	"SlinkyTA/pkg/config"
	"SlinkyTA/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideSignalStore,
		ProvideSignalPublisher,
		ProvideCache,
		ProvideLatestSignals,

		// External services
		ProvideRenderer,
		ProvideDetector,

		// Use cases
		ProvideRuleEngine,
		ProvidePipeline,
		ProvideSignalQuery,

		// Transport
		ProvideSignalsHandler,
		ProvideHTTPServer,
		ProvideScheduler,

		ProvideApp,
	)
	return &server.App{}, nil, nil
}
