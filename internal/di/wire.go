//go:build wireinject
// +build wireinject

package di

import (
	"RollSpread/pkg/config"
	"RollSpread/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRecorder,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvidePostgresClient,
		ProvideCache,
		ProvideKafkaProducer,

		// Repositories
		ProvideSpreadStore,
		ProvideExpiryStore,
		ProvidePriceSource,
		ProvidePublisher,
		ProvideArchiver,

		// Use cases
		ProvideFetcher,
		ProvideBuildOptions,
		ProvideSpreadBuilder,
		ProvideWarningCollector,
		ProvideBatchBuilder,
		ProvideSeasonalReport,

		// Application server
		ProvideBatchHandler,
		ProvideResources,
		ProvideApp,
	)
	return &server.App{}, nil
}
