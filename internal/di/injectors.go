//go:build wireinject
// +build wireinject

package di

import (
	"appero/internal"
	"appero/internal/connectivity"
	"appero/internal/controllers"
	"appero/internal/providers"
	"appero/internal/services"
	"appero/internal/storage"
	"appero/internal/structures"
	"appero/internal/transport"

	wire "github.com/google/wire"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		storage.NewZstdCompressor,
		storage.NewStateStore,
		transport.NewClient,
		wire.Bind(new(transport.SenderInterface), new(*transport.Client)),
		connectivity.NewMonitorFromConfig,
		wire.Bind(new(connectivity.MonitorInterface), new(*connectivity.Monitor)),
		services.NewSyncEngine,
		wire.Bind(new(services.SyncEngineInterface), new(*services.SyncEngine)),
		wire.Bind(new(services.DrainTrigger), new(*services.SyncEngine)),
		services.NewScheduler,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
