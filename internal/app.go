package internal

import (
	"appero/internal/connectivity"
	"appero/internal/controllers"
	"appero/internal/providers"
	"appero/internal/services"
	"appero/internal/structures"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

type App struct {
	WebServer *http.Server

	conf      *structures.Config
	logger    providers.Logger
	engine    *services.SyncEngine
	monitor   *connectivity.Monitor
	scheduler services.SchedulerInterface
}

func NewApp(
	apiController *controllers.ApiController,
	healthController *controllers.HealthController,
	engine *services.SyncEngine,
	monitor *connectivity.Monitor,
	scheduler services.SchedulerInterface,
	conf *structures.Config,
	logger providers.Logger,
	router providers.RouterProviderInterface,
	metrics providers.MetricsProviderInterface,
) *App {
	// Inner mux: bridge routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	instrumentedAPI := providers.AccessLogMiddleware(logger, providers.MetricsMiddleware(metrics, apiMux))

	// Outer mux: infrastructure + instrumented bridge
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", metrics.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: conf.Api.Timeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:      conf,
		logger:    logger,
		engine:    engine,
		monitor:   monitor,
		scheduler: scheduler,
	}
}

// Run restores state, starts the background workers and serves the bridge
// until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	defer app.logger.Close()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.logger.Infof(providers.TypeApp, "Starting %s", app.conf.AppName)
	if err := app.engine.Restore(); err != nil {
		app.logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}

	if app.conf.UserID != "" {
		app.engine.SetUserID(app.conf.UserID)
	}
	app.logger.Infof(providers.TypeApp, "Active user %s", app.engine.GenerateOrRestoreUserID())

	app.monitor.Start(ctx)
	app.engine.Start(ctx)
	app.scheduler.Init()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s", app.WebServer.Addr)
		if err := app.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.Infof(providers.TypeApp, "Shutdown signal received")

		app.scheduler.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := app.WebServer.Shutdown(shutdownCtx)

		app.engine.Stop()
		app.monitor.Stop()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	app.logger.Infof(providers.TypeApp, "gracefully stopped")
	return nil
}
