package main

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/Artiqlate/callisto"
	"github.com/Artiqlate/callisto/config"
	"github.com/Artiqlate/callisto/utils"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// AppOptions is the application graph for one configuration.
func AppOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		// Logger configuration
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		// Provide dependencies
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			callisto.NewServerModule,
		),

		// Lifecycle hooks
		fx.Invoke(registerHooks),
	)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return utils.NewLogger(cfg.Log.Level, cfg.Log.Development)
}

// registerHooks starts the server with the application. A server that stops
// on its own shuts the application down.
func registerHooks(lc fx.Lifecycle, shutdowner fx.Shutdowner, server *callisto.ServerModule, logger *zap.Logger) {
	var stopping atomic.Bool
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if startErr := server.Start(); startErr != nil {
				return startErr
			}
			logger.Info("callisto started")
			go func() {
				<-server.Done()
				if !stopping.Load() {
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopping.Store(true)
			logger.Info("shutting down")
			stopErr := server.Stop(ctx)
			_ = logger.Sync()
			return stopErr
		},
	})
}

// run starts the application and blocks until a signal or a server failure.
func run(ctx context.Context, cfg *config.Config) error {
	app := fx.New(AppOptions(cfg))
	if startErr := app.Start(ctx); startErr != nil {
		return startErr
	}

	var shutdown fx.ShutdownSignal
	select {
	case shutdown = <-app.Wait():
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	stopErr := app.Stop(stopCtx)
	if shutdown.ExitCode != 0 {
		return multierr.Append(fmt.Errorf("server stopped unexpectedly (exit code %d)", shutdown.ExitCode), stopErr)
	}
	return stopErr
}
