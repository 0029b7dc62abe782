package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/studyline/testflow/config"
	"github.com/studyline/testflow/internal/api"
	"github.com/studyline/testflow/internal/engine"
	"github.com/studyline/testflow/internal/eventbus"
	"github.com/studyline/testflow/internal/logger"
	"go.uber.org/fx"
)

func main() {
	logger.Init()

	app := fx.New(
		// Core application components
		fx.Provide(
			config.NewConfig,
			eventbus.New,
			NewAPIClient,
		),

		// Attempt engine layer
		fx.Provide(
			engine.NewCatalog,
			engine.NewManager,
		),

		fx.Invoke(RunAttempt),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Runner finished, shutting down")
}

func NewAPIClient(cfg *config.Config) api.Client {
	return api.NewClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout)
}

// RunAttempt drives one interactive attempt session on the terminal and shuts
// the app down when it ends.
func RunAttempt(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	mgr *engine.Manager,
	client api.Client,
	cfg *config.Config,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := runAttempt(context.Background(), mgr, client, cfg); err != nil {
					log.Error().Err(err).Msg("Attempt run failed")
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			mgr.CloseAll()
			return nil
		},
	})
}
