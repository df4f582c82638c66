package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/posts-sync/internal/config"
	"github.com/Sternrassler/posts-sync/pkg/batch"
	"github.com/Sternrassler/posts-sync/pkg/checkpoint"
	"github.com/Sternrassler/posts-sync/pkg/client"
	"github.com/Sternrassler/posts-sync/pkg/logging"
	"github.com/Sternrassler/posts-sync/pkg/migrate"
	"github.com/Sternrassler/posts-sync/pkg/sink"
	"github.com/rs/zerolog"
)

// app holds the wired components shared by every command.
type app struct {
	cfg     *config.Config
	api     *client.Client
	nodes   sink.Store
	store   checkpoint.Store
	driver  *batch.Driver
	updater *sink.Updater
	logger  zerolog.Logger
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logging.Setup(cfg.LoggerConfig())
	logger := logging.NewLogger("cli")

	api, err := client.New(cfg.ClientConfig())
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	nodes, err := sink.Open(ctx, cfg.Sink.Driver, cfg.Sink.DSN)
	if err != nil {
		return nil, err
	}

	store, err := checkpoint.Open(ctx, cfg.Checkpoint.Backend, cfg.Checkpoint.DSN, cfg.Checkpoint.TTL)
	if err != nil {
		nodes.Close()
		return nil, err
	}

	updater := sink.NewUpdater(nodes)
	driver, err := batch.New(batch.Config{
		API:          api,
		Sink:         updater,
		Store:        store,
		ItemsPerStep: cfg.Batch.ItemsPerStep,
	})
	if err != nil {
		nodes.Close()
		store.Close()
		return nil, err
	}

	logger.Debug().
		Str("base_url", api.BaseURL()).
		Str("sink", sink.Canonical(cfg.Sink.Driver)).
		Str("checkpoint", cfg.Checkpoint.Backend).
		Msg("Components ready")

	return &app{
		cfg:     cfg,
		api:     api,
		nodes:   nodes,
		store:   store,
		driver:  driver,
		updater: updater,
		logger:  logger,
	}, nil
}

func (a *app) source() *migrate.Source {
	return migrate.NewSource(a.api)
}

func (a *app) Close() error {
	return errors.Join(a.nodes.Close(), a.store.Close())
}
