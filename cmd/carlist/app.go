package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"carlist/internal/config"
	"carlist/internal/eventbus"
	"carlist/internal/listing"
	"carlist/internal/logging"
	"carlist/internal/query"
	"carlist/internal/source"
)

// app holds the wired services shared by the commands
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	bus        eventbus.EventBus
	store      *listing.Store
	controller *query.Controller
	closeLog   func()
}

// newApp loads configuration, builds the logger and wires the store
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if endpoint != "" {
		cfg.Endpoint = endpoint
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, closeLog, err := logging.New(logging.Options{Path: logPath, Verbose: verbose})
	if err != nil {
		return nil, err
	}
	logger.Info("starting",
		zap.String("endpoint", cfg.Endpoint),
		zap.Bool("sequence_guard", cfg.SequenceGuard),
		zap.String("filter_base", cfg.FilterBase))

	bus := eventbus.New(logger)

	client := source.NewClient(cfg.Endpoint,
		source.WithTimeout(cfg.RequestTimeout.Std()),
		source.WithLogger(logger))

	base := listing.FilterHeld
	if cfg.FilterBase == config.FilterBaseFetched {
		base = listing.FilterFetched
	}
	store := listing.NewStore(client,
		listing.WithSequenceGuard(cfg.SequenceGuard),
		listing.WithFilterBase(base),
		listing.WithBus(bus),
		listing.WithLogger(logger))

	// Failed fetches are logged here; the UI reports them from the call result
	bus.Subscribe(eventbus.EventFetchFailed, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.FetchFailedEvent); ok {
			logger.Warn("fetch failed", zap.Uint64("seq", event.Seq), zap.Error(event.Err))
		}
	})

	return &app{
		cfg:        cfg,
		logger:     logger,
		bus:        bus,
		store:      store,
		controller: query.NewController(store, bus, logger),
		closeLog:   closeLog,
	}, nil
}

// Close stops the store and bus, then flushes the log
func (a *app) Close() {
	a.store.Close()
	a.bus.Close()
	a.logger.Info("stopped")
	a.closeLog()
}

// loadConfig reads the config file, writing the defaults on first run
func loadConfig() (*config.Config, error) {
	svc := config.NewConfigService()
	if configPath != "" {
		svc = config.NewConfigServiceAt(configPath)
	}

	if _, err := os.Stat(svc.Path()); errors.Is(err, os.ErrNotExist) {
		cfg := config.DefaultConfig()
		if err := svc.Save(cfg); err != nil {
			// Running without a saved config is fine
			fmt.Fprintf(os.Stderr, "could not write default config to %s: %v\n", svc.Path(), err)
		}
		return cfg, nil
	}

	cfg, err := svc.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", svc.Path(), err)
	}
	return cfg, nil
}
