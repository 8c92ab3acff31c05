// Package app assembles the service from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"go-peopleflow/internal/api"
	"go-peopleflow/internal/api/handler"
	"go-peopleflow/internal/calendar"
	"go-peopleflow/internal/category"
	"go-peopleflow/internal/config"
	"go-peopleflow/internal/logging"
	"go-peopleflow/internal/pipeline"
	"go-peopleflow/internal/store"
	"go-peopleflow/pkg/router"
	"go-peopleflow/pkg/utils"
)

// App holds the assembled components.
type App struct {
	Config   *config.Config
	Calendar calendar.Calendar
	Registry *category.Registry
	Engine   *pipeline.Engine
	Pipeline *pipeline.Pipeline
	Output   *utils.OutputManager
	Store    *store.Store // nil when built without persistence
}

// Build wires calendar, categories, engine, ingestion, export and pipeline.
// The store is opened only when persist is set.
func Build(cfg *config.Config, persist bool) (*App, error) {
	logger := logging.WithComponent("app")

	cal, err := Calendar(cfg.Calendar, logger)
	if err != nil {
		return nil, err
	}
	registry := Registry(cfg.Categories)

	engine := pipeline.NewEngine(cal,
		pipeline.WithSeasonCutoff(cfg.Aggregation.SeasonCutoff),
		pipeline.WithDuplicatePolicy(pipeline.DuplicatePolicy(cfg.Aggregation.Duplicates)),
		pipeline.WithLogger(logging.WithComponent("engine")),
	)

	var source pipeline.DataSource = pipeline.NewFetcher(cfg.Data.BaseDir, cfg.Data.FetchTimeout)
	if retry := cfg.Data.Retry(); retry.MaxAttempts > 1 {
		source = pipeline.NewRetrySource(source, retry)
	}

	out := utils.NewOutputManager(cfg.Export.OutputDir)
	if err := out.EnsureOutputDirExists(); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	a := &App{Config: cfg, Calendar: cal, Registry: registry, Engine: engine, Output: out}
	opts := []pipeline.Option{
		pipeline.WithRegistry(registry),
		pipeline.WithExporter(pipeline.NewExporter(out)),
		pipeline.WithRunTimeout(cfg.Data.RunTimeout),
	}
	if persist {
		st, err := store.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		a.Store = st
		opts = append(opts, pipeline.WithRecorder(st))
	}
	a.Pipeline = pipeline.New(source, engine, opts...)

	logger.Info().
		Int("groups", len(registry.Names())).
		Str("output_dir", cfg.Export.OutputDir).
		Bool("persist", persist).
		Msg("Application assembled")
	return a, nil
}

// Calendar returns the rule-based calendar, overlaid with the configured
// holiday table when one is set.
func Calendar(cfg config.CalendarConfig, logger zerolog.Logger) (calendar.Calendar, error) {
	rules := calendar.NewJapan()
	if cfg.HolidayFile == "" {
		return rules, nil
	}
	table, err := calendar.LoadFile(cfg.HolidayFile)
	if err != nil {
		return nil, fmt.Errorf("load holiday table: %w", err)
	}
	logger.Info().Str("file", cfg.HolidayFile).Int("holidays", table.Len()).Msg("Holiday table loaded")
	return calendar.Overlay(table, rules), nil
}

// Registry returns the category registry: the built-in groups plus the
// configured ones, or only the configured ones when Replace is set.
func Registry(cfg config.CategoriesConfig) *category.Registry {
	if cfg.Replace {
		return category.NewRegistry(cfg.Groups)
	}
	return category.Default().With(cfg.Groups)
}

// Router builds the HTTP router; it needs the store.
func (a *App) Router() (*router.Router, error) {
	if a.Store == nil {
		return nil, errors.New("router needs a store")
	}
	h := handler.New(a.Pipeline, a.Store, a.Calendar, a.Output)
	h.SetDefaultAPI(a.Config.Data.APIURL)
	return api.NewRouter(a.Config.Server, h), nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// Serve builds the application with its store and serves the API on addr
// until ctx is done.
func Serve(ctx context.Context, cfg *config.Config, addr string) error {
	a, err := Build(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.Router()
	if err != nil {
		return err
	}
	logger := logging.WithComponent("server")
	logger.Info().Int("routes", len(r.Routes())).Msg("Routes registered")
	return r.Start(ctx, addr, router.ServerOptions{
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          logger,
	})
}
