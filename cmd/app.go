package cmd

import (
	"context"
	"errors"
	"fmt"

	"table-sync/core/bitable"
	"table-sync/core/config"
	"table-sync/core/database"
	"table-sync/core/history"
	"table-sync/core/logger"
	"table-sync/core/storage"
	"table-sync/core/telemetry"
	"table-sync/feature/flush"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// services is the wired application shared by every command.
type services struct {
	cfg     *config.Config
	log     *zap.Logger
	service *flush.Service

	shutdown []func(context.Context) error
}

// bootstrap loads the configuration and wires the optional collaborators:
// object storage, the run history database and metric export.
func bootstrap(ctx context.Context) (*services, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a := &services{cfg: cfg, log: l}

	provider, stopMetrics, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, Version, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	a.shutdown = append(a.shutdown, stopMetrics)
	metrics, err := telemetry.NewMetrics(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create instruments: %w", err)
	}

	deps := flush.Deps{
		Remote: bitable.NewClient(cfg.Bitable,
			bitable.WithLogger(l),
			bitable.WithMetrics(metrics),
		),
		Metrics: metrics,
		Logger:  l,
	}

	if cfg.Storage.Enabled {
		objects, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
		deps.Objects = objects
		deps.Archive = storage.NewArchive(objects, cfg.Storage.Bucket, cfg.Storage.ReportPrefix)
	}

	if cfg.Database.Enabled {
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		store := history.NewStore(db)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		deps.History = store
		l.Info("Run history enabled", zap.String("driver", cfg.Database.Driver))
	}

	a.service, err = flush.NewService(cfg.Settings(), deps)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// close flushes metrics and the logger.
func (a *services) close(ctx context.Context) {
	for _, stop := range a.shutdown {
		if err := stop(ctx); err != nil {
			a.log.Warn("Shutdown step failed", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

// withApp bootstraps, runs fn and closes.
func withApp(cmd *cobra.Command, fn func(context.Context, *services) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	err = fn(ctx, a)
	if errors.Is(err, flush.ErrHistoryDisabled) {
		a.log.Warn("Set DATABASE_ENABLED=true to record runs")
	}
	return err
}
