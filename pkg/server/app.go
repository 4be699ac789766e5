package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/domain/repository"
	"RollSpread/internal/handler/batch"
	"RollSpread/internal/usecase"
	"RollSpread/pkg/cache"
	pkgch "RollSpread/pkg/clickhouse"
	"RollSpread/pkg/config"
	applogger "RollSpread/pkg/logger"
	pkgpg "RollSpread/pkg/postgres"
)

// Resources are the infrastructure handles closed when the App exits. Any
// of them may be nil.
type Resources struct {
	ClickHouse *pkgch.Client
	Postgres   *pkgpg.Client
	Cache      cache.Service
	Publisher  repository.EventPublisher
}

// App encapsulates the application lifecycle.
type App struct {
	cfg     *config.Config
	log     *applogger.Logger
	handler *batch.Handler
	report  *usecase.SeasonalReport
	store   repository.SpreadStore
	res     *Resources
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler *batch.Handler,
	report *usecase.SeasonalReport,
	store repository.SpreadStore,
	res *Resources,
) *App {
	if res == nil {
		res = &Resources{}
	}
	return &App{cfg: cfg, log: log, handler: handler, report: report, store: store, res: res}
}

// Run builds every definition of the configured input file and writes the
// output table. SIGINT/SIGTERM cancel the run.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.Close()

	if err := a.store.Init(ctx); err != nil {
		a.log.Error("store init failed", applogger.Error(err))
		return fmt.Errorf("init store: %w", err)
	}

	sum, err := a.handler.Run(ctx, a.cfg.Input.DefinitionsFile)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			a.log.Warn("batch interrupted")
		}
		return err
	}
	a.log.Info("batch summary",
		applogger.String("run_id", sum.RunID),
		applogger.Int("rows", sum.Rows),
		applogger.Any("counts", sum.Counts),
		applogger.String("archive", sum.Archive),
	)
	if sum.Counts[models.StatusOK] == 0 && len(sum.Events) > 0 {
		return fmt.Errorf("no definition built successfully")
	}
	return nil
}

// SeasonalQuery selects what Seasonal reports on. When DefinitionRow is
// set, that row of DefinitionsFile is built on the fly instead of reading
// the stored table.
type SeasonalQuery struct {
	Filter          models.SpreadFilter
	DefinitionsFile string
	DefinitionRow   int
	WithOptions     bool
}

// SeasonalOutput is what cmd/seasonal prints.
type SeasonalOutput struct {
	Report  *usecase.Report        `json:"report"`
	Options *usecase.FilterOptions `json:"options,omitempty"`
}

// Seasonal produces the dashboard report for q.
func (a *App) Seasonal(ctx context.Context, q SeasonalQuery) (*SeasonalOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	out := &SeasonalOutput{}
	var err error
	if q.DefinitionRow > 0 {
		path := q.DefinitionsFile
		if path == "" {
			path = a.cfg.Input.DefinitionsFile
		}
		rows, err := batch.LoadDefinitions(ctx, path)
		if err != nil {
			return nil, err
		}
		row, err := batch.Select(rows, q.DefinitionRow)
		if err != nil {
			return nil, err
		}
		if row.Err != nil {
			return nil, fmt.Errorf("definition line %d: %w", row.Line, row.Err)
		}
		if out.Report, err = a.report.FromDefinition(ctx, row.Definition); err != nil {
			return nil, err
		}
	} else if out.Report, err = a.report.FromStore(ctx, q.Filter); err != nil {
		return nil, err
	}

	if q.WithOptions {
		if out.Options, err = a.report.Options(ctx, q.Filter); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Close releases every resource. Errors are logged.
func (a *App) Close() error {
	if a.res.Publisher != nil {
		if err := a.res.Publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("store close error", applogger.Error(err))
		}
	}
	if a.res.Cache != nil {
		if err := a.res.Cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.res.ClickHouse != nil {
		if err := a.res.ClickHouse.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.res.Postgres != nil {
		_ = a.res.Postgres.Close()
	}
	a.log.Info("shutdown complete")
	return a.log.Close()
}
