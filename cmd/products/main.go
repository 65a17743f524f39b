package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/umg/product-catalog/config"
	"github.com/umg/product-catalog/internal/database"
	"github.com/umg/product-catalog/internal/logger"
	"github.com/umg/product-catalog/internal/metrics"
	"github.com/umg/product-catalog/internal/product"
	"github.com/umg/product-catalog/internal/product/repository"
	"github.com/umg/product-catalog/internal/product/usecase"
)

func main() {
	_ = godotenv.Load() // Load .env file if it exists

	if err := newApplication(os.Stdout).cli().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// application holds what every command needs. It is filled in by setup
// before the command runs.
type application struct {
	out io.Writer

	cfg      *config.Config
	logger   logger.ZapLogger
	db       *sqlx.DB
	repo     product.Repository
	registry *prometheus.Registry
	uc       product.UseCase
}

func newApplication(out io.Writer) *application {
	return &application{out: out}
}

func (a *application) cli() *cli.App {
	return &cli.App{
		Name:     "products",
		Usage:    "manage the product catalog",
		Writer:   a.out,
		Before:   a.setup,
		After:    a.teardown,
		Commands: a.commands(),
	}
}

func (a *application) setup(c *cli.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadEnv()
	if err != nil {
		return err
	}
	a.cfg = cfg

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	a.logger = logger.NewZapLogger(logConfig).With(zap.String("session_id", uuid.NewString()))

	// 3. Initialize Repository
	if a.repo == nil {
		repo, err := a.openRepository()
		if err != nil {
			return err
		}
		a.repo = repo
	}

	// 4. Initialize Metrics
	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 5. Initialize UseCase
	a.uc = usecase.NewProductUseCase(a.repo, metrics.New(a.registry), a.logger)
	return nil
}

func (a *application) openRepository() (product.Repository, error) {
	dbCfg := &a.cfg.Database
	if dbCfg.Driver == config.DriverMemory {
		a.logger.Warn("Using in-memory product store, data is lost on exit")
		return repository.NewMemoryRepository(a.logger), nil
	}

	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.logger.Debug("Database handle ready",
		zap.String("driver", dbCfg.Driver),
		zap.String("address", dbCfg.Address),
		zap.String("db_name", dbCfg.Name),
	)
	return repository.NewSQLRepository(db, dbCfg.Table, a.logger)
}

func (a *application) teardown(c *cli.Context) error {
	if a.db != nil {
		if err := a.db.Close(); err != nil && a.logger != nil {
			a.logger.Warn("failed to close database handle", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return nil
}
