package main

import (
	"context"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"tours_manager/internal/adapters/observability"
	"tours_manager/internal/app"
	"tours_manager/internal/refdata"
	"tours_manager/internal/shared"
	"tours_manager/internal/storage/sqlstore"
)

const batchSize = 50

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("csv", cfg.CountriesCSV).
		Str("driver", cfg.StorageDriver).
		Int("workers", cfg.ImportWorkers).
		Msg("importer starting")

	if cfg.StorageDriver == "memory" {
		log.Fatal().Msg("importer needs STORAGE_DRIVER=mysql or postgres")
	}

	countries, err := refdata.LoadCountriesFile(cfg.CountriesCSV)
	if err != nil {
		log.Fatal().Err(err).Msg("load countries")
	}

	db, err := sqlstore.Open(cfg.StorageDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer func() { _ = db.Close() }()
	if err := shared.Retry(ctx, "database ping", 5, db.PingContext); err != nil {
		log.Fatal().Err(err).Msg("database unreachable")
	}
	log.Info().Msg("db ping ok")

	imp := app.NewImportService(sqlstore.New(db), cfg.ImportWorkers, batchSize)
	n, err := imp.ImportCountries(ctx, countries.All())
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
	log.Info().Int("countries", n).Msg("import completed")
}
