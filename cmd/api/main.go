package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	server "tours_manager/internal/adapters/http_server"
	"tours_manager/internal/adapters/kafka"
	"tours_manager/internal/adapters/observability"
	redisad "tours_manager/internal/adapters/redis"
	"tours_manager/internal/app"
	"tours_manager/internal/domain"
	"tours_manager/internal/refdata"
	"tours_manager/internal/shared"
	"tours_manager/internal/storage/memory"
	"tours_manager/internal/storage/sqlstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	metricsSrv := observability.Serve(cfg.MetricsAddr, reg)

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cache.Close() }()
	if err := cache.Ping(ctx); err != nil {
		// reads fall through to the store on every miss
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
	}

	var events domain.EventPublisher = kafka.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		pub, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix)
		if err != nil {
			log.Fatal().Err(err).Strs("brokers", cfg.KafkaBrokers).Msg("kafka producer failed")
		}
		defer func() { _ = pub.Close() }()
		events = pub
	}

	countries, err := refdata.LoadCountriesFile(cfg.CountriesCSV)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CountriesCSV).Msg("load countries")
	}
	log.Info().Int("countries", countries.Len()).Msg("reference data loaded")

	paging := app.PagingConfig(cfg.Paging)
	q := app.NewQueryService(store, cache, cfg.CacheTTL)
	cmd := app.NewCommandService(store, cache, events, observability.Recorder{})

	srv := server.New(q, server.Options{
		Timeout:        cfg.HTTPTimeout,
		AllowedOrigins: cfg.CORSOrigins,
		Limiter:        server.NewIPLimiter(cfg.MutationRPS, cfg.MutationBurst),
	})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:         q,
		Reviews:   app.NewReviewList(cmd, paging),
		Cards:     app.NewCards(paging),
		Requests:  app.NewAgencyRequests(store, cmd, paging),
		Countries: countries,
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

// openStore picks the backend from STORAGE_DRIVER and waits for the database.
func openStore(ctx context.Context, cfg shared.Config) (domain.Store, func()) {
	if cfg.StorageDriver == "memory" {
		log.Warn().Msg("using the in-memory store, data is lost on exit")
		return memory.New(), func() {}
	}
	db, err := sqlstore.Open(cfg.StorageDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := shared.Retry(ctx, "database ping", 5, db.PingContext); err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("database unreachable")
	}
	log.Info().Str("driver", cfg.StorageDriver).Msg("database connection ok")
	return sqlstore.New(db), func() { _ = db.Close() }
}
