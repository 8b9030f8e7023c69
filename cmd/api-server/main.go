package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/clinichq/clinic-booking/internal/api"
	"github.com/clinichq/clinic-booking/internal/auth"
	"github.com/clinichq/clinic-booking/internal/booking"
	"github.com/clinichq/clinic-booking/internal/clinic"
	"github.com/clinichq/clinic-booking/internal/config"
	"github.com/clinichq/clinic-booking/internal/db"
	"github.com/clinichq/clinic-booking/internal/observability/metrics"
	redisclient "github.com/clinichq/clinic-booking/internal/redis"
	"github.com/clinichq/clinic-booking/internal/schedule"
)

const version = "1.0.0"

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "api-server").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if cfg.Env == "dev" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("starting")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("close redis")
		}
	}()
	log.Info().Msg("connected to redis")

	registry := prometheus.DefaultRegisterer
	httpMetrics := metrics.NewHTTPMetrics(registry)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)

	clinicRepo := clinic.NewPgRepository(pgPool)
	scheduleRepo := schedule.NewPgRepository(pgPool)
	bookingRepo := booking.NewPgRepository(pgPool)

	clinicSvc := clinic.NewService(clinicRepo, log)
	scheduleSvc := schedule.NewService(scheduleRepo, clinicSvc, log)
	checker := booking.NewChecker(scheduleRepo, bookingRepo)
	bookingSvc := booking.NewService(bookingRepo, checker, clinicSvc, locker, bookingMetrics, log)

	router := api.NewRouter(api.RouterConfig{
		Clinic:   clinicSvc,
		Schedule: scheduleSvc,
		Booking:  bookingSvc,
		Tokens:   tokens,
		PgPool:   pgPool,
		Redis:    rdb,
		HTTP:     httpMetrics,
		Env:      cfg.Env,
		Version:  version,
		Log:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("http server failed")
	case <-rootCtx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
