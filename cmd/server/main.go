package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"posadmin/internal/archive"
	"posadmin/internal/cache"
	"posadmin/internal/config"
	"posadmin/internal/events"
	"posadmin/internal/httpapi"
	"posadmin/internal/metrics"
	"posadmin/internal/recommendation"
	"posadmin/internal/service"
	"posadmin/internal/store"
	"posadmin/internal/store/memory"
	pgstore "posadmin/internal/store/postgres"
	sqlitestore "posadmin/internal/store/sqlite"
	"posadmin/internal/xid"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel, cfg.LogFormat)
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid security configuration")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 4)

	blob, closeBlob, err := openBlob(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("store unavailable; refusing to start with in-memory fallback")
	}
	closers = append(closers, closeBlob)
	log.Info().Str("driver", cfg.StoreDriver).Msg("store ready")

	hub := events.NewHub(xid.New("node"))
	publisher := events.Publishers{hub}

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	if cfg.RedisAddr != "" {
		relay := events.NewRedisRelay(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.EventsChannel, hub)
		if err := relay.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, change events stay in-process")
			_ = relay.Close()
		} else {
			publisher = append(publisher, relay)
			closers = append(closers, relay.Close)
			go func() {
				if err := relay.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("event relay stopped")
				}
			}()
			log.Info().Str("channel", cfg.EventsChannel).Msg("events: redis relay")
		}
	}

	repo := store.NewRepository(events.Observe(blob, publisher, hub.Origin()))

	cacheStore := cache.SuggestionCache(cache.NoopSuggestionCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisSuggestionCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using noop cache")
			_ = redisCache.Close()
		} else {
			cacheStore = redisCache
			closers = append(closers, redisCache.Close)
			log.Info().Msg("cache: redis")
		}
	}

	archiver, err := archive.New(ctx, cfg.Archive)
	switch {
	case errors.Is(err, archive.ErrDisabled):
		log.Info().Msg("archive: disabled")
	case err != nil:
		log.Warn().Err(err).Msg("archive unavailable, exports will not be archived")
	default:
		log.Info().Str("bucket", cfg.Archive.Bucket).Msg("archive: s3")
	}

	m := metrics.New()
	recommender := recommendation.NewEngine(cacheStore, time.Duration(cfg.SuggestionTTLSeconds)*time.Second)
	svc := service.New(repo, recommender, service.WithTaxRate(cfg.TaxRatePercent), service.WithMetrics(m))
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, cfg.ManagerPIN, cfg.ManagerTOTPSecret, repo)
	api := httpapi.New(svc, auth, httpapi.Options{
		AllowedOrigin: cfg.AllowedOrigin,
		Metrics:       m,
		Hub:           hub,
		Archive:       archiver,
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Address()).Msg("posadmin listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	stopRun()

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Error().Err(err).Msg("close error")
		}
	}

	log.Info().Msg("server stopped")
}

// openBlob opens the storage backend named by cfg.StoreDriver. Only the
// memory driver is seeded with demo data.
func openBlob(ctx context.Context, cfg config.Config) (store.Blob, func() error, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		s := memory.NewSeeded()
		return s, s.Close, nil
	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
		s, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.DriverSQLite:
		s, err := sqlitestore.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func setupLogging(level string, format string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	zerolog.TimeFieldFormat = time.RFC3339

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.ManagerPIN == "" && cfg.ManagerTOTPSecret == "" {
		return fmt.Errorf("MANAGER_PIN or MANAGER_TOTP_SECRET must be set for refund approval")
	}
	if cfg.ManagerPIN == "" {
		return nil
	}
	if len(cfg.ManagerPIN) < 6 {
		return fmt.Errorf("MANAGER_PIN must be at least 6 digits")
	}
	if err := validatePINStrength(cfg.ManagerPIN); err != nil {
		return fmt.Errorf("MANAGER_PIN is too weak: %w", err)
	}
	return nil
}

// validatePINStrength rejects PINs that are all the same digit,
// sequential (ascending or descending), or from a known-weak list.
func validatePINStrength(pin string) error {
	known := map[string]bool{
		"123456": true, "654321": true, "000000": true, "111111": true,
		"121212": true, "112233": true, "123123": true, "696969": true,
	}
	if known[pin] {
		return fmt.Errorf("common PIN not allowed")
	}

	allSame := true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("all-same-digit PIN not allowed")
	}

	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		diff := int(pin[i]) - int(pin[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("sequential PIN not allowed")
	}

	return nil
}
