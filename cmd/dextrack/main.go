package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dextrack/internal/auth"
	"dextrack/internal/config"
	"dextrack/internal/db"
	httpx "dextrack/internal/http"
	"dextrack/internal/logger"
)

func main() {
	cfg, err := config.Load()
	log := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	gdb, err := db.Connect(cfg.DatabaseURL, db.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	if cfg.DBAutoMigrate {
		if err := db.AutoMigrateAndIndexes(gdb); err != nil {
			log.Fatal().Err(err).Msg("db migrate failed")
		}
	}

	verifier, closeVerifier := newVerifier(cfg, log)
	defer closeVerifier()

	r := httpx.NewRouter(cfg, gdb, verifier, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("auth_mode", cfg.AuthMode).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server crashed")
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newVerifier builds the token verifier for cfg.AuthMode, wrapped in the
// Redis identity cache when REDIS_URL is set.
func newVerifier(cfg config.Config, log zerolog.Logger) (auth.Verifier, func()) {
	var v auth.Verifier
	switch cfg.AuthMode {
	case config.AuthModeRemote:
		v = auth.NewRemote(cfg.IdentityURL, cfg.IdentityAPIKey, cfg.IdentityTimeout)
	default:
		v = auth.NewJWT(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	}

	if cfg.RedisURL == "" {
		return v, func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable; identity cache will fall through")
	} else {
		log.Info().Dur("ttl", cfg.IdentityCacheTTL).Msg("identity cache enabled")
	}

	return &auth.Cached{
		Inner: v,
		RDB:   rdb,
		TTL:   cfg.IdentityCacheTTL,
		Log:   log.With().Str("component", "identity_cache").Logger(),
	}, func() { _ = rdb.Close() }
}
