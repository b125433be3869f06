package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dextrack/internal/claims"
	"dextrack/internal/favorites"
	"dextrack/internal/tracker"
)

type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func Connect(dsn string, pool PoolOptions, log zerolog.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger(log),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return gdb, nil
}

// newLogger routes gorm's statement log through zerolog. Slow queries are
// warnings; missing rows are a normal outcome and stay quiet.
func newLogger(log zerolog.Logger) logger.Interface {
	w := gormWriter{log: log.With().Str("component", "gorm").Logger(), level: zerolog.WarnLevel}
	level := logger.Warn
	if log.GetLevel() <= zerolog.DebugLevel {
		w.level = zerolog.DebugLevel
		level = logger.Info
	}
	return logger.New(w, logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	migrations := []struct {
		name string
		fn   func(*gorm.DB) error
	}{
		{"tracker", tracker.Migrate},
		{"claims", claims.Migrate},
		{"favorites", favorites.Migrate},
	}
	for _, m := range migrations {
		if err := m.fn(gdb); err != nil {
			return fmt.Errorf("migrate %s: %w", m.name, err)
		}
	}
	return nil
}

type gormWriter struct {
	log   zerolog.Logger
	level zerolog.Level
}

func (w gormWriter) Printf(format string, args ...any) {
	w.log.WithLevel(w.level).Msgf(format, args...)
}
