package db

import (
	"fmt"

	"delivery_notes_app_go/config"

	"github.com/rs/zerolog/log"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize opens the database. A configured Turso URL takes precedence over
// the local sqlite file, which runs in WAL mode.
func Initialize(cfg *config.Config) error {
	var err error

	// Determine log level based on environment
	logLevel := logger.Info
	if cfg.IsProduction() {
		logLevel = logger.Warn
	}
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	if cfg.TursoDatabaseURL != "" {
		DB, err = gorm.Open(sqlite.New(sqlite.Config{
			DriverName: "libsql",
			DSN:        TursoDSN(cfg.TursoDatabaseURL, cfg.TursoAuthToken),
		}), gormCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to turso database: %w", err)
		}
		log.Info().Msg("Database connection established (Turso)")
		return nil
	}

	DB, err = gorm.Open(sqlite.Open(cfg.DBPath+"?_journal_mode=WAL"), gormCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info().Str("path", cfg.DBPath).Msg("Database connection established (WAL mode enabled)")
	return nil
}

// TursoDSN appends the auth token to a libsql URL when one is configured
func TursoDSN(url, token string) string {
	if token == "" {
		return url
	}
	return url + "?authToken=" + token
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
