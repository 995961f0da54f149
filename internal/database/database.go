package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"admarket/internal/config"
	"admarket/internal/domain"
	"admarket/internal/logger"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

// Connect opens PostgreSQL for postgres:// DSNs and the pure-Go SQLite driver otherwise.
func Connect(cfg *config.DatabaseConfig, log *logger.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormLogLevel(cfg.LogLevel))}

	var (
		db  *gorm.DB
		err error
	)
	if isPostgres(cfg.URL) {
		log.Info("connecting to PostgreSQL")
		db, err = gorm.Open(postgres.Open(cfg.URL), gormCfg)
	} else {
		log.WithField("dsn", cfg.URL).Info("using SQLite for local development")
		db, err = gorm.Open(OpenSQLite(cfg.URL), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if !isPostgres(cfg.URL) {
		// SQLite has one writer; a single connection serialises transactions and keeps the
		// pragma below in effect for every query.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)

		// SQLite ships with foreign key enforcement disabled.
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}
	return db, nil
}

// OpenSQLite returns a dialector backed by modernc.org/sqlite.
func OpenSQLite(dsn string) gorm.Dialector {
	return gormsqlite.New(gormsqlite.Config{
		DriverName: "sqlite",
		DSN:        dsn,
	})
}

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Placement{},
		&domain.Ad{},
		&domain.Booking{},
		&domain.Payment{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Health pings the underlying connection pool.
func Health(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
