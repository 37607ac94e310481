package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hr-data-api/internal/config"
	"github.com/hr-data-api/internal/domain"
	"github.com/hr-data-api/internal/migrations"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const connectAttempts = 30

// Models - все модели схемы в порядке зависимостей
func Models() []any {
	return []any{
		&domain.User{},
		&domain.Organization{},
		&domain.Team{},
		&domain.Employee{},
		&domain.SalaryChangeLog{},
		&domain.ImportJob{},
		&domain.ImportStatistic{},
		&domain.Notification{},
	}
}

// Connect открывает соединение с БД выбранным драйвером, повторяя попытки для PostgreSQL
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	switch cfg.Driver {
	case DriverSQLite:
		db, err := gorm.Open(sqlite.Open(cfg.Path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite не допускает конкурентной записи
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	case DriverPostgres:
		var err error
		for attempt := 1; attempt <= connectAttempts; attempt++ {
			var db *gorm.DB
			db, err = gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
			if err == nil {
				sqlDB, dbErr := db.DB()
				if dbErr == nil {
					if err = sqlDB.PingContext(ctx); err == nil {
						return db, nil
					}
				} else {
					err = dbErr
				}
			}
			logger.Warn("database is not ready", slog.Int("attempt", attempt), slog.Any("error", err))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Second):
			}
		}
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, err)
	default:
		return nil, fmt.Errorf("unsupported database driver '%s'", cfg.Driver)
	}
}

// Migrate применяет схему: goose-миграции для PostgreSQL, AutoMigrate для SQLite
func Migrate(ctx context.Context, db *gorm.DB, driver string) error {
	if driver == DriverSQLite {
		if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
