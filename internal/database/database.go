package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mkowalczyk-dev/task-tracker-api/internal/config"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/constants"
	"github.com/mkowalczyk-dev/task-tracker-api/internal/models"
)

// Connect opens the configured database and verifies connectivity, retrying
// a fixed number of times before giving up. The returned handle is owned by
// the caller; nothing in this package keeps global state.
func Connect(cfg *config.Config, log *zap.SugaredLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	logLevel := gormlogger.Warn
	if !cfg.IsProduction() {
		logLevel = gormlogger.Info
	}

	var db *gorm.DB
	var err error
	for attempt := 1; attempt <= constants.DBConnectAttempts; attempt++ {
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger:         gormlogger.Default.LogMode(logLevel),
			TranslateError: true,
		})
		if err == nil {
			if sqlDB, pingErr := db.DB(); pingErr == nil {
				if pingErr = sqlDB.Ping(); pingErr == nil {
					log.Infow("database connected", "driver", cfg.DBDriver, "host", cfg.DBHost)
					return db, nil
				}
				err = pingErr
			} else {
				err = pingErr
			}
		}

		log.Warnw("database connection failed",
			"attempt", attempt,
			"remaining", constants.DBConnectAttempts-attempt,
			"error", err,
		)
		if attempt < constants.DBConnectAttempts {
			time.Sleep(constants.DBConnectDelaySec * time.Second)
		}
	}

	return nil, fmt.Errorf("database unreachable after %d attempts: %w", constants.DBConnectAttempts, err)
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.TaskDocument{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
