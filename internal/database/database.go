package database

import (
	"fmt"

	"cogbattery/internal/config"
	logging "cogbattery/internal/logging"
	"cogbattery/internal/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to the configured database and runs migrations.
func Open(dbConf config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(dbConf)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.NewGormZapLogger(log, dbConf.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if dbConf.Driver == "sqlite" {
		// SQLite allows a single writer.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("Database connection established successfully.", zap.String("driver", dbConf.Driver))
	if err := Migrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func dialectorFor(dbConf config.DatabaseConfig) (gorm.Dialector, error) {
	switch dbConf.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dbConf.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbConf.Driver)
	}
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&models.Participant{},
		&models.KVEntry{},
		&models.TaskSummary{},
		&models.TrialRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	// AutoMigrate does not create composite indexes declared outside the models.
	summaryIndex := `CREATE INDEX IF NOT EXISTS idx_summaries_participant_task ON task_summaries (participant_id, task_key, created_at)`
	if err := db.Exec(summaryIndex).Error; err != nil {
		return fmt.Errorf("failed to create summary index: %w", err)
	}
	return nil
}
