package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/thereayou/study-hub/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultMaxConns = 10

// Connect opens the postgres pool and migrates the schema.
func (d *Database) Connect(dsn string, maxConns int) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), Config())
	if err != nil {
		return err
	}

	if err := ConfigurePool(db, maxConns); err != nil {
		return err
	}

	if err := Migrate(db); err != nil {
		return err
	}

	d.db = db

	return nil
}

// Config is shared by every dialect so constraint errors translate the same way.
func Config() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func ConfigurePool(db *gorm.DB, maxConns int) error {
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	idle := maxConns / 2
	if idle < 1 {
		idle = 1
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(idle)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Study{},
		&models.StudyMember{},
		&models.StudyPost{},
		&models.StudyComment{},
		&models.StudyChatMessage{},
	)
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
