// Package db opens the relational database used by the app
package db

import (
	"fmt"

	"gallery/photo-api/internal/model"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens the database configured by database.driver and database.dsn
func New() (*gorm.DB, error) {
	dsn := viper.GetString("database.dsn")

	switch viper.GetString("database.driver") {
	case "sqlite":
		return Open(sqlite.Open(dsn))
	case "postgres":
		return Open(postgres.Open(dsn))
	}

	return nil, fmt.Errorf("unsupported database driver %q", viper.GetString("database.driver"))
}

// Open connects using the given dialector and migrates every table. Driver
// errors are translated so constraint violations can be told apart.
func Open(d gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database, %w", err)
	}

	err = db.AutoMigrate(
		model.User{},
		model.MediaItem{},
		model.Album{},
		model.AlbumMedia{},
		model.Tag{},
		model.MediaTag{},
		model.Person{},
		model.MediaPerson{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
