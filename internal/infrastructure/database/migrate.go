package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"docbot/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes for the transcript store.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&entities.TranscriptMessage{},
	); err != nil {
		return err
	}

	log.Info().Msg("database schema up to date")
	return nil
}
