// Package transcript persists session message history.
package transcript

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"docbot/internal/domain/conversation"
	"docbot/internal/infrastructure/database/entities"
)

// PostgresRepository stores transcript messages in PostgreSQL.
type PostgresRepository struct {
	db *gorm.DB
}

var _ conversation.TranscriptStore = (*PostgresRepository)(nil)

// NewPostgresRepository builds a transcript repository.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append inserts one history entry.
func (r *PostgresRepository) Append(ctx context.Context, sessionID string, msg conversation.Message) error {
	entity := entities.TranscriptMessage{
		SessionID: sessionID,
		Role:      msg.Role,
		Text:      msg.Text,
		SentAt:    msg.At,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return fmt.Errorf("append transcript message: %w", err)
	}
	return nil
}

// BySession fetches the persisted history of one session, oldest first.
func (r *PostgresRepository) BySession(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	var rows []entities.TranscriptMessage
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load transcript for session %s: %w", sessionID, err)
	}

	out := make([]conversation.Message, 0, len(rows))
	for _, row := range rows {
		out = append(out, conversation.Message{Role: row.Role, Text: row.Text, At: row.SentAt})
	}
	return out, nil
}
