package entities

import "time"

// TranscriptMessage is the persisted form of one local history entry.
type TranscriptMessage struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	SessionID string `gorm:"type:varchar(64);index:idx_transcript_session;not null"`
	Role      string `gorm:"type:varchar(16);not null"`
	Text      string `gorm:"type:text;not null"`
	SentAt    time.Time
}

// TableName specifies the table name for TranscriptMessage.
func (TranscriptMessage) TableName() string {
	return "transcript_messages"
}
