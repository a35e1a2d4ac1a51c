package models

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	BaseUUIDModel
	ChatID     uuid.UUID `gorm:"type:uuid;not null;index" json:"chatId"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null"       json:"senderId"`
	ReceiverID *uuid.UUID `gorm:"type:uuid"               json:"receiverId,omitempty"`
	Content    string    `gorm:"type:text;not null"       json:"content"`
	SentAt     time.Time `gorm:"not null"                 json:"sentAt"`
	IsRead     bool      `gorm:"type:bool;default:false"  json:"isRead"`
}
