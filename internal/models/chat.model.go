package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Chat is a message thread between a guardian and a center. Most chats are
// companions to a booking; BookingID is nil for standalone threads.
type Chat struct {
	BaseUUIDModel
	BookingID       *uuid.UUID     `gorm:"type:uuid;index"           json:"bookingId,omitempty"`
	Booking         *Booking       `gorm:"foreignKey:BookingID"      json:"-"`
	CenterName      string         `gorm:"type:text"                 json:"centerName"`
	Role            string         `gorm:"type:text"                 json:"role"`
	Participants    pq.StringArray `gorm:"type:text[]"               json:"participants"`
	LastMessage     string         `gorm:"type:text"                 json:"lastMessage,omitempty"`
	LastMessageTime *time.Time     `gorm:"type:timestamp"            json:"lastMessageTime,omitempty"`
	Messages        []Message      `gorm:"foreignKey:ChatID"         json:"messages,omitempty"`
}

// HasParticipant reports whether the user takes part in the chat.
func (c *Chat) HasParticipant(userID uuid.UUID) bool {
	for _, participant := range c.Participants {
		if participant == userID.String() {
			return true
		}
	}
	return false
}
