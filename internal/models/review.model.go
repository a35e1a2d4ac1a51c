package models

import (
	"github.com/google/uuid"
)

type ReviewStatus string

const (
	// Reviews publish immediately; the status column exists for a future
	// moderation queue that is not active.
	ReviewStatusApproved ReviewStatus = "approved"
)

type Review struct {
	BaseUUIDModel
	UserID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"userId"`
	User     User         `gorm:"foreignKey:UserID"        json:"-"`
	CenterID uuid.UUID    `gorm:"type:uuid;not null;index" json:"centerId"`
	Center   Center       `gorm:"foreignKey:CenterID"      json:"-"`
	Rating   int          `gorm:"type:int;not null"        json:"rating"`
	Text     string       `gorm:"type:text;not null"       json:"text"`
	Status   ReviewStatus `gorm:"type:text;not null;default:approved" json:"status"`
}
