package models

import (
	"time"

	"github.com/google/uuid"
)

type Child struct {
	BaseUUIDModel
	Name      string    `gorm:"type:text;not null"       json:"name"`
	BirthDate time.Time `gorm:"type:date"                json:"birthDate"`
	ParentID  uuid.UUID `gorm:"type:uuid;not null;index" json:"parentId"`
	Parent    User      `gorm:"foreignKey:ParentID"      json:"-"`
	Notes     string    `gorm:"type:text"                json:"notes"`
}
