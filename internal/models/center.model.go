package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Center struct {
	BaseUUIDModel
	Name        string          `gorm:"type:text;not null;index" json:"name"`
	Address     string          `gorm:"type:text"                json:"address"`
	Description string          `gorm:"type:text"                json:"description"`
	Phone       string          `gorm:"type:text"                json:"phone"`
	Email       string          `gorm:"type:text"                json:"email"`
	DailyRate   decimal.Decimal `gorm:"type:numeric(10,2)"       json:"dailyRate"`
	Amenities   datatypes.JSON  `gorm:"type:jsonb"               json:"amenities"`
	OpensAt     string          `gorm:"type:text"                json:"opensAt"`
	ClosesAt    string          `gorm:"type:text"                json:"closesAt"`
}
