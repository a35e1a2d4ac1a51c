package models

import (
	"time"
)

type User struct {
	BaseUUIDModel
	FirstName   string     `gorm:"type:text"               json:"firstName"`
	LastName    string     `gorm:"type:text"               json:"lastName"`
	DisplayName string     `gorm:"type:text"               json:"displayName"`
	Email       *string    `gorm:"type:text;uniqueIndex"   json:"email"`
	IsActive    bool       `gorm:"type:bool;default:true"  json:"isActive"`
	LastLoginAt *time.Time `gorm:"type:timestamp"          json:"lastLoginAt,omitempty"`
}

// UserProfile represents public user profile information
type UserProfile struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	DisplayName string  `json:"displayName"`
	Email       *string `json:"email,omitempty"`
	IsActive    bool    `json:"isActive"`
}

// ToProfile converts a User to a UserProfile (public information only)
func (u *User) ToProfile() UserProfile {
	return UserProfile{
		ID:          u.ID.String(),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		IsActive:    u.IsActive,
	}
}
