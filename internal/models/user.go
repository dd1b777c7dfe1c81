package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a system user
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"size:32;not null;default:viewer;index" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeSave rejects rows whose role is outside the enumerated set
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleViewer
	}
	if !u.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
