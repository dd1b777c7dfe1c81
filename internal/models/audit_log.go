package models

import "time"

// AuditLog is a record of a mutation or login attempt. It stores what was
// done, not the prior state of the record.
type AuditLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	UserID      *uint     `gorm:"index" json:"user_id"`
	Username    string    `gorm:"size:50;index" json:"username"`
	Action      string    `gorm:"size:50;not null;index" json:"action"` // e.g. "create_asset", "login"
	Resource    string    `gorm:"size:100;not null" json:"resource"`     // e.g. "asset:12", "user:3"
	DetailsJSON string    `gorm:"type:text" json:"details_json"`         // Additional context in JSON
	Timestamp   time.Time `gorm:"not null;index" json:"timestamp"`
}
