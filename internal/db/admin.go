package db

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/superbmd/superbmd/internal/auth"
	"github.com/superbmd/superbmd/internal/models"
	"gorm.io/gorm"
)

// ErrUsersExist is returned by CreateDefaultAdmin when the users table is not empty.
var ErrUsersExist = errors.New("users already exist")

// CreateDefaultAdmin creates an admin account when no users exist yet.
// Empty credentials are a no-op so the server can boot without bootstrap settings.
func CreateDefaultAdmin(db *gorm.DB, username, password string) error {
	if username == "" || password == "" {
		slog.Info("No ADMIN_USERNAME or ADMIN_PASSWORD set, skipping default admin creation")
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		slog.Info("Users already exist, skipping default admin creation")
		return nil
	}

	if _, err := UpsertUser(db, username, password, models.RoleAdmin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	slog.Info("Default admin user created", "username", username)
	return nil
}

// UpsertUser creates the user, or resets password and role when the username is taken.
// Returns true when a new row was inserted.
func UpsertUser(db *gorm.DB, username, password string, role models.Role) (bool, error) {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}

	var user models.User
	err = db.Where("username = ?", username).First(&user).Error
	switch {
	case err == nil:
		user.PasswordHash = hashedPassword
		user.Role = role
		return false, db.Save(&user).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Username:     username,
			PasswordHash: hashedPassword,
			Role:         role,
		}
		return true, db.Create(&user).Error
	default:
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
}
