package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/superbmd/superbmd/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserSummary is the public view of a principal returned by login and /auth/me
type UserSummary struct {
	ID       uint        `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// Summarize projects a user onto its public summary
func Summarize(u *models.User) UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Role: u.Role}
}

// LoginResponse represents a login response
type LoginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    UserSummary `json:"user"`
}

// Authenticator is an interface for authentication providers
type Authenticator interface {
	// Login authenticates a user and returns a signed token
	Login(username, password string) (*LoginResponse, error)

	// Middleware returns a Gin middleware for authentication
	Middleware() gin.HandlerFunc

	// GetUserFromContext extracts the authenticated user from the Gin context
	GetUserFromContext(c *gin.Context) (*models.User, error)
}
