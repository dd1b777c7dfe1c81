package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/superbmd/superbmd/internal/audit"
	"github.com/superbmd/superbmd/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// UserContextKey is the key used to store user in Gin context
	UserContextKey = "user"
	// DefaultTokenDuration is the validity period for tokens when none is configured
	DefaultTokenDuration = 24 * time.Hour
	// DefaultIssuer is the iss claim used when none is configured
	DefaultIssuer = "superbmd"
)

// JWTAuthenticator implements username/password login with HS256 bearer tokens
type JWTAuthenticator struct {
	db        *gorm.DB
	jwtSecret []byte
	tokenTTL  time.Duration
	issuer    string
	now       func() time.Time
}

// Option customizes a JWTAuthenticator
type Option func(*JWTAuthenticator)

// WithTokenTTL overrides the token lifetime
func WithTokenTTL(ttl time.Duration) Option {
	return func(a *JWTAuthenticator) {
		if ttl > 0 {
			a.tokenTTL = ttl
		}
	}
}

// WithIssuer overrides the iss claim
func WithIssuer(issuer string) Option {
	return func(a *JWTAuthenticator) {
		if issuer != "" {
			a.issuer = issuer
		}
	}
}

// NewJWTAuthenticator creates a new token authenticator
func NewJWTAuthenticator(db *gorm.DB, jwtSecret string, opts ...Option) *JWTAuthenticator {
	a := &JWTAuthenticator{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  DefaultTokenDuration,
		issuer:    DefaultIssuer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks if a password matches the hash
func VerifyPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Claims represents JWT claims
type Claims struct {
	UserID   uint        `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Login authenticates a user and returns a JWT token
func (a *JWTAuthenticator) Login(username, password string) (*LoginResponse, error) {
	var user models.User
	result := a.db.Where("username = ?", username).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Warn("Login attempt with non-existent username", "username", username)
			a.recordLogin(nil, username, false)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	if !VerifyPassword(user.PasswordHash, password) {
		slog.Warn("Login attempt with incorrect password", "username", username)
		a.recordLogin(&user, username, false)
		return nil, ErrInvalidCredentials
	}

	token, err := a.GenerateToken(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	a.recordLogin(&user, username, true)
	slog.Info("User logged in successfully", "user_id", user.ID, "username", user.Username)
	return &LoginResponse{
		Message: "Login berhasil",
		Token:   token,
		User:    Summarize(&user),
	}, nil
}

func (a *JWTAuthenticator) recordLogin(user *models.User, username string, ok bool) {
	action := audit.ActionLogin
	if !ok {
		action = audit.ActionLoginFailed
	}
	resource := audit.ResourceUser + ":" + username
	if user != nil {
		resource = audit.Resource(audit.ResourceUser, user.ID)
	}
	actor := audit.ActorOf(user)
	if actor == nil {
		actor = &audit.Actor{Username: username}
	}
	if err := audit.LogAction(a.db, actor, action, resource, nil); err != nil {
		slog.Error("Failed to write login audit entry", "username", username, "error", err)
	}
}

// GenerateToken signs a token for the user
func (a *JWTAuthenticator) GenerateToken(user *models.User) (string, error) {
	now := a.now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    a.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns claims
func (a *JWTAuthenticator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithIssuer(a.issuer), jwt.WithTimeFunc(a.now))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrUnauthorized
}

// Middleware returns a Gin middleware for bearer token authentication
func (a *JWTAuthenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token tidak ditemukan"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Format header Authorization tidak valid"})
			return
		}

		user, err := a.validateAndLoadUser(parts[1])
		if err != nil {
			slog.Warn("Invalid token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token tidak valid atau kadaluarsa"})
			return
		}

		c.Set(UserContextKey, user)
		c.Next()
	}
}

// validateAndLoadUser validates a token and reloads the user so role changes apply immediately
func (a *JWTAuthenticator) validateAndLoadUser(tokenString string) (*models.User, error) {
	claims, err := a.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	var user models.User
	if result := a.db.First(&user, claims.UserID); result.Error != nil {
		return nil, fmt.Errorf("user not found: %w", result.Error)
	}

	return &user, nil
}

// GetUserFromContext extracts the authenticated user from the Gin context
func (a *JWTAuthenticator) GetUserFromContext(c *gin.Context) (*models.User, error) {
	return UserFromContext(c)
}

// UserFromContext extracts the authenticated user stored by Middleware
func UserFromContext(c *gin.Context) (*models.User, error) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return nil, ErrUnauthorized
	}

	user, ok := value.(*models.User)
	if !ok {
		return nil, errors.New("invalid user in context")
	}

	return user, nil
}
