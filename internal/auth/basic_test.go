package auth

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/superbmd/superbmd/internal/audit"
	"github.com/superbmd/superbmd/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.AuditLog{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, username, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	user := &models.User{Username: username, PasswordHash: hash, Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "secret123" {
		t.Fatal("hash must not equal the plain password")
	}
	if !VerifyPassword(hash, "secret123") {
		t.Error("expected password to verify")
	}
	if VerifyPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice", "alice123", models.RoleResponsibleParty)
	a := NewJWTAuthenticator(db, "test-secret")

	resp, err := a.Login("alice", "alice123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.User.ID != user.ID || resp.User.Role != models.RoleResponsibleParty {
		t.Errorf("unexpected user summary: %+v", resp.User)
	}

	claims, err := a.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != "alice" || claims.Issuer != DefaultIssuer {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Error("expected jti to be set")
	}

	if _, err := a.Login("alice", "nope"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := a.Login("bob", "alice123"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	var successes, failures int64
	db.Model(&models.AuditLog{}).Where("action = ?", audit.ActionLogin).Count(&successes)
	db.Model(&models.AuditLog{}).Where("action = ?", audit.ActionLoginFailed).Count(&failures)
	if successes != 1 || failures != 2 {
		t.Errorf("expected 1 login and 2 failures audited, got %d and %d", successes, failures)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice", "alice123", models.RoleViewer)

	issued := NewJWTAuthenticator(db, "secret-a", WithTokenTTL(time.Minute))
	token, err := issued.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := NewJWTAuthenticator(db, "secret-b").ValidateToken(token); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}
	if _, err := NewJWTAuthenticator(db, "secret-a", WithIssuer("other")).ValidateToken(token); err == nil {
		t.Error("expected token from another issuer to be rejected")
	}

	later := NewJWTAuthenticator(db, "secret-a")
	later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := later.ValidateToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	user := createUser(t, db, "alice", "alice123", models.RoleAdmin)
	a := NewJWTAuthenticator(db, "test-secret")
	token, err := a.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	router := gin.New()
	router.GET("/me", a.Middleware(), func(c *gin.Context) {
		u, err := a.GetUserFromContext(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, u.Username)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}

	// A deleted user's token stops working
	if err := db.Delete(user).Error; err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for deleted user, got %d", w.Code)
	}
}

func TestUserFromContext_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, err := UserFromContext(c); err != ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}
