package db

import (
	"path/filepath"
	"testing"

	"github.com/superbmd/superbmd/internal/config"
	"github.com/superbmd/superbmd/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := New(config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func TestNew_UnsupportedDriver(t *testing.T) {
	if _, err := New(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestSqliteDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"./a.db", "./a.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"},
		{"./a.db?cache=shared", "./a.db?cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"},
		{"./a.db?_pragma=foreign_keys(0)", "./a.db?_pragma=foreign_keys(0)"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(tt.in); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestForeignKeyRestrictsLocationDelete(t *testing.T) {
	database := setupTestDB(t)

	loc := models.Location{Code: "L1", Name: "Warehouse", Address: "Jl. Gudang 1"}
	if err := database.Create(&loc).Error; err != nil {
		t.Fatalf("create location: %v", err)
	}
	asset := models.Asset{Code: "A1", Name: "Laptop", LocationID: loc.ID, ResponsibleParty: "alice"}
	if err := database.Create(&asset).Error; err != nil {
		t.Fatalf("create asset: %v", err)
	}

	if err := database.Delete(&loc).Error; err == nil {
		t.Fatal("expected foreign key violation when deleting a referenced location")
	}

	var count int64
	database.Model(&models.Location{}).Where("id = ?", loc.ID).Count(&count)
	if count != 1 {
		t.Errorf("location should still exist, count=%d", count)
	}
}

func TestCreateDefaultAdmin(t *testing.T) {
	database := setupTestDB(t)

	if err := CreateDefaultAdmin(database, "", ""); err != nil {
		t.Fatalf("empty credentials should be a no-op: %v", err)
	}

	if err := CreateDefaultAdmin(database, "root", "rootpass"); err != nil {
		t.Fatalf("CreateDefaultAdmin failed: %v", err)
	}

	var user models.User
	if err := database.Where("username = ?", "root").First(&user).Error; err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("expected admin role, got %q", user.Role)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("rootpass")) != nil {
		t.Error("stored hash does not match password")
	}

	// A second call is skipped because users exist
	if err := CreateDefaultAdmin(database, "other", "otherpass"); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	var count int64
	database.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}
}

func TestUpsertUser_ResetsExisting(t *testing.T) {
	database := setupTestDB(t)

	created, err := UpsertUser(database, "alice", "first-pass", models.RoleViewer)
	if err != nil || !created {
		t.Fatalf("expected insert, created=%v err=%v", created, err)
	}

	created, err = UpsertUser(database, "alice", "second-pass", models.RoleAdmin)
	if err != nil || created {
		t.Fatalf("expected update, created=%v err=%v", created, err)
	}

	var user models.User
	database.Where("username = ?", "alice").First(&user)
	if user.Role != models.RoleAdmin {
		t.Errorf("expected role admin after upsert, got %q", user.Role)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("second-pass")) != nil {
		t.Error("password was not reset")
	}
}

func TestSeedDemoData_Idempotent(t *testing.T) {
	database := setupTestDB(t)

	for i := 0; i < 2; i++ {
		if err := SeedDemoData(database); err != nil {
			t.Fatalf("seed run %d failed: %v", i, err)
		}
	}

	var users, locations, assets int64
	database.Model(&models.User{}).Count(&users)
	database.Model(&models.Location{}).Count(&locations)
	database.Model(&models.Asset{}).Count(&assets)

	if users != int64(len(demoUsers)) {
		t.Errorf("expected %d users, got %d", len(demoUsers), users)
	}
	if locations != int64(len(demoLocations)) {
		t.Errorf("expected %d locations, got %d", len(demoLocations), locations)
	}
	if assets != int64(len(demoAssets)) {
		t.Errorf("expected %d assets, got %d", len(demoAssets), assets)
	}
}
