package rbac

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/superbmd/superbmd/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMemoryPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestScope(t *testing.T) {
	p := newMemoryPolicy(t)

	admin := &models.User{ID: 1, Username: "admin", Role: models.RoleAdmin}
	pj := &models.User{ID: 2, Username: "alice", Role: models.RoleResponsibleParty}
	viewer := &models.User{ID: 3, Username: "bob", Role: models.RoleViewer}

	tests := []struct {
		user *models.User
		res  Resource
		want Scope
	}{
		{admin, ResourceAsset, ScopeAll},
		{admin, ResourceAuditLog, ScopeAll},
		{pj, ResourceAsset, ScopeOwn},
		{pj, ResourceDashboard, ScopeOwn},
		{pj, ResourceReport, ScopeOwn},
		{pj, ResourceLocation, ScopeAll},
		{pj, ResourceAuditLog, ScopeNone},
		{viewer, ResourceAsset, ScopeAll},
		{viewer, ResourceReport, ScopeAll},
		{viewer, ResourceAuditLog, ScopeNone},
		{nil, ResourceAsset, ScopeNone},
	}

	for _, tt := range tests {
		name := "anonymous"
		if tt.user != nil {
			name = string(tt.user.Role)
		}
		t.Run(name+"/"+string(tt.res), func(t *testing.T) {
			if got := p.Scope(tt.user, tt.res); got != tt.want {
				t.Errorf("Scope = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCanWrite_AdminOnly(t *testing.T) {
	p := newMemoryPolicy(t)
	for _, res := range []Resource{ResourceAsset, ResourceLocation, ResourceUser} {
		if !p.CanWrite(&models.User{Role: models.RoleAdmin}, res) {
			t.Errorf("admin should write %s", res)
		}
		if p.CanWrite(&models.User{Role: models.RoleResponsibleParty}, res) {
			t.Errorf("responsible_party should not write %s", res)
		}
		if p.CanWrite(&models.User{Role: models.RoleViewer}, res) {
			t.Errorf("viewer should not write %s", res)
		}
	}
	if p.CanWrite(nil, ResourceAsset) {
		t.Error("nil user should not write")
	}
}

func TestCanViewAsset(t *testing.T) {
	p := newMemoryPolicy(t)
	asset := &models.Asset{Code: "A1", ResponsibleParty: "alice"}

	if !p.CanViewAsset(&models.User{Username: "alice", Role: models.RoleResponsibleParty}, asset) {
		t.Error("owner should see own asset")
	}
	if p.CanViewAsset(&models.User{Username: "carol", Role: models.RoleResponsibleParty}, asset) {
		t.Error("other responsible party should not see the asset")
	}
	if !p.CanViewAsset(&models.User{Username: "bob", Role: models.RoleViewer}, asset) {
		t.Error("viewer should see every asset")
	}
}

func TestSelfProtection(t *testing.T) {
	actor := &models.User{ID: 5, Role: models.RoleAdmin}
	viewer := models.RoleViewer
	admin := models.RoleAdmin

	if err := CheckRoleChange(actor, 5, &viewer); err != ErrSelfRoleChange {
		t.Errorf("expected ErrSelfRoleChange, got %v", err)
	}
	if err := CheckRoleChange(actor, 5, &admin); err != nil {
		t.Errorf("unchanged role should pass, got %v", err)
	}
	if err := CheckRoleChange(actor, 6, &viewer); err != nil {
		t.Errorf("changing another user's role should pass, got %v", err)
	}
	if err := CheckRoleChange(actor, 5, nil); err != nil {
		t.Errorf("no role in update should pass, got %v", err)
	}

	if err := CheckDelete(actor, 5); err != ErrSelfDelete {
		t.Errorf("expected ErrSelfDelete, got %v", err)
	}
	if err := CheckDelete(actor, 6); err != nil {
		t.Errorf("deleting another user should pass, got %v", err)
	}
}

func TestRules_RejectsUnknownRole(t *testing.T) {
	if _, err := Rules([]byte("roles:\n  root:\n    - resource: asset\n      actions: [read]\n")); err == nil {
		t.Error("expected error for unknown role")
	}
	rules, err := Rules(policyYAML)
	if err != nil {
		t.Fatalf("embedded policy failed to parse: %v", err)
	}
	if len(rules) == 0 {
		t.Error("embedded policy produced no rules")
	}
}

func TestNew_PersistsRules(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "rbac.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// Starting twice must not duplicate stored rules
	for i := 0; i < 2; i++ {
		if _, err := New(db, nil); err != nil {
			t.Fatalf("New run %d failed: %v", i, err)
		}
	}

	want, _ := Rules(policyYAML)
	var count int64
	if err := db.Table("casbin_rule").Count(&count).Error; err != nil {
		t.Fatalf("failed to count rules: %v", err)
	}
	if count != int64(len(want)) {
		t.Errorf("expected %d stored rules, got %d", len(want), count)
	}
}
