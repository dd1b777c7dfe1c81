package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/superbmd/superbmd/internal/cache"
	"github.com/superbmd/superbmd/internal/models"
	"github.com/superbmd/superbmd/internal/query"
	"github.com/superbmd/superbmd/internal/rbac"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db        *gorm.DB
	assets    *AssetService
	locations *LocationService
	users     *UserService
	reports   *ReportService
	cache     *cache.MemoryCache
	admin     *models.User
	alice     *models.User
	viewer    *models.User
}

// testSetup creates a file-backed sqlite DB with foreign keys on, migrates
// models and returns services sharing one policy and cache.
func testSetup(t *testing.T) *testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Location{}, &models.Asset{}, &models.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	policy, err := rbac.New(nil, nil)
	if err != nil {
		t.Fatalf("init rbac: %v", err)
	}
	c := cache.NewMemoryCache(16, time.Minute)

	env := &testEnv{
		db:        db,
		assets:    NewAssetService(db, policy, c),
		locations: NewLocationService(db, policy, c),
		users:     NewUserService(db, policy),
		reports:   NewReportService(db, policy, c),
		cache:     c,
	}
	env.admin = createTestUser(t, db, "admin", models.RoleAdmin)
	env.alice = createTestUser(t, db, "alice", models.RoleResponsibleParty)
	env.viewer = createTestUser(t, db, "viewer", models.RoleViewer)
	return env
}

// createTestUser inserts a user with a dummy hash.
func createTestUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x", Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustLocation(t *testing.T, env *testEnv, code, name string) *LocationWithCount {
	t.Helper()
	loc, err := env.locations.Create(context.Background(), env.admin, CreateLocationRequest{Code: code, Name: name, Address: "Jl. Contoh 1"})
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	return loc
}

func mustAsset(t *testing.T, env *testEnv, code string, locationID uint, owner string) *models.Asset {
	t.Helper()
	a, err := env.assets.Create(context.Background(), env.admin, CreateAssetRequest{
		Code:             code,
		Name:             "Barang " + code,
		Condition:        models.ConditionGood,
		LocationID:       locationID,
		ResponsibleParty: owner,
		EntryDate:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	return a
}

var firstPage = query.Page{Page: 1, Limit: 10}

// --- Scenario tests ---

func TestScenario_ListByLocationThenDeleteConflict(t *testing.T) {
	env := testSetup(t)
	ctx := context.Background()

	l1 := mustLocation(t, env, "L1", "Warehouse")
	other := mustLocation(t, env, "L2", "Office")
	a1, err := env.assets.Create(ctx, env.admin, CreateAssetRequest{
		Code:             "A1",
		Name:             "Laptop",
		Condition:        models.ConditionGood,
		LocationID:       l1.ID,
		ResponsibleParty: "alice",
		EntryDate:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	mustAsset(t, env, "A2", other.ID, "bob")

	res, err := env.assets.List(ctx, env.admin, query.AssetFilter{LocationID: &l1.ID}, firstPage)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Code != "A1" || res.Items[0].ID != a1.ID {
		t.Fatalf("expected exactly A1, got %+v", res.Items)
	}
	if res.Pagination.TotalItems != 1 || res.Pagination.TotalPages != 1 {
		t.Errorf("unexpected pagination: %+v", res.Pagination)
	}

	err = env.locations.Delete(ctx, env.admin, l1.ID)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if _, err := env.locations.Get(ctx, env.admin, l1.ID); err != nil {
		t.Errorf("L1 should still exist: %v", err)
	}
}

func TestAsset_RoundTrip(t *testing.T) {
	env := testSetup(t)
	ctx := context.Background()
	loc := mustLocation(t, env, "L1", "Warehouse")
	img := "https://example.com/a.png"
	entry := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)

	created, err := env.assets.Create(ctx, env.admin, CreateAssetRequest{
		Code:             "BRG-9",
		Name:             "Printer",
		Condition:        models.ConditionLightDamage,
		LocationID:       loc.ID,
		ResponsibleParty: "alice",
		EntryDate:        entry,
		ImageURL:         &img,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := env.assets.Get(ctx, env.admin, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Code != "BRG-9" || got.Name != "Printer" || got.Condition != models.ConditionLightDamage ||
		got.LocationID != loc.ID || got.ResponsibleParty != "alice" || !got.EntryDate.Equal(entry) ||
		got.ImageURL == nil || *got.ImageURL != img {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Location == nil || got.Location.Code != "L1" {
		t.Errorf("expected embedded location, got %+v", got.Location)
	}
	if got.LastUpdated != nil {
		t.Errorf("tanggal_pembaruan should be null until the first update")
	}

	raw, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"tanggal_masuk":"2024-05-17"`) {
		t.Errorf("tanggal_masuk should encode as a calendar date: %s", raw)
	}
}

func TestAsset_DuplicateCode(t *testing.T) {
	env := testSetup(t)
	ctx := context.Background()
	loc := mustLocation(t, env, "L1", "Warehouse")
	mustAsset(t, env, "A1", loc.ID, "alice")

	_, err := env.assets.Create(ctx, env.admin, CreateAssetRequest{
		Code: "A1", Name: "Copy", LocationID: loc.ID, ResponsibleParty: "alice", EntryDate: time.Now(),
	})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	var count int64
	env.db.Model(&models.Asset{}).Count(&count)
	if count != 1 {
		t.Errorf("expected no new row, got %d assets", count)
	}
}

func TestAsset_UnknownLocation(t *testing.T) {
	env := testSetup(t)
	_, err := env.assets.Create(context.Background(), env.admin, CreateAssetRequest{
		Code: "A1", Name: "Laptop", LocationID: 999, ResponsibleParty: "alice", EntryDate: time.Now(),
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := ve.Fields["id_lokasi"]; !ok {
		t.Errorf("expected id_lokasi field error, got %v", ve.Fields)
	}
}

func TestAsset_UpdatePartialStampsLastUpdated(t *testing.T) {
	env := testSetup(t)
	ctx := context.Background()
	loc := mustLocation(t, env, "L1", "Warehouse")
	a := mustAsset(t, env, "A1", loc.ID, "alice")

	heavy := models.ConditionHeavyDamage
	updated, err := env.assets.Update(ctx, env.admin, a.ID, UpdateAssetRequest{Condition: &heavy})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Condition != heavy {
		t.Errorf("condition not updated")
	}
	if updated.Name != a.Name || updated.Code != a.Code || updated.ResponsibleParty != "alice" {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if updated.LastUpdated == nil {
		t.Error("tanggal_pembaruan should be set after an update")
	}

	other := mustAsset(t, env, "A2", loc.ID, "alice")
	dup := "A1"
	_, err = env.assets.Update(ctx, env.admin, other.ID, UpdateAssetRequest{Code: &dup})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Errorf("expected ConflictError renaming onto an existing code, got %v", err)
	}

	if _, err := env.assets.Update(ctx, env.admin, 999, UpdateAssetRequest{Condition: &heavy}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_EmptyRequestIsNoOp(t *testing.T) {
	env := testSetup(t)
	ctx := context.Background()
	loc := mustLocation(t, env, "L1", "Warehouse")
	a := mustAsset(t, env, "A1", loc.ID, "alice")

	var before int64
	env.db.Model(&models.AuditLog{}).Count(&before)
	var stored models.Asset
	env.db.First(&stored, a.ID)

	got, err := env.assets.Update(ctx, env.admin, a.ID, UpdateAssetRequest{})
	if err != nil {
		t.Fatalf("update asset: %v", err)
	}
	if got.LastUpdated != nil {
		t.Error("empty update should not stamp tanggal_pembaruan")
	}
	if got.Location == nil || got.Location.Code != "L1" {
		t.Errorf("expected embedded location, got %+v", got.Location)
	}

	var reread models.Asset
	env.db.First(&reread, a.ID)
	if !reread.UpdatedAt.Equal(stored.UpdatedAt) {
		t.Errorf("empty update should not touch updated_at: %v -> %v", stored.UpdatedAt, reread.UpdatedAt)
	}

	gotLoc, err := env.locations.Update(ctx, env.admin, loc.ID, UpdateLocationRequest{})
	if err != nil {
		t.Fatalf("update location: %v", err)
	}
	if gotLoc.Code != "L1" || gotLoc.AssetCount != 1 {
		t.Errorf("expected unchanged location with one asset, got %+v", gotLoc)
	}

	if _, err := env.users.Update(ctx, env.admin, env.alice.ID, UpdateUserRequest{}); err != nil {
		t.Fatalf("update user: %v", err)
	}

	var after int64
	env.db.Model(&models.AuditLog{}).Count(&after)
	if after != before {
		t.Errorf("empty updates should not write audit entries: %d -> %d", before, after)
	}

	if _, err := env.assets.Update(ctx, env.admin, 999, UpdateAssetRequest{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a missing asset, got %v", err)
	}
	if _, err := env.locations.Update(ctx, env.admin, 999, UpdateLocationRequest{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a missing location, got %v", err)
	}
	if _, err := env.assets.Update(ctx, env.viewer, a.ID, UpdateAssetRequest{}); !errors.Is(err, errForbidden) {
		t.Errorf("viewer should still be forbidden, got %v", err)
	}
}

func TestAsset_ResponsiblePartyScope(t *testing.T) {
	env := testSetup(t)
	ctx := context.Background()
	loc := mustLocation(t, env, "L1", "Warehouse")
	own := mustAsset(t, env, "A1", loc.ID, "alice")
	foreign := mustAsset(t, env, "A2", loc.ID, "bob")

	res, err := env.assets.List(ctx, env.alice, query.AssetFilter{}, firstPage)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ResponsibleParty != "alice" {
		t.Errorf("responsible party should only see own assets, got %+v", res.Items)
	}

	// A filter naming someone else cannot widen the scope
	res, _ = env.assets.List(ctx, env.alice, query.AssetFilter{ResponsibleParty: "bob"}, firstPage)
	if len(res.Items) != 0 {
		t.Errorf("expected no rows, got %d", len(res.Items))
	}

	for _, u := range []*models.User{env.admin, env.viewer} {
		res, err := env.assets.List(ctx, u, query.AssetFilter{}, firstPage)
		if err != nil {
			t.Fatalf("list as %s: %v", u.Role, err)
		}
		if len(res.Items) != 2 {
			t.Errorf("%s should see all assets, got %d", u.Role, len(res.Items))
		}
	}

	if _, err := env.assets.Get(ctx, env.alice, own.ID); err != nil {
		t.Errorf("owner should view own asset: %v", err)
	}
	_, err = env.assets.Get(ctx, env.alice, foreign.ID)
	var fe *ForbiddenError
	if !errors.As(err, &fe) {
		t.Errorf("expected ForbiddenError for a foreign asset, got %v", err)
	}
}

func TestMutations_AdminOnly(t *testing.T) {
	env := testSetup(t)
	ctx := context.Background()
	loc := mustLocation(t, env, "L1", "Warehouse")

	for _, u := range []*models.User{env.alice, env.viewer} {
		var fe *ForbiddenError
		_, err := env.locations.Create(ctx, u, CreateLocationRequest{Code: "X1", Name: "Nope", Address: "Jl. X"})
		if !errors.As(err, &fe) {
			t.Errorf("%s creating location: expected ForbiddenError, got %v", u.Role, err)
		}
		_, err = env.assets.Create(ctx, u, CreateAssetRequest{Code: "X1", Name: "Nope", LocationID: loc.ID, ResponsibleParty: u.Username, EntryDate: time.Now()})
		if !errors.As(err, &fe) {
			t.Errorf("%s creating asset: expected ForbiddenError, got %v", u.Role, err)
		}
		if err := env.users.Delete(ctx, u, env.viewer.ID); !errors.As(err, &fe) {
			t.Errorf("%s deleting user: expected ForbiddenError, got %v", u.Role, err)
		}
	}
}

func TestLocation_DuplicateCodeAndCounts(t *testing.T) {
	env := testSetup(t)
	ctx := context.Background()
	loc := mustLocation(t, env, "L1", "Warehouse")
	mustLocation(t, env, "L2", "Office")
	mustAsset(t, env, "A1", loc.ID, "alice")
	mustAsset(t, env, "A2", loc.ID, "bob")

	_, err := env.locations.Create(ctx, env.admin, CreateLocationRequest{Code: "L1", Name: "Again", Address: "Jl. Lagi"})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	res, err := env.locations.List(ctx, env.viewer, query.LocationFilter{Search: "ware"}, firstPage)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].AssetCount != 2 {
		t.Errorf("expected Warehouse with 2 assets, got %+v", res.Items)
	}
}

func TestLocation_DeleteEmpty(t *testing.T) {
	env := testSetup(t)
	ctx := context.Background()
	loc := mustLocation(t, env, "L1", "Warehouse")

	if err := env.locations.Delete(ctx, env.admin, loc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.locations.Get(ctx, env.admin, loc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := env.locations.Delete(ctx, env.admin, loc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestUser_SelfProtection(t *testing.T) {
	env := testSetup(t)
	ctx := context.Background()

	viewer := models.RoleViewer
	_, err := env.users.Update(ctx, env.admin, env.admin.ID, UpdateUserRequest{Role: &viewer})
	var fe *ForbiddenError
	if !errors.As(err, &fe) {
		t.Errorf("expected ForbiddenError changing own role, got %v", err)
	}

	if err := env.users.Delete(ctx, env.admin, env.admin.ID); !errors.As(err, &fe) {
		t.Errorf("expected ForbiddenError deleting self, got %v", err)
	}

	// Changing another user's role is fine
	updated, err := env.users.Update(ctx, env.admin, env.alice.ID, UpdateUserRequest{Role: &viewer})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Role != models.RoleViewer {
		t.Errorf("role not changed: %q", updated.Role)
	}
}

func TestUser_CreateAndDuplicate(t *testing.T) {
	env := testSetup(t)
	ctx := context.Background()

	u, err := env.users.Create(ctx, env.admin, CreateUserRequest{Username: "carol", Password: "carol123"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Role != models.RoleViewer {
		t.Errorf("expected default role viewer, got %q", u.Role)
	}
	if u.PasswordHash == "carol123" || u.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}

	_, err = env.users.Create(ctx, env.admin, CreateUserRequest{Username: "carol", Password: "other123"})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Errorf("expected ConflictError, got %v", err)
	}

	name := "alice"
	_, err = env.users.Update(ctx, env.admin, u.ID, UpdateUserRequest{Username: &name})
	if !errors.As(err, &ce) {
		t.Errorf("expected ConflictError renaming onto alice, got %v", err)
	}
}

func TestMutations_WriteAuditLog(t *testing.T) {
	env := testSetup(t)
	loc := mustLocation(t, env, "L1", "Warehouse")
	mustAsset(t, env, "A1", loc.ID, "alice")

	var logs []models.AuditLog
	env.db.Order("id").Find(&logs)
	if len(logs) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(logs))
	}
	if logs[0].Action != "create_location" || logs[1].Action != "create_asset" {
		t.Errorf("unexpected actions: %s, %s", logs[0].Action, logs[1].Action)
	}
	if logs[1].UserID == nil || *logs[1].UserID != env.admin.ID {
		t.Errorf("audit entry should record the admin")
	}
}

func TestDashboard_CachedAndInvalidated(t *testing.T) {
	env := testSetup(t)
	ctx := context.Background()
	loc := mustLocation(t, env, "L1", "Warehouse")
	mustAsset(t, env, "A1", loc.ID, "alice")

	d, err := env.reports.Dashboard(ctx, env.admin)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.TotalAssets != 1 {
		t.Fatalf("expected 1 asset, got %d", d.TotalAssets)
	}
	if _, ok, _ := env.cache.Get(ctx, dashboardKey(rbac.ScopeAll, "")); !ok {
		t.Error("dashboard should be cached after the first build")
	}

	mustAsset(t, env, "A2", loc.ID, "bob")
	d, err = env.reports.Dashboard(ctx, env.admin)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.TotalAssets != 2 {
		t.Errorf("cache should be invalidated by the mutation, got %d assets", d.TotalAssets)
	}

	own, err := env.reports.Dashboard(ctx, env.alice)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if own.TotalAssets != 1 {
		t.Errorf("alice's dashboard should count her asset only, got %d", own.TotalAssets)
	}
}

// invalidatingCache simulates a mutation committing while the dashboard is
// being computed.
type invalidatingCache struct {
	*cache.MemoryCache
	once bool
}

func (c *invalidatingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !c.once {
		c.once = true
		_ = c.Invalidate(ctx)
	}
	return c.MemoryCache.Get(ctx, key)
}

func TestDashboard_StaleBuildNotCached(t *testing.T) {
	env := testSetup(t)
	ctx := context.Background()
	loc := mustLocation(t, env, "L1", "Warehouse")
	mustAsset(t, env, "A1", loc.ID, "alice")

	c := &invalidatingCache{MemoryCache: cache.NewMemoryCache(16, time.Minute)}
	reports := NewReportService(env.db, env.reports.policy, c)

	if _, err := reports.Dashboard(ctx, env.admin); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if v, ok, _ := c.MemoryCache.Get(ctx, dashboardKey(rbac.ScopeAll, "")); ok {
		t.Errorf("a build that raced an invalidation should not be cached, got %s", v)
	}

	if _, err := reports.Dashboard(ctx, env.admin); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if _, ok, _ := c.MemoryCache.Get(ctx, dashboardKey(rbac.ScopeAll, "")); !ok {
		t.Error("an undisturbed build should be cached")
	}
}

func TestReports_ScopedForResponsibleParty(t *testing.T) {
	env := testSetup(t)
	ctx := context.Background()
	loc := mustLocation(t, env, "L1", "Warehouse")
	mustAsset(t, env, "A1", loc.ID, "alice")
	mustAsset(t, env, "A2", loc.ID, "bob")

	rows, err := env.reports.ByCondition(ctx, env.alice, query.ReportFilter{})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if rows[0].TotalAssets != 1 {
		t.Errorf("alice should see 1 good asset, got %d", rows[0].TotalAssets)
	}

	rows, _ = env.reports.ByCondition(ctx, env.viewer, query.ReportFilter{})
	if rows[0].TotalAssets != 2 {
		t.Errorf("viewer should see 2 good assets, got %d", rows[0].TotalAssets)
	}
}

func TestAuditLogs_AdminOnly(t *testing.T) {
	env := testSetup(t)
	ctx := context.Background()
	mustLocation(t, env, "L1", "Warehouse")
	mustLocation(t, env, "L2", "Office")

	res, err := env.reports.AuditLogs(ctx, env.admin, "create_location", "", query.Page{Page: 1, Limit: 1})
	if err != nil {
		t.Fatalf("audit logs: %v", err)
	}
	if res.Pagination.TotalItems != 2 || len(res.Items) != 1 {
		t.Errorf("expected 1 of 2 entries, got %d of %d", len(res.Items), res.Pagination.TotalItems)
	}

	for _, u := range []*models.User{env.alice, env.viewer} {
		var fe *ForbiddenError
		if _, err := env.reports.AuditLogs(ctx, u, "", "", firstPage); !errors.As(err, &fe) {
			t.Errorf("%s: expected ForbiddenError, got %v", u.Role, err)
		}
	}
}
