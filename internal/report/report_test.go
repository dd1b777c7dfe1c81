package report

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/superbmd/superbmd/internal/models"
	"github.com/superbmd/superbmd/internal/query"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "report.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Location{}, &models.Asset{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func day(s string) time.Time {
	d, err := time.Parse(query.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

type fixture struct {
	warehouse, office, empty models.Location
}

// seed creates three locations (one empty) and four assets:
//
//	A1 Warehouse good   alice 2024-01-01
//	A2 Warehouse light  bob   2024-01-10, updated 2024-02-15
//	A3 Office    heavy  alice 2024-02-01
//	A4 Office    good   bob   2024-03-01
func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	f := fixture{
		warehouse: models.Location{Code: "L1", Name: "Warehouse", Address: "Jl. Satu"},
		office:    models.Location{Code: "L2", Name: "Office", Address: "Jl. Dua"},
		empty:     models.Location{Code: "L3", Name: "Annex", Address: "Jl. Tiga"},
	}
	for _, loc := range []*models.Location{&f.warehouse, &f.office, &f.empty} {
		if err := db.Create(loc).Error; err != nil {
			t.Fatal(err)
		}
	}

	updated := models.NewDate(day("2024-02-15").Add(9 * time.Hour))
	assets := []models.Asset{
		{Code: "A1", Name: "Laptop", Condition: models.ConditionGood, LocationID: f.warehouse.ID, ResponsibleParty: "alice", EntryDate: models.NewDate(day("2024-01-01"))},
		{Code: "A2", Name: "Projector", Condition: models.ConditionLightDamage, LocationID: f.warehouse.ID, ResponsibleParty: "bob", EntryDate: models.NewDate(day("2024-01-10")), LastUpdated: &updated},
		{Code: "A3", Name: "Desk", Condition: models.ConditionHeavyDamage, LocationID: f.office.ID, ResponsibleParty: "alice", EntryDate: models.NewDate(day("2024-02-01"))},
		{Code: "A4", Name: "Chair", Condition: models.ConditionGood, LocationID: f.office.ID, ResponsibleParty: "bob", EntryDate: models.NewDate(day("2024-03-01"))},
	}
	for i := range assets {
		if err := db.Create(&assets[i]).Error; err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func TestByLocation_IncludesEmptyLocations(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	rows, err := ByLocation(context.Background(), db, query.ReportFilter{})
	if err != nil {
		t.Fatalf("ByLocation failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 locations, got %d", len(rows))
	}

	// Alphabetical by name
	wantOrder := []string{"Annex", "Office", "Warehouse"}
	for i, name := range wantOrder {
		if rows[i].LocationName != name {
			t.Errorf("row %d: expected %s, got %s", i, name, rows[i].LocationName)
		}
	}

	annex := rows[0]
	if annex.TotalAssets != 0 || annex.Good != 0 || annex.LightDamage != 0 || annex.HeavyDamage != 0 {
		t.Errorf("empty location should have zero counts, got %+v", annex)
	}

	warehouse := rows[2]
	if warehouse.TotalAssets != 2 || warehouse.Good != 1 || warehouse.LightDamage != 1 || warehouse.HeavyDamage != 0 {
		t.Errorf("unexpected warehouse counts: %+v", warehouse)
	}
}

func TestByLocation_FiltersKeepLocations(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)
	good := models.ConditionGood

	rows, err := ByLocation(context.Background(), db, query.ReportFilter{Condition: &good, Owner: "alice"})
	if err != nil {
		t.Fatalf("ByLocation failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("filters must not drop locations, got %d rows", len(rows))
	}
	for _, r := range rows {
		want := int64(0)
		if r.LocationID == f.warehouse.ID {
			want = 1
		}
		if r.TotalAssets != want {
			t.Errorf("%s: expected %d assets, got %d", r.LocationName, want, r.TotalAssets)
		}
	}

	rows, err = ByLocation(context.Background(), db, query.ReportFilter{LocationID: &f.empty.ID})
	if err != nil {
		t.Fatalf("ByLocation failed: %v", err)
	}
	if len(rows) != 1 || rows[0].LocationID != f.empty.ID {
		t.Errorf("location_id should select a single location, got %+v", rows)
	}
}

func TestByCondition_AllConditionsInOrder(t *testing.T) {
	db := setupTestDB(t)
	f := seed(t, db)

	// The warehouse has no heavy damage, which must still be reported
	rows, err := ByCondition(context.Background(), db, query.ReportFilter{LocationID: &f.warehouse.ID})
	if err != nil {
		t.Fatalf("ByCondition failed: %v", err)
	}
	want := []struct {
		c models.Condition
		n int64
	}{
		{models.ConditionGood, 1},
		{models.ConditionLightDamage, 1},
		{models.ConditionHeavyDamage, 0},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, w := range want {
		if rows[i].Condition != w.c || rows[i].TotalAssets != w.n {
			t.Errorf("row %d: expected %s=%d, got %s=%d", i, w.c, w.n, rows[i].Condition, rows[i].TotalAssets)
		}
	}

	// An empty database still yields all three
	empty := setupTestDB(t)
	rows, err = ByCondition(context.Background(), empty, query.ReportFilter{})
	if err != nil {
		t.Fatalf("ByCondition failed: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected 3 zero rows, got %d", len(rows))
	}
}

func TestInOut_MergesAndOrders(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	rows, err := InOut(context.Background(), db, query.ReportFilter{})
	if err != nil {
		t.Fatalf("InOut failed: %v", err)
	}

	want := []struct {
		code, kind string
	}{
		{"A1", TypeIn},
		{"A2", TypeIn},
		{"A3", TypeIn},
		{"A2", TypeUpdate},
		{"A4", TypeIn},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d: %+v", len(want), len(rows), rows)
	}
	for i, w := range want {
		if rows[i].AssetCode != w.code || rows[i].Type != w.kind {
			t.Errorf("row %d: expected %s %s, got %s %s", i, w.code, w.kind, rows[i].AssetCode, rows[i].Type)
		}
		if rows[i].OldCondition != nil {
			t.Errorf("row %d: kondisi_lama should be null", i)
		}
	}
	if rows[3].Location != "Warehouse" {
		t.Errorf("expected location name on update row, got %q", rows[3].Location)
	}
}

func TestInOut_DateRangeAppliesPerEventDate(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	r, err := query.ParseDateRange(map[string][]string{"start_date": {"2024-02-10"}, "end_date": {"2024-02-28"}})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := InOut(context.Background(), db, query.ReportFilter{Range: r})
	if err != nil {
		t.Fatalf("InOut failed: %v", err)
	}
	if len(rows) != 1 || rows[0].AssetCode != "A2" || rows[0].Type != TypeUpdate {
		t.Errorf("expected only the A2 update, got %+v", rows)
	}
}

func TestBuildDashboard(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	d, err := BuildDashboard(context.Background(), db, "")
	if err != nil {
		t.Fatalf("BuildDashboard failed: %v", err)
	}
	if d.TotalAssets != 4 || d.TotalLocations != 3 {
		t.Errorf("unexpected totals: %+v", d)
	}
	if len(d.AssetsByCondition) != 3 || d.AssetsByCondition[0].Name != "good" || d.AssetsByCondition[0].Value != 2 {
		t.Errorf("unexpected condition breakdown: %+v", d.AssetsByCondition)
	}
	// Only locations holding assets, by name
	if len(d.AssetsByLocation) != 2 || d.AssetsByLocation[0].Name != "Office" || d.AssetsByLocation[1].Name != "Warehouse" {
		t.Errorf("unexpected location breakdown: %+v", d.AssetsByLocation)
	}

	own, err := BuildDashboard(context.Background(), db, "alice")
	if err != nil {
		t.Fatalf("BuildDashboard failed: %v", err)
	}
	if own.TotalAssets != 2 {
		t.Errorf("owner dashboard should count 2 assets, got %d", own.TotalAssets)
	}
	if own.AssetsByCondition[2].Value != 1 {
		t.Errorf("alice has one heavy damage asset, got %+v", own.AssetsByCondition)
	}
}

func TestWriteXLSX(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)

	rows, err := ByLocation(context.Background(), db, query.ReportFilter{})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	table := LocationTable(rows)
	if err := table.WriteXLSX(&buf); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to read workbook back: %v", err)
	}
	defer f.Close()

	got, err := f.GetRows(table.Sheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(got) != 1+len(rows) {
		t.Fatalf("expected header plus %d rows, got %d", len(rows), len(got))
	}
	if got[0][1] != "Nama Lokasi" || got[1][1] != "Annex" {
		t.Errorf("unexpected sheet contents: %v", got[:2])
	}
}
