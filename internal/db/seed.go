package db

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/superbmd/superbmd/internal/models"
	"gorm.io/gorm"
)

type seedUser struct {
	username string
	password string
	role     models.Role
}

type seedAsset struct {
	code, name       string
	condition        models.Condition
	locationCode     string
	responsibleParty string
	entryDate        string
}

var demoUsers = []seedUser{
	{"admin", "admin123", models.RoleAdmin},
	{"penanggungjawab", "pj123", models.RoleResponsibleParty},
	{"viewer", "viewer123", models.RoleViewer},
}

var demoLocations = []models.Location{
	{Code: "KP001", Name: "Kantor Pusat", Address: "Jl. Merdeka No. 1, Jakarta"},
	{Code: "GDG001", Name: "Gudang Utama", Address: "Jl. Industri No. 10, Bekasi"},
	{Code: "CBD001", Name: "Cabang Bandung", Address: "Jl. Asia Afrika No. 5, Bandung"},
}

var demoAssets = []seedAsset{
	{"BRG001", "Laptop Dell Latitude", models.ConditionGood, "KP001", "penanggungjawab", "2024-01-15"},
	{"BRG002", "Proyektor Epson", models.ConditionLightDamage, "KP001", "admin", "2024-02-01"},
	{"BRG003", "Meja Kerja", models.ConditionGood, "GDG001", "penanggungjawab", "2024-02-20"},
	{"BRG004", "Kursi Lipat", models.ConditionHeavyDamage, "GDG001", "viewer", "2024-03-05"},
}

// SeedDemoData inserts the demo users, locations and assets that are missing.
// Existing rows (matched by username or code) are left untouched.
func SeedDemoData(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, u := range demoUsers {
			var existing models.User
			err := tx.Where("username = ?", u.username).First(&existing).Error
			if err == nil {
				slog.Info("User already exists, skipping", "username", u.username)
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if _, err := UpsertUser(tx, u.username, u.password, u.role); err != nil {
				return err
			}
			slog.Info("Added user", "username", u.username)
		}

		locationIDs := make(map[string]uint, len(demoLocations))
		for _, loc := range demoLocations {
			loc := loc
			if err := tx.Where(models.Location{Code: loc.Code}).FirstOrCreate(&loc).Error; err != nil {
				return fmt.Errorf("seed location %s: %w", loc.Code, err)
			}
			locationIDs[loc.Code] = loc.ID
		}

		for _, a := range demoAssets {
			entry, err := time.Parse("2006-01-02", a.entryDate)
			if err != nil {
				return err
			}
			asset := models.Asset{
				Code:             a.code,
				Name:             a.name,
				Condition:        a.condition,
				LocationID:       locationIDs[a.locationCode],
				ResponsibleParty: a.responsibleParty,
				EntryDate:        models.NewDate(entry),
			}
			if err := tx.Where(models.Asset{Code: a.code}).FirstOrCreate(&asset).Error; err != nil {
				return fmt.Errorf("seed asset %s: %w", a.code, err)
			}
		}

		slog.Info("Demo data seeded",
			"users", len(demoUsers),
			"locations", len(demoLocations),
			"assets", len(demoAssets))
		return nil
	})
}
