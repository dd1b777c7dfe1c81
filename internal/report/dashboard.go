package report

import (
	"context"
	"fmt"

	"github.com/superbmd/superbmd/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// NameValue is a chart point
type NameValue struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Dashboard is the landing-page summary
type Dashboard struct {
	TotalAssets       int64       `json:"total_assets"`
	TotalLocations    int64       `json:"total_locations"`
	AssetsByCondition []NameValue `json:"assets_by_condition"`
	AssetsByLocation  []NameValue `json:"assets_by_location"`
}

// BuildDashboard computes the dashboard aggregates concurrently. A non-empty
// owner restricts the asset figures to that responsible party.
func BuildDashboard(ctx context.Context, db *gorm.DB, owner string) (*Dashboard, error) {
	g, gctx := errgroup.WithContext(ctx)
	d := &Dashboard{}

	assets := func() *gorm.DB {
		q := db.WithContext(gctx).Model(&models.Asset{})
		if owner != "" {
			q = q.Where("assets.responsible_party = ?", owner)
		}
		return q
	}

	g.Go(func() error {
		return assets().Count(&d.TotalAssets).Error
	})

	g.Go(func() error {
		return db.WithContext(gctx).Model(&models.Location{}).Count(&d.TotalLocations).Error
	})

	g.Go(func() error {
		var raw []struct {
			Condition models.Condition `gorm:"column:kondisi"`
			Total     int64            `gorm:"column:total"`
		}
		if err := assets().Select("assets.kondisi AS kondisi, COUNT(*) AS total").Group("assets.kondisi").Scan(&raw).Error; err != nil {
			return err
		}
		counts := make(map[models.Condition]int64, len(raw))
		for _, r := range raw {
			counts[r.Condition] = r.Total
		}
		for _, row := range zeroFilled(counts) {
			d.AssetsByCondition = append(d.AssetsByCondition, NameValue{Name: string(row.Condition), Value: row.TotalAssets})
		}
		return nil
	})

	g.Go(func() error {
		d.AssetsByLocation = []NameValue{}
		return assets().
			Select("locations.name AS name, COUNT(assets.id) AS value").
			Joins("JOIN locations ON locations.id = assets.location_id").
			Group("locations.id, locations.name").
			Order("locations.name ASC").
			Scan(&d.AssetsByLocation).Error
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return d, nil
}
