// Package report builds the read-only aggregate projections over assets:
// per location, per condition, the in/out activity log and the dashboard.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/superbmd/superbmd/internal/models"
	"github.com/superbmd/superbmd/internal/query"
	"gorm.io/gorm"
)

// Transaction types in the in/out report
const (
	TypeIn     = "IN"
	TypeUpdate = "UPDATE"
)

// LocationRow counts the assets of one location
type LocationRow struct {
	LocationID   uint   `json:"location_id"`
	LocationCode string `json:"location_code"`
	LocationName string `json:"location_name"`
	TotalAssets  int64  `json:"total_assets"`
	Good         int64  `json:"good"`
	LightDamage  int64  `json:"light_damage"`
	HeavyDamage  int64  `json:"heavy_damage"`
}

// ConditionRow counts the assets in one condition
type ConditionRow struct {
	Condition   models.Condition `json:"condition"`
	Label       string           `json:"label"`
	TotalAssets int64            `json:"total_assets"`
}

// InOutRow is one asset intake or update event
type InOutRow struct {
	AssetName    string            `json:"nama_barang"`
	AssetCode    string            `json:"kode_barang"`
	Location     string            `json:"lokasi"`
	Date         models.Date       `json:"tanggal"`
	Type         string            `json:"tipe_transaksi"`
	OldCondition *models.Condition `json:"kondisi_lama"`
	NewCondition models.Condition  `json:"kondisi_baru"`
}

// assetConds renders the filter as SQL predicates over the assets table.
// dateCol selects which timestamp the date range applies to.
func assetConds(f query.ReportFilter, dateCol string) ([]string, []interface{}) {
	var conds []string
	var args []interface{}
	if f.Owner != "" {
		conds = append(conds, "assets.responsible_party = ?")
		args = append(args, f.Owner)
	}
	if f.LocationID != nil {
		conds = append(conds, "assets.location_id = ?")
		args = append(args, *f.LocationID)
	}
	if f.Condition != nil {
		conds = append(conds, "assets.kondisi = ?")
		args = append(args, *f.Condition)
	}
	if f.Range.Start != nil {
		conds = append(conds, dateCol+" >= ?")
		args = append(args, *f.Range.Start)
	}
	if f.Range.End != nil {
		conds = append(conds, dateCol+" < ?")
		args = append(args, *f.Range.End)
	}
	return conds, args
}

func where(db *gorm.DB, conds []string, args []interface{}) *gorm.DB {
	if len(conds) == 0 {
		return db
	}
	return db.Where(strings.Join(conds, " AND "), args...)
}

// ByLocation counts assets per location. Every location appears, including
// those with no matching assets; asset filters live in the join condition so
// they never drop a location row. Rows are ordered by location name.
func ByLocation(ctx context.Context, db *gorm.DB, f query.ReportFilter) ([]LocationRow, error) {
	// location_id selects the location row itself
	locFilter := f.LocationID
	f.LocationID = nil

	conds, args := assetConds(f, "assets.entry_date")
	on := "assets.location_id = locations.id"
	if len(conds) > 0 {
		on += " AND " + strings.Join(conds, " AND ")
	}

	sel := "locations.id AS location_id, locations.code AS location_code, locations.name AS location_name, " +
		"COUNT(assets.id) AS total_assets, " +
		"COUNT(CASE WHEN assets.kondisi = ? THEN 1 END) AS good, " +
		"COUNT(CASE WHEN assets.kondisi = ? THEN 1 END) AS light_damage, " +
		"COUNT(CASE WHEN assets.kondisi = ? THEN 1 END) AS heavy_damage"

	q := db.WithContext(ctx).Table("locations").
		Select(sel, models.ConditionGood, models.ConditionLightDamage, models.ConditionHeavyDamage).
		Joins("LEFT JOIN assets ON "+on, args...)
	if locFilter != nil {
		q = q.Where("locations.id = ?", *locFilter)
	}

	rows := []LocationRow{}
	err := q.Group("locations.id, locations.code, locations.name").
		Order("locations.name ASC, locations.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("assets by location: %w", err)
	}
	return rows, nil
}

// ByCondition counts assets per condition. All conditions are present, in
// declaration order, zero-filled.
func ByCondition(ctx context.Context, db *gorm.DB, f query.ReportFilter) ([]ConditionRow, error) {
	conds, args := assetConds(f, "assets.entry_date")

	var raw []struct {
		Condition models.Condition `gorm:"column:kondisi"`
		Total     int64            `gorm:"column:total"`
	}
	q := where(db.WithContext(ctx).Table("assets"), conds, args)
	if err := q.Select("assets.kondisi AS kondisi, COUNT(*) AS total").Group("assets.kondisi").Scan(&raw).Error; err != nil {
		return nil, fmt.Errorf("assets by condition: %w", err)
	}

	counts := make(map[models.Condition]int64, len(raw))
	for _, r := range raw {
		counts[r.Condition] = r.Total
	}
	return zeroFilled(counts), nil
}

func zeroFilled(counts map[models.Condition]int64) []ConditionRow {
	all := models.Conditions()
	rows := make([]ConditionRow, 0, len(all))
	for _, c := range all {
		rows = append(rows, ConditionRow{Condition: c, Label: c.Label(), TotalAssets: counts[c]})
	}
	return rows
}

type activityScan struct {
	AssetName    string           `gorm:"column:nama_barang"`
	AssetCode    string           `gorm:"column:kode_barang"`
	Location     string           `gorm:"column:lokasi"`
	Date         time.Time        `gorm:"column:tanggal"`
	NewCondition models.Condition `gorm:"column:kondisi_baru"`
}

func activity(ctx context.Context, db *gorm.DB, f query.ReportFilter, dateCol, kind string) ([]InOutRow, error) {
	conds, args := assetConds(f, dateCol)
	if kind == TypeUpdate {
		conds = append(conds, dateCol+" IS NOT NULL")
	}

	var scanned []activityScan
	q := db.WithContext(ctx).Table("assets").
		Select("assets.name AS nama_barang, assets.code AS kode_barang, locations.name AS lokasi, " +
			dateCol + " AS tanggal, assets.kondisi AS kondisi_baru").
		Joins("JOIN locations ON locations.id = assets.location_id")
	if err := where(q, conds, args).Scan(&scanned).Error; err != nil {
		return nil, err
	}

	rows := make([]InOutRow, len(scanned))
	for i, s := range scanned {
		rows[i] = InOutRow{
			AssetName:    s.AssetName,
			AssetCode:    s.AssetCode,
			Location:     s.Location,
			Date:         models.NewDate(s.Date),
			Type:         kind,
			NewCondition: s.NewCondition,
		}
	}
	return rows, nil
}

// InOut merges intake events (dated by tanggal_masuk) with update events
// (dated by tanggal_pembaruan) in ascending date order. Only the latest update
// of an asset is known and its prior condition is not recorded, so
// kondisi_lama is always null.
func InOut(ctx context.Context, db *gorm.DB, f query.ReportFilter) ([]InOutRow, error) {
	in, err := activity(ctx, db, f, "assets.entry_date", TypeIn)
	if err != nil {
		return nil, fmt.Errorf("assets in/out: %w", err)
	}
	updated, err := activity(ctx, db, f, "assets.last_updated", TypeUpdate)
	if err != nil {
		return nil, fmt.Errorf("assets in/out: %w", err)
	}

	rows := append(in, updated...)
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date.Time) {
			return rows[i].Date.Before(rows[j].Date.Time)
		}
		if rows[i].Type != rows[j].Type {
			return rows[i].Type == TypeIn
		}
		return rows[i].AssetCode < rows[j].AssetCode
	})
	return rows, nil
}
