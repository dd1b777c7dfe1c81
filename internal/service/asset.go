package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/superbmd/superbmd/internal/audit"
	"github.com/superbmd/superbmd/internal/cache"
	"github.com/superbmd/superbmd/internal/models"
	"github.com/superbmd/superbmd/internal/query"
	"github.com/superbmd/superbmd/internal/rbac"
	"gorm.io/gorm"
)

// AssetService contains the business logic for asset operations.
type AssetService struct {
	db     *gorm.DB
	policy *rbac.Policy
	cache  cache.Cache
}

// NewAssetService creates a new AssetService.
func NewAssetService(db *gorm.DB, policy *rbac.Policy, c cache.Cache) *AssetService {
	if c == nil {
		c = cache.Noop{}
	}
	return &AssetService{db: db, policy: policy, cache: c}
}

func preloadLocation(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Location")
}

// List returns one page of the assets the actor may see.
// Responsible parties only ever see their own assets, whatever the filter says.
func (s *AssetService) List(ctx context.Context, actor *models.User, f query.AssetFilter, p query.Page) (*query.Result[models.Asset], error) {
	switch s.policy.Scope(actor, rbac.ResourceAsset) {
	case rbac.ScopeNone:
		return nil, errForbidden
	case rbac.ScopeOwn:
		f.Owner = actor.Username
	}

	var items []models.Asset
	q := s.db.WithContext(ctx).Model(&models.Asset{}).Scopes(f.Scope)
	pg, err := query.Paginate(q, p, "assets.id ASC", &items, preloadLocation)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return &query.Result[models.Asset]{Items: items, Pagination: pg}, nil
}

// Get returns a single asset. Assets outside the actor's scope are forbidden, not hidden.
func (s *AssetService) Get(ctx context.Context, actor *models.User, id uint) (*models.Asset, error) {
	var asset models.Asset
	if err := s.db.WithContext(ctx).Scopes(preloadLocation).First(&asset, id).Error; err != nil {
		return nil, notFound(err)
	}
	if !s.policy.CanViewAsset(actor, &asset) {
		return nil, &ForbiddenError{Message: "Anda tidak memiliki izin untuk melihat barang ini"}
	}
	return &asset, nil
}

func requireLocation(tx *gorm.DB, id uint) error {
	var loc models.Location
	if err := tx.Select("id").First(&loc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fieldError("id_lokasi", fmt.Sprintf("lokasi dengan id %d tidak ditemukan", id))
		}
		return err
	}
	return nil
}

// Create validates the location reference and code uniqueness, then inserts an asset.
func (s *AssetService) Create(ctx context.Context, actor *models.User, req CreateAssetRequest) (*models.Asset, error) {
	if !s.policy.CanWrite(actor, rbac.ResourceAsset) {
		return nil, errForbidden
	}
	if req.Condition == "" {
		req.Condition = models.ConditionGood
	}
	if !req.Condition.Valid() {
		return nil, fieldError("kondisi", models.ErrInvalidCondition.Error())
	}

	asset := models.Asset{
		Code:             req.Code,
		Name:             req.Name,
		Condition:        req.Condition,
		LocationID:       req.LocationID,
		ResponsibleParty: req.ResponsibleParty,
		EntryDate:        models.NewDate(req.EntryDate),
		ImageURL:         req.ImageURL,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := codeTaken(tx, &models.Asset{}, "code", req.Code, 0)
		if err != nil {
			return err
		}
		if taken {
			return &ConflictError{Message: fmt.Sprintf("Kode barang '%s' sudah digunakan", req.Code)}
		}
		if err := requireLocation(tx, req.LocationID); err != nil {
			return err
		}

		if err := tx.Create(&asset).Error; err != nil {
			return constraint(err, fmt.Sprintf("Kode barang '%s' sudah digunakan", req.Code))
		}

		if err := audit.LogAction(tx, audit.ActorOf(actor), audit.ActionCreateAsset, audit.Resource(audit.ResourceAsset, asset.ID), map[string]interface{}{
			"kode_barang": asset.Code,
			"kondisi":     asset.Condition,
			"id_lokasi":   asset.LocationID,
		}); err != nil {
			return err
		}

		return preloadLocation(tx).First(&asset, asset.ID).Error
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache)
	return &asset, nil
}

// Update applies a partial update and stamps tanggal_pembaruan.
func (s *AssetService) Update(ctx context.Context, actor *models.User, id uint, req UpdateAssetRequest) (*models.Asset, error) {
	if !s.policy.CanWrite(actor, rbac.ResourceAsset) {
		return nil, errForbidden
	}
	if req.Condition != nil && !req.Condition.Valid() {
		return nil, fieldError("kondisi", models.ErrInvalidCondition.Error())
	}

	var asset models.Asset
	if req.empty() {
		if err := s.db.WithContext(ctx).Scopes(preloadLocation).First(&asset, id).Error; err != nil {
			return nil, notFound(err)
		}
		return &asset, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&asset, id).Error; err != nil {
			return notFound(err)
		}

		changes := map[string]interface{}{}
		if req.Code != nil && *req.Code != asset.Code {
			taken, err := codeTaken(tx, &models.Asset{}, "code", *req.Code, asset.ID)
			if err != nil {
				return err
			}
			if taken {
				return &ConflictError{Message: fmt.Sprintf("Kode barang '%s' sudah digunakan", *req.Code)}
			}
			asset.Code = *req.Code
			changes["kode_barang"] = asset.Code
		}
		if req.LocationID != nil && *req.LocationID != asset.LocationID {
			if err := requireLocation(tx, *req.LocationID); err != nil {
				return err
			}
			asset.LocationID = *req.LocationID
			changes["id_lokasi"] = asset.LocationID
		}
		if req.Name != nil {
			asset.Name = *req.Name
			changes["nama_barang"] = asset.Name
		}
		if req.Condition != nil {
			if *req.Condition != asset.Condition {
				changes["kondisi_lama"] = asset.Condition
			}
			asset.Condition = *req.Condition
			changes["kondisi"] = asset.Condition
		}
		if req.ResponsibleParty != nil {
			asset.ResponsibleParty = *req.ResponsibleParty
			changes["penanggung_jawab"] = asset.ResponsibleParty
		}
		if req.EntryDate != nil {
			asset.EntryDate = models.NewDate(*req.EntryDate)
			changes["tanggal_masuk"] = asset.EntryDate.Format(query.DateLayout)
		}
		if req.ImageURL != nil {
			asset.ImageURL = req.ImageURL
			changes["gambar_aset"] = *asset.ImageURL
		}
		asset.LastUpdated = models.NewDatePtr(tx.NowFunc())

		if err := tx.Save(&asset).Error; err != nil {
			return constraint(err, fmt.Sprintf("Kode barang '%s' sudah digunakan", asset.Code))
		}

		if err := audit.LogAction(tx, audit.ActorOf(actor), audit.ActionUpdateAsset, audit.Resource(audit.ResourceAsset, asset.ID), changes); err != nil {
			return err
		}

		return preloadLocation(tx).First(&asset, asset.ID).Error
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache)
	return &asset, nil
}

// Delete removes an asset.
func (s *AssetService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if !s.policy.CanWrite(actor, rbac.ResourceAsset) {
		return errForbidden
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var asset models.Asset
		if err := tx.First(&asset, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Delete(&asset).Error; err != nil {
			return err
		}
		return audit.LogAction(tx, audit.ActorOf(actor), audit.ActionDeleteAsset, audit.Resource(audit.ResourceAsset, asset.ID), map[string]interface{}{
			"kode_barang": asset.Code,
		})
	})
	if err != nil {
		return err
	}

	invalidate(ctx, s.cache)
	return nil
}
