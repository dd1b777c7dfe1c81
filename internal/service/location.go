package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/superbmd/superbmd/internal/audit"
	"github.com/superbmd/superbmd/internal/cache"
	"github.com/superbmd/superbmd/internal/models"
	"github.com/superbmd/superbmd/internal/query"
	"github.com/superbmd/superbmd/internal/rbac"
	"gorm.io/gorm"
)

const assetCountSelect = "locations.*, (SELECT COUNT(*) FROM assets WHERE assets.location_id = locations.id) AS jumlah_barang"

// LocationService contains the business logic for location operations.
type LocationService struct {
	db     *gorm.DB
	policy *rbac.Policy
	cache  cache.Cache
}

// NewLocationService creates a new LocationService.
func NewLocationService(db *gorm.DB, policy *rbac.Policy, c cache.Cache) *LocationService {
	if c == nil {
		c = cache.Noop{}
	}
	return &LocationService{db: db, policy: policy, cache: c}
}

func withAssetCount(tx *gorm.DB) *gorm.DB {
	return tx.Select(assetCountSelect)
}

// List returns one page of locations matching the filter, each with its asset count.
func (s *LocationService) List(ctx context.Context, actor *models.User, f query.LocationFilter, p query.Page) (*query.Result[LocationWithCount], error) {
	if s.policy.Scope(actor, rbac.ResourceLocation) == rbac.ScopeNone {
		return nil, errForbidden
	}

	var items []LocationWithCount
	q := s.db.WithContext(ctx).Model(&models.Location{}).Scopes(f.Scope)
	pg, err := query.Paginate(q, p, "locations.id ASC", &items, withAssetCount)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return &query.Result[LocationWithCount]{Items: items, Pagination: pg}, nil
}

// Get returns a single location with its asset count.
func (s *LocationService) Get(ctx context.Context, actor *models.User, id uint) (*LocationWithCount, error) {
	if s.policy.Scope(actor, rbac.ResourceLocation) == rbac.ScopeNone {
		return nil, errForbidden
	}
	return s.get(s.db.WithContext(ctx), id)
}

func (s *LocationService) get(tx *gorm.DB, id uint) (*LocationWithCount, error) {
	var loc LocationWithCount
	if err := tx.Model(&models.Location{}).Scopes(withAssetCount).Where("locations.id = ?", id).Take(&loc).Error; err != nil {
		return nil, notFound(err)
	}
	return &loc, nil
}

func codeTaken(tx *gorm.DB, model interface{}, column, code string, exceptID uint) (bool, error) {
	var count int64
	q := tx.Model(model).Where(column+" = ?", code)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create validates uniqueness and inserts a location.
func (s *LocationService) Create(ctx context.Context, actor *models.User, req CreateLocationRequest) (*LocationWithCount, error) {
	if !s.policy.CanWrite(actor, rbac.ResourceLocation) {
		return nil, errForbidden
	}

	loc := models.Location{Code: req.Code, Name: req.Name, Address: req.Address}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := codeTaken(tx, &models.Location{}, "code", req.Code, 0)
		if err != nil {
			return err
		}
		if taken {
			return &ConflictError{Message: fmt.Sprintf("Kode lokasi '%s' sudah digunakan", req.Code)}
		}

		if err := tx.Create(&loc).Error; err != nil {
			return constraint(err, fmt.Sprintf("Kode lokasi '%s' sudah digunakan", req.Code))
		}

		return audit.LogAction(tx, audit.ActorOf(actor), audit.ActionCreateLocation, audit.Resource(audit.ResourceLocation, loc.ID), map[string]interface{}{
			"kode_lokasi": loc.Code,
			"nama_lokasi": loc.Name,
		})
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache)
	return &LocationWithCount{Location: loc}, nil
}

// Update applies a partial update to a location.
func (s *LocationService) Update(ctx context.Context, actor *models.User, id uint, req UpdateLocationRequest) (*LocationWithCount, error) {
	if !s.policy.CanWrite(actor, rbac.ResourceLocation) {
		return nil, errForbidden
	}
	if req.empty() {
		return s.get(s.db.WithContext(ctx), id)
	}

	var out *LocationWithCount
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loc models.Location
		if err := tx.First(&loc, id).Error; err != nil {
			return notFound(err)
		}

		changes := map[string]interface{}{}
		if req.Code != nil && *req.Code != loc.Code {
			taken, err := codeTaken(tx, &models.Location{}, "code", *req.Code, loc.ID)
			if err != nil {
				return err
			}
			if taken {
				return &ConflictError{Message: fmt.Sprintf("Kode lokasi '%s' sudah digunakan", *req.Code)}
			}
			loc.Code = *req.Code
			changes["kode_lokasi"] = loc.Code
		}
		if req.Name != nil {
			loc.Name = *req.Name
			changes["nama_lokasi"] = loc.Name
		}
		if req.Address != nil {
			loc.Address = *req.Address
			changes["alamat_lokasi"] = loc.Address
		}

		if err := tx.Save(&loc).Error; err != nil {
			return constraint(err, fmt.Sprintf("Kode lokasi '%s' sudah digunakan", loc.Code))
		}

		if err := audit.LogAction(tx, audit.ActorOf(actor), audit.ActionUpdateLocation, audit.Resource(audit.ResourceLocation, loc.ID), changes); err != nil {
			return err
		}

		var err error
		out, err = s.get(tx, loc.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache)
	return out, nil
}

// Delete removes a location. Locations that still hold assets cannot be deleted.
func (s *LocationService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if !s.policy.CanWrite(actor, rbac.ResourceLocation) {
		return errForbidden
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loc models.Location
		if err := tx.First(&loc, id).Error; err != nil {
			return notFound(err)
		}

		var count int64
		if err := tx.Model(&models.Asset{}).Where("location_id = ?", loc.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &ConflictError{Message: fmt.Sprintf("Lokasi '%s' masih memiliki %d barang dan tidak dapat dihapus", loc.Name, count)}
		}

		if err := tx.Delete(&loc).Error; err != nil {
			return constraint(err, fmt.Sprintf("Lokasi '%s' masih memiliki barang dan tidak dapat dihapus", loc.Name))
		}

		return audit.LogAction(tx, audit.ActorOf(actor), audit.ActionDeleteLocation, audit.Resource(audit.ResourceLocation, loc.ID), map[string]interface{}{
			"kode_lokasi": loc.Code,
		})
	})
	if err != nil {
		return err
	}

	invalidate(ctx, s.cache)
	return nil
}

// invalidate drops cached dashboards after a committed mutation. Cache errors are only logged.
func invalidate(ctx context.Context, c cache.Cache) {
	if err := c.Invalidate(ctx); err != nil {
		slog.Warn("Failed to invalidate dashboard cache", "error", err)
	}
}
