package service

import (
	"time"

	"github.com/superbmd/superbmd/internal/models"
)

// CreateLocationRequest holds parameters for creating a location.
type CreateLocationRequest struct {
	Code    string
	Name    string
	Address string
}

// UpdateLocationRequest holds a partial location update. Nil fields are left unchanged.
type UpdateLocationRequest struct {
	Code    *string
	Name    *string
	Address *string
}

func (r UpdateLocationRequest) empty() bool {
	return r.Code == nil && r.Name == nil && r.Address == nil
}

// LocationWithCount is a location plus the number of assets it holds.
type LocationWithCount struct {
	models.Location
	AssetCount int64 `gorm:"column:jumlah_barang;->" json:"jumlah_barang"`
}

// CreateAssetRequest holds parameters for creating an asset.
type CreateAssetRequest struct {
	Code             string
	Name             string
	Condition        models.Condition
	LocationID       uint
	ResponsibleParty string
	EntryDate        time.Time
	ImageURL         *string
}

// UpdateAssetRequest holds a partial asset update. Nil fields are left unchanged.
type UpdateAssetRequest struct {
	Code             *string
	Name             *string
	Condition        *models.Condition
	LocationID       *uint
	ResponsibleParty *string
	EntryDate        *time.Time
	ImageURL         *string
}

func (r UpdateAssetRequest) empty() bool {
	return r.Code == nil && r.Name == nil && r.Condition == nil && r.LocationID == nil &&
		r.ResponsibleParty == nil && r.EntryDate == nil && r.ImageURL == nil
}

// CreateUserRequest holds parameters for creating a user. An empty Role means viewer.
type CreateUserRequest struct {
	Username string
	Password string
	Role     models.Role
}

// UpdateUserRequest holds a partial user update. Nil fields are left unchanged.
type UpdateUserRequest struct {
	Username *string
	Password *string
	Role     *models.Role
}

func (r UpdateUserRequest) empty() bool {
	return r.Username == nil && r.Password == nil && r.Role == nil
}
