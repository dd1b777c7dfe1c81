package models

import (
	"time"

	"gorm.io/gorm"
)

// Asset is a tracked physical item (barang).
//
// ResponsibleParty is free text matched against User.Username when scoping
// visibility. It is a lookup by value, not a foreign key.
type Asset struct {
	ID               uint       `gorm:"primarykey" json:"id"`
	Code             string     `gorm:"size:100;uniqueIndex;not null" json:"kode_barang"`
	Name             string     `gorm:"size:200;not null" json:"nama_barang"`
	Condition        Condition  `gorm:"column:kondisi;size:20;not null;default:good;index" json:"kondisi"`
	LocationID       uint       `gorm:"not null;index" json:"id_lokasi"`
	Location         *Location  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"lokasi,omitempty"`
	ResponsibleParty string     `gorm:"size:50;not null;index" json:"penanggung_jawab"`
	EntryDate        Date       `gorm:"not null;index" json:"tanggal_masuk"`
	LastUpdated      *Date      `gorm:"index" json:"tanggal_pembaruan"`
	ImageURL         *string    `gorm:"type:text" json:"gambar_aset"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// BeforeSave rejects rows whose condition is outside the enumerated set
func (a *Asset) BeforeSave(tx *gorm.DB) error {
	if a.Condition == "" {
		a.Condition = ConditionGood
	}
	if !a.Condition.Valid() {
		return ErrInvalidCondition
	}
	return nil
}
