package models

import "time"

// Location is a place that owns assets (lokasi)
type Location struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Code      string    `gorm:"size:50;uniqueIndex;not null" json:"kode_lokasi"`
	Name      string    `gorm:"size:100;not null;index" json:"nama_lokasi"`
	Address   string    `gorm:"type:text;not null" json:"alamat_lokasi"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
