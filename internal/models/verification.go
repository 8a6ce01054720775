package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Verification records the one accepted QR scan of a guest.
// The unique index on GuestID is what serializes concurrent scans.
type Verification struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	GuestID   string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"guest_id"`
	ScannedAt time.Time `gorm:"not null;index" json:"scanned_at"`
	IsValid   bool      `gorm:"not null;default:false" json:"is_valid"`
	ScannedBy *string   `gorm:"type:varchar(36)" json:"scanned_by"`

	Guest Guest `gorm:"foreignKey:GuestID" json:"-"`
}

func (v *Verification) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}
