package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invitation is created together with its event and parents the guests.
type Invitation struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	EventID   string    `gorm:"type:varchar(36);not null;index" json:"event_id"`
	CardImage string    `gorm:"type:varchar(255)" json:"card_image"`
	QRCode    string    `gorm:"type:varchar(255)" json:"qr_code"`
	CreatedAt time.Time `json:"created_at"`

	Event  Event   `gorm:"foreignKey:EventID" json:"-"`
	Guests []Guest `gorm:"foreignKey:InvitationID" json:"-"`
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}
