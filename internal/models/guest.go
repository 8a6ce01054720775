package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Guest struct {
	ID            string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	InvitationID  string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_guest_invitation_email,where:email <> ''" json:"invitation_id"`
	FirstName     string     `gorm:"type:varchar(50)" json:"first_name"`
	LastName      string     `gorm:"type:varchar(50)" json:"last_name"`
	GuestName     string     `gorm:"type:varchar(100)" json:"guest_name"`
	Email         string     `gorm:"type:varchar(254);uniqueIndex:idx_guest_invitation_email,where:email <> ''" json:"email"`
	Phone         string     `gorm:"type:varchar(16)" json:"phone"`
	IsAttending   bool       `gorm:"not null;default:false" json:"is_attending"`
	CheckedIn     bool       `gorm:"not null;default:false;index" json:"checked_in"`
	CheckInTime   *time.Time `json:"check_in_time"`
	CardImage     string     `gorm:"type:varchar(255)" json:"card_image"`
	QRCode        string     `gorm:"type:varchar(255)" json:"qr_code"`
	PaymentAmount *float64   `gorm:"type:decimal(10,2)" json:"payment_amount"`
	// RenderedAt is set once the card and QR artifacts are stored.
	RenderedAt *time.Time `json:"rendered_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Invitation Invitation `gorm:"foreignKey:InvitationID" json:"-"`
}

func (g *Guest) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	return nil
}

// DisplayName resolves the name printed on the card and shown to scanners.
func (g *Guest) DisplayName() string {
	switch {
	case g.GuestName != "":
		return g.GuestName
	case g.FirstName != "" && g.LastName != "":
		return g.FirstName + " " + g.LastName
	case g.FirstName != "":
		return g.FirstName
	}
	return ""
}

func (g *Guest) HasArtifacts() bool {
	return g.RenderedAt != nil
}
