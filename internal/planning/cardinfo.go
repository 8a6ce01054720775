package planning

import (
	"context"

	"github.com/tariel-x/weddingcards/internal/models"
	"github.com/tariel-x/weddingcards/internal/render"
)

type CardSegment struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// CardInfo is what the guest's card is built from. Events is set only for
// multi-segment schedules.
type CardInfo struct {
	Guest         models.Guest  `json:"guest"`
	InviteeName   *string       `json:"invitee_name"`
	Events        []CardSegment `json:"events"`
	PaymentAmount *float64      `json:"payment_amount"`
	CardImageURL  *string       `json:"card_image_url"`
	QRCodeURL     *string       `json:"qr_code_url"`
}

func (s *Service) CardInfo(ctx context.Context, plannerID, guestID string) (*CardInfo, error) {
	guest, err := s.GetGuest(ctx, plannerID, guestID)
	if err != nil {
		return nil, err
	}
	var inv models.Invitation
	if err := s.db.WithContext(ctx).First(&inv, "id = ?", guest.InvitationID).Error; err != nil {
		return nil, notFound(err)
	}
	schedules, err := s.schedulesOf(ctx, inv.EventID)
	if err != nil {
		return nil, err
	}

	info := &CardInfo{
		Guest:        *guest,
		InviteeName:  nonEmpty(guest.DisplayName()),
		CardImageURL: nonEmpty(guest.CardImage),
		QRCodeURL:    nonEmpty(guest.QRCode),
	}
	if guest.PaymentAmount != nil && *guest.PaymentAmount != 0 {
		info.PaymentAmount = guest.PaymentAmount
	}
	if len(schedules) > 1 {
		for _, sc := range schedules {
			seg := render.NewSegment(sc.EventName, sc.Date, sc.Location, sc.Description)
			info.Events = append(info.Events, CardSegment(seg))
		}
	}
	return info, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
