package planning

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/tariel-x/weddingcards/internal/models"
	"github.com/tariel-x/weddingcards/internal/qr"
	"github.com/tariel-x/weddingcards/internal/render"
	"github.com/tariel-x/weddingcards/internal/storage"
)

// Storage prefixes of rendered artifacts.
const (
	qrDir             = "qr_codes"
	guestCardDir      = "guest_cards"
	invitationCardDir = "invitation_cards"
)

// RenderGuestArtifacts writes the guest's QR code and card. It runs at most
// once per guest: a guest that already has artifacts is returned unchanged.
func (s *Service) RenderGuestArtifacts(ctx context.Context, guestID string) (*models.Guest, error) {
	var guest models.Guest
	if err := s.db.WithContext(ctx).Preload("Invitation.Event").First(&guest, "id = ?", guestID).Error; err != nil {
		return nil, notFound(err)
	}
	if guest.HasArtifacts() {
		return &guest, nil
	}
	event := guest.Invitation.Event

	code, err := qr.ForGuest(s.siteURL, guest.ID)
	if err != nil {
		return nil, err
	}
	qrURL, err := s.putOnce(ctx, qrDir+"/"+code.FileName, code.PNG, "image/png")
	if err != nil {
		return nil, err
	}

	schedules, err := s.schedulesOf(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	card, err := s.renderer.Render(cardInput(&event, schedules, guest.DisplayName(), guest.PaymentAmount, code.Image))
	if err != nil {
		return nil, fmt.Errorf("failed to render card for guest %s: %w", guest.ID, err)
	}
	cardURL, err := s.putOnce(ctx, guestCardDir+"/"+guest.ID+"/"+card.FileName, card.Data, card.ContentType)
	if err != nil {
		return nil, err
	}

	now := s.nowFn().UTC()
	res := s.db.WithContext(ctx).Model(&models.Guest{}).
		Where("id = ? AND rendered_at IS NULL", guest.ID).
		Updates(map[string]any{"qr_code": qrURL, "card_image": cardURL, "rendered_at": now})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to save guest artifacts: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		s.log.Info().
			Str("guest_id", guest.ID).
			Str("card", cardURL).
			Bool("degraded", card.Degraded).
			Msg("guest artifacts rendered")
	}

	var out models.Guest
	if err := s.db.WithContext(ctx).First(&out, "id = ?", guest.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload guest: %w", err)
	}
	return &out, nil
}

// RenderInvitation writes the master card of an invitation, without an
// invitee name, and a QR code linking to the public invitation page.
func (s *Service) RenderInvitation(ctx context.Context, plannerID, invitationID string) (*models.Invitation, error) {
	inv, err := s.invitation(ctx, plannerID, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.CardImage != "" {
		return inv, nil
	}

	code, err := qr.Encode(qr.InvitationURL(s.siteURL, inv.ID), qr.DefaultSize)
	if err != nil {
		return nil, err
	}
	qrURL, err := s.putOnce(ctx, qrDir+"/"+qr.InvitationFileName(inv.ID), code.PNG, "image/png")
	if err != nil {
		return nil, err
	}

	schedules, err := s.schedulesOf(ctx, inv.EventID)
	if err != nil {
		return nil, err
	}
	card, err := s.renderer.Render(cardInput(&inv.Event, schedules, "", nil, code.Image))
	if err != nil {
		return nil, fmt.Errorf("failed to render invitation card: %w", err)
	}
	cardURL, err := s.putOnce(ctx, invitationCardDir+"/"+inv.ID+"/"+card.FileName, card.Data, card.ContentType)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("id = ? AND card_image = ''", inv.ID).
		Updates(map[string]any{"qr_code": qrURL, "card_image": cardURL}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save invitation artifacts: %w", err)
	}
	return s.invitation(ctx, plannerID, invitationID)
}

// putOnce stores an artifact. An object left behind by an earlier attempt
// is reused instead of being overwritten.
func (s *Service) putOnce(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	url, err := s.store.Put(ctx, key, data, contentType)
	if errors.Is(err, storage.ErrExists) {
		s.log.Debug().Str("key", key).Msg("artifact already stored")
		return s.store.URL(key), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", key, err)
	}
	return url, nil
}

func cardInput(event *models.Event, schedules []models.EventSchedule, invitee string, payment *float64, code image.Image) render.CardInput {
	in := render.CardInput{
		Event: render.EventInfo{
			ID:    event.ID,
			Title: event.Title,
			Venue: event.Venue,
			Date:  event.Date,
		},
		InviteeName:   invitee,
		PaymentAmount: payment,
		QR:            code,
		RSVP:          event.RSVPInfo,
	}
	if event.Couple != nil {
		in.Event.Couple = *event.Couple
	}
	for _, sc := range schedules {
		in.Segments = append(in.Segments, render.NewSegment(sc.EventName, sc.Date, sc.Location, sc.Description))
	}
	return in
}
