package planning

import (
	"context"
	"fmt"

	"github.com/tariel-x/weddingcards/internal/models"
)

// InvitationSummary is an invitation with its event and guest count.
type InvitationSummary struct {
	models.Invitation
	EventTitle string `json:"event_title"`
	EventDate  string `json:"event_date"`
	GuestCount int64  `json:"guest_count"`
}

func (s *Service) ListInvitations(ctx context.Context, plannerID string) ([]InvitationSummary, error) {
	var invitations []models.Invitation
	err := s.ownedInvitations(ctx, plannerID).
		Preload("Event").
		Order("invitations.created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return s.summarize(ctx, invitations)
}

func (s *Service) GetInvitation(ctx context.Context, plannerID, invitationID string) (*InvitationSummary, error) {
	inv, err := s.invitation(ctx, plannerID, invitationID)
	if err != nil {
		return nil, err
	}
	out, err := s.summarize(ctx, []models.Invitation{*inv})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *Service) invitation(ctx context.Context, plannerID, invitationID string) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.ownedInvitations(ctx, plannerID).
		Preload("Event").
		First(&inv, "invitations.id = ?", invitationID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (s *Service) summarize(ctx context.Context, invitations []models.Invitation) ([]InvitationSummary, error) {
	out := make([]InvitationSummary, len(invitations))
	if len(invitations) == 0 {
		return out, nil
	}

	ids := make([]string, len(invitations))
	for i, inv := range invitations {
		ids[i] = inv.ID
	}
	var rows []guestCount
	err := s.db.WithContext(ctx).Table("guests").
		Select("invitation_id AS owner_id, COUNT(*) AS n").
		Where("invitation_id IN ?", ids).
		Group("invitation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count guests: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.OwnerID] = r.N
	}

	for i, inv := range invitations {
		out[i] = InvitationSummary{
			Invitation: inv,
			EventTitle: inv.Event.Title,
			EventDate:  inv.Event.Date.Format("2006-01-02"),
			GuestCount: counts[inv.ID],
		}
	}
	return out, nil
}

// PublicInvitation is the unauthenticated view of an invitation: the event
// and its schedule.
type PublicInvitation struct {
	Invitation models.Invitation
	Event      models.Event
	Schedules  []models.EventSchedule
}

func (s *Service) PublicInvitation(ctx context.Context, invitationID string) (*PublicInvitation, error) {
	var inv models.Invitation
	if err := s.db.WithContext(ctx).Preload("Event").First(&inv, "id = ?", invitationID).Error; err != nil {
		return nil, notFound(err)
	}
	schedules, err := s.schedulesOf(ctx, inv.EventID)
	if err != nil {
		return nil, err
	}
	return &PublicInvitation{Invitation: inv, Event: inv.Event, Schedules: schedules}, nil
}

// EventOfGuest returns the event a guest is invited to, without ownership checks.
func (s *Service) EventOfGuest(ctx context.Context, guestID string) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).
		Joins("JOIN invitations ON invitations.event_id = events.id").
		Joins("JOIN guests ON guests.invitation_id = invitations.id").
		First(&event, "guests.id = ?", guestID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}
