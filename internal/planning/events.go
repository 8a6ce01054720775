package planning

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tariel-x/weddingcards/internal/apperr"
	"github.com/tariel-x/weddingcards/internal/models"
)

type EventInput struct {
	Title       string
	Couple      *string
	Date        time.Time
	Venue       string
	Description string
	RSVPInfo    string
}

// EventSummary is an event with the number of guests across its invitations.
type EventSummary struct {
	models.Event
	GuestCount int64 `json:"guest_count"`
}

type Stats struct {
	TotalGuests     int64   `json:"total_guests"`
	AttendingGuests int64   `json:"attending_guests"`
	CheckedInGuests int64   `json:"checked_in_guests"`
	CheckInRate     float64 `json:"check_in_rate"`
}

type guestCount struct {
	OwnerID string
	N       int64
}

type statsRow struct {
	Total     int64
	Attending int64
	CheckedIn int64
}

func (s *Service) validateEvent(in *EventInput, requireFuture bool) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Venue = strings.TrimSpace(in.Venue)
	if in.Couple != nil {
		c := strings.TrimSpace(*in.Couple)
		if c == "" {
			in.Couple = nil
		} else {
			in.Couple = &c
		}
	}

	verr := &apperr.ValidationError{}
	if in.Title == "" {
		verr.Add("title", "This field is required.")
	}
	if in.Venue == "" {
		verr.Add("venue", "This field is required.")
	}
	if in.Date.IsZero() {
		verr.Add("date", "This field is required.")
	} else if requireFuture && !in.Date.After(s.nowFn()) {
		verr.Add("date", "Event date must be in the future.")
	}
	return verr.OrNil()
}

// CreateEvent stores a new event and its invitation in one transaction.
func (s *Service) CreateEvent(ctx context.Context, plannerID string, in EventInput) (*models.Event, error) {
	if err := s.validateEvent(&in, true); err != nil {
		return nil, err
	}

	event := models.Event{
		PlannerID:   plannerID,
		Title:       in.Title,
		Couple:      in.Couple,
		Date:        in.Date.UTC(),
		Venue:       in.Venue,
		Description: in.Description,
		RSVPInfo:    in.RSVPInfo,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		if err := tx.Create(&models.Invitation{EventID: event.ID}).Error; err != nil {
			return fmt.Errorf("failed to create invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("event_id", event.ID).Str("planner_id", plannerID).Msg("event created")
	return &event, nil
}

// ListEvents returns the planner's events, latest date first.
func (s *Service) ListEvents(ctx context.Context, plannerID string) ([]EventSummary, error) {
	var events []models.Event
	if err := s.ownedEvents(ctx, plannerID).Order("date DESC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if len(events) == 0 {
		return []EventSummary{}, nil
	}

	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	var rows []guestCount
	err := s.db.WithContext(ctx).Table("guests").
		Select("invitations.event_id AS owner_id, COUNT(*) AS n").
		Joins("JOIN invitations ON invitations.id = guests.invitation_id").
		Where("invitations.event_id IN ?", ids).
		Group("invitations.event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count guests: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.OwnerID] = r.N
	}

	out := make([]EventSummary, len(events))
	for i, e := range events {
		out[i] = EventSummary{Event: e, GuestCount: counts[e.ID]}
	}
	return out, nil
}

func (s *Service) GetEvent(ctx context.Context, plannerID, eventID string) (*models.Event, error) {
	var event models.Event
	if err := s.ownedEvents(ctx, plannerID).First(&event, "events.id = ?", eventID).Error; err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}

// UpdateEvent replaces the editable fields. A changed date must lie in the future.
func (s *Service) UpdateEvent(ctx context.Context, plannerID, eventID string, in EventInput) (*models.Event, error) {
	event, err := s.GetEvent(ctx, plannerID, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.validateEvent(&in, !in.Date.Equal(event.Date)); err != nil {
		return nil, err
	}

	event.Title = in.Title
	event.Couple = in.Couple
	event.Date = in.Date.UTC()
	event.Venue = in.Venue
	event.Description = in.Description
	event.RSVPInfo = in.RSVPInfo
	if err := s.db.WithContext(ctx).Save(event).Error; err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

// DeleteEvent removes the event with its schedules, invitations, guests
// and their verifications.
func (s *Service) DeleteEvent(ctx context.Context, plannerID, eventID string) error {
	event, err := s.GetEvent(ctx, plannerID, eventID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invitations := tx.Model(&models.Invitation{}).Select("id").Where("event_id = ?", event.ID)
		guests := tx.Model(&models.Guest{}).Select("id").Where("invitation_id IN (?)", invitations)

		steps := []struct {
			name string
			run  func() error
		}{
			{"verifications", func() error {
				return tx.Where("guest_id IN (?)", guests).Delete(&models.Verification{}).Error
			}},
			{"guests", func() error {
				return tx.Where("invitation_id IN (?)", invitations).Delete(&models.Guest{}).Error
			}},
			{"invitations", func() error {
				return tx.Where("event_id = ?", event.ID).Delete(&models.Invitation{}).Error
			}},
			{"schedules", func() error {
				return tx.Where("event_id = ?", event.ID).Delete(&models.EventSchedule{}).Error
			}},
			{"event", func() error {
				return tx.Delete(event).Error
			}},
		}
		for _, step := range steps {
			if err := step.run(); err != nil {
				return fmt.Errorf("failed to delete %s: %w", step.name, err)
			}
		}
		return nil
	})
}

// EventGuests lists every guest across the event's invitations.
func (s *Service) EventGuests(ctx context.Context, plannerID, eventID string) ([]models.Guest, error) {
	if _, err := s.GetEvent(ctx, plannerID, eventID); err != nil {
		return nil, err
	}
	guests := []models.Guest{}
	err := s.db.WithContext(ctx).
		Joins("JOIN invitations ON invitations.id = guests.invitation_id").
		Where("invitations.event_id = ?", eventID).
		Order("guests.created_at ASC").
		Find(&guests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}
	return guests, nil
}

func (s *Service) EventStats(ctx context.Context, plannerID, eventID string) (*Stats, error) {
	if _, err := s.GetEvent(ctx, plannerID, eventID); err != nil {
		return nil, err
	}

	var row statsRow
	err := s.db.WithContext(ctx).Table("guests").
		Select("COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN guests.is_attending THEN 1 ELSE 0 END), 0) AS attending, "+
			"COALESCE(SUM(CASE WHEN guests.checked_in THEN 1 ELSE 0 END), 0) AS checked_in").
		Joins("JOIN invitations ON invitations.id = guests.invitation_id").
		Where("invitations.event_id = ?", eventID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	stats := &Stats{
		TotalGuests:     row.Total,
		AttendingGuests: row.Attending,
		CheckedInGuests: row.CheckedIn,
	}
	if row.Total > 0 {
		stats.CheckInRate = math.Round(float64(row.CheckedIn)/float64(row.Total)*10000) / 100
	}
	return stats, nil
}
