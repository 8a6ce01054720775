// Package checkin implements guest verification: a guest moves from invited
// to verified exactly once, when their QR code is scanned or a planner
// checks them in by hand.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tariel-x/weddingcards/internal/apperr"
	"github.com/tariel-x/weddingcards/internal/database"
	"github.com/tariel-x/weddingcards/internal/models"
)

// Event is published after a guest has been checked in.
type Event struct {
	EventID       string
	PlannerUserID string
	GuestID       string
	DisplayName   string
	CheckInTime   time.Time
	ScannedBy     *string
}

// Observer is told about every successful check-in. It must not block.
type Observer interface {
	GuestCheckedIn(ctx context.Context, ev Event)
}

// Result is the guest state after a scan, plus the verification that
// produced it. On ErrAlreadyVerified it holds the existing records.
type Result struct {
	Guest        models.Guest
	Verification models.Verification
}

type Service struct {
	db        *gorm.DB
	log       zerolog.Logger
	nowFn     func() time.Time
	locks     *keyedMutex
	observers []Observer
}

func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{
		db:    db,
		log:   log,
		nowFn: time.Now,
		locks: newKeyedMutex(),
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.nowFn = now
	return s
}

func (s *Service) Subscribe(o Observer) {
	s.observers = append(s.observers, o)
}

// Scan verifies guestID. scannedBy is the scanning user, nil for anonymous scans.
//
// Errors: apperr.ErrNotFound when the guest does not exist,
// apperr.ErrAlreadyVerified when a verification already exists (the result
// then carries the unchanged guest).
func (s *Service) Scan(ctx context.Context, guestID string, scannedBy *string) (*Result, error) {
	unlock := s.locks.Lock(guestID)
	defer unlock()

	now := s.nowFn().UTC()
	var res Result

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&res.Guest, "id = ?", guestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrNotFound
			}
			return fmt.Errorf("failed to load guest: %w", err)
		}

		var existing int64
		if err := tx.Model(&models.Verification{}).Where("guest_id = ?", guestID).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to look up verification: %w", err)
		}
		if existing > 0 {
			return apperr.ErrAlreadyVerified
		}

		res.Verification = models.Verification{
			GuestID:   guestID,
			ScannedAt: now,
			IsValid:   true,
			ScannedBy: scannedBy,
		}
		if err := tx.Create(&res.Verification).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.ErrAlreadyVerified
			}
			return fmt.Errorf("failed to create verification: %w", err)
		}

		update := tx.Model(&models.Guest{}).
			Where("id = ? AND checked_in = ?", guestID, false).
			Updates(map[string]any{"checked_in": true, "check_in_time": now})
		if update.Error != nil {
			return fmt.Errorf("failed to check in guest: %w", update.Error)
		}
		if update.RowsAffected != 1 {
			return apperr.ErrAlreadyVerified
		}

		res.Guest.CheckedIn = true
		res.Guest.CheckInTime = &now
		return nil
	})

	switch {
	case errors.Is(err, apperr.ErrAlreadyVerified):
		existing, loadErr := s.current(ctx, guestID)
		if loadErr != nil {
			return nil, loadErr
		}
		s.log.Info().Str("guest_id", guestID).Msg("repeated scan of verified guest")
		return existing, apperr.ErrAlreadyVerified
	case err != nil:
		return nil, err
	}

	s.log.Info().Str("guest_id", guestID).Time("check_in_time", now).Msg("guest checked in")
	s.publish(ctx, &res, scannedBy)
	return &res, nil
}

// CheckIn is a planner-initiated check-in. Guests outside the planner's
// events are reported as not found.
func (s *Service) CheckIn(ctx context.Context, plannerID, guestID, userID string) (*Result, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Guest{}).
		Joins("JOIN invitations ON invitations.id = guests.invitation_id").
		Joins("JOIN events ON events.id = invitations.event_id").
		Where("guests.id = ? AND events.planner_id = ?", guestID, plannerID).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check guest ownership: %w", err)
	}
	if count == 0 {
		return nil, apperr.ErrNotFound
	}
	return s.Scan(ctx, guestID, &userID)
}

func (s *Service) current(ctx context.Context, guestID string) (*Result, error) {
	var res Result
	db := s.db.WithContext(ctx)
	if err := db.First(&res.Guest, "id = ?", guestID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload guest: %w", err)
	}
	if err := db.First(&res.Verification, "guest_id = ?", guestID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload verification: %w", err)
	}
	return &res, nil
}

type owner struct {
	EventID string
	UserID  string
}

func (s *Service) publish(ctx context.Context, res *Result, scannedBy *string) {
	if len(s.observers) == 0 {
		return
	}
	var o owner
	err := s.db.WithContext(ctx).Table("guests").
		Select("events.id AS event_id, planners.user_id AS user_id").
		Joins("JOIN invitations ON invitations.id = guests.invitation_id").
		Joins("JOIN events ON events.id = invitations.event_id").
		Joins("JOIN planners ON planners.id = events.planner_id").
		Where("guests.id = ?", res.Guest.ID).
		Scan(&o).Error
	if err != nil {
		s.log.Warn().Err(err).Str("guest_id", res.Guest.ID).Msg("check-in not published")
		return
	}

	ev := Event{
		EventID:       o.EventID,
		PlannerUserID: o.UserID,
		GuestID:       res.Guest.ID,
		DisplayName:   res.Guest.DisplayName(),
		CheckInTime:   *res.Guest.CheckInTime,
		ScannedBy:     scannedBy,
	}
	for _, obs := range s.observers {
		obs.GuestCheckedIn(ctx, ev)
	}
}
