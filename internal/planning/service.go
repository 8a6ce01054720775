// Package planning holds the planner-facing operations: accounts, events,
// schedules, invitations and guests. Every read and write is scoped to the
// requesting planner; records of other planners are reported as not found.
package planning

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tariel-x/weddingcards/internal/apperr"
	"github.com/tariel-x/weddingcards/internal/render"
	"github.com/tariel-x/weddingcards/internal/storage"
)

// CardRenderer draws invitation cards.
type CardRenderer interface {
	Render(in render.CardInput) (*render.Card, error)
}

type Service struct {
	db       *gorm.DB
	renderer CardRenderer
	store    storage.Store
	siteURL  string
	log      zerolog.Logger
	nowFn    func() time.Time
}

func New(db *gorm.DB, renderer CardRenderer, store storage.Store, siteURL string, log zerolog.Logger) *Service {
	return &Service{
		db:       db,
		renderer: renderer,
		store:    store,
		siteURL:  siteURL,
		log:      log,
		nowFn:    time.Now,
	}
}

// WithClock replaces the time source used for date validation.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.nowFn = now
	return s
}

func (s *Service) ownedEvents(ctx context.Context, plannerID string) *gorm.DB {
	return s.db.WithContext(ctx).Where("events.planner_id = ?", plannerID)
}

func (s *Service) ownedInvitations(ctx context.Context, plannerID string) *gorm.DB {
	return s.db.WithContext(ctx).
		Joins("JOIN events ON events.id = invitations.event_id").
		Where("events.planner_id = ?", plannerID)
}

func (s *Service) ownedGuests(ctx context.Context, plannerID string) *gorm.DB {
	return s.db.WithContext(ctx).
		Joins("JOIN invitations ON invitations.id = guests.invitation_id").
		Joins("JOIN events ON events.id = invitations.event_id").
		Where("events.planner_id = ?", plannerID)
}

// notFound maps gorm's missing-record error onto the domain error.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return err
}
