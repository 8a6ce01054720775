package planning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tariel-x/weddingcards/internal/apperr"
	"github.com/tariel-x/weddingcards/internal/models"
)

type ScheduleInput struct {
	EventName   string
	Date        time.Time
	Location    string
	Description string
	Order       int
}

func validateSchedule(in *ScheduleInput) error {
	in.EventName = strings.TrimSpace(in.EventName)
	in.Location = strings.TrimSpace(in.Location)

	verr := &apperr.ValidationError{}
	if in.EventName == "" {
		verr.Add("event_name", "This field is required.")
	}
	if in.Location == "" {
		verr.Add("location", "This field is required.")
	}
	if in.Date.IsZero() {
		verr.Add("date", "This field is required.")
	}
	if in.Order < 0 {
		verr.Add("order", "Ensure this value is greater than or equal to 0.")
	}
	return verr.OrNil()
}

// Schedules lists the segments of an owned event in card order.
func (s *Service) Schedules(ctx context.Context, plannerID, eventID string) ([]models.EventSchedule, error) {
	if _, err := s.GetEvent(ctx, plannerID, eventID); err != nil {
		return nil, err
	}
	return s.schedulesOf(ctx, eventID)
}

func (s *Service) schedulesOf(ctx context.Context, eventID string) ([]models.EventSchedule, error) {
	schedules := []models.EventSchedule{}
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order(models.ScheduleOrder).
		Find(&schedules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

func (s *Service) CreateSchedule(ctx context.Context, plannerID, eventID string, in ScheduleInput) (*models.EventSchedule, error) {
	if _, err := s.GetEvent(ctx, plannerID, eventID); err != nil {
		return nil, err
	}
	if err := validateSchedule(&in); err != nil {
		return nil, err
	}

	schedule := models.EventSchedule{
		EventID:     eventID,
		EventName:   in.EventName,
		Date:        in.Date.UTC(),
		Location:    in.Location,
		Description: in.Description,
		Order:       in.Order,
	}
	if err := s.db.WithContext(ctx).Create(&schedule).Error; err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	return &schedule, nil
}

func (s *Service) schedule(ctx context.Context, plannerID, scheduleID string) (*models.EventSchedule, error) {
	var schedule models.EventSchedule
	err := s.db.WithContext(ctx).
		Joins("JOIN events ON events.id = event_schedules.event_id").
		Where("events.planner_id = ?", plannerID).
		First(&schedule, "event_schedules.id = ?", scheduleID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &schedule, nil
}

func (s *Service) UpdateSchedule(ctx context.Context, plannerID, scheduleID string, in ScheduleInput) (*models.EventSchedule, error) {
	schedule, err := s.schedule(ctx, plannerID, scheduleID)
	if err != nil {
		return nil, err
	}
	if err := validateSchedule(&in); err != nil {
		return nil, err
	}

	schedule.EventName = in.EventName
	schedule.Date = in.Date.UTC()
	schedule.Location = in.Location
	schedule.Description = in.Description
	schedule.Order = in.Order
	if err := s.db.WithContext(ctx).Save(schedule).Error; err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}
	return schedule, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, plannerID, scheduleID string) error {
	schedule, err := s.schedule(ctx, plannerID, scheduleID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(schedule).Error; err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}
