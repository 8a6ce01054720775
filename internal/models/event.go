package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PlannerID   string    `gorm:"type:varchar(36);not null;index" json:"planner_id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Couple      *string   `gorm:"type:varchar(255)" json:"couple,omitempty"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	Venue       string    `gorm:"type:varchar(255);not null" json:"venue"`
	Description string    `gorm:"type:text" json:"description"`
	RSVPInfo    string    `gorm:"type:varchar(255)" json:"rsvp_info"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Planner   Planner         `gorm:"foreignKey:PlannerID" json:"-"`
	Schedules []EventSchedule `gorm:"foreignKey:EventID" json:"-"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// EventSchedule is one segment of a multi-part itinerary (ceremony, reception...).
type EventSchedule struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	EventID     string    `gorm:"type:varchar(36);not null;index" json:"event_id"`
	EventName   string    `gorm:"type:varchar(255);not null" json:"event_name"`
	Date        time.Time `gorm:"not null" json:"date"`
	Location    string    `gorm:"type:varchar(255);not null" json:"location"`
	Description string    `gorm:"type:text" json:"description"`
	Order       int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *EventSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// ScheduleOrder is the ORDER BY clause for listing schedules.
const ScheduleOrder = "sort_order ASC, date ASC"
