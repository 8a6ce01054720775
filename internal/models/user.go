package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        *string   `gorm:"type:varchar(254);uniqueIndex" json:"email,omitempty"`
	Phone        *string   `gorm:"type:varchar(16);uniqueIndex" json:"phone,omitempty"`
	FirstName    string    `gorm:"type:varchar(50)" json:"first_name"`
	LastName     string    `gorm:"type:varchar(50)" json:"last_name"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Username is the login identifier: email when present, phone otherwise.
func (u *User) Username() string {
	if u.Email != nil && *u.Email != "" {
		return *u.Email
	}
	if u.Phone != nil {
		return *u.Phone
	}
	return ""
}

// Planner is the business profile every user gets on registration.
type Planner struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	CompanyName string    `gorm:"type:varchar(100);not null" json:"company_name"`
	Slug        string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
	Phone       string    `gorm:"type:varchar(16);not null" json:"phone"`
	CreatedAt   time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (p *Planner) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
