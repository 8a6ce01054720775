package database

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/tariel-x/weddingcards/internal/models"

	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return db
}

func TestWithPragmas(t *testing.T) {
	if got := withPragmas("app.db"); got != "app.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)" {
		t.Fatalf("unexpected dsn %q", got)
	}
	if got := withPragmas("file:x?mode=memory"); got != "file:x?mode=memory&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)" {
		t.Fatalf("unexpected dsn %q", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if IsUniqueViolation(nil) {
		t.Fatalf("nil is not a violation")
	}
	if !IsUniqueViolation(gorm.ErrDuplicatedKey) {
		t.Fatalf("ErrDuplicatedKey must be a violation")
	}
	if !IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: verifications.guest_id (2067)")) {
		t.Fatalf("driver message must be a violation")
	}
	if IsUniqueViolation(errors.New("disk I/O error")) {
		t.Fatalf("unrelated error reported as violation")
	}
}

func TestVerificationGuestIsUnique(t *testing.T) {
	db := openTestDB(t)

	user := models.User{PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	planner := models.Planner{UserID: user.ID, CompanyName: "P", Slug: "p", Phone: "N/A"}
	if err := db.Create(&planner).Error; err != nil {
		t.Fatalf("create planner: %v", err)
	}
	event := models.Event{PlannerID: planner.ID, Title: "T", Venue: "V"}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}
	inv := models.Invitation{EventID: event.ID}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("create invitation: %v", err)
	}
	guest := models.Guest{InvitationID: inv.ID, FirstName: "Jo"}
	if err := db.Create(&guest).Error; err != nil {
		t.Fatalf("create guest: %v", err)
	}

	if err := db.Create(&models.Verification{GuestID: guest.ID, IsValid: true}).Error; err != nil {
		t.Fatalf("first verification: %v", err)
	}
	err := db.Create(&models.Verification{GuestID: guest.ID, IsValid: true}).Error
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}
