package planning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tariel-x/weddingcards/internal/apperr"
	"github.com/tariel-x/weddingcards/internal/models"
)

func TestCreateEventCreatesInvitation(t *testing.T) {
	e := newEnv(t)
	p := e.planner(t, "jo@example.com")

	ev := e.event(t, p, "Smith Wedding")
	inv := e.invitationOf(t, ev.ID)
	if inv.EventID != ev.ID {
		t.Fatalf("invitation not linked: %+v", inv)
	}
}

func TestCreateEventValidation(t *testing.T) {
	e := newEnv(t)
	p := e.planner(t, "jo@example.com")
	ctx := context.Background()

	_, err := e.svc.CreateEvent(ctx, p, EventInput{})
	verr, ok := apperr.IsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, f := range []string{"title", "venue", "date"} {
		if verr.Fields[f] == "" {
			t.Errorf("missing error for %s: %v", f, verr.Fields)
		}
	}

	_, err = e.svc.CreateEvent(ctx, p, EventInput{Title: "Past", Venue: "Hall", Date: fixedNow.Add(-time.Hour)})
	verr, ok = apperr.IsValidation(err)
	if !ok || verr.Fields["date"] != "Event date must be in the future." {
		t.Fatalf("expected past date error, got %v", err)
	}

	var n int64
	e.svc.db.Model(&models.Invitation{}).Count(&n)
	if n != 0 {
		t.Fatalf("invalid events must not create invitations, got %d", n)
	}
}

func TestEventsAreScopedToPlanner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.planner(t, "jo@example.com")
	other := e.planner(t, "sam@example.com")
	ev := e.event(t, owner, "Smith Wedding")

	if _, err := e.svc.GetEvent(ctx, other, ev.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := e.svc.EventStats(ctx, other, ev.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := e.svc.DeleteEvent(ctx, other, ev.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	list, err := e.svc.ListEvents(ctx, other)
	if err != nil || len(list) != 0 {
		t.Fatalf("other planner sees events: %v %v", err, list)
	}
}

func TestListEventsOrderAndCounts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.planner(t, "jo@example.com")

	early := e.event(t, p, "Early")
	late, err := e.svc.CreateEvent(ctx, p, EventInput{Title: "Late", Venue: "Hall", Date: fixedNow.Add(240 * time.Hour)})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	inv := e.invitationOf(t, early.ID)
	for _, name := range []string{"A", "B"} {
		if _, err := e.svc.CreateGuest(ctx, p, GuestInput{InvitationID: inv.ID, FirstName: name}); err != nil {
			t.Fatalf("CreateGuest: %v", err)
		}
	}

	list, err := e.svc.ListEvents(ctx, p)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(list) != 2 || list[0].ID != late.ID || list[1].ID != early.ID {
		t.Fatalf("unexpected order: %+v", list)
	}
	if list[0].GuestCount != 0 || list[1].GuestCount != 2 {
		t.Fatalf("unexpected counts: %d %d", list[0].GuestCount, list[1].GuestCount)
	}
}

func TestUpdateEvent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.planner(t, "jo@example.com")
	ev := e.event(t, p, "Smith Wedding")

	couple := "Jo & Sam"
	got, err := e.svc.UpdateEvent(ctx, p, ev.ID, EventInput{Title: "Smith-Jones Wedding", Couple: &couple, Venue: "Barn", Date: ev.Date})
	if err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	if got.Title != "Smith-Jones Wedding" || got.Couple == nil || *got.Couple != couple || got.Venue != "Barn" {
		t.Fatalf("unexpected event: %+v", got)
	}

	_, err = e.svc.UpdateEvent(ctx, p, ev.ID, EventInput{Title: "x", Venue: "y", Date: fixedNow.Add(-time.Hour)})
	if _, ok := apperr.IsValidation(err); !ok {
		t.Fatalf("moving the date into the past must fail, got %v", err)
	}
}

func TestDeleteEventCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.planner(t, "jo@example.com")
	ev := e.event(t, p, "Smith Wedding")
	inv := e.invitationOf(t, ev.ID)
	g, err := e.svc.CreateGuest(ctx, p, GuestInput{InvitationID: inv.ID, FirstName: "Jo"})
	if err != nil {
		t.Fatalf("CreateGuest: %v", err)
	}
	if err := e.svc.db.Create(&models.Verification{GuestID: g.ID, ScannedAt: fixedNow, IsValid: true}).Error; err != nil {
		t.Fatalf("create verification: %v", err)
	}
	if _, err := e.svc.CreateSchedule(ctx, p, ev.ID, ScheduleInput{EventName: "Ceremony", Date: ev.Date, Location: "Chapel"}); err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}

	if err := e.svc.DeleteEvent(ctx, p, ev.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	for _, m := range []any{&models.Event{}, &models.Invitation{}, &models.Guest{}, &models.Verification{}, &models.EventSchedule{}} {
		var n int64
		if err := e.svc.db.Model(m).Count(&n).Error; err != nil {
			t.Fatalf("count %T: %v", m, err)
		}
		if n != 0 {
			t.Errorf("%T rows left: %d", m, n)
		}
	}
}

func TestEventStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.planner(t, "jo@example.com")
	ev := e.event(t, p, "Smith Wedding")

	stats, err := e.svc.EventStats(ctx, p, ev.ID)
	if err != nil {
		t.Fatalf("EventStats: %v", err)
	}
	if *stats != (Stats{}) {
		t.Fatalf("empty event stats: %+v", stats)
	}

	inv := e.invitationOf(t, ev.ID)
	for i, attending := range []bool{true, true, false} {
		g, err := e.svc.CreateGuest(ctx, p, GuestInput{InvitationID: inv.ID, FirstName: string(rune('A' + i)), IsAttending: attending})
		if err != nil {
			t.Fatalf("CreateGuest: %v", err)
		}
		if i == 0 {
			e.svc.db.Model(&models.Guest{}).Where("id = ?", g.ID).Update("checked_in", true)
		}
	}

	stats, err = e.svc.EventStats(ctx, p, ev.ID)
	if err != nil {
		t.Fatalf("EventStats: %v", err)
	}
	want := Stats{TotalGuests: 3, AttendingGuests: 2, CheckedInGuests: 1, CheckInRate: 33.33}
	if *stats != want {
		t.Fatalf("stats = %+v, want %+v", *stats, want)
	}
}

func TestSchedulesOrdered(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.planner(t, "jo@example.com")
	other := e.planner(t, "sam@example.com")
	ev := e.event(t, p, "Smith Wedding")

	inputs := []ScheduleInput{
		{EventName: "Reception", Date: ev.Date.Add(4 * time.Hour), Location: "Hall", Order: 2},
		{EventName: "Ceremony", Date: ev.Date, Location: "Chapel", Order: 1},
		{EventName: "Cocktails", Date: ev.Date.Add(2 * time.Hour), Location: "Garden", Order: 1},
	}
	for _, in := range inputs {
		if _, err := e.svc.CreateSchedule(ctx, p, ev.ID, in); err != nil {
			t.Fatalf("CreateSchedule: %v", err)
		}
	}

	list, err := e.svc.Schedules(ctx, p, ev.ID)
	if err != nil {
		t.Fatalf("Schedules: %v", err)
	}
	var names []string
	for _, s := range list {
		names = append(names, s.EventName)
	}
	if len(names) != 3 || names[0] != "Ceremony" || names[1] != "Cocktails" || names[2] != "Reception" {
		t.Fatalf("unexpected order: %v", names)
	}

	if _, err := e.svc.UpdateSchedule(ctx, other, list[0].ID, inputs[0]); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := e.svc.CreateSchedule(ctx, p, ev.ID, ScheduleInput{}); err == nil {
		t.Fatal("empty schedule must fail validation")
	}
	if err := e.svc.DeleteSchedule(ctx, p, list[0].ID); err != nil {
		t.Fatalf("DeleteSchedule: %v", err)
	}
	list, _ = e.svc.Schedules(ctx, p, ev.ID)
	if len(list) != 2 {
		t.Fatalf("expected 2 schedules after delete, got %d", len(list))
	}
}
