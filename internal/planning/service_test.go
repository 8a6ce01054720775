package planning

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tariel-x/weddingcards/internal/database"
	"github.com/tariel-x/weddingcards/internal/models"
	"github.com/tariel-x/weddingcards/internal/render"
	"github.com/tariel-x/weddingcards/internal/storage"
)

var fixedNow = time.Unix(1_700_000_000, 0).UTC()

const testSite = "https://cards.example.com"

type stubRenderer struct {
	mu     sync.Mutex
	inputs []render.CardInput
}

func (r *stubRenderer) Render(in render.CardInput) (*render.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, in)
	return &render.Card{
		Data:        []byte("card"),
		ContentType: render.ContentType,
		FileName:    render.FileName(in.Event.Title, in.Event.ID),
	}, nil
}

func (r *stubRenderer) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inputs)
}

type env struct {
	svc      *Service
	renderer *stubRenderer
	store    *storage.LocalStore
	media    string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	db, err := database.Initialize(filepath.Join(dir, "planning.db"))
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	media := filepath.Join(dir, "media")
	store, err := storage.NewLocalStore(media, testSite+"/media")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	r := &stubRenderer{}
	svc := New(db, r, store, testSite, zerolog.Nop()).WithClock(func() time.Time { return fixedNow })
	return &env{svc: svc, renderer: r, store: store, media: media}
}

// planner registers a user and returns their planner id.
func (e *env) planner(t *testing.T, email string) string {
	t.Helper()
	_, p, err := e.svc.Register(context.Background(), RegisterInput{
		Email:     email,
		FirstName: "Jo",
		LastName:  "Smith",
		Password:  "correct horse",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return p.ID
}

func (e *env) event(t *testing.T, plannerID, title string) *models.Event {
	t.Helper()
	ev, err := e.svc.CreateEvent(context.Background(), plannerID, EventInput{
		Title: title,
		Venue: "Garden Hall",
		Date:  fixedNow.Add(72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	return ev
}

func (e *env) invitationOf(t *testing.T, eventID string) models.Invitation {
	t.Helper()
	var inv models.Invitation
	if err := e.svc.db.First(&inv, "event_id = ?", eventID).Error; err != nil {
		t.Fatalf("load invitation: %v", err)
	}
	return inv
}
