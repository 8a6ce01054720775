package static

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tariel-x/weddingcards/internal/render"
	"github.com/tariel-x/weddingcards/internal/storage"
)

func TestVerifyPageStates(t *testing.T) {
	pages, err := LoadPages()
	if err != nil {
		t.Fatalf("LoadPages: %v", err)
	}
	at := time.Date(2026, 6, 20, 15, 4, 0, 0, time.UTC)

	cases := []struct {
		page VerifyPage
		want []string
	}{
		{VerifyPage{Status: StatusVerified, GuestName: "Jo", EventTitle: "Smith Wedding", CheckInTime: at}, []string{"Welcome, Jo!", "03:04 PM, June 20", "Smith Wedding"}},
		{VerifyPage{Status: StatusAlready, GuestName: "Jo", CheckInTime: at}, []string{"already been used", "Jo checked in"}},
		{VerifyPage{Status: StatusNotFound}, []string{"Invitation not found."}},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		if err := pages.Verify(&buf, tc.page); err != nil {
			t.Fatalf("Verify(%s): %v", tc.page.Status, err)
		}
		for _, w := range tc.want {
			if !strings.Contains(buf.String(), w) {
				t.Errorf("%s page missing %q", tc.page.Status, w)
			}
		}
	}
}

func TestInvitationPageEscapes(t *testing.T) {
	pages, err := LoadPages()
	if err != nil {
		t.Fatalf("LoadPages: %v", err)
	}
	var buf bytes.Buffer
	err = pages.Invitation(&buf, InvitationPage{
		Title:    "<b>Smith</b> Wedding",
		Segments: []render.Segment{{Name: "Ceremony", Date: "Saturday, June 20, 2026", Time: "03:00 PM", Location: "Chapel"}, {Name: "Reception", Location: "Hall"}},
	})
	if err != nil {
		t.Fatalf("Invitation: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<b>Smith</b>") || !strings.Contains(out, "&lt;b&gt;Smith&lt;/b&gt;") {
		t.Fatalf("title not escaped: %s", out)
	}
	if !strings.Contains(out, "Ceremony") || !strings.Contains(out, "Reception") {
		t.Fatalf("segments missing")
	}
}

func TestMediaHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost/media")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	if _, err := store.Put(context.Background(), "qr_codes/a.png", []byte("png"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	r := gin.New()
	r.GET("/media/*key", MediaHandler(store))
	r.NoRoute(NotFound)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/qr_codes/a.png", nil))
	if w.Code != http.StatusOK || w.Body.String() != "png" || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected response: %d %q %q", w.Code, w.Body.String(), w.Header().Get("Content-Type"))
	}

	for _, p := range []string{"/media/qr_codes/missing.png", "/media/../etc/passwd"} {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status %d", p, w.Code)
		}
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"error"`) {
		t.Fatalf("api 404: %d %s", w.Code, w.Body.String())
	}
}
