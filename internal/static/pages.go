// Package static holds the public HTML pages guests see and serves stored
// media.
package static

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/tariel-x/weddingcards/internal/render"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Verify page states.
const (
	StatusVerified = "verified"
	StatusAlready  = "already"
	StatusNotFound = "not-found"
)

type VerifyPage struct {
	Status      string
	GuestName   string
	EventTitle  string
	CheckInTime time.Time
}

type InvitationPage struct {
	Title       string
	Couple      string
	Date        string
	Time        string
	Venue       string
	Description string
	RSVP        string
	Segments    []render.Segment
	CardImage   string
}

type Pages struct {
	tmpl *template.Template
}

func LoadPages() (*Pages, error) {
	tmpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	return &Pages{tmpl: tmpl}, nil
}

func (p *Pages) Verify(w io.Writer, page VerifyPage) error {
	return p.tmpl.ExecuteTemplate(w, "verify.html", page)
}

func (p *Pages) Invitation(w io.Writer, page InvitationPage) error {
	return p.tmpl.ExecuteTemplate(w, "invitation.html", page)
}
