package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tariel-x/weddingcards/internal/apperr"
	"github.com/tariel-x/weddingcards/internal/render"
	"github.com/tariel-x/weddingcards/internal/static"
)

// VerifyPage is the target of the guest's QR code. Opening it checks the
// guest in; later visits answer 409 with the original check-in.
func (h *Handlers) VerifyPage(c *gin.Context) {
	ctx := c.Request.Context()
	guestID := c.Param("guest_id")

	page := static.VerifyPage{Status: static.StatusVerified}
	status := http.StatusOK

	res, err := h.checkin.Scan(ctx, guestID, nil)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		page.Status = static.StatusNotFound
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrAlreadyVerified):
		page.Status = static.StatusAlready
		status = http.StatusConflict
	case err != nil:
		h.log.Error().Err(err).Str("guest_id", guestID).Msg("verify page failed")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	if res != nil {
		page.GuestName = res.Guest.DisplayName()
		if res.Guest.CheckInTime != nil {
			page.CheckInTime = *res.Guest.CheckInTime
		}
		if event, err := h.planning.EventOfGuest(ctx, guestID); err == nil {
			page.EventTitle = event.Title
		}
	}

	h.html(c, status, func(w http.ResponseWriter) error {
		return h.pages.Verify(w, page)
	})
}

func (h *Handlers) InvitationPage(c *gin.Context) {
	inv, err := h.planning.PublicInvitation(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.String(http.StatusNotFound, "Invitation not found")
			return
		}
		h.log.Error().Err(err).Msg("invitation page failed")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	page := static.InvitationPage{
		Title:       inv.Event.Title,
		Date:        inv.Event.Date.Format(render.DateLayout),
		Time:        inv.Event.Date.Format(render.TimeLayout),
		Venue:       inv.Event.Venue,
		Description: inv.Event.Description,
		RSVP:        inv.Event.RSVPInfo,
		CardImage:   inv.Invitation.CardImage,
	}
	if inv.Event.Couple != nil {
		page.Couple = *inv.Event.Couple
	}
	if len(inv.Schedules) > 1 {
		for _, sc := range inv.Schedules {
			page.Segments = append(page.Segments, render.NewSegment(sc.EventName, sc.Date, sc.Location, sc.Description))
		}
	}

	h.html(c, http.StatusOK, func(w http.ResponseWriter) error {
		return h.pages.Invitation(w, page)
	})
}

func (h *Handlers) html(c *gin.Context, status int, write func(w http.ResponseWriter) error) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-store")
	c.Status(status)
	if err := write(c.Writer); err != nil {
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("failed to render page")
	}
}
