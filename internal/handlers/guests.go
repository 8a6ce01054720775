package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tariel-x/weddingcards/internal/apperr"
	"github.com/tariel-x/weddingcards/internal/planning"
)

type GuestRequest struct {
	InvitationID  string   `json:"invitation_id"`
	FirstName     string   `json:"first_name" binding:"max=50"`
	LastName      string   `json:"last_name" binding:"max=50"`
	GuestName     string   `json:"guest_name" binding:"max=100"`
	Email         string   `json:"email" binding:"max=254"`
	Phone         string   `json:"phone" binding:"max=16"`
	IsAttending   bool     `json:"is_attending"`
	PaymentAmount *float64 `json:"payment_amount"`
}

func (r GuestRequest) input() planning.GuestInput {
	return planning.GuestInput{
		InvitationID:  r.InvitationID,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		GuestName:     r.GuestName,
		Email:         r.Email,
		Phone:         r.Phone,
		IsAttending:   r.IsAttending,
		PaymentAmount: r.PaymentAmount,
	}
}

func (h *Handlers) ListGuests(c *gin.Context) {
	guests, err := h.planning.ListGuests(c.Request.Context(), plannerID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, guests)
}

// CreateGuest stores the guest and then renders its QR code and card.
// A failed render still answers 201; the artifacts can be produced later
// through RenderGuest.
func (h *Handlers) CreateGuest(c *gin.Context) {
	var req GuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	guest, err := h.planning.CreateGuest(ctx, plannerID(c), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}

	rendered, err := h.planning.RenderGuestArtifacts(ctx, guest.ID)
	if err != nil {
		h.log.Error().Err(err).Str("guest_id", guest.ID).Msg("guest artifacts not rendered")
		c.JSON(http.StatusCreated, guest)
		return
	}
	c.JSON(http.StatusCreated, rendered)
}

func (h *Handlers) GetGuest(c *gin.Context) {
	guest, err := h.planning.GetGuest(c.Request.Context(), plannerID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, guest)
}

func (h *Handlers) UpdateGuest(c *gin.Context) {
	var req GuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	guest, err := h.planning.UpdateGuest(c.Request.Context(), plannerID(c), c.Param("id"), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, guest)
}

func (h *Handlers) DeleteGuest(c *gin.Context) {
	if err := h.planning.DeleteGuest(c.Request.Context(), plannerID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) RenderGuest(c *gin.Context) {
	ctx := c.Request.Context()
	guest, err := h.planning.GetGuest(ctx, plannerID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	rendered, err := h.planning.RenderGuestArtifacts(ctx, guest.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rendered)
}

func (h *Handlers) CheckInGuest(c *gin.Context) {
	res, err := h.checkin.CheckIn(c.Request.Context(), plannerID(c), c.Param("id"), userID(c))
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyVerified) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Guest is already checked in"})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res.Guest)
}

func (h *Handlers) CardInfo(c *gin.Context) {
	info, err := h.planning.CardInfo(c.Request.Context(), plannerID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}
