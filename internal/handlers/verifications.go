package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tariel-x/weddingcards/internal/apperr"
)

type VerifyRequest struct {
	GuestID string `json:"guest_id"`
}

func (h *Handlers) ListVerifications(c *gin.Context) {
	verifications, err := h.planning.Verifications(c.Request.Context(), plannerID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verifications)
}

// VerifyGuest records a scan made from the planner app.
func (h *Handlers) VerifyGuest(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	guestID := strings.TrimSpace(req.GuestID)
	if guestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guest_id is required"})
		return
	}

	scannedBy := userID(c)
	res, err := h.checkin.Scan(c.Request.Context(), guestID, &scannedBy)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Guest not found"})
	case errors.Is(err, apperr.ErrAlreadyVerified):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Guest already verified", "guest": res.Guest})
	case err != nil:
		h.writeError(c, err)
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Guest verified successfully", "guest": res.Guest})
	}
}
