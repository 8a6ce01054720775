package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) ListInvitations(c *gin.Context) {
	invitations, err := h.planning.ListInvitations(c.Request.Context(), plannerID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitations)
}

func (h *Handlers) GetInvitation(c *gin.Context) {
	invitation, err := h.planning.GetInvitation(c.Request.Context(), plannerID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitation)
}

// RenderInvitation produces the master invitation card. Repeated calls
// return the stored card.
func (h *Handlers) RenderInvitation(c *gin.Context) {
	invitation, err := h.planning.RenderInvitation(c.Request.Context(), plannerID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitation)
}
