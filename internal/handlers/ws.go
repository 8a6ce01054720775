package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tariel-x/weddingcards/internal/websocket"
)

// HandleFeed upgrades to a websocket that streams check-ins of one owned event.
func (h *Handlers) HandleFeed(c *gin.Context) {
	eventID := c.Query("event_id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event_id is required"})
		return
	}
	if _, err := h.planning.GetEvent(c.Request.Context(), plannerID(c), eventID); err != nil {
		h.writeError(c, err)
		return
	}

	conn, err := h.wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.log.Debug().Str("event_id", eventID).Str("user_id", userID(c)).Msg("feed client connected")
	h.hub.Serve(websocket.NewClient(conn, eventID, userID(c)))
}
