package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tariel-x/weddingcards/internal/planning"
)

type EventRequest struct {
	Title       string    `json:"title" binding:"max=255"`
	Couple      *string   `json:"couple" binding:"omitempty,max=255"`
	Date        time.Time `json:"date"`
	Venue       string    `json:"venue" binding:"max=255"`
	Description string    `json:"description"`
	RSVPInfo    string    `json:"rsvp_info" binding:"max=255"`
}

func (r EventRequest) input() planning.EventInput {
	return planning.EventInput{
		Title:       r.Title,
		Couple:      r.Couple,
		Date:        r.Date,
		Venue:       r.Venue,
		Description: r.Description,
		RSVPInfo:    r.RSVPInfo,
	}
}

type ScheduleRequest struct {
	EventName   string    `json:"event_name" binding:"max=255"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location" binding:"max=255"`
	Description string    `json:"description"`
	Order       int       `json:"order"`
}

func (r ScheduleRequest) input() planning.ScheduleInput {
	return planning.ScheduleInput{
		EventName:   r.EventName,
		Date:        r.Date,
		Location:    r.Location,
		Description: r.Description,
		Order:       r.Order,
	}
}

func (h *Handlers) ListEvents(c *gin.Context) {
	events, err := h.planning.ListEvents(c.Request.Context(), plannerID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handlers) CreateEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	event, err := h.planning.CreateEvent(c.Request.Context(), plannerID(c), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *Handlers) GetEvent(c *gin.Context) {
	event, err := h.planning.GetEvent(c.Request.Context(), plannerID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *Handlers) UpdateEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	event, err := h.planning.UpdateEvent(c.Request.Context(), plannerID(c), c.Param("id"), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *Handlers) DeleteEvent(c *gin.Context) {
	if err := h.planning.DeleteEvent(c.Request.Context(), plannerID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) EventGuests(c *gin.Context) {
	guests, err := h.planning.EventGuests(c.Request.Context(), plannerID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, guests)
}

func (h *Handlers) EventStats(c *gin.Context) {
	stats, err := h.planning.EventStats(c.Request.Context(), plannerID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) ListSchedules(c *gin.Context) {
	schedules, err := h.planning.Schedules(c.Request.Context(), plannerID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedules)
}

func (h *Handlers) CreateSchedule(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	schedule, err := h.planning.CreateSchedule(c.Request.Context(), plannerID(c), c.Param("id"), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, schedule)
}

func (h *Handlers) UpdateSchedule(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	schedule, err := h.planning.UpdateSchedule(c.Request.Context(), plannerID(c), c.Param("id"), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (h *Handlers) DeleteSchedule(c *gin.Context) {
	if err := h.planning.DeleteSchedule(c.Request.Context(), plannerID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
