package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PushSubscriptionRequest mirrors the browser's PushSubscription.toJSON().
type PushSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys"`
}

type PushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

func (h *Handlers) GetVAPIDPublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"publicKey": h.push.PublicKey()})
}

func (h *Handlers) SubscribePush(c *gin.Context) {
	var req PushSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sub, err := h.push.Subscribe(c.Request.Context(), userID(c), req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *Handlers) UnsubscribePush(c *gin.Context) {
	var req PushUnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.push.Unsubscribe(c.Request.Context(), userID(c), req.Endpoint); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
