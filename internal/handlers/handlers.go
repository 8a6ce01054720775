package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tariel-x/weddingcards/internal/checkin"
	"github.com/tariel-x/weddingcards/internal/config"
	"github.com/tariel-x/weddingcards/internal/notify"
	"github.com/tariel-x/weddingcards/internal/planning"
	"github.com/tariel-x/weddingcards/internal/static"
	"github.com/tariel-x/weddingcards/internal/storage"
	"github.com/tariel-x/weddingcards/internal/websocket"
)

type Handlers struct {
	config     *config.Config
	planning   *planning.Service
	checkin    *checkin.Service
	push       *notify.Pusher
	hub        *websocket.Hub
	store      storage.Store
	pages      *static.Pages
	wsUpgrader gws.Upgrader
	log        zerolog.Logger
	nowFn      func() time.Time
}

func New(
	config *config.Config,
	planning *planning.Service,
	checkin *checkin.Service,
	push *notify.Pusher,
	hub *websocket.Hub,
	store storage.Store,
	pages *static.Pages,
	log zerolog.Logger,
) *Handlers {
	return &Handlers{
		config:   config,
		planning: planning,
		checkin:  checkin,
		push:     push,
		hub:      hub,
		store:    store,
		pages:    pages,
		wsUpgrader: gws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log:   log,
		nowFn: time.Now,
	}
}

// WithClock replaces the time source used for tokens.
func (h *Handlers) WithClock(now func() time.Time) *Handlers {
	h.nowFn = now
	return h
}

// Routes registers every endpoint on router.
func (h *Handlers) Routes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/auth/register", h.RegisterUser)
		api.POST("/auth/login", h.Login)
		api.GET("/push/vapid-public-key", h.GetVAPIDPublicKey)
	}

	protected := api.Group("")
	protected.Use(h.AuthMiddleware())
	{
		protected.GET("/me", h.GetMe)

		protected.GET("/events", h.ListEvents)
		protected.POST("/events", h.CreateEvent)
		protected.GET("/events/:id", h.GetEvent)
		protected.PUT("/events/:id", h.UpdateEvent)
		protected.DELETE("/events/:id", h.DeleteEvent)
		protected.GET("/events/:id/guests", h.EventGuests)
		protected.GET("/events/:id/stats", h.EventStats)
		protected.GET("/events/:id/schedules", h.ListSchedules)
		protected.POST("/events/:id/schedules", h.CreateSchedule)
		protected.PUT("/schedules/:id", h.UpdateSchedule)
		protected.DELETE("/schedules/:id", h.DeleteSchedule)

		protected.GET("/invitations", h.ListInvitations)
		protected.GET("/invitations/:id", h.GetInvitation)
		protected.POST("/invitations/:id/render", h.RenderInvitation)

		protected.GET("/guests", h.ListGuests)
		protected.POST("/guests", h.CreateGuest)
		protected.GET("/guests/:id", h.GetGuest)
		protected.PUT("/guests/:id", h.UpdateGuest)
		protected.DELETE("/guests/:id", h.DeleteGuest)
		protected.POST("/guests/:id/render", h.RenderGuest)
		protected.POST("/guests/:id/check-in", h.CheckInGuest)
		protected.GET("/guests/:id/card-info", h.CardInfo)

		protected.GET("/verifications", h.ListVerifications)
		protected.POST("/verifications/verify", h.VerifyGuest)

		protected.POST("/push/subscribe", h.SubscribePush)
		protected.POST("/push/unsubscribe", h.UnsubscribePush)

		protected.GET("/ws", h.HandleFeed)
	}

	router.GET("/verify/:guest_id/", h.VerifyPage)
	router.POST("/verify/:guest_id/", h.VerifyPage)
	router.GET("/invitations/:id/", h.InvitationPage)
	router.GET("/media/*key", static.MediaHandler(h.store))
	router.HEAD("/media/*key", static.MediaHandler(h.store))
	router.NoRoute(static.NotFound)
}
