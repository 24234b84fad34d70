package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/taskmarket-backend/internal/auth"
	"github.com/ignatzorin/taskmarket-backend/internal/config"
	"github.com/ignatzorin/taskmarket-backend/internal/http/handlers"
	"github.com/ignatzorin/taskmarket-backend/internal/http/middleware"
	"github.com/ignatzorin/taskmarket-backend/internal/interface/http/handler"
)

// Handlers собирает все обработчики, которые монтирует роутер.
type Handlers struct {
	Health       *handlers.HealthHandler
	WS           *handlers.WSHandler
	Notification *handlers.NotificationHandler

	Task        *handler.TaskHandler
	Application *handler.ApplicationHandler
	Escrow      *handler.EscrowHandler
	Dispute     *handler.DisputeHandler
}

// Deps - инфраструктура роутера. Gatherer и Store могут быть nil.
type Deps struct {
	Tokens   *auth.TokenVerifier
	Gatherer prometheus.Gatherer
	Store    limiter.Store
}

func SetupRouter(cfg *config.Config, h Handlers, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store := deps.Store
	if store == nil {
		store = middleware.NewRateLimitStore()
	}

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	if h.Health != nil {
		r.GET("/health", h.Health.Health)
	}
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	if h.WS != nil {
		api.GET("/ws", h.WS.Handle)
	}

	// Публичные маршруты
	api.GET("/payments/config", h.Escrow.Config)
	api.GET("/disputes/reasons", h.Dispute.Reasons)

	webhook := api.Group("/payments")
	webhook.Use(middleware.RateLimitMiddleware(store, cfg.RateLimitLimit*5, cfg.RateLimitPeriod))
	webhook.POST("/webhook", h.Escrow.Webhook)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(deps.Tokens))
	protected.Use(middleware.RateLimitMiddleware(store, cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		protected.POST("/tasks", h.Task.CreateTask)
		protected.GET("/tasks/mine", h.Task.ListMyTasks)
		protected.GET("/tasks/:id", middleware.UUIDValidator("id"), h.Task.GetTask)
		protected.POST("/tasks/:id/start", middleware.UUIDValidator("id"), h.Task.StartTask)
		protected.POST("/tasks/:id/done", middleware.UUIDValidator("id"), h.Task.MarkDone)
		protected.POST("/tasks/:id/confirm", middleware.UUIDValidator("id"), h.Task.ConfirmTask)
		protected.POST("/tasks/:id/cancel", middleware.UUIDValidator("id"), h.Task.CancelTask)
		protected.POST("/tasks/:id/dispute", middleware.UUIDValidator("id"), h.Task.DisputeTask)
		protected.GET("/tasks/:id/disputes", middleware.UUIDValidator("id"), h.Dispute.ListForTask)

		protected.POST("/tasks/:id/applications", middleware.UUIDValidator("id"), h.Application.Apply)
		protected.GET("/tasks/:id/applications", middleware.UUIDValidator("id"), h.Application.ListForTask)
		protected.DELETE("/tasks/:id/applications/:applicationId", middleware.UUIDValidator("id", "applicationId"), h.Application.Withdraw)
		protected.POST("/tasks/:id/applications/:applicationId/accept", middleware.UUIDValidator("id", "applicationId"), h.Application.Accept)
		protected.POST("/tasks/:id/applications/:applicationId/reject", middleware.UUIDValidator("id", "applicationId"), h.Application.Reject)
		protected.GET("/applications/mine", h.Application.ListMine)

		protected.POST("/payments/hold", h.Escrow.CreateHold)
		protected.GET("/payments/mine", h.Escrow.ListMine)
		protected.GET("/payments/:id", middleware.UUIDValidator("id"), h.Escrow.GetTransaction)
		protected.POST("/payments/:id/capture", middleware.UUIDValidator("id"), h.Escrow.Capture)
		protected.POST("/payments/:id/release", middleware.UUIDValidator("id"), h.Escrow.Release)
		protected.POST("/payments/:id/refund", middleware.UUIDValidator("id"), h.Escrow.Refund)

		protected.POST("/disputes", h.Dispute.File)
		protected.GET("/disputes", h.Dispute.ListMine)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), h.Dispute.Get)
		protected.POST("/disputes/:id/respond", middleware.UUIDValidator("id"), h.Dispute.Respond)
		protected.POST("/disputes/:id/resolve", middleware.UUIDValidator("id"), h.Dispute.Resolve)
		protected.GET("/admin/disputes", h.Dispute.ListAll)

		if h.Notification != nil {
			protected.GET("/notifications", h.Notification.ListNotifications)
			protected.GET("/notifications/unread/count", h.Notification.CountUnread)
			protected.PUT("/notifications/read-all", h.Notification.MarkAllAsRead)
			protected.GET("/notifications/:id", middleware.UUIDValidator("id"), h.Notification.GetNotification)
			protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), h.Notification.MarkAsRead)
			protected.DELETE("/notifications/:id", middleware.UUIDValidator("id"), h.Notification.DeleteNotification)
		}
	}

	return r
}
