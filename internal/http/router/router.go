package router

import (
	"github.com/gin-gonic/gin"

	"github.com/smetapro/contractor-backend/internal/config"
	"github.com/smetapro/contractor-backend/internal/http/handlers"
	"github.com/smetapro/contractor-backend/internal/http/middleware"
	"github.com/smetapro/contractor-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	estimateHandler *handlers.EstimateHandler,
	invoiceHandler *handlers.InvoiceHandler,
	paymentHandler *handlers.PaymentHandler,
	projectHandler *handlers.ProjectHandler,
	catalogHandler *handlers.CatalogHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	// Публичные маршруты
	api.GET("/ws", wsHandler.Handle)
	api.GET("/catalog/services", catalogHandler.ListServices)
	api.GET("/catalog/services/:slug", catalogHandler.GetService)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		// Сметы
		protected.POST("/estimates", estimateHandler.Create)
		protected.GET("/estimates", estimateHandler.List)
		protected.GET("/estimates/:id", middleware.UUIDValidator("id"), estimateHandler.Get)
		protected.PUT("/estimates/:id", middleware.UUIDValidator("id"), estimateHandler.Update)
		protected.DELETE("/estimates/:id", middleware.UUIDValidator("id"), estimateHandler.Delete)
		protected.POST("/estimates/:id/send", middleware.UUIDValidator("id"), estimateHandler.Send)
		protected.POST("/estimates/:id/accept", middleware.UUIDValidator("id"), estimateHandler.Accept)
		protected.POST("/estimates/:id/reject", middleware.UUIDValidator("id"), estimateHandler.Reject)
		protected.POST("/estimates/:id/convert", middleware.UUIDValidator("id"), estimateHandler.Convert)

		// Счета
		protected.POST("/invoices", invoiceHandler.Create)
		protected.GET("/invoices", invoiceHandler.List)
		protected.GET("/invoices/:id", middleware.UUIDValidator("id"), invoiceHandler.Get)
		protected.DELETE("/invoices/:id", middleware.UUIDValidator("id"), invoiceHandler.Delete)
		protected.POST("/invoices/:id/cancel", middleware.UUIDValidator("id"), invoiceHandler.Cancel)
		protected.POST("/invoices/:id/recalculate", middleware.UUIDValidator("id"), paymentHandler.Recalculate)

		// Платежи. Запись платежей защищена rate limit от двойных кликов.
		paymentRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
		protected.POST("/invoices/:id/payments", middleware.UUIDValidator("id"), paymentRateLimit, paymentHandler.Record)
		protected.GET("/invoices/:id/payments", middleware.UUIDValidator("id"), paymentHandler.List)
		protected.POST("/invoices/:id/payments/:paymentId/reverse",
			middleware.UUIDValidator("id"), middleware.UUIDValidator("paymentId"), paymentHandler.Reverse)

		// Проекты
		protected.GET("/projects", projectHandler.List)
		protected.GET("/projects/:id", middleware.UUIDValidator("id"), projectHandler.Get)

		// Уведомления
		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread", notificationHandler.CountUnread)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
	}

	return r
}
