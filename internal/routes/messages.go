package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/handlers"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/middleware"
)

// RegisterMessageRoutes mounts the messaging surface. The static segments
// (mark-read, conversations) must be registered before the :id parameter
// routes claim the same positions.
func RegisterMessageRoutes(r gin.IRouter, messages *handlers.MessageHandler, conversations *handlers.ConversationHandler) {
	group := r.Group("/messages")
	group.Use(middleware.AuthMiddleware())
	{
		group.POST("", middleware.MessageRateLimit(), messages.Send)
		group.GET("", messages.List)
		group.PUT("/mark-read", messages.MarkRead)

		group.GET("/conversations", conversations.List)
		group.GET("/conversations/:id", conversations.Get)
		group.PUT("/conversations/:id/archive", conversations.Archive)

		group.PUT("/:id", messages.Edit)
		group.DELETE("/:id", messages.Delete)
	}
}
