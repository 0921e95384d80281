package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/handlers"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/middleware"
)

// RegisterNotificationRoutes mounts the notification surface. Creation is
// reserved for admins; every other producer lives in-process.
func RegisterNotificationRoutes(r gin.IRouter, notifications *handlers.NotificationHandler) {
	group := r.Group("/notifications")
	group.Use(middleware.AuthMiddleware())
	{
		group.GET("", notifications.List)
		group.GET("/unread-count", notifications.UnreadCount)
		group.GET("/preferences", notifications.GetPreferences)
		group.PUT("/preferences", notifications.UpdatePreferences)
		group.PUT("/mark-read", notifications.MarkRead)
		group.PUT("/mark-all-read", notifications.MarkAllRead)
		group.GET("/:id", notifications.Get)
		group.DELETE("/:id", notifications.Delete)
		group.DELETE("", notifications.DeleteAll)

		group.POST("", middleware.AdminOnly(), notifications.Create)
	}
}
