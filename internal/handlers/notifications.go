package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/services"
	apperrors "github.com/Rupe88/kaji-service-backend-sub004/pkg/errors"
	"github.com/Rupe88/kaji-service-backend-sub004/pkg/response"
)

// NotificationHandler exposes the notification stream and its delivery
// preferences.
type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	callerID := c.GetString("userId")

	filters := services.NotificationFilters{
		Type:     c.Query("type"),
		Category: c.Query("category"),
		Priority: c.Query("priority"),
		SortBy:   c.Query("sortBy"),
	}
	if raw := c.Query("isRead"); raw != "" {
		isRead, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, apperrors.Validation("Invalid isRead value", apperrors.FieldError{
				Field:   "isRead",
				Message: "isRead must be true or false",
			}))
			return
		}
		filters.IsRead = &isRead
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	items, total, unread, err := h.notifications.List(callerID, filters, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"notifications": items,
		"pagination":    response.NewPagination(page, limit, total),
		"unreadCount":   unread,
	})
}

// UnreadCount handles GET /api/notifications/unread-count. Always a fresh
// count, cheap enough for badge polling.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notifications.UnreadCount(c.GetString("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"unreadCount": count})
}

// GetPreferences handles GET /api/notifications/preferences.
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.notifications.Preferences(c.GetString("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"preferences": prefs})
}

// UpdatePreferences handles PUT /api/notifications/preferences. The body
// is a partial patch; omitted switches keep their value.
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	var patch services.PreferencePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.BindError(c, err)
		return
	}

	prefs, err := h.notifications.UpdatePreferences(c.GetString("userId"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"preferences": prefs})
}

// Get handles GET /api/notifications/:id.
func (h *NotificationHandler) Get(c *gin.Context) {
	n, err := h.notifications.Get(c.Param("id"), c.GetString("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"notification": n})
}

type markNotificationsReadRequest struct {
	NotificationIDs []string `json:"notificationIds" binding:"required"`
}

// MarkRead handles PUT /api/notifications/mark-read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	var req markNotificationsReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	marked, err := h.notifications.MarkRead(c.GetString("userId"), req.NotificationIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"markedRead": marked})
}

// MarkAllRead handles PUT /api/notifications/mark-all-read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	marked, err := h.notifications.MarkAllRead(c.GetString("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"markedRead": marked})
}

// Delete handles DELETE /api/notifications/:id.
func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.notifications.Delete(c.Param("id"), c.GetString("userId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Notification deleted")
}

// DeleteAll handles DELETE /api/notifications.
func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	deleted, err := h.notifications.DeleteAll(c.GetString("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": deleted})
}

type createNotificationRequest struct {
	UserID      string                 `json:"userId" binding:"required"`
	Type        string                 `json:"type" binding:"required"`
	Title       string                 `json:"title" binding:"required"`
	Message     string                 `json:"message" binding:"required"`
	Priority    string                 `json:"priority"`
	Category    string                 `json:"category"`
	Data        map[string]interface{} `json:"data"`
	ActionURL   string                 `json:"actionUrl"`
	ActionLabel string                 `json:"actionLabel"`
	ExpiresAt   *time.Time             `json:"expiresAt"`
}

// Create handles POST /api/notifications. The route is admin-gated;
// in-process producers call the service directly instead.
func (h *NotificationHandler) Create(c *gin.Context) {
	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	n, err := h.notifications.Create(req.UserID, models.NotificationType(req.Type), req.Title, req.Message, services.NotificationOptions{
		Priority:    models.NotificationPriority(req.Priority),
		Category:    req.Category,
		Data:        req.Data,
		ActionURL:   req.ActionURL,
		ActionLabel: req.ActionLabel,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"notification": n})
}
