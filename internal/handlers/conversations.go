package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/services"
	apperrors "github.com/Rupe88/kaji-service-backend-sub004/pkg/errors"
	"github.com/Rupe88/kaji-service-backend-sub004/pkg/response"
)

// ConversationHandler exposes inbox listing and the per-participant
// archive toggle.
type ConversationHandler struct {
	conversations *services.ConversationService
}

func NewConversationHandler(conversations *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// List handles GET /api/messages/conversations.
func (h *ConversationHandler) List(c *gin.Context) {
	callerID := c.GetString("userId")

	filters := services.ConversationFilters{
		ServiceID: c.Query("serviceId"),
		BookingID: c.Query("bookingId"),
	}
	if raw := c.Query("isArchived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, apperrors.Validation("Invalid isArchived value", apperrors.FieldError{
				Field:   "isArchived",
				Message: "isArchived must be true or false",
			}))
			return
		}
		filters.Archived = &archived
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	views, total, err := h.conversations.ListFor(callerID, filters, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"conversations": views,
		"pagination":    response.NewPagination(page, limit, total),
	})
}

// Get handles GET /api/messages/conversations/:id.
func (h *ConversationHandler) Get(c *gin.Context) {
	callerID := c.GetString("userId")

	conv, err := h.conversations.Get(c.Param("id"), callerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"conversation": conv.ViewFor(callerID)})
}

type archiveRequest struct {
	Archive *bool `json:"archive" binding:"required"`
}

// Archive handles PUT /api/messages/conversations/:id/archive.
func (h *ConversationHandler) Archive(c *gin.Context) {
	callerID := c.GetString("userId")

	var req archiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	conv, err := h.conversations.SetArchived(c.Param("id"), callerID, *req.Archive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"conversation": conv.ViewFor(callerID)})
}
