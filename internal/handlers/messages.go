package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/database"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/services"
	apperrors "github.com/Rupe88/kaji-service-backend-sub004/pkg/errors"
	"github.com/Rupe88/kaji-service-backend-sub004/pkg/response"
)

// MessageHandler exposes the message lifecycle over HTTP. Every route runs
// behind the auth middleware, so the caller id is always present on the
// context.
type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

type sendMessageRequest struct {
	RecipientID string              `json:"recipientId" binding:"required"`
	Content     string              `json:"content" binding:"required"`
	ServiceID   string              `json:"serviceId"`
	BookingID   string              `json:"bookingId"`
	MessageType string              `json:"messageType"`
	Attachments []models.Attachment `json:"attachments"`
}

// Send handles POST /api/messages.
func (h *MessageHandler) Send(c *gin.Context) {
	callerID := c.GetString("userId")

	// Per-user budget on top of the per-IP middleware.
	if allowed, _ := database.CheckRateLimit("send:"+callerID, 30, time.Minute); !allowed {
		response.Error(c, apperrors.RateLimited("You are sending messages too quickly. Please slow down."))
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	msg, err := h.messages.Send(callerID, services.SendMessageInput{
		RecipientID: req.RecipientID,
		Content:     req.Content,
		Type:        models.MessageType(req.MessageType),
		Context: models.ConversationContext{
			ServiceID: req.ServiceID,
			BookingID: req.BookingID,
		},
		Attachments: req.Attachments,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"message":        msg,
		"conversationId": msg.ConversationID,
	})
}

// List handles GET /api/messages?conversationId=&before=&limit=.
func (h *MessageHandler) List(c *gin.Context) {
	callerID := c.GetString("userId")

	conversationID := c.Query("conversationId")
	if conversationID == "" {
		response.Error(c, apperrors.Validation("conversationId is required", apperrors.FieldError{
			Field:   "conversationId",
			Message: "conversationId is required",
		}))
		return
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, apperrors.Validation("Invalid before value", apperrors.FieldError{
				Field:   "before",
				Message: "before must be an RFC3339 timestamp",
			}))
			return
		}
		before = &t
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, err := h.messages.ListForConversation(conversationID, callerID, before, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"messages": messages})
}

type editMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Edit handles PUT /api/messages/:id.
func (h *MessageHandler) Edit(c *gin.Context) {
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	msg, err := h.messages.Edit(c.Param("id"), c.GetString("userId"), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": msg})
}

// Delete handles DELETE /api/messages/:id. The row survives as a
// placeholder; only the content is gone.
func (h *MessageHandler) Delete(c *gin.Context) {
	msg, err := h.messages.SoftDelete(c.Param("id"), c.GetString("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": msg})
}

type markReadRequest struct {
	ConversationID string   `json:"conversationId" binding:"required"`
	MessageIDs     []string `json:"messageIds"`
}

// MarkRead handles PUT /api/messages/mark-read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	marked, err := h.messages.MarkRead(req.ConversationID, c.GetString("userId"), req.MessageIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"markedRead": marked})
}
