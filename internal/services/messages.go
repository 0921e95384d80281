package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/database"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/realtime"
	apperrors "github.com/Rupe88/kaji-service-backend-sub004/pkg/errors"
	"github.com/Rupe88/kaji-service-backend-sub004/pkg/logger"
)

// MessageService drives the message lifecycle. The durable write always
// commits first; push fan-out and the companion notification run after it
// and are never allowed to fail the call.
type MessageService struct {
	conversations *ConversationService
	notifications *NotificationService
	gateway       realtime.Gateway
}

func NewMessageService(conversations *ConversationService, notifications *NotificationService, gateway realtime.Gateway) *MessageService {
	return &MessageService{
		conversations: conversations,
		notifications: notifications,
		gateway:       gateway,
	}
}

// SendMessageInput carries everything a caller may set on a new message.
type SendMessageInput struct {
	RecipientID string
	Content     string
	Type        models.MessageType
	Context     models.ConversationContext
	Attachments []models.Attachment
}

// Send validates, persists and fans out a new message. The message row,
// the conversation's last-message pointer and the recipient's unread
// counter commit as one unit.
func (s *MessageService) Send(senderID string, in SendMessageInput) (*models.Message, error) {
	content, err := SanitizeMessageContent(in.Content)
	if err != nil {
		return nil, err
	}

	msgType := in.Type
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !msgType.Valid() {
		return nil, apperrors.Validation("Invalid message type", apperrors.FieldError{
			Field:   "messageType",
			Message: "messageType must be TEXT, IMAGE, FILE or SYSTEM",
		})
	}

	if err := ValidateAttachments(in.Attachments); err != nil {
		return nil, err
	}
	attachments, err := models.MarshalAttachments(in.Attachments)
	if err != nil {
		return nil, apperrors.Validation("Invalid attachments")
	}

	var recipient models.User
	if err := database.DB.Select("id").First(&recipient, "id = ?", in.RecipientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Recipient")
		}
		return nil, apperrors.Persistence("load recipient", err)
	}

	conv, err := s.conversations.ResolveOrCreate(senderID, in.RecipientID, in.Context)
	if err != nil {
		return nil, err
	}

	msg := models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		RecipientID:    in.RecipientID,
		Content:        content,
		Type:           msgType,
		Attachments:    attachments,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		if err := s.conversations.TouchLastMessage(tx, conv, &msg); err != nil {
			return err
		}
		return s.conversations.IncrementUnread(tx, conv, senderID)
	})
	if err != nil {
		return nil, apperrors.Persistence("send message", err)
	}

	// Fire-and-forget from here on; the committed write is never unwound.
	s.gateway.Emit(in.RecipientID, realtime.EventNewMessage, map[string]interface{}{
		"message":        msg,
		"conversationId": conv.ID,
	})

	if err := s.notifications.NotifyNewMessage(&msg); err != nil {
		logger.Warn().Err(err).Str("messageId", msg.ID).Msg("companion notification failed")
	}

	return &msg, nil
}

// Edit replaces a message's content. Only the original sender may edit,
// and only the latest content is kept; there is no edit history.
func (s *MessageService) Edit(messageID, editorID, content string) (*models.Message, error) {
	sanitized, err := SanitizeMessageContent(content)
	if err != nil {
		return nil, err
	}

	msg, err := s.load(messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != editorID {
		return nil, apperrors.Forbidden("You cannot modify this message")
	}
	if msg.IsDeleted {
		return nil, apperrors.Validation("Deleted messages cannot be edited")
	}

	now := time.Now()
	if err := database.DB.Model(msg).Updates(map[string]interface{}{
		"content":   sanitized,
		"is_edited": true,
		"edited_at": now,
	}).Error; err != nil {
		return nil, apperrors.Persistence("edit message", err)
	}
	msg.Content = sanitized
	msg.IsEdited = true
	msg.EditedAt = &now

	// Both sides see the correction, not just the recipient.
	payload := map[string]interface{}{
		"message":        msg,
		"conversationId": msg.ConversationID,
	}
	s.gateway.Emit(msg.SenderID, realtime.EventMessageUpdated, payload)
	s.gateway.Emit(msg.RecipientID, realtime.EventMessageUpdated, payload)

	return msg, nil
}

// SoftDelete blanks a message while keeping the row enumerable in history.
// Repeating the call is a no-op.
func (s *MessageService) SoftDelete(messageID, requesterID string) (*models.Message, error) {
	msg, err := s.load(messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != requesterID {
		return nil, apperrors.Forbidden("You cannot modify this message")
	}
	if msg.IsDeleted {
		return msg, nil
	}

	now := time.Now()
	if err := database.DB.Model(msg).Updates(map[string]interface{}{
		"content":     models.DeletedContentPlaceholder,
		"attachments": nil,
		"is_deleted":  true,
		"deleted_at":  now,
	}).Error; err != nil {
		return nil, apperrors.Persistence("delete message", err)
	}
	msg.Content = models.DeletedContentPlaceholder
	msg.Attachments = nil
	msg.IsDeleted = true
	msg.DeletedAt = &now

	payload := map[string]interface{}{
		"messageId":      msg.ID,
		"conversationId": msg.ConversationID,
	}
	s.gateway.Emit(msg.SenderID, realtime.EventMessageDeleted, payload)
	s.gateway.Emit(msg.RecipientID, realtime.EventMessageDeleted, payload)

	return msg, nil
}

// ListForConversation returns a window of history, oldest first. Deleted
// messages stay in the window as placeholders. A `before` bound narrows to
// strictly older rows for backward paging.
func (s *MessageService) ListForConversation(conversationID, callerID string, before *time.Time, limit int) ([]models.Message, error) {
	if _, err := s.conversations.Get(conversationID, callerID); err != nil {
		return nil, err
	}

	if limit < 1 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	q := database.DB.Where("conversation_id = ?", conversationID)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}

	var messages []models.Message
	err := q.Order("created_at DESC").Limit(limit).Preload("Sender").Find(&messages).Error
	if err != nil {
		return nil, apperrors.Persistence("list messages", err)
	}

	// Fetched newest-first so the limit keeps the latest window; callers
	// read oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkRead flips every unread message addressed to callerID in the
// conversation (optionally narrowed to messageIDs) in one bulk update,
// then reconciles the caller's unread counter from the rows. Repeat calls
// are no-ops.
func (s *MessageService) MarkRead(conversationID, callerID string, messageIDs []string) (int64, error) {
	conv, err := s.conversations.Get(conversationID, callerID)
	if err != nil {
		return 0, err
	}

	var marked int64
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND recipient_id = ? AND is_read = ?", conversationID, callerID, false)
		if len(messageIDs) > 0 {
			q = q.Where("id IN ?", messageIDs)
		}
		res := q.Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
		if res.Error != nil {
			return res.Error
		}
		marked = res.RowsAffected
		return s.conversations.ResetUnread(tx, conv, callerID)
	})
	if err != nil {
		return 0, apperrors.Persistence("mark messages read", err)
	}

	if marked > 0 {
		s.gateway.Emit(conv.OtherParticipantID(callerID), realtime.EventMessagesRead, map[string]interface{}{
			"conversationId": conversationID,
			"readerId":       callerID,
			"count":          marked,
		})
	}
	return marked, nil
}

func (s *MessageService) load(messageID string) (*models.Message, error) {
	var msg models.Message
	if err := database.DB.First(&msg, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Message")
		}
		return nil, apperrors.Persistence("load message", err)
	}
	return &msg, nil
}
