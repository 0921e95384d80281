package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/database"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
	apperrors "github.com/Rupe88/kaji-service-backend-sub004/pkg/errors"
)

// ConversationService owns thread resolution, the per-side unread counters
// and the participant check every other operation leans on.
type ConversationService struct{}

func NewConversationService() *ConversationService {
	return &ConversationService{}
}

// ConversationFilters narrows a user's inbox listing.
type ConversationFilters struct {
	ServiceID string
	BookingID string
	Archived  *bool
}

// ResolveOrCreate returns the one conversation for the unordered
// (sender, recipient) pair and context, creating it on first contact.
// Concurrent creates racing on the same pair are settled by the unique
// pair index: the loser re-queries and adopts the winner's row.
func (s *ConversationService) ResolveOrCreate(senderID, recipientID string, convCtx models.ConversationContext) (*models.Conversation, error) {
	if senderID == recipientID {
		return nil, apperrors.Validation("You cannot message yourself", apperrors.FieldError{
			Field:   "recipientId",
			Message: "recipientId must differ from the sender",
		})
	}

	key := models.PairKeyFor(senderID, recipientID, convCtx)

	var conv models.Conversation
	err := database.DB.Where("pair_key = ?", key).First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Persistence("resolve conversation", err)
	}

	conv = models.Conversation{
		Participant1ID: senderID,
		Participant2ID: recipientID,
		ServiceID:      convCtx.ServiceID,
		BookingID:      convCtx.BookingID,
		PairKey:        key,
	}
	if err := database.DB.Create(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the creation race; the winner's row is authoritative.
			if err := database.DB.Where("pair_key = ?", key).First(&conv).Error; err != nil {
				return nil, apperrors.Persistence("resolve conversation", err)
			}
			return &conv, nil
		}
		return nil, apperrors.Persistence("create conversation", err)
	}
	return &conv, nil
}

// Get loads a conversation with both participant profiles and enforces
// that userID occupies one of its slots.
func (s *ConversationService) Get(conversationID, userID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := database.DB.Preload("Participant1").Preload("Participant2").
		First(&conv, "id = ?", conversationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Conversation")
		}
		return nil, apperrors.Persistence("load conversation", err)
	}
	if !conv.HasParticipant(userID) {
		return nil, apperrors.Forbidden("You are not a participant of this conversation")
	}
	return &conv, nil
}

// IncrementUnread bumps the counter of the slot that excludeUserID does
// not occupy, as a single update statement so concurrent sends never lose
// increments.
func (s *ConversationService) IncrementUnread(tx *gorm.DB, conv *models.Conversation, excludeUserID string) error {
	col := conv.UnreadColumn(conv.OtherParticipantID(excludeUserID))
	return tx.Model(&models.Conversation{}).Where("id = ?", conv.ID).
		UpdateColumn(col, gorm.Expr(col+" + 1")).Error
}

// TouchLastMessage moves the conversation's last-message pointer.
func (s *ConversationService) TouchLastMessage(tx *gorm.DB, conv *models.Conversation, msg *models.Message) error {
	return tx.Model(&models.Conversation{}).Where("id = ?", conv.ID).
		Updates(map[string]interface{}{
			"last_message_id": msg.ID,
			"last_message_at": msg.CreatedAt,
		}).Error
}

// ResetUnread reconciles userID's counter from the unread message rows
// themselves instead of trusting the incrementally maintained value, so
// drift from racing writers self-corrects here. After a full mark-read
// this lands on zero.
func (s *ConversationService) ResetUnread(tx *gorm.DB, conv *models.Conversation, userID string) error {
	unread := tx.Model(&models.Message{}).Select("COUNT(*)").
		Where("conversation_id = ? AND recipient_id = ? AND is_read = ?", conv.ID, userID, false)
	return tx.Model(&models.Conversation{}).Where("id = ?", conv.ID).
		Update(conv.UnreadColumn(userID), unread).Error
}

// ListFor returns the conversations where userID occupies either slot,
// newest activity first, each annotated with the caller's unread count and
// the opposite participant's profile. Threads the caller archived are
// hidden unless explicitly requested.
func (s *ConversationService) ListFor(userID string, f ConversationFilters, page, limit int) ([]models.ConversationView, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	q := database.DB.Model(&models.Conversation{}).
		Where("participant1_id = ? OR participant2_id = ?", userID, userID)
	if f.ServiceID != "" {
		q = q.Where("service_id = ?", f.ServiceID)
	}
	if f.BookingID != "" {
		q = q.Where("booking_id = ?", f.BookingID)
	}
	if f.Archived != nil && *f.Archived {
		q = q.Where("is_archived = ? AND archived_by = ?", true, userID)
	} else {
		// Threads archived by the other side stay visible to this caller.
		q = q.Where("is_archived = ? OR archived_by <> ?", false, userID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Persistence("count conversations", err)
	}

	var convs []models.Conversation
	err := q.Preload("Participant1").Preload("Participant2").
		Order("COALESCE(last_message_at, created_at) DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&convs).Error
	if err != nil {
		return nil, 0, apperrors.Persistence("list conversations", err)
	}

	views := make([]models.ConversationView, 0, len(convs))
	for i := range convs {
		views = append(views, convs[i].ViewFor(userID))
	}
	return views, total, nil
}

// SetArchived flips the caller's archive flag. The flag records who set
// it, so only that participant's view treats the thread as archived and
// only they can clear it.
func (s *ConversationService) SetArchived(conversationID, userID string, archived bool) (*models.Conversation, error) {
	conv, err := s.Get(conversationID, userID)
	if err != nil {
		return nil, err
	}

	if !archived && conv.IsArchived && conv.ArchivedBy != userID {
		// Someone else's archive; nothing to undo for this caller.
		return conv, nil
	}

	archivedBy := ""
	if archived {
		archivedBy = userID
	}
	if err := database.DB.Model(conv).Updates(map[string]interface{}{
		"is_archived": archived,
		"archived_by": archivedBy,
	}).Error; err != nil {
		return nil, apperrors.Persistence("archive conversation", err)
	}
	conv.IsArchived = archived
	conv.ArchivedBy = archivedBy
	return conv, nil
}
