package services

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/database"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/realtime"
	apperrors "github.com/Rupe88/kaji-service-backend-sub004/pkg/errors"
)

// NotificationService owns the typed notification stream. It makes the
// preference-gated email decision once at creation; the row itself and the
// realtime push ignore preferences entirely.
type NotificationService struct {
	gateway realtime.Gateway
}

func NewNotificationService(gateway realtime.Gateway) *NotificationService {
	return &NotificationService{gateway: gateway}
}

// NotificationOptions are the optional attributes of a new notification.
type NotificationOptions struct {
	Priority    models.NotificationPriority
	Category    string
	Data        map[string]interface{}
	ActionURL   string
	ActionLabel string
	ExpiresAt   *time.Time
}

// NotificationFilters narrow a listing. SortBy is newest (default), oldest
// or priority.
type NotificationFilters struct {
	IsRead   *bool
	Type     string
	Category string
	Priority string
	SortBy   string
}

// priorityOrder ranks URGENT over HIGH over NORMAL over LOW, newest first
// within a rank.
const priorityOrder = "CASE priority WHEN 'URGENT' THEN 4 WHEN 'HIGH' THEN 3 WHEN 'NORMAL' THEN 2 ELSE 1 END DESC, created_at DESC"

// Create persists a notification for userID and fans it out to their room.
func (s *NotificationService) Create(userID string, ntype models.NotificationType, title, message string, opts NotificationOptions) (*models.Notification, error) {
	priority := opts.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	var fields []apperrors.FieldError
	if !ntype.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "type", Message: "unknown notification type"})
	}
	if strings.TrimSpace(title) == "" {
		fields = append(fields, apperrors.FieldError{Field: "title", Message: "title is required"})
	}
	if strings.TrimSpace(message) == "" {
		fields = append(fields, apperrors.FieldError{Field: "message", Message: "message is required"})
	}
	if !priority.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "priority", Message: "priority must be LOW, NORMAL, HIGH or URGENT"})
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation("Invalid notification", fields...)
	}

	var owner models.User
	if err := database.DB.First(&owner, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Persistence("load notification owner", err)
	}

	var data datatypes.JSON
	if opts.Data != nil {
		raw, err := json.Marshal(opts.Data)
		if err != nil {
			return nil, apperrors.Validation("Invalid notification data")
		}
		data = raw
	}

	n := models.Notification{
		UserID:      userID,
		Type:        ntype,
		Title:       title,
		Message:     message,
		Data:        data,
		Priority:    priority,
		Category:    opts.Category,
		ActionURL:   opts.ActionURL,
		ActionLabel: opts.ActionLabel,
		ExpiresAt:   opts.ExpiresAt,
		// LOW priority never reaches the inbox; everything else defers to
		// the owner's preference switches.
		EmailQueued: priority != models.PriorityLow && owner.AllowsEmailFor(opts.Category),
	}
	if err := database.DB.Create(&n).Error; err != nil {
		return nil, apperrors.Persistence("create notification", err)
	}

	// Push after the durable write; a failed push never unwinds it.
	s.gateway.Emit(userID, realtime.EventNotification, &n)

	return &n, nil
}

// NotifyNewMessage writes the companion notification for a freshly
// persisted message.
func (s *NotificationService) NotifyNewMessage(msg *models.Message) error {
	var sender models.User
	if err := database.DB.Select("id", "name").First(&sender, "id = ?", msg.SenderID).Error; err != nil {
		return err
	}

	preview := msg.Content
	if msg.Type != models.MessageTypeText && msg.Type != models.MessageTypeSystem {
		preview = "Sent an attachment"
	}
	if runes := []rune(preview); len(runes) > 120 {
		preview = string(runes[:117]) + "..."
	}

	_, err := s.Create(msg.RecipientID, models.NotificationTypeNewMessage, "New message from "+sender.Name, preview, NotificationOptions{
		Category: models.CategoryMessage,
		Data: map[string]interface{}{
			"conversationId": msg.ConversationID,
			"messageId":      msg.ID,
			"senderId":       msg.SenderID,
		},
	})
	return err
}

// List returns a page of the user's notifications plus the total and a
// fresh unread count. Expired rows never appear even before the purge
// sweep removes them.
func (s *NotificationService) List(userID string, f NotificationFilters, page, limit int) ([]models.Notification, int64, int64, error) {
	order := "created_at DESC"
	switch f.SortBy {
	case "", "newest":
	case "oldest":
		order = "created_at ASC"
	case "priority":
		order = priorityOrder
	default:
		return nil, 0, 0, apperrors.Validation("Invalid sort", apperrors.FieldError{
			Field:   "sortBy",
			Message: "sortBy must be newest, oldest or priority",
		})
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	q := database.DB.Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Where("expires_at IS NULL OR expires_at > ?", time.Now())
	if f.IsRead != nil {
		q = q.Where("is_read = ?", *f.IsRead)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, 0, apperrors.Persistence("count notifications", err)
	}

	var items []models.Notification
	if err := q.Order(order).Offset((page - 1) * limit).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, 0, apperrors.Persistence("list notifications", err)
	}

	unread, err := s.UnreadCount(userID)
	if err != nil {
		return nil, 0, 0, err
	}

	return items, total, unread, nil
}

// UnreadCount is always computed fresh from the rows; nothing caches it.
func (s *NotificationService) UnreadCount(userID string) (int64, error) {
	var count int64
	err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Persistence("count unread notifications", err)
	}
	return count, nil
}

// Get loads one notification and enforces ownership.
func (s *NotificationService) Get(id, userID string) (*models.Notification, error) {
	var n models.Notification
	if err := database.DB.First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Notification")
		}
		return nil, apperrors.Persistence("load notification", err)
	}
	if n.UserID != userID {
		return nil, apperrors.Forbidden("You cannot access this notification")
	}
	return &n, nil
}

// MarkRead stamps the given notifications read. Ids that are missing,
// someone else's or already read are skipped silently; the result is how
// many rows actually flipped.
func (s *NotificationService) MarkRead(userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperrors.Validation("No notification ids given", apperrors.FieldError{
			Field:   "notificationIds",
			Message: "notificationIds must not be empty",
		})
	}
	res := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND id IN ? AND is_read = ?", userID, ids, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()})
	if res.Error != nil {
		return 0, apperrors.Persistence("mark notifications read", res.Error)
	}
	return res.RowsAffected, nil
}

// MarkAllRead flips every unread notification the user owns.
func (s *NotificationService) MarkAllRead(userID string) (int64, error) {
	res := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()})
	if res.Error != nil {
		return 0, apperrors.Persistence("mark notifications read", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes a notification permanently. Unlike messages there is no
// soft delete here.
func (s *NotificationService) Delete(id, requesterID string) error {
	n, err := s.Get(id, requesterID)
	if err != nil {
		return err
	}
	if err := database.DB.Delete(n).Error; err != nil {
		return apperrors.Persistence("delete notification", err)
	}
	return nil
}

// DeleteAll clears the caller's entire stream and reports how many rows
// went away.
func (s *NotificationService) DeleteAll(requesterID string) (int64, error) {
	res := database.DB.Where("user_id = ?", requesterID).Delete(&models.Notification{})
	if res.Error != nil {
		return 0, apperrors.Persistence("delete notifications", res.Error)
	}
	return res.RowsAffected, nil
}

// Preferences returns the user's delivery switches.
func (s *NotificationService) Preferences(userID string) (*models.NotificationPreferences, error) {
	var u models.User
	if err := database.DB.First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Persistence("load preferences", err)
	}
	p := u.Preferences()
	return &p, nil
}

// PreferencePatch applies only the switches the caller actually sent.
type PreferencePatch struct {
	EmailNotifications *bool `json:"emailNotifications"`
	PushNotifications  *bool `json:"pushNotifications"`
	JobAlerts          *bool `json:"jobAlerts"`
	ApplicationUpdates *bool `json:"applicationUpdates"`
	KYCUpdates         *bool `json:"kycUpdates"`
}

// UpdatePreferences patches the supplied switches and returns the full
// resulting set. An empty patch is a no-op that just echoes the current
// state.
func (s *NotificationService) UpdatePreferences(userID string, patch PreferencePatch) (*models.NotificationPreferences, error) {
	var u models.User
	if err := database.DB.First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User")
		}
		return nil, apperrors.Persistence("load preferences", err)
	}

	updates := map[string]interface{}{}
	if patch.EmailNotifications != nil {
		updates["email_notifications"] = *patch.EmailNotifications
	}
	if patch.PushNotifications != nil {
		updates["push_notifications"] = *patch.PushNotifications
	}
	if patch.JobAlerts != nil {
		updates["job_alerts"] = *patch.JobAlerts
	}
	if patch.ApplicationUpdates != nil {
		updates["application_updates"] = *patch.ApplicationUpdates
	}
	if patch.KYCUpdates != nil {
		updates["kyc_updates"] = *patch.KYCUpdates
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&u).Updates(updates).Error; err != nil {
			return nil, apperrors.Persistence("update preferences", err)
		}
		if err := database.DB.First(&u, "id = ?", userID).Error; err != nil {
			return nil, apperrors.Persistence("load preferences", err)
		}
	}

	p := u.Preferences()
	return &p, nil
}

// PurgeExpired hard-deletes rows whose expiry has passed. A ticker in main
// runs it periodically.
func (s *NotificationService) PurgeExpired() (int64, error) {
	res := database.DB.Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now()).
		Delete(&models.Notification{})
	if res.Error != nil {
		return 0, apperrors.Persistence("purge expired notifications", res.Error)
	}
	return res.RowsAffected, nil
}
