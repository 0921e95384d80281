package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Rupe88/kaji-service-backend-sub004/pkg/utils"
)

type NotificationType string

const (
	NotificationTypeNewMessage        NotificationType = "NEW_MESSAGE"
	NotificationTypeApplicationStatus NotificationType = "APPLICATION_STATUS"
	NotificationTypeKYCStatus         NotificationType = "KYC_STATUS"
	NotificationTypeJobVerification   NotificationType = "JOB_VERIFICATION"
	NotificationTypeSystem            NotificationType = "SYSTEM"
	NotificationTypeAnnouncement      NotificationType = "ANNOUNCEMENT"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeNewMessage, NotificationTypeApplicationStatus,
		NotificationTypeKYCStatus, NotificationTypeJobVerification,
		NotificationTypeSystem, NotificationTypeAnnouncement:
		return true
	}
	return false
}

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "LOW"
	PriorityNormal NotificationPriority = "NORMAL"
	PriorityHigh   NotificationPriority = "HIGH"
	PriorityUrgent NotificationPriority = "URGENT"
)

func (p NotificationPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities for priority-first sorting; higher sorts first.
func (p NotificationPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	default:
		return 1
	}
}

// Notification categories. They double as the selector for which preference
// switch gates the email channel.
const (
	CategoryMessage     = "message"
	CategoryApplication = "application"
	CategoryKYC         = "kyc"
	CategoryJob         = "job"
	CategorySystem      = "system"
)

type Notification struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	UserID   string               `gorm:"type:text;not null;index:idx_notifications_user_read,priority:1" json:"userId"`
	Type     NotificationType     `gorm:"type:text;not null" json:"type"`
	Title    string               `gorm:"type:text;not null" json:"title"`
	Message  string               `gorm:"type:text" json:"message"`
	Data     datatypes.JSON       `json:"data,omitempty"`
	Priority NotificationPriority `gorm:"type:text;not null;default:'NORMAL'" json:"priority"`
	Category string               `gorm:"type:text;index" json:"category,omitempty"`

	ActionURL   string `gorm:"column:action_url;type:text" json:"actionUrl,omitempty"`
	ActionLabel string `gorm:"type:text" json:"actionLabel,omitempty"`

	IsRead bool       `gorm:"default:false;index:idx_notifications_user_read,priority:2" json:"isRead"`
	ReadAt *time.Time `json:"readAt,omitempty"`

	// EmailQueued records the preference-gated decision to hand the row to
	// the email collaborator. The decision is made once, at creation.
	EmailQueued bool `gorm:"default:false" json:"emailQueued"`

	// Expired rows drop out of listings immediately and are purged by the
	// background sweep.
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = utils.GenerateID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return
}
