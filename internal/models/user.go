package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/Rupe88/kaji-service-backend-sub004/pkg/utils"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User rows are provisioned by the platform's auth service. This subsystem
// reads profiles to annotate conversations and owns only the notification
// preference columns.
type User struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name      string `json:"name"`
	Email     string `gorm:"uniqueIndex" json:"email"`
	Image     string `json:"image"`
	Phone     string `json:"-"`
	Role      Role   `gorm:"type:text;default:'USER'" json:"role"`
	IsBlocked bool   `gorm:"default:false" json:"-"`

	// Delivery preferences, every switch enabled by default. They gate only
	// the secondary email channel: the notification row and the realtime
	// push are never suppressed.
	EmailNotifications bool `gorm:"default:true" json:"-"`
	PushNotifications  bool `gorm:"default:true" json:"-"`
	JobAlerts          bool `gorm:"default:true" json:"-"`
	ApplicationUpdates bool `gorm:"default:true" json:"-"`
	KYCUpdates         bool `gorm:"column:kyc_updates;default:true" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = utils.GenerateID()
	}
	return
}

// PublicProfile is the compact identity shape embedded in conversation
// listings as otherParticipant.
type PublicProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
	Role  Role   `json:"role"`
}

func (u *User) PublicProfile() PublicProfile {
	return PublicProfile{ID: u.ID, Name: u.Name, Image: u.Image, Role: u.Role}
}

// NotificationPreferences is the preference surface exposed over the API.
type NotificationPreferences struct {
	EmailNotifications bool `json:"emailNotifications"`
	PushNotifications  bool `json:"pushNotifications"`
	JobAlerts          bool `json:"jobAlerts"`
	ApplicationUpdates bool `json:"applicationUpdates"`
	KYCUpdates         bool `json:"kycUpdates"`
}

func (u *User) Preferences() NotificationPreferences {
	return NotificationPreferences{
		EmailNotifications: u.EmailNotifications,
		PushNotifications:  u.PushNotifications,
		JobAlerts:          u.JobAlerts,
		ApplicationUpdates: u.ApplicationUpdates,
		KYCUpdates:         u.KYCUpdates,
	}
}

// AllowsEmailFor reports whether the user's preferences permit queueing the
// email channel for a notification category. The master switch applies to
// every category; the per-category switches narrow it further.
func (u *User) AllowsEmailFor(category string) bool {
	if !u.EmailNotifications {
		return false
	}
	switch category {
	case CategoryApplication:
		return u.ApplicationUpdates
	case CategoryKYC:
		return u.KYCUpdates
	case CategoryJob:
		return u.JobAlerts
	default:
		return true
	}
}
