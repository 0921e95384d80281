package models

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Rupe88/kaji-service-backend-sub004/pkg/utils"
)

// ConversationContext scopes a thread to the piece of marketplace business
// it belongs to, so the same pair of users can hold separate conversations
// per service or booking.
type ConversationContext struct {
	ServiceID string `json:"serviceId,omitempty"`
	BookingID string `json:"bookingId,omitempty"`
}

// Conversation is the single addressable thread between two users for a
// given context. Which user lands in slot 1 is an accident of creation
// order, so business logic must go through the user-id-keyed accessors
// below instead of reading the slots directly.
type Conversation struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Participant1ID string `gorm:"column:participant1_id;type:text;not null;index" json:"participant1Id"`
	Participant2ID string `gorm:"column:participant2_id;type:text;not null;index" json:"participant2Id"`

	ServiceID string `gorm:"type:text;default:''" json:"serviceId,omitempty"`
	BookingID string `gorm:"type:text;default:''" json:"bookingId,omitempty"`

	// PairKey collapses the unordered pair plus context into one string so a
	// unique index can enforce at-most-one thread per (pair, context) and a
	// creation race surfaces as a duplicate-key error.
	PairKey string `gorm:"uniqueIndex;type:text;not null" json:"-"`

	Participant1Unread int `gorm:"column:participant1_unread;default:0" json:"-"`
	Participant2Unread int `gorm:"column:participant2_unread;default:0" json:"-"`

	LastMessageID *string    `gorm:"type:text" json:"lastMessageId,omitempty"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`

	// Archiving belongs to whoever set it; the other participant's view is
	// unaffected. Conversations are never deleted.
	IsArchived bool   `gorm:"default:false" json:"isArchived"`
	ArchivedBy string `gorm:"type:text;default:''" json:"archivedBy,omitempty"`

	Participant1 User `gorm:"foreignKey:Participant1ID" json:"-"`
	Participant2 User `gorm:"foreignKey:Participant2ID" json:"-"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = utils.GenerateID()
	}
	if c.PairKey == "" {
		c.PairKey = PairKeyFor(c.Participant1ID, c.Participant2ID, c.Context())
	}
	return
}

// PairKeyFor builds the normalized identity of a conversation: both user
// ids in lexical order, then the context ids.
func PairKeyFor(userA, userB string, ctx ConversationContext) string {
	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}
	return strings.Join([]string{lo, hi, ctx.ServiceID, ctx.BookingID}, ":")
}

func (c *Conversation) Context() ConversationContext {
	return ConversationContext{ServiceID: c.ServiceID, BookingID: c.BookingID}
}

func (c *Conversation) HasParticipant(userID string) bool {
	return userID == c.Participant1ID || userID == c.Participant2ID
}

// OtherParticipantID returns the id of the slot userID does not occupy.
func (c *Conversation) OtherParticipantID(userID string) string {
	if userID == c.Participant1ID {
		return c.Participant2ID
	}
	return c.Participant1ID
}

// Other returns the loaded profile of the opposite participant. Both
// relations must have been preloaded.
func (c *Conversation) Other(userID string) *User {
	if userID == c.Participant1ID {
		return &c.Participant2
	}
	return &c.Participant1
}

func (c *Conversation) UnreadFor(userID string) int {
	if userID == c.Participant1ID {
		return c.Participant1Unread
	}
	return c.Participant2Unread
}

// UnreadColumn names the physical counter column backing userID's side.
func (c *Conversation) UnreadColumn(userID string) string {
	if userID == c.Participant1ID {
		return "participant1_unread"
	}
	return "participant2_unread"
}

func (c *Conversation) ArchivedFor(userID string) bool {
	return c.IsArchived && c.ArchivedBy == userID
}

// ConversationView is a conversation annotated for one participant's inbox.
type ConversationView struct {
	Conversation
	UnreadCount      int           `json:"unreadCount"`
	OtherParticipant PublicProfile `json:"otherParticipant"`
}

func (c *Conversation) ViewFor(userID string) ConversationView {
	return ConversationView{
		Conversation:     *c,
		UnreadCount:      c.UnreadFor(userID),
		OtherParticipant: c.Other(userID).PublicProfile(),
	}
}
