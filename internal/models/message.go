package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Rupe88/kaji-service-backend-sub004/pkg/utils"
)

type MessageType string

const (
	MessageTypeText   MessageType = "TEXT"
	MessageTypeImage  MessageType = "IMAGE"
	MessageTypeFile   MessageType = "FILE"
	MessageTypeSystem MessageType = "SYSTEM"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeSystem:
		return true
	}
	return false
}

const (
	MaxContentLength = 5000
	MaxAttachments   = 10
)

// DeletedContentPlaceholder permanently replaces the body of a deleted
// message. The row itself stays in history.
const DeletedContentPlaceholder = "This message has been deleted"

// Attachment is an opaque reference to an already-uploaded file; the bytes
// never pass through this service.
type Attachment struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Size int64  `json:"size,omitempty"`
}

type Message struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_messages_conversation_created,priority:2" json:"createdAt"`
	UpdatedAt time.Time `json:"-"`

	ConversationID string `gorm:"type:text;not null;index:idx_messages_conversation_created,priority:1" json:"conversationId"`
	SenderID       string `gorm:"type:text;not null;index" json:"senderId"`
	RecipientID    string `gorm:"type:text;not null;index" json:"recipientId"`

	Content string      `gorm:"type:text;not null" json:"content"`
	Type    MessageType `gorm:"type:text;not null;default:'TEXT'" json:"messageType"`

	Attachments datatypes.JSON `json:"attachments,omitempty"`

	IsEdited bool       `gorm:"default:false" json:"isEdited"`
	EditedAt *time.Time `json:"editedAt,omitempty"`

	// Read state flips false to true exactly once; the bulk mark-read update
	// guards on is_read = false so re-marking never restamps readAt.
	IsRead bool       `gorm:"default:false" json:"isRead"`
	ReadAt *time.Time `json:"readAt,omitempty"`

	// Deletion is an explicit flag pair, not gorm.DeletedAt: deleted rows
	// must stay enumerable in history as placeholders.
	IsDeleted bool       `gorm:"default:false" json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = utils.GenerateID()
	}
	return
}

// MarshalAttachments encodes a list for the JSON column. An empty list
// stores NULL so the column stays clean.
func MarshalAttachments(list []Attachment) (datatypes.JSON, error) {
	if len(list) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// AttachmentList decodes the stored attachment column.
func (m *Message) AttachmentList() []Attachment {
	if len(m.Attachments) == 0 {
		return nil
	}
	var out []Attachment
	if err := json.Unmarshal(m.Attachments, &out); err != nil {
		return nil
	}
	return out
}
