package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/database"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/realtime"
	apperrors "github.com/Rupe88/kaji-service-backend-sub004/pkg/errors"
)

func TestSendMessage_CreatesThreadAndNotifies(t *testing.T) {
	SetupTestDB()
	_, messages, _, gw := newTestServices()

	createTestUser("send_alice", "Alice")
	createTestUser("send_bob", "Bob")

	msg, err := messages.Send("send_alice", SendMessageInput{
		RecipientID: "send_bob",
		Content:     "Hello Bob!",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Hello Bob!", msg.Content)
	assert.Equal(t, models.MessageTypeText, msg.Type)
	assert.NotEmpty(t, msg.ConversationID)

	var conv models.Conversation
	assert.NoError(t, database.DB.First(&conv, "id = ?", msg.ConversationID).Error)
	assert.Equal(t, 1, conv.UnreadFor("send_bob"))
	assert.Equal(t, 0, conv.UnreadFor("send_alice"))
	assert.NotNil(t, conv.LastMessageID)
	assert.Equal(t, msg.ID, *conv.LastMessageID)
	assert.NotNil(t, conv.LastMessageAt)

	// Push goes to the recipient only: the message event plus the
	// companion notification.
	recipientEvents := gw.eventsFor("send_bob")
	assert.Len(t, recipientEvents, 2)
	assert.Equal(t, realtime.EventNewMessage, recipientEvents[0].Event)
	assert.Equal(t, realtime.EventNotification, recipientEvents[1].Event)
	assert.Empty(t, gw.eventsFor("send_alice"))

	var n models.Notification
	assert.NoError(t, database.DB.First(&n, "user_id = ?", "send_bob").Error)
	assert.Equal(t, models.NotificationTypeNewMessage, n.Type)
	assert.Equal(t, "New message from Alice", n.Title)
	assert.Equal(t, "Hello Bob!", n.Message)
	assert.Equal(t, models.CategoryMessage, n.Category)
}

func TestSendMessage_Validation(t *testing.T) {
	SetupTestDB()
	_, messages, _, _ := newTestServices()

	createTestUser("sendv_a", "A")
	createTestUser("sendv_b", "B")

	_, err := messages.Send("sendv_a", SendMessageInput{RecipientID: "sendv_b", Content: "   "})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	long := strings.Repeat("x", models.MaxContentLength+1)
	_, err = messages.Send("sendv_a", SendMessageInput{RecipientID: "sendv_b", Content: long})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	_, err = messages.Send("sendv_a", SendMessageInput{RecipientID: "sendv_b", Content: "hi", Type: "VOICE"})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	_, err = messages.Send("sendv_a", SendMessageInput{RecipientID: "sendv_a", Content: "hi"})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	_, err = messages.Send("sendv_a", SendMessageInput{RecipientID: "missing_user", Content: "hi"})
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	tooMany := make([]models.Attachment, models.MaxAttachments+1)
	for i := range tooMany {
		tooMany[i] = models.Attachment{URL: "https://cdn.example.com/f", Type: "image"}
	}
	_, err = messages.Send("sendv_a", SendMessageInput{RecipientID: "sendv_b", Content: "hi", Attachments: tooMany})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	_, err = messages.Send("sendv_a", SendMessageInput{
		RecipientID: "sendv_b",
		Content:     "hi",
		Attachments: []models.Attachment{{URL: "http://cdn.example.com/f", Type: "image"}},
	})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestSendMessage_UnreadAccumulatesPerSide(t *testing.T) {
	SetupTestDB()
	_, messages, _, _ := newTestServices()

	createTestUser("acc_a", "A")
	createTestUser("acc_b", "B")

	first, err := messages.Send("acc_a", SendMessageInput{RecipientID: "acc_b", Content: "one"})
	assert.NoError(t, err)
	_, err = messages.Send("acc_a", SendMessageInput{RecipientID: "acc_b", Content: "two"})
	assert.NoError(t, err)
	reply, err := messages.Send("acc_b", SendMessageInput{RecipientID: "acc_a", Content: "back at you"})
	assert.NoError(t, err)
	assert.Equal(t, first.ConversationID, reply.ConversationID)

	var conv models.Conversation
	assert.NoError(t, database.DB.First(&conv, "id = ?", first.ConversationID).Error)
	assert.Equal(t, 2, conv.UnreadFor("acc_b"))
	assert.Equal(t, 1, conv.UnreadFor("acc_a"))
	assert.Equal(t, reply.ID, *conv.LastMessageID)
}

func TestMarkRead_FullConversation(t *testing.T) {
	SetupTestDB()
	_, messages, _, gw := newTestServices()

	createTestUser("read_a", "A")
	createTestUser("read_b", "B")

	msg, err := messages.Send("read_a", SendMessageInput{RecipientID: "read_b", Content: "one"})
	assert.NoError(t, err)
	_, err = messages.Send("read_a", SendMessageInput{RecipientID: "read_b", Content: "two"})
	assert.NoError(t, err)

	marked, err := messages.MarkRead(msg.ConversationID, "read_b", nil)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, marked)

	var conv models.Conversation
	database.DB.First(&conv, "id = ?", msg.ConversationID)
	assert.Equal(t, 0, conv.UnreadFor("read_b"))

	var unreadRows int64
	database.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND recipient_id = ? AND is_read = ?", msg.ConversationID, "read_b", false).
		Count(&unreadRows)
	assert.EqualValues(t, 0, unreadRows)

	// The sender hears about it once.
	events := gw.eventsFor("read_a")
	assert.Len(t, events, 1)
	assert.Equal(t, realtime.EventMessagesRead, events[0].Event)

	// Marking again flips nothing and emits nothing further.
	marked, err = messages.MarkRead(msg.ConversationID, "read_b", nil)
	assert.NoError(t, err)
	assert.EqualValues(t, 0, marked)
	assert.Len(t, gw.eventsFor("read_a"), 1)
}

func TestMarkRead_SubsetReconcilesCounter(t *testing.T) {
	SetupTestDB()
	_, messages, _, _ := newTestServices()

	createTestUser("subset_a", "A")
	createTestUser("subset_b", "B")

	m1, err := messages.Send("subset_a", SendMessageInput{RecipientID: "subset_b", Content: "one"})
	assert.NoError(t, err)
	messages.Send("subset_a", SendMessageInput{RecipientID: "subset_b", Content: "two"})
	messages.Send("subset_a", SendMessageInput{RecipientID: "subset_b", Content: "three"})

	marked, err := messages.MarkRead(m1.ConversationID, "subset_b", []string{m1.ID})
	assert.NoError(t, err)
	assert.EqualValues(t, 1, marked)

	// The counter is reconciled from the rows, not decremented blindly.
	var conv models.Conversation
	database.DB.First(&conv, "id = ?", m1.ConversationID)
	assert.Equal(t, 2, conv.UnreadFor("subset_b"))
}

func TestMarkRead_NonParticipantRejected(t *testing.T) {
	SetupTestDB()
	_, messages, _, _ := newTestServices()

	createTestUser("mrnp_a", "A")
	createTestUser("mrnp_b", "B")
	createTestUser("mrnp_c", "C")

	msg, err := messages.Send("mrnp_a", SendMessageInput{RecipientID: "mrnp_b", Content: "private"})
	assert.NoError(t, err)

	_, err = messages.MarkRead(msg.ConversationID, "mrnp_c", nil)
	assert.True(t, apperrors.Is(err, apperrors.CodeAuthorization))
}

func TestEditMessage(t *testing.T) {
	SetupTestDB()
	_, messages, _, gw := newTestServices()

	createTestUser("edit_a", "A")
	createTestUser("edit_b", "B")

	msg, err := messages.Send("edit_a", SendMessageInput{RecipientID: "edit_b", Content: "original"})
	assert.NoError(t, err)

	edited, err := messages.Edit(msg.ID, "edit_a", "first correction")
	assert.NoError(t, err)
	assert.Equal(t, "first correction", edited.Content)
	assert.True(t, edited.IsEdited)
	assert.NotNil(t, edited.EditedAt)

	// Only the latest content survives; there is no edit history.
	edited, err = messages.Edit(msg.ID, "edit_a", "second correction")
	assert.NoError(t, err)
	assert.Equal(t, "second correction", edited.Content)

	var stored models.Message
	database.DB.First(&stored, "id = ?", msg.ID)
	assert.Equal(t, "second correction", stored.Content)

	// Both participants get the update event, once per edit.
	assert.Equal(t, 2, gw.count("edit_a", realtime.EventMessageUpdated))
	assert.Equal(t, 2, gw.count("edit_b", realtime.EventMessageUpdated))

	_, err = messages.Edit(msg.ID, "edit_b", "not mine")
	assert.True(t, apperrors.Is(err, apperrors.CodeAuthorization))

	_, err = messages.Edit("no-such-message", "edit_a", "x")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestSoftDeleteMessage(t *testing.T) {
	SetupTestDB()
	_, messages, _, gw := newTestServices()

	createTestUser("del_a", "A")
	createTestUser("del_b", "B")

	msg, err := messages.Send("del_a", SendMessageInput{
		RecipientID: "del_b",
		Content:     "delete me",
		Attachments: []models.Attachment{{URL: "https://cdn.example.com/file.pdf", Type: "file", Name: "file.pdf"}},
	})
	assert.NoError(t, err)

	_, err = messages.SoftDelete(msg.ID, "del_b")
	assert.True(t, apperrors.Is(err, apperrors.CodeAuthorization))

	deleted, err := messages.SoftDelete(msg.ID, "del_a")
	assert.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	assert.Equal(t, models.DeletedContentPlaceholder, deleted.Content)
	assert.Empty(t, deleted.AttachmentList())

	// The row stays enumerable in history as a placeholder.
	history, err := messages.ListForConversation(msg.ConversationID, "del_b", nil, 50)
	assert.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, models.DeletedContentPlaceholder, history[0].Content)
	assert.True(t, history[0].IsDeleted)

	// Editing a deleted message is rejected.
	_, err = messages.Edit(msg.ID, "del_a", "resurrect")
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	// Deleting again is a quiet no-op.
	again, err := messages.SoftDelete(msg.ID, "del_a")
	assert.NoError(t, err)
	assert.True(t, again.IsDeleted)

	assert.Equal(t, 1, gw.count("del_b", realtime.EventMessageDeleted))
}

func TestListMessages_WindowAndBefore(t *testing.T) {
	SetupTestDB()
	conversations, messages, _, _ := newTestServices()

	createTestUser("page_a", "A")
	createTestUser("page_b", "B")

	conv, err := conversations.ResolveOrCreate("page_a", "page_b", models.ConversationContext{})
	assert.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		m := models.Message{
			ConversationID: conv.ID,
			SenderID:       "page_a",
			RecipientID:    "page_b",
			Content:        fmt.Sprintf("m%d", i),
			Type:           models.MessageTypeText,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		assert.NoError(t, database.DB.Create(&m).Error)
	}

	// The newest window, returned oldest first within it.
	window, err := messages.ListForConversation(conv.ID, "page_a", nil, 3)
	assert.NoError(t, err)
	assert.Len(t, window, 3)
	assert.Equal(t, "m2", window[0].Content)
	assert.Equal(t, "m4", window[2].Content)

	// Page further back using the oldest timestamp of the window.
	before := window[0].CreatedAt
	older, err := messages.ListForConversation(conv.ID, "page_a", &before, 3)
	assert.NoError(t, err)
	assert.Len(t, older, 2)
	assert.Equal(t, "m0", older[0].Content)
	assert.Equal(t, "m1", older[1].Content)

	// Outsiders cannot read the thread.
	createTestUser("page_c", "C")
	_, err = messages.ListForConversation(conv.ID, "page_c", nil, 50)
	assert.True(t, apperrors.Is(err, apperrors.CodeAuthorization))
}
