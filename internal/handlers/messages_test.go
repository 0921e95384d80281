package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/database"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/realtime"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/services"
)

// SetupTestDB initializes an in-memory SQLite DB for testing.
func SetupTestDB() {
	db, _ := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	database.DB = db
	database.DB.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
		&models.Notification{},
	)
}

func newTestHandlers() (*MessageHandler, *ConversationHandler, *NotificationHandler) {
	conversations := services.NewConversationService()
	notifications := services.NewNotificationService(realtime.NopGateway{})
	messages := services.NewMessageService(conversations, notifications, realtime.NopGateway{})
	return NewMessageHandler(messages), NewConversationHandler(conversations), NewNotificationHandler(notifications)
}

func createTestUser(id, name string, role models.Role) models.User {
	user := models.User{
		ID:    id,
		Name:  name,
		Email: fmt.Sprintf("%s@example.com", id),
		Role:  role,
	}
	database.DB.Create(&user)
	return user
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	var env envelope
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func jsonRequest(method, target string, payload interface{}) *http.Request {
	var body *bytes.Buffer
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, _ := http.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSendMessageEndpoint(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	mh, _, _ := newTestHandlers()

	createTestUser("h_send_a", "Alice", models.RoleUser)
	createTestUser("h_send_b", "Bob", models.RoleUser)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/messages", map[string]interface{}{
		"recipientId": "h_send_b",
		"content":     "Hello over HTTP",
		"serviceId":   "svc_1",
	})
	c.Set("userId", "h_send_a")

	mh.Send(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	env := parseEnvelope(t, w)
	assert.True(t, env.Success)

	var data struct {
		ConversationID string         `json:"conversationId"`
		Message        models.Message `json:"message"`
	}
	assert.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.ConversationID)
	assert.Equal(t, "Hello over HTTP", data.Message.Content)
	assert.Equal(t, "h_send_a", data.Message.SenderID)
}

func TestSendMessageEndpoint_MissingContent(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	mh, _, _ := newTestHandlers()

	createTestUser("h_sendv_a", "A", models.RoleUser)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/messages", map[string]interface{}{
		"recipientId": "whoever",
	})
	c.Set("userId", "h_sendv_a")

	mh.Send(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := parseEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Contains(t, w.Body.String(), "content is required")
}

func TestListMessagesEndpoint_RequiresConversationID(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	mh, _, _ := newTestHandlers()

	createTestUser("h_list_a", "A", models.RoleUser)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/api/messages", nil)
	c.Set("userId", "h_list_a")

	mh.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "conversationId is required")
}

func TestEditMessageEndpoint_NotSender(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	mh, _, _ := newTestHandlers()

	createTestUser("h_edit_a", "A", models.RoleUser)
	createTestUser("h_edit_b", "B", models.RoleUser)

	sent := sendTestMessage(t, mh, "h_edit_a", "h_edit_b", "original")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest("PUT", "/api/messages/"+sent.ID, map[string]interface{}{
		"content": "hijacked",
	})
	c.Params = gin.Params{{Key: "id", Value: sent.ID}}
	c.Set("userId", "h_edit_b")

	mh.Edit(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMarkReadEndpoint(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	mh, _, _ := newTestHandlers()

	createTestUser("h_read_a", "A", models.RoleUser)
	createTestUser("h_read_b", "B", models.RoleUser)

	sent := sendTestMessage(t, mh, "h_read_a", "h_read_b", "unread until now")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest("PUT", "/api/messages/mark-read", map[string]interface{}{
		"conversationId": sent.ConversationID,
	})
	c.Set("userId", "h_read_b")

	mh.MarkRead(c)

	assert.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)

	var data struct {
		MarkedRead int64 `json:"markedRead"`
	}
	assert.NoError(t, json.Unmarshal(env.Data, &data))
	assert.EqualValues(t, 1, data.MarkedRead)
}

// sendTestMessage drives the send endpoint and returns the created message.
func sendTestMessage(t *testing.T, mh *MessageHandler, senderID, recipientID, content string) models.Message {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest("POST", "/api/messages", map[string]interface{}{
		"recipientId": recipientID,
		"content":     content,
	})
	c.Set("userId", senderID)

	mh.Send(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	env := parseEnvelope(t, w)
	var data struct {
		Message models.Message `json:"message"`
	}
	assert.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Message
}

func TestConversationsEndpoint(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	mh, ch, _ := newTestHandlers()

	createTestUser("h_conv_a", "Asha", models.RoleUser)
	createTestUser("h_conv_b", "Bir", models.RoleUser)

	sent := sendTestMessage(t, mh, "h_conv_a", "h_conv_b", "namaste")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/api/messages/conversations?page=1&limit=20", nil)
	c.Set("userId", "h_conv_b")

	ch.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	env := parseEnvelope(t, w)

	var data struct {
		Conversations []models.ConversationView `json:"conversations"`
		Pagination    struct {
			Page       int   `json:"page"`
			Limit      int   `json:"limit"`
			Total      int64 `json:"total"`
			TotalPages int   `json:"totalPages"`
		} `json:"pagination"`
	}
	assert.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data.Conversations, 1)
	assert.Equal(t, sent.ConversationID, data.Conversations[0].ID)
	assert.Equal(t, 1, data.Conversations[0].UnreadCount)
	assert.Equal(t, "Asha", data.Conversations[0].OtherParticipant.Name)
	assert.EqualValues(t, 1, data.Pagination.Total)
	assert.Equal(t, 1, data.Pagination.TotalPages)
}

func TestArchiveConversationEndpoint(t *testing.T) {
	SetupTestDB()
	gin.SetMode(gin.TestMode)
	mh, ch, _ := newTestHandlers()

	createTestUser("h_arch_a", "A", models.RoleUser)
	createTestUser("h_arch_b", "B", models.RoleUser)

	sent := sendTestMessage(t, mh, "h_arch_a", "h_arch_b", "to be archived")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest("PUT", "/api/messages/conversations/"+sent.ConversationID+"/archive", map[string]interface{}{
		"archive": true,
	})
	c.Params = gin.Params{{Key: "id", Value: sent.ConversationID}}
	c.Set("userId", "h_arch_a")

	ch.Archive(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isArchived":true`)

	// Omitting the flag entirely is a binding error, not a silent default.
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = jsonRequest("PUT", "/api/messages/conversations/"+sent.ConversationID+"/archive", map[string]interface{}{})
	c.Params = gin.Params{{Key: "id", Value: sent.ConversationID}}
	c.Set("userId", "h_arch_a")

	ch.Archive(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
