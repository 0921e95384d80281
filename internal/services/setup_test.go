package services

import (
	"fmt"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/database"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/realtime"
)

// SetupTestDB points the global database handle at an in-memory SQLite
// instance. The shared cache keeps a single database alive for the whole
// test binary, so tests use unique ids instead of relying on isolation.
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

type fakeEvent struct {
	UserID  string
	Event   string
	Payload interface{}
}

// fakeGateway records emissions so tests can assert on fan-out without a
// live Socket.IO server.
type fakeGateway struct {
	mu     sync.Mutex
	events []fakeEvent
}

func (g *fakeGateway) Join(userID, connectionID string) {}

func (g *fakeGateway) Leave(userID, connectionID string) {}

func (g *fakeGateway) Emit(userID, event string, payload interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, fakeEvent{UserID: userID, Event: event, Payload: payload})
}

var _ realtime.Gateway = (*fakeGateway)(nil)

func (g *fakeGateway) eventsFor(userID string) []fakeEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []fakeEvent
	for _, e := range g.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// count reports how many events of one kind were delivered to userID.
func (g *fakeGateway) count(userID, event string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, e := range g.events {
		if e.UserID == userID && e.Event == event {
			n++
		}
	}
	return n
}

func newTestServices() (*ConversationService, *MessageService, *NotificationService, *fakeGateway) {
	gw := &fakeGateway{}
	conversations := NewConversationService()
	notifications := NewNotificationService(gw)
	messages := NewMessageService(conversations, notifications, gw)
	return conversations, messages, notifications, gw
}

func createTestUser(id, name string) models.User {
	user := models.User{
		ID:    id,
		Name:  name,
		Email: fmt.Sprintf("%s@example.com", id),
	}
	database.DB.Create(&user)
	return user
}
