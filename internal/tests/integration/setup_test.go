package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/config"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/database"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/handlers"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/realtime"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/routes"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/services"
	"github.com/Rupe88/kaji-service-backend-sub004/pkg/utils"
)

// setupTestDB points the global connection at an in-memory database. The
// shared cache keeps it alive for the whole binary, so tests use unique
// ids rather than expecting a clean slate.
func setupTestDB(t *testing.T) *gorm.DB {
	config.AppConfig = &config.Config{
		JWTSecret: "integration_test_secret",
		Env:       "test",
	}

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("Failed to migrate test DB: %v", err)
	}

	database.DB = db
	return db
}

// setupRouter wires the full HTTP surface the way cmd/server does, minus
// the realtime transport.
func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	gateway := realtime.NopGateway{}
	conversationService := services.NewConversationService()
	notificationService := services.NewNotificationService(gateway)
	messageService := services.NewMessageService(conversationService, notificationService, gateway)

	messageHandler := handlers.NewMessageHandler(messageService)
	conversationHandler := handlers.NewConversationHandler(conversationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	r := gin.New()
	api := r.Group("/api")
	routes.RegisterMessageRoutes(api, messageHandler, conversationHandler)
	routes.RegisterNotificationRoutes(api, notificationHandler)
	return r
}

// createTestUser inserts an account directly and returns it with a valid
// token, the way the external auth service would have issued one.
func createTestUser(t *testing.T, id, name string, role models.Role) (models.User, string) {
	user := models.User{
		ID:    id,
		Name:  name,
		Email: id + "@test.com",
		Role:  role,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", id, err)
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return user, token
}

func performRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var bodyReader *strings.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		bodyReader = strings.NewReader(string(jsonBytes))
	} else {
		bodyReader = strings.NewReader("")
	}

	req, _ := http.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the envelope's data object into out.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode envelope: %v (body: %s)", err, w.Body.String())
	}
	if !env.Success {
		t.Fatalf("Expected success envelope, got: %s", w.Body.String())
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("Failed to decode data: %v (body: %s)", err, w.Body.String())
	}
}
