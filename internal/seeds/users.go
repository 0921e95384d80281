package seeds

import (
	"log"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/database"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
)

// GetOrCreatePlatformAdmin ensures the account used for authoring
// announcements exists.
func GetOrCreatePlatformAdmin() (models.User, error) {
	log.Println("Checking platform admin...")

	email := "admin@kajiservice.com"

	var user models.User
	err := database.DB.Where("email = ?", email).First(&user).Error
	if err == nil {
		log.Printf("   Platform admin found: %s", user.Email)
		return user, nil
	}

	user = models.User{
		Name:  "Kaji Service",
		Email: email,
		Role:  models.RoleAdmin,
		Image: "https://api.dicebear.com/7.x/identicon/svg?seed=kajiservice",
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return models.User{}, err
	}

	log.Printf("   Platform admin created: %s", user.Email)
	return user, nil
}

// SeedDemoUsers provisions a worker and an employer with a small message
// exchange so the local frontend has something to render.
func SeedDemoUsers() error {
	log.Println("Seeding demo users...")

	worker := models.User{
		Name:  "Ramesh Thapa",
		Email: "worker@demo.kajiservice.com",
		Image: "https://api.dicebear.com/7.x/avataaars/svg?seed=ramesh",
	}
	employer := models.User{
		Name:  "Sita Sharma",
		Email: "employer@demo.kajiservice.com",
		Image: "https://api.dicebear.com/7.x/avataaars/svg?seed=sita",
	}

	var existing models.User
	if err := database.DB.Where("email = ?", worker.Email).First(&existing).Error; err == nil {
		log.Println("   Demo users already seeded")
		return nil
	}

	if err := database.DB.Create(&worker).Error; err != nil {
		return err
	}
	if err := database.DB.Create(&employer).Error; err != nil {
		return err
	}

	// A short exchange: employer reaches out, worker replies; the reply is
	// still unread on the employer's side.
	conv := models.Conversation{
		Participant1ID: employer.ID,
		Participant2ID: worker.ID,
		ServiceID:      "svc_demo_plumbing",
	}
	if err := database.DB.Create(&conv).Error; err != nil {
		return err
	}

	first := models.Message{
		ConversationID: conv.ID,
		SenderID:       employer.ID,
		RecipientID:    worker.ID,
		Content:        "Hi, are you available for a plumbing job this weekend?",
		Type:           models.MessageTypeText,
		IsRead:         true,
	}
	if err := database.DB.Create(&first).Error; err != nil {
		return err
	}
	reply := models.Message{
		ConversationID: conv.ID,
		SenderID:       worker.ID,
		RecipientID:    employer.ID,
		Content:        "Yes, Saturday morning works for me.",
		Type:           models.MessageTypeText,
	}
	if err := database.DB.Create(&reply).Error; err != nil {
		return err
	}

	unreadCol := conv.UnreadColumn(employer.ID)
	if err := database.DB.Model(&conv).Updates(map[string]interface{}{
		"last_message_id": reply.ID,
		"last_message_at": reply.CreatedAt,
		unreadCol:         1,
	}).Error; err != nil {
		return err
	}

	welcome := models.Notification{
		UserID:   worker.ID,
		Type:     models.NotificationTypeSystem,
		Title:    "Welcome to Kaji Service",
		Message:  "Complete your KYC to start receiving job offers.",
		Priority: models.PriorityNormal,
		Category: models.CategorySystem,
	}
	if err := database.DB.Create(&welcome).Error; err != nil {
		return err
	}

	log.Printf("   Demo users created: %s, %s", worker.Email, employer.Email)
	return nil
}
