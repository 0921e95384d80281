package main

import (
	"log"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/config"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/database"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/seeds"
)

func main() {
	config.LoadConfig()
	database.Connect()

	log.Println("Running migrations (just in case)...")
	database.DB.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
		&models.Notification{},
	)

	if _, err := seeds.GetOrCreatePlatformAdmin(); err != nil {
		log.Fatalf("Failed to ensure platform admin: %v", err)
	}
	if err := seeds.SeedDemoUsers(); err != nil {
		log.Fatalf("Failed to seed demo users: %v", err)
	}

	log.Println("Seeding complete")
}
