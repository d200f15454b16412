package main

import (
	"errors"
	"log"
	"os"

	"riverai-be/internal/model"
	"riverai-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeds the default admin account used for first login. Credentials can
// be overridden via ADMIN_USERNAME / ADMIN_PASSWORD.
func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	username := getEnv("ADMIN_USERNAME", "admin")
	password := getEnv("ADMIN_PASSWORD", "admin")

	var existing model.User
	err = db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		color.Yellow("User %q already exists, nothing to do", username)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatal("Error: Failed to query users:", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Error: Failed to hash password:", err)
	}

	user := model.User{
		Id:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         "admin",
	}

	if err := db.Create(&user).Error; err != nil {
		log.Fatal("Error: Failed to create user:", err)
	}

	color.Green("✅ Seeded admin user %q", username)
	if password == "admin" {
		color.Red("Default password in use, change it after first login")
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
