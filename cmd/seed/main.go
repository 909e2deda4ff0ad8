package main

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"ai-interview-be/internal/model"
	"ai-interview-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/datatypes"
)

// Seeds a demo interview so the registration endpoint has something to
// register against on a fresh database.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	questions := []map[string]interface{}{
		{"id": "q1", "question": "Walk me through a project you are proud of."},
		{"id": "q2", "question": "How do you approach debugging a production incident?"},
		{"id": "q3", "question": "Describe a disagreement with a teammate and how you resolved it."},
	}
	questionsJSON, _ := json.Marshal(questions)
	emailsJSON, _ := json.Marshal([]string{})

	interview := model.Interview{
		Id:               uuid.New(),
		Name:             "Backend Engineer Screen",
		Objective:        "Assess practical backend engineering experience",
		Questions:        datatypes.JSON(questionsJSON),
		IsAnonymous:      true,
		RespondentEmails: datatypes.JSON(emailsJSON),
		IsActive:         true,
		ResponseCount:    0,
		ResponseCap:      0,
		CreatedAt:        time.Now(),
	}

	if err := db.Create(&interview).Error; err != nil {
		log.Fatalf("Error: failed to seed interview: %v", err)
	}

	log.Printf("Seeded interview %s (%s)", interview.Id, interview.Name)
}
