package config

import (
	"fmt"
	"os"

	"github.com/clarktao-dev/nutrition-linebot/utils"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// LoadEnv pulls in a local .env when present. Missing files are fine in
// production where env vars come from the platform.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		utils.Log.Debugw("no .env file loaded", "err", err)
	}
}

func InitDB() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		utils.Log.Fatalw("failed to connect to database", "err", err)
	}
	DB = db

	if err := RunMigrations(DB); err != nil {
		utils.Log.Fatalw("migrations failed", "err", err)
	}
}
