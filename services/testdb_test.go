package services

import (
	"context"
	"testing"

	"github.com/clarktao-dev/nutrition-linebot/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.UserProfile{},
		&models.MealRecord{},
		&models.DailyNutritionAggregate{},
		&models.FoodPreference{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// stubGenerator plays the external text generator in tests.
type stubGenerator struct {
	reply       string
	err         error
	calls       int
	lastSystem  string
	lastContent string
}

func (g *stubGenerator) Generate(_ context.Context, systemPrompt, userContent string) (string, error) {
	g.calls++
	g.lastSystem = systemPrompt
	g.lastContent = userContent
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}
