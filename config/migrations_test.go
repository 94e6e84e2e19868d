package config

import (
	"testing"

	"github.com/clarktao-dev/nutrition-linebot/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestRunMigrations(t *testing.T) {
	db := openTestDB(t)

	if err := RunMigrations(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	for _, table := range []any{
		&models.UserProfile{},
		&models.MealRecord{},
		&models.DailyNutritionAggregate{},
		&models.FoodPreference{},
	} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("missing table for %T", table)
		}
	}

	var applied int64
	if err := db.Model(&SchemaMigration{}).Count(&applied).Error; err != nil {
		t.Fatalf("count markers: %v", err)
	}
	if applied != int64(len(migrations)) {
		t.Fatalf("expected %d applied migrations, got %d", len(migrations), applied)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := openTestDB(t)

	if err := RunMigrations(db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(db); err != nil {
		t.Fatalf("second run: %v", err)
	}

	var applied int64
	db.Model(&SchemaMigration{}).Count(&applied)
	if applied != int64(len(migrations)) {
		t.Fatalf("rerun must not duplicate markers, got %d", applied)
	}
}
