// config/migrations.go
package config

import (
	"fmt"

	"github.com/clarktao-dev/nutrition-linebot/models"
	"github.com/clarktao-dev/nutrition-linebot/utils"

	"gorm.io/gorm"
)

// SchemaMigration tracks which numbered migrations have already run.
type SchemaMigration struct {
	Version   int `gorm:"primaryKey"`
	Name      string
	AppliedAt int64 `gorm:"autoCreateTime"`
}

type migration struct {
	Version int
	Name    string
	Run     func(db *gorm.DB) error
}

// Each migration must be idempotent: the version marker prevents reruns, but
// a crash between Run and the marker insert means it can execute twice.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create core tables",
		Run: func(db *gorm.DB) error {
			return db.AutoMigrate(
				&models.UserProfile{},
				&models.MealRecord{},
				&models.DailyNutritionAggregate{},
			)
		},
	},
	{
		Version: 2,
		Name:    "add food preferences",
		Run: func(db *gorm.DB) error {
			return db.AutoMigrate(&models.FoodPreference{})
		},
	},
	{
		Version: 3,
		Name:    "add fiber and sugar to meal records",
		Run: func(db *gorm.DB) error {
			// Columns exist on fresh installs via migration 1; this covers
			// databases created before the fields were tracked.
			for _, col := range []string{"fiber", "sugar"} {
				if !db.Migrator().HasColumn(&models.MealRecord{}, col) {
					if err := db.Migrator().AddColumn(&models.MealRecord{}, col); err != nil {
						return err
					}
				}
				if !db.Migrator().HasColumn(&models.DailyNutritionAggregate{}, col) {
					if err := db.Migrator().AddColumn(&models.DailyNutritionAggregate{}, col); err != nil {
						return err
					}
				}
			}
			return nil
		},
	},
	{
		Version: 4,
		Name:    "add diabetes and restriction fields to profiles",
		Run: func(db *gorm.DB) error {
			for _, col := range []string{"diabetes_type", "health_goals", "restrictions"} {
				if !db.Migrator().HasColumn(&models.UserProfile{}, col) {
					if err := db.Migrator().AddColumn(&models.UserProfile{}, col); err != nil {
						return err
					}
				}
			}
			return nil
		},
	},
}

// RunMigrations applies all pending numbered migrations in order. Safe to
// call on every startup.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("migrate schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var applied int64
		if err := db.Model(&SchemaMigration{}).
			Where("version = ?", m.Version).
			Count(&applied).Error; err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if applied > 0 {
			continue
		}

		utils.Log.Infow("applying migration", "version", m.Version, "name", m.Name)
		if err := m.Run(db); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		if err := db.Create(&SchemaMigration{Version: m.Version, Name: m.Name}).Error; err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
	}
	return nil
}
