// models/meal_record.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Meal type enum values stored on MealRecord.Type.
const (
	MealBreakfast   = "breakfast"
	MealLunch       = "lunch"
	MealDinner      = "dinner"
	MealSnack       = "snack"
	MealUnspecified = "unspecified"
)

// MealRecord is append-only: created once the user confirms a pending
// record, never updated or deleted by the normal flow.
type MealRecord struct {
	gorm.Model
	UserID      string    `gorm:"index;not null"` // opaque platform user id
	Type        string    `gorm:"not null"` // breakfast|lunch|dinner|snack|unspecified
	Description string    `gorm:"not null"` // raw free text from the user
	Analysis    string    // generator prose, may be empty
	RecordedAt  time.Time `gorm:"index;not null"`

	Calories float64
	Carbs    float64
	Protein  float64
	Fat      float64
	Fiber    float64
	Sugar    float64
}

func (m *MealRecord) Nutrition() Nutrition {
	return Nutrition{
		Calories: m.Calories,
		Carbs:    m.Carbs,
		Protein:  m.Protein,
		Fat:      m.Fat,
		Fiber:    m.Fiber,
		Sugar:    m.Sugar,
	}
}

func (m *MealRecord) SetNutrition(n Nutrition) {
	m.Calories = n.Calories
	m.Carbs = n.Carbs
	m.Protein = n.Protein
	m.Fat = n.Fat
	m.Fiber = n.Fiber
	m.Sugar = n.Sugar
}
