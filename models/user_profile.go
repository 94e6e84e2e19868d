package models

import (
	"gorm.io/gorm"
)

// UserProfile is created or replaced wholesale when the setup wizard
// finishes; derived fields are recomputed from the full input set on every
// save, never patched piecemeal.
type UserProfile struct {
	gorm.Model
	LineUserID string `gorm:"uniqueIndex;not null"`
	Name       string
	Age        int
	Sex        string // "male" | "female"
	HeightCM   float64
	WeightKG   float64
	Activity   string // sedentary | light | moderate | active | very_active

	// Derived at profile-save time.
	BMR            float64
	TDEE           float64
	TargetCalories float64
	TargetCarbs    float64
	TargetProtein  float64
	TargetFat      float64

	DiabetesType string // "", "type1", "type2", "gestational"
	HealthGoals  string
	Restrictions string
}
