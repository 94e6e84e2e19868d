package models

import (
	"time"

	"gorm.io/gorm"
)

// DailyNutritionAggregate holds one row per (user, calendar date).
// Invariant: MealCount always equals the number of MealRecord rows for the
// same (user, date). Duplicate rows for a pair are an anomaly repaired by
// the ledger service, not a valid state.
type DailyNutritionAggregate struct {
	gorm.Model
	UserID string    `gorm:"index:idx_daily_user_date;not null"` // opaque platform user id
	Date   time.Time `gorm:"index:idx_daily_user_date;not null"` // midnight, local

	Calories float64
	Carbs    float64
	Protein  float64
	Fat      float64
	Fiber    float64
	Sugar    float64

	MealCount int
}

func (a *DailyNutritionAggregate) Nutrition() Nutrition {
	return Nutrition{
		Calories: a.Calories,
		Carbs:    a.Carbs,
		Protein:  a.Protein,
		Fat:      a.Fat,
		Fiber:    a.Fiber,
		Sugar:    a.Sugar,
	}
}

func (a *DailyNutritionAggregate) SetNutrition(n Nutrition) {
	a.Calories = n.Calories
	a.Carbs = n.Carbs
	a.Protein = n.Protein
	a.Fat = n.Fat
	a.Fiber = n.Fiber
	a.Sugar = n.Sugar
}
