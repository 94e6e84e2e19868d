package models

import (
	"time"

	"gorm.io/gorm"
)

// FoodPreference counts how often a known food keyword shows up in a user's
// confirmed meal descriptions. Best effort only; nothing downstream depends
// on it being exact.
type FoodPreference struct {
	gorm.Model
	UserID   string `gorm:"index:idx_pref_user_keyword;not null"`
	Keyword  string `gorm:"index:idx_pref_user_keyword;not null"`
	Count    int
	LastSeen time.Time
}
