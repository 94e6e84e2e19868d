package utils

import (
	"fmt"
	"strings"

	"github.com/clarktao-dev/nutrition-linebot/models"
)

// Per-meal thresholds used when a profile carries no explicit targets.
const (
	defaultMealCalorieLimit = 900 // roughly 45% of a 2000 kcal day
	diabetesSugarLimitGrams = 15
	freeSugarCautionGrams   = 25
)

// AssessMealWarnings flags a parsed meal against the user's profile before
// it is echoed back in the confirmation summary. Best effort; an empty slice
// means nothing worth mentioning.
func AssessMealWarnings(profile *models.UserProfile, n models.Nutrition) []string {
	var warnings []string

	calorieLimit := float64(defaultMealCalorieLimit)
	if profile != nil && profile.TargetCalories > 0 {
		// Allow a single meal up to half the daily target.
		calorieLimit = profile.TargetCalories / 2
	}
	if n.Calories > calorieLimit {
		warnings = append(warnings, fmt.Sprintf(
			"這餐熱量約 %.0f 大卡，偏高，建議下一餐清淡一點", n.Calories))
	}

	if profile != nil && profile.DiabetesType != "" && n.Sugar > diabetesSugarLimitGrams {
		warnings = append(warnings, fmt.Sprintf(
			"糖分約 %.0f 克，對血糖控制來說偏高，請留意", n.Sugar))
	}

	if n.Sugar > freeSugarCautionGrams {
		warnings = append(warnings, "含糖量偏高，建議以無糖飲品取代含糖飲料")
	}

	if profile != nil && strings.TrimSpace(profile.Restrictions) != "" {
		restrictions := strings.ToLower(profile.Restrictions)
		if strings.Contains(restrictions, "低糖") && n.Sugar > 10 {
			warnings = append(warnings, "這餐的糖分可能不符合你的低糖飲食目標")
		}
	}

	return warnings
}
