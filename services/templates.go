package services

import (
	"fmt"
	"strings"

	"github.com/clarktao-dev/nutrition-linebot/models"
)

// User-facing reply text. Single locale (zh-TW), matching the audience of
// the original channel. Failures always read as a friendly apology with a
// next step, never as an error code.

const (
	replyWelcome = "👋 歡迎使用 AI 營養師！\n\n" +
		"我可以幫你：\n" +
		"🍱 記錄每餐飲食（直接描述你吃了什麼）\n" +
		"📊 查看今日/本週攝取進度（輸入「進度」）\n" +
		"💡 建議下一餐吃什麼（輸入「建議」）\n" +
		"🩺 回答營養問題\n\n" +
		"先輸入「設定」建立個人資料，我就能給你更準確的目標！"

	replyHelp = "使用方式：\n" +
		"・描述你吃的東西，例如「午餐：滷肉飯加燙青菜」\n" +
		"・「設定」重新建立個人資料\n" +
		"・「進度」看今日攝取\n" +
		"・「本週」看一週總覽\n" +
		"・「建議」讓我推薦下一餐\n" +
		"・「取消」隨時放棄目前的操作"

	replyCanceled = "好的，已取消目前的操作。想記錄餐點時直接描述就可以了！"

	replyRestarted = "已重新開始！輸入「設定」可以重建個人資料，或直接描述你吃了什麼。"

	replyConfirmChoices = "要幫你記錄這一餐嗎？\n回覆「確認」儲存，或「重新輸入」重來一次"

	replyRejected = "沒問題，這筆不記錄。請重新描述你吃了什麼！"

	replyNothingPending = "目前沒有等待確認的餐點喔。直接描述你吃了什麼，我就會幫你分析！"

	replyPersistFailed = "抱歉，剛剛儲存時出了點問題 🙇\n你的餐點分析還留著，請再回覆一次「確認」就好，不用重新描述。"

	replySuggestionFallback = "這個時段可以考慮：\n" +
		"・地瓜 + 無糖豆漿\n" +
		"・雞胸肉沙拉\n" +
		"・蔬菜蛋花湯配糙米飯\n" +
		"均衡攝取蛋白質和纖維就對了！"

	replyConsultationFallback = "抱歉，營養師現在忙線中 🙇\n" +
		"可以稍後再問一次，或先描述你吃了什麼，我會幫你記錄。"
)

// Texts the webhook boundary sends before or instead of a handling pass.
const (
	ReplyAnalyzing = "🔍 正在分析你的餐點，請稍候..."

	ReplyImageUnsupported = "抱歉，目前還看不懂照片 🙇\n請用文字描述你吃了什麼，例如「早餐：蛋餅加豆漿」"

	ReplyUnsupportedMessage = "請用文字描述你吃了什麼，我會幫你分析！"
)

func formatNutritionLines(n models.Nutrition) string {
	return fmt.Sprintf(
		"熱量 %.0f 大卡\n碳水 %.1f g｜蛋白質 %.1f g｜脂肪 %.1f g\n纖維 %.1f g｜糖 %.1f g",
		n.Calories, n.Carbs, n.Protein, n.Fat, n.Fiber, n.Sugar)
}

func mealTypeLabel(mealType string) string {
	switch mealType {
	case models.MealBreakfast:
		return "早餐"
	case models.MealLunch:
		return "午餐"
	case models.MealDinner:
		return "晚餐"
	case models.MealSnack:
		return "點心"
	}
	return "餐點"
}

func formatPendingSummary(p *PendingRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🍽️ %s「%s」\n\n%s\n", mealTypeLabel(p.MealType), p.Description,
		formatNutritionLines(p.Nutrition))
	if len(p.Notes) > 0 {
		fmt.Fprintf(&sb, "（%s）\n", strings.Join(p.Notes, "、"))
	}
	sb.WriteString("\n" + replyConfirmChoices)
	return sb.String()
}

func formatCommitSuccess(agg *models.DailyNutritionAggregate, profile *models.UserProfile, warnings []string) string {
	var sb strings.Builder
	sb.WriteString("✅ 已記錄！今日累計：\n")
	sb.WriteString(formatNutritionLines(agg.Nutrition()))
	fmt.Fprintf(&sb, "\n今天第 %d 餐", agg.MealCount)
	if profile != nil && profile.TargetCalories > 0 {
		remaining := profile.TargetCalories - agg.Calories
		if remaining > 0 {
			fmt.Fprintf(&sb, "\n距離今日目標還有 %.0f 大卡", remaining)
		} else {
			fmt.Fprintf(&sb, "\n已超過今日目標 %.0f 大卡，晚點清淡一些吧", -remaining)
		}
	}
	for _, w := range warnings {
		sb.WriteString("\n⚠️ " + w)
	}
	return sb.String()
}

func formatDailyProgress(agg *models.DailyNutritionAggregate, profile *models.UserProfile) string {
	var sb strings.Builder
	sb.WriteString("📊 今日攝取\n")
	if agg.MealCount == 0 {
		sb.WriteString("今天還沒有記錄，吃了什麼跟我說！")
		return sb.String()
	}
	sb.WriteString(formatNutritionLines(agg.Nutrition()))
	fmt.Fprintf(&sb, "\n共 %d 餐", agg.MealCount)
	if profile != nil && profile.TargetCalories > 0 {
		pct := agg.Calories / profile.TargetCalories * 100
		fmt.Fprintf(&sb, "\n目標達成率 %.0f%%（目標 %.0f 大卡）", pct, profile.TargetCalories)
	}
	return sb.String()
}

func formatWeeklyProgress(rows []models.DailyNutritionAggregate, profile *models.UserProfile) string {
	if len(rows) == 0 {
		return "📅 這週還沒有任何記錄，從今天開始吧！"
	}
	var total models.Nutrition
	meals := 0
	for _, r := range rows {
		total = total.Add(r.Nutrition())
		meals += r.MealCount
	}
	days := float64(len(rows))
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 最近 7 天（有記錄 %d 天，共 %d 餐）\n", len(rows), meals)
	fmt.Fprintf(&sb, "平均每日熱量 %.0f 大卡\n", total.Calories/days)
	fmt.Fprintf(&sb, "平均碳水 %.0f g｜蛋白質 %.0f g｜脂肪 %.0f g",
		total.Carbs/days, total.Protein/days, total.Fat/days)
	if profile != nil && profile.TargetCalories > 0 {
		fmt.Fprintf(&sb, "\n每日目標 %.0f 大卡", profile.TargetCalories)
	}
	return sb.String()
}
