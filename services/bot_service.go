// services/bot_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clarktao-dev/nutrition-linebot/models"
	"github.com/clarktao-dev/nutrition-linebot/utils"

	"gorm.io/gorm"
)

// Command keyword sets. Cancel and restart work from every state.
var (
	cancelKeywords  = []string{"取消", "cancel"}
	restartKeywords = []string{"重新開始", "restart"}
	confirmKeywords = []string{"確認", "確定", "好", "是", "confirm", "yes", "y", "ok"}
	rejectKeywords  = []string{"重新輸入", "重來", "否", "不要", "reject", "no", "n", "redo"}
	welcomeKeywords = []string{"開始", "你好", "hi", "hello", "menu", "選單"}
	helpKeywords    = []string{"幫助", "說明", "怎麼用", "help"}
	setupKeywords   = []string{"設定", "個人資料", "profile", "setup"}
	todayKeywords   = []string{"進度", "今日", "今天吃了", "progress", "today"}
	weeklyKeywords  = []string{"本週", "週報", "一週", "weekly"}
)

var mealTypeMarkers = []struct {
	keywords []string
	mealType string
}{
	{[]string{"早餐", "早上吃", "breakfast"}, models.MealBreakfast},
	{[]string{"午餐", "中餐", "中午吃", "lunch"}, models.MealLunch},
	{[]string{"晚餐", "晚上吃", "dinner"}, models.MealDinner},
	{[]string{"點心", "宵夜", "下午茶", "snack"}, models.MealSnack},
}

// BotService drives one handling pass per inbound message: routing,
// the confirmation state machine and the profile wizard.
type BotService struct {
	sessions  SessionStore
	profiles  *ProfileService
	ledger    *LedgerService
	extractor *ExtractionService
	generator TextGenerator
}

func NewBotService(db *gorm.DB, sessions SessionStore, generator TextGenerator) *BotService {
	return &BotService{
		sessions:  sessions,
		profiles:  NewProfileService(db),
		ledger:    NewLedgerService(db),
		extractor: NewExtractionService(),
		generator: generator,
	}
}

func (b *BotService) Ledger() *LedgerService { return b.ledger }

func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, kw := range keywords {
		if lower == kw {
			return true
		}
	}
	return false
}

// HandleText processes one inbound text message and returns the texts to
// push back. It never returns an error to the boundary; failures become
// apologetic replies.
func (b *BotService) HandleText(ctx context.Context, userID, text string) []string {
	text = strings.TrimSpace(text)
	session, err := b.sessions.Get(ctx, userID)
	if err != nil {
		utils.Log.Errorw("session load failed", "user_id", userID, "err", err)
		session = &Session{State: StateNormal}
	}

	// Hard resets work from any state and keep the saved profile.
	if matchesAny(text, cancelKeywords) {
		b.clearSession(ctx, userID)
		return []string{replyCanceled}
	}
	if matchesAny(text, restartKeywords) {
		b.clearSession(ctx, userID)
		return []string{replyRestarted}
	}

	switch session.State {
	case StatePendingConfirmation:
		return b.handlePendingState(ctx, userID, text, session)
	case StateProfileWizard:
		return b.handleWizardState(ctx, userID, text, session)
	}

	return b.handleNormalState(ctx, userID, text)
}

func (b *BotService) clearSession(ctx context.Context, userID string) {
	if err := b.sessions.Clear(ctx, userID); err != nil {
		utils.Log.Errorw("session clear failed", "user_id", userID, "err", err)
	}
}

func (b *BotService) setSession(ctx context.Context, userID string, s *Session) {
	if err := b.sessions.Set(ctx, userID, s); err != nil {
		utils.Log.Errorw("session save failed", "user_id", userID, "err", err)
	}
}

// ---- pending_confirmation state ----

func (b *BotService) handlePendingState(ctx context.Context, userID, text string, session *Session) []string {
	pending := session.Pending
	if pending == nil {
		// Slot was lost (restart); recover by re-prompting.
		b.clearSession(ctx, userID)
		return []string{replyNothingPending}
	}

	if matchesAny(text, rejectKeywords) {
		b.clearSession(ctx, userID)
		return []string{replyRejected}
	}

	if !matchesAny(text, confirmKeywords) {
		// Any other input re-prompts without advancing.
		return []string{formatPendingSummary(pending)}
	}

	// Re-validate before committing: an all-zero dict re-runs the pipeline
	// from the reference-table stage (no prose this time).
	nutrition := pending.Nutrition
	if nutrition.IsZero() {
		res := b.extractor.Extract(pending.Description, "")
		nutrition = res.Nutrition
		pending.Notes = res.Notes
	}

	record := &models.MealRecord{
		UserID:      userID,
		Type:        pending.MealType,
		Description: pending.Description,
		Analysis:    pending.Analysis,
		RecordedAt:  time.Now(),
	}
	record.SetNutrition(nutrition)

	agg, err := b.ledger.CommitRecord(record)
	if err != nil {
		// Keep the pending slot so the user only has to say "confirm"
		// again instead of redescribing the meal.
		utils.Log.Errorw("meal commit failed", "user_id", userID, "err", err)
		return []string{replyPersistFailed}
	}

	b.clearSession(ctx, userID)

	profile, profErr := b.profiles.GetByLineID(userID)
	if profErr != nil {
		utils.Log.Warnw("profile load failed after commit", "user_id", userID, "err", profErr)
	}
	warnings := utils.AssessMealWarnings(profile, nutrition)
	return []string{formatCommitSuccess(agg, profile, warnings)}
}

// ---- profile wizard state ----

func (b *BotService) handleWizardState(ctx context.Context, userID, text string, session *Session) []string {
	if session.Wizard == nil {
		session.Wizard = &WizardState{}
	}
	reply, done, err := b.profiles.HandleWizardInput(session.Wizard, userID, text)
	if err != nil {
		utils.Log.Errorw("profile save failed", "user_id", userID, "err", err)
		b.setSession(ctx, userID, session)
		return []string{"抱歉，儲存資料時出了點問題 🙇 請再回覆一次最後的答案。"}
	}
	if done {
		b.clearSession(ctx, userID)
		return []string{reply}
	}
	b.setSession(ctx, userID, session)
	return []string{reply}
}

// ---- normal state ----

func (b *BotService) handleNormalState(ctx context.Context, userID, text string) []string {
	switch {
	case matchesAny(text, welcomeKeywords):
		return []string{replyWelcome}
	case matchesAny(text, helpKeywords):
		return []string{replyHelp}
	case matchesAny(text, setupKeywords):
		session := &Session{State: StateProfileWizard, Wizard: &WizardState{}}
		b.setSession(ctx, userID, session)
		return []string{WizardPrompt(0)}
	case matchesAny(text, todayKeywords):
		return []string{b.dailyProgressReply(userID)}
	case matchesAny(text, weeklyKeywords):
		return []string{b.weeklyProgressReply(userID)}
	}

	switch ClassifyIntent(text) {
	case IntentSuggestion:
		return []string{b.suggestionReply(ctx, userID, text)}
	case IntentConsultation:
		return []string{b.consultationReply(ctx, text)}
	default:
		return b.startRecordFlow(ctx, userID, text)
	}
}

func (b *BotService) dailyProgressReply(userID string) string {
	agg, err := b.ledger.GetDaily(userID, time.Now())
	if err != nil {
		utils.Log.Errorw("daily progress load failed", "user_id", userID, "err", err)
		return replyConsultationFallback
	}
	profile, _ := b.profiles.GetByLineID(userID)
	return formatDailyProgress(agg, profile)
}

func (b *BotService) weeklyProgressReply(userID string) string {
	now := time.Now()
	rows, err := b.ledger.ListRange(userID, now.AddDate(0, 0, -6), now.AddDate(0, 0, 1))
	if err != nil {
		utils.Log.Errorw("weekly progress load failed", "user_id", userID, "err", err)
		return replyConsultationFallback
	}
	profile, _ := b.profiles.GetByLineID(userID)
	return formatWeeklyProgress(rows, profile)
}

func (b *BotService) suggestionReply(ctx context.Context, userID, text string) string {
	content := text
	if profile, _ := b.profiles.GetByLineID(userID); profile != nil {
		content = profileContext(profile) + "\n使用者訊息：" + text
	}
	prose, err := b.generator.Generate(ctx, suggestionSystemPrompt, content)
	if err != nil {
		utils.Log.Warnw("suggestion generation failed", "err", err)
		return replySuggestionFallback
	}
	return prose
}

func (b *BotService) consultationReply(ctx context.Context, text string) string {
	prose, err := b.generator.Generate(ctx, consultationSystemPrompt, text)
	if err != nil {
		utils.Log.Warnw("consultation generation failed", "err", err)
		return replyConsultationFallback
	}
	return prose
}

func profileContext(p *models.UserProfile) string {
	var sb strings.Builder
	sb.WriteString("使用者背景：" + p.Name)
	if p.Age > 0 {
		fmt.Fprintf(&sb, "，%d 歲", p.Age)
	}
	if p.TargetCalories > 0 {
		fmt.Fprintf(&sb, "，每日目標 %.0f 大卡", p.TargetCalories)
	}
	if p.DiabetesType != "" {
		sb.WriteString("，有糖尿病（" + p.DiabetesType + "）")
	}
	if p.Restrictions != "" {
		sb.WriteString("，飲食限制：" + p.Restrictions)
	}
	if p.HealthGoals != "" {
		sb.WriteString("，目標：" + p.HealthGoals)
	}
	return sb.String()
}

// ---- record flow ----

// detectMealType finds a meal-type marker anywhere in the text and returns
// the type plus the description with a leading marker stripped.
func detectMealType(text string) (mealType, description string) {
	lower := strings.ToLower(text)
	mealType = models.MealUnspecified
	for _, marker := range mealTypeMarkers {
		for _, kw := range marker.keywords {
			if strings.Contains(lower, kw) {
				mealType = marker.mealType
				description = stripLeadingMarker(text, kw)
				return mealType, description
			}
		}
	}
	return mealType, text
}

func stripLeadingMarker(text, marker string) string {
	lower := strings.ToLower(text)
	idx := strings.Index(lower, marker)
	if idx != 0 {
		return text
	}
	rest := text[len(marker):]
	rest = strings.TrimLeft(rest, " :：，,、")
	if strings.TrimSpace(rest) == "" {
		return text
	}
	return rest
}

func (b *BotService) startRecordFlow(ctx context.Context, userID, text string) []string {
	mealType, description := detectMealType(text)

	// The generator call is best effort; timeouts and errors just mean the
	// fallback chain starts at the reference table.
	analysis := ""
	genCtx, cancel := context.WithTimeout(ctx, 12*time.Second)
	defer cancel()
	prose, err := b.generator.Generate(genCtx, analysisSystemPrompt, description)
	if err != nil {
		utils.Log.Warnw("analysis generation failed", "user_id", userID, "err", err)
	} else {
		analysis = prose
	}

	res := b.extractor.Extract(description, analysis)

	pending := &PendingRecord{
		MealType:    mealType,
		Description: description,
		Analysis:    analysis,
		Nutrition:   res.Nutrition,
		Notes:       res.Notes,
	}
	b.setSession(ctx, userID, &Session{State: StatePendingConfirmation, Pending: pending})

	return []string{formatPendingSummary(pending)}
}
