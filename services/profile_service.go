package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/clarktao-dev/nutrition-linebot/models"
	"github.com/clarktao-dev/nutrition-linebot/utils"

	"gorm.io/gorm"
)

// Wizard steps, in order. Each step validates its own input and re-prompts
// without advancing on garbage.
const (
	stepName = iota
	stepAge
	stepSex
	stepHeight
	stepWeight
	stepActivity
	stepDiabetes
	stepGoals
	stepRestrictions
	stepDone
)

var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

var activityTokens = map[string]string{
	"久坐": "sedentary", "很少運動": "sedentary", "sedentary": "sedentary", "1": "sedentary",
	"輕度": "light", "偶爾運動": "light", "light": "light", "2": "light",
	"中度": "moderate", "regular": "moderate", "moderate": "moderate", "3": "moderate",
	"高度": "active", "常運動": "active", "active": "active", "4": "active",
	"運動員": "very_active", "very active": "very_active", "very_active": "very_active", "5": "very_active",
}

var sexTokens = map[string]string{
	"男": "male", "男生": "male", "男性": "male", "male": "male", "m": "male",
	"女": "female", "女生": "female", "女性": "female", "female": "female", "f": "female",
}

var diabetesTokens = map[string]string{
	"無": "", "沒有": "", "no": "", "none": "",
	"第一型": "type1", "一型": "type1", "type1": "type1", "type 1": "type1",
	"第二型": "type2", "二型": "type2", "type2": "type2", "type 2": "type2",
	"妊娠": "gestational", "妊娠糖尿病": "gestational", "gestational": "gestational",
}

// ProfileService manages UserProfile rows and the guided setup wizard.
type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// GetByLineID returns the profile for a platform user id, or nil when the
// user never finished setup.
func (s *ProfileService) GetByLineID(lineUserID string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := s.db.Where("line_user_id = ?", lineUserID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &p, nil
}

// SaveProfile replaces the stored profile wholesale and recomputes every
// derived field from the full input set. Profiles are never partially
// patched.
func (s *ProfileService) SaveProfile(p *models.UserProfile) error {
	ComputeDerivedFields(p)

	var existing models.UserProfile
	err := s.db.Where("line_user_id = ?", p.LineUserID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.db.Create(p).Error; err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	if err := s.db.Save(p).Error; err != nil {
		return fmt.Errorf("replace profile: %w", err)
	}
	return nil
}

// ComputeDerivedFields fills BMR (Mifflin-St Jeor), TDEE (activity
// multiplier) and the target calories with the fixed 50/20/30
// carb/protein/fat split.
func ComputeDerivedFields(p *models.UserProfile) {
	bmr := 10*p.WeightKG + 6.25*p.HeightCM - 5*float64(p.Age)
	if p.Sex == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}

	mult, ok := activityMultipliers[p.Activity]
	if !ok {
		mult = activityMultipliers["sedentary"]
	}
	tdee := bmr * mult

	target := tdee
	goals := strings.ToLower(p.HealthGoals)
	switch {
	case strings.Contains(goals, "減重") || strings.Contains(goals, "減肥") || strings.Contains(goals, "lose"):
		target = tdee - 300
	case strings.Contains(goals, "增重") || strings.Contains(goals, "增肌") || strings.Contains(goals, "gain"):
		target = tdee + 300
	}
	if target < 1200 {
		target = 1200
	}

	p.BMR = math.Round(bmr)
	p.TDEE = math.Round(tdee)
	p.TargetCalories = math.Round(target)
	p.TargetCarbs = math.Round(target * 0.5 / 4)
	p.TargetProtein = math.Round(target * 0.2 / 4)
	p.TargetFat = math.Round(target * 0.3 / 9)
}

// WizardPrompt returns the question for a wizard step.
func WizardPrompt(step int) string {
	switch step {
	case stepName:
		return "開始建立你的個人資料！請問怎麼稱呼你？"
	case stepAge:
		return "請輸入你的年齡（歲）"
	case stepSex:
		return "請輸入你的生理性別（男 / 女）"
	case stepHeight:
		return "請輸入你的身高（公分）"
	case stepWeight:
		return "請輸入你的體重（公斤）"
	case stepActivity:
		return "平常的活動量？（久坐 / 輕度 / 中度 / 高度 / 運動員）"
	case stepDiabetes:
		return "是否有糖尿病？（無 / 第一型 / 第二型 / 妊娠）"
	case stepGoals:
		return "你的健康目標是什麼？（例如：減重、增肌，沒有請回「無」）"
	case stepRestrictions:
		return "有任何飲食限制嗎？（例如：素食、低糖，沒有請回「無」）"
	}
	return ""
}

// HandleWizardInput consumes one answer. When the input fails validation the
// step does not advance and the reply re-asks the same question. done is
// true once the profile was saved.
func (s *ProfileService) HandleWizardInput(ws *WizardState, lineUserID, input string) (reply string, done bool, err error) {
	text := strings.TrimSpace(input)
	lower := strings.ToLower(text)

	switch ws.Step {
	case stepName:
		if text == "" {
			return "名字不能是空的喔，" + WizardPrompt(stepName), false, nil
		}
		ws.Draft.Name = text
	case stepAge:
		age, convErr := strconv.Atoi(text)
		if convErr != nil || age < 5 || age > 120 {
			return "年齡看起來怪怪的，請輸入 5-120 之間的數字", false, nil
		}
		ws.Draft.Age = age
	case stepSex:
		sex, ok := sexTokens[lower]
		if !ok {
			return "看不懂這個性別，請輸入「男」或「女」", false, nil
		}
		ws.Draft.Sex = sex
	case stepHeight:
		h, convErr := strconv.ParseFloat(text, 64)
		if convErr != nil || h < 80 || h > 250 {
			return "身高看起來怪怪的，請輸入 80-250 之間的公分數", false, nil
		}
		ws.Draft.HeightCM = h
	case stepWeight:
		w, convErr := strconv.ParseFloat(text, 64)
		if convErr != nil || w < 20 || w > 300 {
			return "體重看起來怪怪的，請輸入 20-300 之間的公斤數", false, nil
		}
		ws.Draft.WeightKG = w
	case stepActivity:
		level, ok := activityTokens[lower]
		if !ok {
			return "請從「久坐 / 輕度 / 中度 / 高度 / 運動員」中選一個", false, nil
		}
		ws.Draft.Activity = level
	case stepDiabetes:
		dt, ok := diabetesTokens[lower]
		if !ok {
			return "請回答「無 / 第一型 / 第二型 / 妊娠」", false, nil
		}
		ws.Draft.DiabetesType = dt
	case stepGoals:
		if lower != "無" && lower != "none" && lower != "no" {
			ws.Draft.HealthGoals = text
		}
	case stepRestrictions:
		if lower != "無" && lower != "none" && lower != "no" {
			ws.Draft.Restrictions = text
		}
	default:
		return WizardPrompt(stepName), false, nil
	}

	ws.Step++
	if ws.Step < stepDone {
		return WizardPrompt(ws.Step), false, nil
	}

	ws.Draft.LineUserID = lineUserID
	if err := s.SaveProfile(&ws.Draft); err != nil {
		// Stay on the last step so the user can retry with one message.
		ws.Step = stepRestrictions
		return "", false, err
	}

	bmiLine := ""
	if bmi, err := utils.CalculateBMI(ws.Draft.HeightCM, ws.Draft.WeightKG); err == nil {
		bmiLine = fmt.Sprintf("BMI %.1f（%s）\n", bmi, utils.BMICategory(bmi))
	}
	reply = fmt.Sprintf(
		"完成！%s 的個人資料建立好了 🎉\n%s基礎代謝率約 %.0f 大卡\n每日建議熱量約 %.0f 大卡\n（碳水 %.0fg / 蛋白質 %.0fg / 脂肪 %.0fg）\n\n之後直接傳訊息描述你吃了什麼，我就會幫你記錄！",
		ws.Draft.Name, bmiLine, ws.Draft.BMR, ws.Draft.TargetCalories,
		ws.Draft.TargetCarbs, ws.Draft.TargetProtein, ws.Draft.TargetFat)
	return reply, true, nil
}
