// services/ledger_service.go
package services

import (
	"fmt"
	"time"

	"github.com/clarktao-dev/nutrition-linebot/models"
	"github.com/clarktao-dev/nutrition-linebot/utils"

	"gorm.io/gorm"
)

// LedgerService owns the per-user-per-day aggregate rows and keeps their
// meal counts consistent with the meal_records table, which is the single
// source of truth.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// DayStart truncates a timestamp to local midnight, the canonical aggregate
// date key.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// RecordCount counts the MealRecord rows for one user and calendar day.
func (s *LedgerService) RecordCount(userID string, date time.Time) (int64, error) {
	return recordCountTx(s.db, userID, date)
}

func recordCountTx(tx *gorm.DB, userID string, date time.Time) (int64, error) {
	start := DayStart(date)
	end := start.Add(24 * time.Hour)
	var count int64
	err := tx.Model(&models.MealRecord{}).
		Where("user_id = ? AND recorded_at >= ? AND recorded_at < ?", userID, start, end).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count meal records: %w", err)
	}
	return count, nil
}

// UpsertDaily adds a nutrient delta to the day's aggregate row, creating it
// if missing. MealCount is always overwritten from RecordCount rather than
// incremented, so retried writes cannot double count.
func (s *LedgerService) UpsertDaily(userID string, date time.Time, delta models.Nutrition) error {
	start := DayStart(date)
	count, err := recordCountTx(s.db, userID, start)
	if err != nil {
		return err
	}

	var agg models.DailyNutritionAggregate
	err = s.db.Where("user_id = ? AND date = ?", userID, start).
		Order("id ASC").
		First(&agg).Error
	if err == gorm.ErrRecordNotFound {
		agg = models.DailyNutritionAggregate{UserID: userID, Date: start, MealCount: int(count)}
		agg.SetNutrition(delta)
		if err := s.db.Create(&agg).Error; err != nil {
			return fmt.Errorf("create daily aggregate: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("load daily aggregate: %w", err)
	}

	agg.SetNutrition(agg.Nutrition().Add(delta))
	agg.MealCount = int(count)
	if err := s.db.Save(&agg).Error; err != nil {
		return fmt.Errorf("update daily aggregate: %w", err)
	}
	return nil
}

// recomputeDailyTx rebuilds one aggregate row entirely from that day's meal
// records. Used on every commit so a retried confirm converges instead of
// drifting.
func recomputeDailyTx(tx *gorm.DB, userID string, date time.Time) (*models.DailyNutritionAggregate, error) {
	start := DayStart(date)
	end := start.Add(24 * time.Hour)

	var sums struct {
		Calories float64
		Carbs    float64
		Protein  float64
		Fat      float64
		Fiber    float64
		Sugar    float64
		Count    int64
	}
	err := tx.Model(&models.MealRecord{}).
		Select("COALESCE(SUM(calories),0) AS calories, COALESCE(SUM(carbs),0) AS carbs, "+
			"COALESCE(SUM(protein),0) AS protein, COALESCE(SUM(fat),0) AS fat, "+
			"COALESCE(SUM(fiber),0) AS fiber, COALESCE(SUM(sugar),0) AS sugar, COUNT(*) AS count").
		Where("user_id = ? AND recorded_at >= ? AND recorded_at < ?", userID, start, end).
		Scan(&sums).Error
	if err != nil {
		return nil, fmt.Errorf("sum meal records: %w", err)
	}

	total := models.Nutrition{
		Calories: sums.Calories,
		Carbs:    sums.Carbs,
		Protein:  sums.Protein,
		Fat:      sums.Fat,
		Fiber:    sums.Fiber,
		Sugar:    sums.Sugar,
	}

	var agg models.DailyNutritionAggregate
	err = tx.Where("user_id = ? AND date = ?", userID, start).
		Order("id ASC").
		First(&agg).Error
	if err == gorm.ErrRecordNotFound {
		agg = models.DailyNutritionAggregate{UserID: userID, Date: start, MealCount: int(sums.Count)}
		agg.SetNutrition(total)
		if err := tx.Create(&agg).Error; err != nil {
			return nil, fmt.Errorf("create daily aggregate: %w", err)
		}
		return &agg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load daily aggregate: %w", err)
	}

	agg.SetNutrition(total)
	agg.MealCount = int(sums.Count)
	if err := tx.Save(&agg).Error; err != nil {
		return nil, fmt.Errorf("update daily aggregate: %w", err)
	}
	return &agg, nil
}

// CommitRecord persists one confirmed meal: record insert, full aggregate
// recompute and preference update run in a single transaction, so a failure
// anywhere leaves nothing behind.
func (s *LedgerService) CommitRecord(record *models.MealRecord) (*models.DailyNutritionAggregate, error) {
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now()
	}

	var agg *models.DailyNutritionAggregate
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("create meal record: %w", err)
		}
		recomputed, err := recomputeDailyTx(tx, record.UserID, record.RecordedAt)
		if err != nil {
			return err
		}
		agg = recomputed
		return updatePreferencesTx(tx, record.UserID, record.Description)
	})
	if err != nil {
		return nil, err
	}
	return agg, nil
}

// updatePreferencesTx bumps the per-keyword counters for every reference
// food found in the confirmed description. Soft state: failures roll back
// the whole commit but exactness is not relied on anywhere.
func updatePreferencesTx(tx *gorm.DB, userID string, description string) error {
	now := time.Now()
	for _, entry := range MatchReferenceEntries(description) {
		var pref models.FoodPreference
		err := tx.Where("user_id = ? AND keyword = ?", userID, entry.Name).First(&pref).Error
		if err == gorm.ErrRecordNotFound {
			pref = models.FoodPreference{UserID: userID, Keyword: entry.Name, Count: 1, LastSeen: now}
			if err := tx.Create(&pref).Error; err != nil {
				return fmt.Errorf("create food preference: %w", err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("load food preference: %w", err)
		}
		pref.Count++
		pref.LastSeen = now
		if err := tx.Save(&pref).Error; err != nil {
			return fmt.Errorf("update food preference: %w", err)
		}
	}
	return nil
}

// GetDaily returns the aggregate row for one user and day, or a zero-valued
// row when nothing was logged yet.
func (s *LedgerService) GetDaily(userID string, date time.Time) (*models.DailyNutritionAggregate, error) {
	start := DayStart(date)
	var agg models.DailyNutritionAggregate
	err := s.db.Where("user_id = ? AND date = ?", userID, start).
		Order("id ASC").
		First(&agg).Error
	if err == gorm.ErrRecordNotFound {
		return &models.DailyNutritionAggregate{UserID: userID, Date: start}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load daily aggregate: %w", err)
	}
	return &agg, nil
}

// ListRange returns the aggregate rows for [from, to), oldest first.
func (s *LedgerService) ListRange(userID string, from, to time.Time) ([]models.DailyNutritionAggregate, error) {
	var rows []models.DailyNutritionAggregate
	err := s.db.Where("user_id = ? AND date >= ? AND date < ?", userID, DayStart(from), DayStart(to)).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list daily aggregates: %w", err)
	}
	return rows, nil
}

// RepairDuplicates collapses (user, date) groups that somehow got more than
// one aggregate row: the earliest row survives, the rest are removed and the
// survivor is rebuilt from the meal records. Idempotent; safe at startup.
func (s *LedgerService) RepairDuplicates() (int, error) {
	type dupGroup struct {
		UserID string
		Date   time.Time
	}
	var groups []dupGroup
	err := s.db.Model(&models.DailyNutritionAggregate{}).
		Select("user_id, date").
		Group("user_id, date").
		Having("COUNT(*) > 1").
		Scan(&groups).Error
	if err != nil {
		return 0, fmt.Errorf("find duplicate aggregates: %w", err)
	}

	repaired := 0
	for _, g := range groups {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			var rows []models.DailyNutritionAggregate
			if err := tx.Where("user_id = ? AND date = ?", g.UserID, g.Date).
				Order("id ASC").
				Find(&rows).Error; err != nil {
				return fmt.Errorf("load duplicate rows: %w", err)
			}
			if len(rows) <= 1 {
				return nil
			}
			for _, extra := range rows[1:] {
				if err := tx.Unscoped().Delete(&models.DailyNutritionAggregate{}, extra.ID).Error; err != nil {
					return fmt.Errorf("delete duplicate aggregate: %w", err)
				}
			}
			_, err := recomputeDailyTx(tx, g.UserID, g.Date)
			return err
		})
		if err != nil {
			return repaired, err
		}
		repaired++
		utils.Log.Infow("collapsed duplicate daily aggregates",
			"user_id", g.UserID, "date", g.Date.Format("2006-01-02"))
	}
	return repaired, nil
}
