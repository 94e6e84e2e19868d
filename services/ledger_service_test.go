package services

import (
	"testing"
	"time"

	"github.com/clarktao-dev/nutrition-linebot/models"
)

func testRecord(userID, description string, n models.Nutrition) *models.MealRecord {
	rec := &models.MealRecord{
		UserID:      userID,
		Type:        models.MealLunch,
		Description: description,
		RecordedAt:  time.Now(),
	}
	rec.SetNutrition(n)
	return rec
}

func TestCommitRecordUpdatesAggregate(t *testing.T) {
	db := newTestDB(t)
	svc := NewLedgerService(db)

	agg, err := svc.CommitRecord(testRecord("U1", "白飯", models.Nutrition{Calories: 280, Carbs: 62}))
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if agg.MealCount != 1 || agg.Calories != 280 {
		t.Fatalf("unexpected aggregate after first commit: %+v", agg)
	}

	agg, err = svc.CommitRecord(testRecord("U1", "雞蛋", models.Nutrition{Calories: 72, Protein: 6.3}))
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if agg.MealCount != 2 || agg.Calories != 352 {
		t.Fatalf("unexpected aggregate after second commit: %+v", agg)
	}

	// Exactly one aggregate row exists for the (user, day) pair.
	var rows []models.DailyNutritionAggregate
	if err := db.Where("user_id = ?", "U1").Find(&rows).Error; err != nil {
		t.Fatalf("load aggregates: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a single aggregate row, got %d", len(rows))
	}
}

func TestCommitRecordTracksPreferences(t *testing.T) {
	db := newTestDB(t)
	svc := NewLedgerService(db)

	for i := 0; i < 2; i++ {
		if _, err := svc.CommitRecord(testRecord("U1", "白飯加雞蛋", models.Nutrition{Calories: 352})); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	var prefs []models.FoodPreference
	if err := db.Where("user_id = ?", "U1").Order("keyword").Find(&prefs).Error; err != nil {
		t.Fatalf("load preferences: %v", err)
	}
	if len(prefs) != 2 {
		t.Fatalf("expected 2 preference rows, got %d", len(prefs))
	}
	for _, p := range prefs {
		if p.Count != 2 {
			t.Fatalf("expected count 2 for %s, got %d", p.Keyword, p.Count)
		}
	}
}

func TestMealCountNeverIncremented(t *testing.T) {
	db := newTestDB(t)
	svc := NewLedgerService(db)

	for i := 0; i < 2; i++ {
		if err := db.Create(testRecord("U1", "麵包", models.Nutrition{Calories: 180})).Error; err != nil {
			t.Fatalf("seed record: %v", err)
		}
	}

	// Repeated upserts keep adding nutrients, but the count always comes
	// from the records table.
	for i := 0; i < 3; i++ {
		if err := svc.UpsertDaily("U1", time.Now(), models.Nutrition{Calories: 100}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	agg, err := svc.GetDaily("U1", time.Now())
	if err != nil {
		t.Fatalf("get daily: %v", err)
	}
	if agg.MealCount != 2 {
		t.Fatalf("meal count must mirror the records table, got %d", agg.MealCount)
	}
	if agg.Calories != 300 {
		t.Fatalf("expected summed deltas, got %v", agg.Calories)
	}
}

func TestRepairDuplicates(t *testing.T) {
	db := newTestDB(t)
	svc := NewLedgerService(db)
	day := DayStart(time.Now())

	if err := db.Create(testRecord("U1", "白飯", models.Nutrition{Calories: 100})).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}
	if err := db.Create(testRecord("U1", "雞肉", models.Nutrition{Calories: 200})).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}

	// Simulate the anomaly: three aggregate rows for the same (user, day),
	// all with garbage values.
	var firstID uint
	for i := 0; i < 3; i++ {
		row := models.DailyNutritionAggregate{UserID: "U1", Date: day, Calories: 999, MealCount: 9}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed aggregate: %v", err)
		}
		if i == 0 {
			firstID = row.ID
		}
	}

	repaired, err := svc.RepairDuplicates()
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if repaired != 1 {
		t.Fatalf("expected 1 repaired group, got %d", repaired)
	}

	var rows []models.DailyNutritionAggregate
	if err := db.Where("user_id = ?", "U1").Find(&rows).Error; err != nil {
		t.Fatalf("load aggregates: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one surviving row, got %d", len(rows))
	}
	if rows[0].ID != firstID {
		t.Fatalf("expected the earliest row to survive, got id %d want %d", rows[0].ID, firstID)
	}
	if rows[0].Calories != 300 || rows[0].MealCount != 2 {
		t.Fatalf("survivor not rebuilt from records: %+v", rows[0])
	}

	// Idempotent: a second pass finds nothing.
	repaired, err = svc.RepairDuplicates()
	if err != nil {
		t.Fatalf("second repair: %v", err)
	}
	if repaired != 0 {
		t.Fatalf("expected clean second pass, got %d", repaired)
	}
}

func TestGetDailyEmpty(t *testing.T) {
	db := newTestDB(t)
	svc := NewLedgerService(db)

	agg, err := svc.GetDaily("nobody", time.Now())
	if err != nil {
		t.Fatalf("get daily: %v", err)
	}
	if agg.MealCount != 0 || !agg.Nutrition().IsZero() {
		t.Fatalf("expected zero-valued row, got %+v", agg)
	}
}

func TestListRange(t *testing.T) {
	db := newTestDB(t)
	svc := NewLedgerService(db)
	today := DayStart(time.Now())

	for _, offset := range []int{-2, 0} {
		row := models.DailyNutritionAggregate{
			UserID: "U1", Date: today.AddDate(0, 0, offset), Calories: 500, MealCount: 1,
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed aggregate: %v", err)
		}
	}

	rows, err := svc.ListRange("U1", today.AddDate(0, 0, -6), today.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].Date.Before(rows[1].Date) {
		t.Fatalf("rows must be ordered oldest first")
	}
}
