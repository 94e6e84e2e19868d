package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clarktao-dev/nutrition-linebot/models"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAdminRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.MealRecord{}, &models.DailyNutritionAggregate{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	ctl := NewAdminController(db)
	r.POST("/admin/ledger/repair", ctl.RepairLedger)
	r.GET("/admin/users/:id/daily", ctl.GetDaily)
	r.GET("/admin/users/:id/records", ctl.ListRecords)
	return r, db
}

func TestAdminRepairLedger(t *testing.T) {
	r, db := newAdminRouter(t)
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.Local)

	for i := 0; i < 2; i++ {
		row := models.DailyNutritionAggregate{UserID: "U1", Date: day, Calories: 999}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/ledger/repair", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["repaired_groups"] != 1 {
		t.Fatalf("expected 1 repaired group, got %v", body)
	}
}

func TestAdminGetDaily(t *testing.T) {
	r, db := newAdminRouter(t)

	rec := models.MealRecord{
		UserID: "U1", Type: models.MealLunch, Description: "白飯",
		RecordedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local), Calories: 280,
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/users/U1/daily?date=2026-08-30", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		RecordCount int64 `json:"record_count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RecordCount != 1 {
		t.Fatalf("expected 1 record, got %d", body.RecordCount)
	}
}

func TestAdminGetDailyBadDate(t *testing.T) {
	r, _ := newAdminRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/admin/users/U1/daily?date=31-08-2026", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
