package controllers

import (
	"net/http"
	"time"

	"github.com/clarktao-dev/nutrition-linebot/models"
	"github.com/clarktao-dev/nutrition-linebot/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminController exposes the maintenance surface: ledger repair on demand
// and read-only inspection of a user's day.
type AdminController struct {
	db     *gorm.DB
	ledger *services.LedgerService
}

func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db, ledger: services.NewLedgerService(db)}
}

func (a *AdminController) RepairLedger(c *gin.Context) {
	repaired, err := a.ledger.RepairDuplicates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"repaired_groups": repaired})
}

func (a *AdminController) GetDaily(c *gin.Context) {
	userID := c.Param("id")
	date := time.Now()
	if q := c.Query("date"); q != "" {
		parsed, err := time.ParseInLocation("2006-01-02", q, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	agg, err := a.ledger.GetDaily(userID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	count, err := a.ledger.RecordCount(userID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"aggregate": agg, "record_count": count})
}

func (a *AdminController) ListRecords(c *gin.Context) {
	userID := c.Param("id")
	var records []models.MealRecord
	q := a.db.Where("user_id = ?", userID).Order("recorded_at DESC").Limit(50)
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		start := services.DayStart(parsed)
		q = q.Where("recorded_at >= ? AND recorded_at < ?", start, start.Add(24*time.Hour))
	}
	if err := q.Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}
