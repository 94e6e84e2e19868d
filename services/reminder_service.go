package services

import (
	"context"
	"time"

	"github.com/clarktao-dev/nutrition-linebot/models"
	"github.com/clarktao-dev/nutrition-linebot/utils"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ReminderService runs the background jobs: a nightly logging reminder for
// users who registered a profile but logged nothing, and a periodic ledger
// repair pass. Jobs only touch the durable store, never session state.
type ReminderService struct {
	db        *gorm.DB
	ledger    *LedgerService
	messenger Messenger
	cron      *cron.Cron
}

func NewReminderService(db *gorm.DB, messenger Messenger) *ReminderService {
	return &ReminderService{
		db:        db,
		ledger:    NewLedgerService(db),
		messenger: messenger,
		cron:      cron.New(),
	}
}

func (s *ReminderService) Start() error {
	// 20:00 local: nudge users who have a profile but no meals today.
	if _, err := s.cron.AddFunc("0 20 * * *", s.sendDailyReminders); err != nil {
		return err
	}
	// 03:30 local: collapse any duplicate aggregate rows that slipped in.
	if _, err := s.cron.AddFunc("30 3 * * *", s.runRepair); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *ReminderService) Stop() {
	s.cron.Stop()
}

func (s *ReminderService) sendDailyReminders() {
	var profiles []models.UserProfile
	if err := s.db.Find(&profiles).Error; err != nil {
		utils.Log.Errorw("reminder profile scan failed", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, p := range profiles {
		count, err := s.ledger.RecordCount(p.LineUserID, time.Now())
		if err != nil {
			utils.Log.Warnw("reminder record count failed", "user_id", p.LineUserID, "err", err)
			continue
		}
		if count > 0 {
			continue
		}
		msg := "🌙 嗨 " + p.Name + "，今天還沒記錄任何一餐喔！\n現在補記還來得及，跟我說你今天吃了什麼吧。"
		if err := s.messenger.Push(ctx, p.LineUserID, msg); err != nil {
			utils.Log.Warnw("reminder push failed", "user_id", p.LineUserID, "err", err)
		}
	}
}

func (s *ReminderService) runRepair() {
	repaired, err := s.ledger.RepairDuplicates()
	if err != nil {
		utils.Log.Errorw("scheduled ledger repair failed", "err", err)
		return
	}
	if repaired > 0 {
		utils.Log.Infow("scheduled ledger repair done", "groups", repaired)
	}
}
