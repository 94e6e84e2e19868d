package main

import (
	"os"

	"github.com/clarktao-dev/nutrition-linebot/config"
	"github.com/clarktao-dev/nutrition-linebot/routes"
	"github.com/clarktao-dev/nutrition-linebot/services"
	"github.com/clarktao-dev/nutrition-linebot/utils"
)

func main() {
	config.LoadEnv()

	if err := utils.InitLogger(os.Getenv("GIN_MODE")); err != nil {
		panic(err)
	}
	defer utils.SyncLogger()

	config.InitDB()

	var sessions services.SessionStore
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		store, err := services.NewRedisSessionStore(addr)
		if err != nil {
			utils.Log.Fatalw("redis connection failed", "addr", addr, "err", err)
		}
		sessions = store
		utils.Log.Infow("session store ready", "backend", "redis")
	} else {
		sessions = services.NewMemorySessionStore()
		utils.Log.Infow("session store ready", "backend", "memory")
	}

	messenger := services.NewLineMessenger()
	bot := services.NewBotService(config.DB, sessions, services.NewOpenAIService())

	// Collapse any duplicate daily rows left by a previous crash before
	// taking traffic.
	if repaired, err := bot.Ledger().RepairDuplicates(); err != nil {
		utils.Log.Errorw("startup ledger repair failed", "err", err)
	} else if repaired > 0 {
		utils.Log.Infow("startup ledger repair", "repaired_groups", repaired)
	}

	reminders := services.NewReminderService(config.DB, messenger)
	if err := reminders.Start(); err != nil {
		utils.Log.Fatalw("scheduler start failed", "err", err)
	}
	defer reminders.Stop()

	r := routes.SetupRouter(bot, messenger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.Log.Infow("server starting", "port", port)
	if err := r.Run(":" + port); err != nil {
		utils.Log.Fatalw("server exited", "err", err)
	}
}
