package routes

import (
	"os"

	"github.com/clarktao-dev/nutrition-linebot/config"
	"github.com/clarktao-dev/nutrition-linebot/controllers"
	"github.com/clarktao-dev/nutrition-linebot/middlewares"
	"github.com/clarktao-dev/nutrition-linebot/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(bot *services.BotService, messenger services.Messenger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestIDMiddleware())

	r.GET("/healthz", controllers.Health)

	// Platform webhook, guarded by the channel signature.
	webhook := controllers.NewWebhookController(bot, messenger)
	r.POST("/callback",
		middlewares.LineSignatureMiddleware(os.Getenv("LINE_CHANNEL_SECRET")),
		webhook.Callback,
	)

	// Maintenance API for operators.
	adminCtl := controllers.NewAdminController(config.DB)
	admin := r.Group("/admin")
	admin.Use(cors.Default())
	admin.Use(middlewares.AdminAuthMiddleware())
	{
		admin.POST("/ledger/repair", adminCtl.RepairLedger)
		admin.GET("/users/:id/daily", adminCtl.GetDaily)
		admin.GET("/users/:id/records", adminCtl.ListRecords)
	}

	return r
}
