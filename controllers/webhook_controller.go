// controllers/webhook_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/clarktao-dev/nutrition-linebot/services"
	"github.com/clarktao-dev/nutrition-linebot/utils"

	"github.com/gin-gonic/gin"
)

type lineEvent struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Source     struct {
		UserID string `json:"userId"`
	} `json:"source"`
	Message struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"message"`
}

type webhookRequest struct {
	Events []lineEvent `json:"events"`
}

// WebhookController receives platform events. Text messages get an
// immediate ack through the reply token; the real answer is pushed once the
// blocking work (generator call, persistence) is done, so the short-lived
// reply token never races a slow upstream.
type WebhookController struct {
	bot       *services.BotService
	messenger services.Messenger
}

func NewWebhookController(bot *services.BotService, messenger services.Messenger) *WebhookController {
	return &WebhookController{bot: bot, messenger: messenger}
}

func (w *WebhookController) Callback(c *gin.Context) {
	var body webhookRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, event := range body.Events {
		if event.Type != "message" {
			continue
		}
		switch event.Message.Type {
		case "text":
			w.handleText(c.Request.Context(), event)
		case "image":
			w.replyText(c.Request.Context(), event.ReplyToken, services.ReplyImageUnsupported)
		default:
			w.replyText(c.Request.Context(), event.ReplyToken, services.ReplyUnsupportedMessage)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (w *WebhookController) handleText(ctx context.Context, event lineEvent) {
	userID := event.Source.UserID
	if userID == "" {
		return
	}

	w.replyText(ctx, event.ReplyToken, services.ReplyAnalyzing)

	// The webhook must return fast; the actual handling pass runs after the
	// ack and pushes its result. gin's Recovery only covers the request
	// goroutine, so a panic here must be caught locally.
	go func() {
		defer func() {
			if r := recover(); r != nil {
				utils.Log.Errorw("handler panic", "user_id", userID, "panic", r)
			}
		}()

		pushCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		texts := w.bot.HandleText(pushCtx, userID, event.Message.Text)
		if len(texts) == 0 {
			return
		}
		if err := w.messenger.Push(pushCtx, userID, texts...); err != nil {
			utils.Log.Errorw("push failed", "user_id", userID, "err", err)
		}
	}()
}

func (w *WebhookController) replyText(ctx context.Context, replyToken, text string) {
	if replyToken == "" {
		return
	}
	if err := w.messenger.Reply(ctx, replyToken, text); err != nil {
		utils.Log.Errorw("reply failed", "err", err)
	}
}
