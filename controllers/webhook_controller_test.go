package controllers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clarktao-dev/nutrition-linebot/models"
	"github.com/clarktao-dev/nutrition-linebot/services"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubMessenger struct {
	mu      sync.Mutex
	replies []string
	pushed  chan string
}

func newStubMessenger() *stubMessenger {
	return &stubMessenger{pushed: make(chan string, 8)}
}

func (m *stubMessenger) Reply(_ context.Context, _ string, texts ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, texts...)
	return nil
}

func (m *stubMessenger) Push(_ context.Context, _ string, texts ...string) error {
	for _, t := range texts {
		m.pushed <- t
	}
	return nil
}

func (m *stubMessenger) replyTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.replies...)
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, string, string) (string, error) {
	return "", errors.New("down")
}

type panickyGenerator struct{}

func (panickyGenerator) Generate(context.Context, string, string) (string, error) {
	panic("generator exploded")
}

func newWebhookRouter(t *testing.T, gen services.TextGenerator) (*gin.Engine, *stubMessenger) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.UserProfile{},
		&models.MealRecord{},
		&models.DailyNutritionAggregate{},
		&models.FoodPreference{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	messenger := newStubMessenger()
	bot := services.NewBotService(db, services.NewMemorySessionStore(), gen)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	ctl := NewWebhookController(bot, messenger)
	r.POST("/callback", ctl.Callback)
	return r, messenger
}

func postEvent(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookTextAckThenPush(t *testing.T) {
	r, messenger := newWebhookRouter(t, failingGenerator{})

	w := postEvent(t, r, `{"events":[{"type":"message","replyToken":"rt-1",
		"source":{"userId":"U1"},"message":{"type":"text","text":"黑咖啡"}}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	replies := messenger.replyTexts()
	if len(replies) != 1 || replies[0] != services.ReplyAnalyzing {
		t.Fatalf("expected the ack template, got %v", replies)
	}

	select {
	case pushed := <-messenger.pushed:
		if !strings.Contains(pushed, "黑咖啡") {
			t.Fatalf("pushed result missing the meal summary: %q", pushed)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no async push arrived")
	}
}

func TestWebhookImageRejected(t *testing.T) {
	r, messenger := newWebhookRouter(t, failingGenerator{})

	w := postEvent(t, r, `{"events":[{"type":"message","replyToken":"rt-1",
		"source":{"userId":"U1"},"message":{"type":"image","id":"img-1"}}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	replies := messenger.replyTexts()
	if len(replies) != 1 || replies[0] != services.ReplyImageUnsupported {
		t.Fatalf("expected the image rejection reply, got %v", replies)
	}

	select {
	case pushed := <-messenger.pushed:
		t.Fatalf("image events must not trigger a push, got %q", pushed)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWebhookSurvivesHandlerPanic(t *testing.T) {
	r, messenger := newWebhookRouter(t, panickyGenerator{})

	w := postEvent(t, r, `{"events":[{"type":"message","replyToken":"rt-1",
		"source":{"userId":"U1"},"message":{"type":"text","text":"午餐吃了什麼好呢"}}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	select {
	case pushed := <-messenger.pushed:
		t.Fatalf("panicking handler must not push, got %q", pushed)
	case <-time.After(500 * time.Millisecond):
	}

	// The router must still serve after the background panic.
	w = postEvent(t, r, `{"events":[{"type":"message","replyToken":"rt-2",
		"source":{"userId":"U1"},"message":{"type":"image","id":"img-1"}}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after panic, got %d", w.Code)
	}
}

func TestWebhookIgnoresNonMessageEvents(t *testing.T) {
	r, messenger := newWebhookRouter(t, failingGenerator{})

	w := postEvent(t, r, `{"events":[{"type":"follow","replyToken":"rt-1","source":{"userId":"U1"}}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(messenger.replyTexts()) != 0 {
		t.Fatalf("follow events must be ignored")
	}
}

func TestWebhookBadPayload(t *testing.T) {
	r, _ := newWebhookRouter(t, failingGenerator{})
	w := postEvent(t, r, `not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
