package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Messenger pushes text back to the chat platform. Reply uses the short-lived
// reply token from the inbound event; Push reaches the user any time after.
type Messenger interface {
	Reply(ctx context.Context, replyToken string, texts ...string) error
	Push(ctx context.Context, userID string, texts ...string) error
}

// LineMessenger is the LINE Messaging API client.
type LineMessenger struct {
	accessToken string
	baseURL     string
	client      *http.Client
}

func NewLineMessenger() *LineMessenger {
	baseURL := strings.TrimRight(os.Getenv("LINE_API_BASE_URL"), "/")
	if baseURL == "" {
		baseURL = "https://api.line.me"
	}
	return &LineMessenger{
		accessToken: os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
		baseURL:     baseURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type lineTextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func textMessages(texts []string) []lineTextMessage {
	msgs := make([]lineTextMessage, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		msgs = append(msgs, lineTextMessage{Type: "text", Text: t})
	}
	return msgs
}

func (m *LineMessenger) Reply(ctx context.Context, replyToken string, texts ...string) error {
	payload := map[string]any{
		"replyToken": replyToken,
		"messages":   textMessages(texts),
	}
	return m.post(ctx, "/v2/bot/message/reply", payload)
}

func (m *LineMessenger) Push(ctx context.Context, userID string, texts ...string) error {
	payload := map[string]any{
		"to":       userID,
		"messages": textMessages(texts),
	}
	return m.post(ctx, "/v2/bot/message/push", payload)
}

func (m *LineMessenger) post(ctx context.Context, path string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("create message request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("call messaging api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("messaging api error (%d): %s", resp.StatusCode, string(body))
	}
	return nil
}
