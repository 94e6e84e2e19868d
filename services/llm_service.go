package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// System instructions for the three generator flows.
const (
	analysisSystemPrompt = "你是一位擁有20年經驗的專業營養師。使用者會描述他們吃的食物，" +
		"請估算這一餐的營養成分，務必逐行列出：熱量: X 大卡、碳水化合物: X 克、" +
		"蛋白質: X 克、脂肪: X 克、膳食纖維: X 克、糖分: X 克，接著給一句簡短評語。" +
		"回應請用繁體中文。"
	suggestionSystemPrompt = "你是一位親切的專業營養師，請根據使用者的狀況建議下一餐" +
		"可以吃什麼，給出 2-3 個具體、實際、台灣常見的選擇。回應請用繁體中文。"
	consultationSystemPrompt = "你是一位擁有20年經驗的專業營養師，請用親切、專業的語調" +
		"回答使用者的營養問題，避免醫療診斷。回應請用繁體中文。"
)

// TextGenerator is the external text-completion collaborator. Any failure or
// timeout is treated as "stage unavailable" by callers, never surfaced to
// the chat user.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userContent string) (string, error)
}

// OpenAIService talks to an OpenAI-compatible chat-completions endpoint.
type OpenAIService struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewOpenAIService() *OpenAIService {
	baseURL := strings.TrimRight(os.Getenv("OPENAI_BASE_URL"), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIService{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *OpenAIService) Generate(ctx context.Context, systemPrompt, userContent string) (string, error) {
	if s.apiKey == "" {
		return "", errors.New("OPENAI_API_KEY not set")
	}

	payload := map[string]any{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userContent},
		},
		"max_tokens":  600,
		"temperature": 0.4,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/v1/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call text generator: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generator response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var parsed chatCompletionResponse
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
			return "", fmt.Errorf("generator error (%d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("generator error (%d): %s", resp.StatusCode, string(body))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse generator response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", errors.New("generator returned no content")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
