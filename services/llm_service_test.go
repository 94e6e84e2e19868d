package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if len(payload.Messages) != 2 || payload.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", payload.Messages)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"  每餐都要有蛋白質。  "}}]}`)
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)
	t.Setenv("OPENAI_MODEL", "")

	svc := NewOpenAIService()
	out, err := svc.Generate(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "每餐都要有蛋白質。" {
		t.Fatalf("expected trimmed content, got %q", out)
	}
}

func TestOpenAIGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	svc := NewOpenAIService()
	if _, err := svc.Generate(context.Background(), "system", "user"); err == nil {
		t.Fatalf("expected error on 429")
	}
}

func TestOpenAIGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", srv.URL)

	svc := NewOpenAIService()
	if _, err := svc.Generate(context.Background(), "system", "user"); err == nil {
		t.Fatalf("expected error on empty choices")
	}
}

func TestOpenAIGenerateMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	svc := NewOpenAIService()
	if _, err := svc.Generate(context.Background(), "system", "user"); err == nil {
		t.Fatalf("expected error when key is unset")
	}
}
