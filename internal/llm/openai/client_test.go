package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"resume-analyzer/internal/llm"
)

type recordedRequest struct {
	Path    string
	Auth    string
	Payload chatRequest
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]recordedRequest, *sync.Mutex) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload chatRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		reqs = append(reqs, recordedRequest{Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Payload: payload})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &reqs, &mu
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Params:  llm.DefaultParams(),
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestAnalyzeSendsOneRequestWithFixedPrompt(t *testing.T) {
	server, reqs, mu := newTestServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"Match Score: 72%\nStrengths: Go"}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`)
	client := newTestClient(t, server.URL+"/openai/v1/")

	out, err := client.Analyze(context.Background(), llm.Request{
		ResumeText:     "Experienced engineer",
		JobDescription: "Looking for engineer",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if out != "Match Score: 72%\nStrengths: Go" {
		t.Fatalf("unexpected output %q", out)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(*reqs) != 1 {
		t.Fatalf("expected exactly 1 request, got %d", len(*reqs))
	}
	got := (*reqs)[0]
	if got.Path != "/openai/v1/chat/completions" {
		t.Fatalf("unexpected path %q", got.Path)
	}
	if got.Auth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", got.Auth)
	}
	if got.Payload.Model != "qwen-qwq-32b" {
		t.Fatalf("unexpected model %q", got.Payload.Model)
	}
	if got.Payload.Temperature == nil || *got.Payload.Temperature != 0.7 {
		t.Fatalf("unexpected temperature %v", got.Payload.Temperature)
	}
	if got.Payload.MaxTokens != 2000 {
		t.Fatalf("unexpected max_tokens %d", got.Payload.MaxTokens)
	}
	if len(got.Payload.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Payload.Messages))
	}
	if got.Payload.Messages[0].Role != "system" || got.Payload.Messages[0].Content != llm.SystemPrompt {
		t.Fatalf("unexpected system message %+v", got.Payload.Messages[0])
	}
	user := got.Payload.Messages[1].Content
	if !strings.Contains(user, "Experienced engineer") || !strings.Contains(user, "Looking for engineer") {
		t.Fatalf("prompt missing inputs: %q", user)
	}
}

func TestAnalyzeFailuresCollapseToOneCategory(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`},
		{name: "payload too large", status: http.StatusRequestEntityTooLarge, body: `request too large`},
		{name: "server error", status: http.StatusInternalServerError, body: `upstream exploded`},
		{name: "error body with 200", status: http.StatusOK, body: `{"error":{"message":"rate limited","type":"tokens"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"  "}}]}`},
		{name: "malformed json", status: http.StatusOK, body: `{"choices":`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			server, reqs, mu := newTestServer(t, tt.status, tt.body)
			client := newTestClient(t, server.URL)

			out, err := client.Analyze(context.Background(), llm.Request{ResumeText: "r", JobDescription: "j"})
			if !errors.Is(err, llm.ErrRequestFailed) {
				t.Fatalf("expected ErrRequestFailed, got %v", err)
			}
			if out != "" {
				t.Fatalf("expected no output, got %q", out)
			}
			mu.Lock()
			defer mu.Unlock()
			if len(*reqs) != 1 {
				t.Fatalf("expected exactly 1 request (no retry), got %d", len(*reqs))
			}
		})
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client, err := NewClient(Options{
		APIKey:  "k",
		BaseURL: server.URL,
		Params:  llm.DefaultParams(),
		Timeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Analyze(context.Background(), llm.Request{ResumeText: "r", JobDescription: "j"})
	if !errors.Is(err, llm.ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}

func TestAnalyzeUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := newTestClient(t, url)
	if _, err := client.Analyze(context.Background(), llm.Request{ResumeText: "r", JobDescription: "j"}); !errors.Is(err, llm.ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Options{Params: llm.DefaultParams()}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
	if _, err := NewClient(Options{APIKey: "k"}); err == nil {
		t.Fatalf("expected error for missing model")
	}
	client, err := NewClient(Options{APIKey: "k", Params: llm.DefaultParams()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.endpoint != GroqBaseURL+"/chat/completions" {
		t.Fatalf("unexpected default endpoint %q", client.endpoint)
	}
}
