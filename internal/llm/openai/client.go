// Package openai calls OpenAI-compatible chat-completions endpoints such as Groq and OpenAI.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/shared/telemetry"
)

const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OpenAIBaseURL = "https://api.openai.com/v1"

	defaultTimeout = 120 * time.Second
	maxErrorBody   = 512
)

// Options configures a Client.
type Options struct {
	APIKey     string
	BaseURL    string
	Params     llm.Params
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements llm.Client over the chat-completions HTTP API.
type Client struct {
	apiKey     string
	endpoint   string
	params     llm.Params
	httpClient *http.Client
}

// NewClient constructs a chat-completions client. BaseURL defaults to Groq.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("LLM api key is required")
	}
	if strings.TrimSpace(opts.Params.Model) == "" {
		return nil, fmt.Errorf("LLM model is required")
	}
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = GroqBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:     opts.APIKey,
		endpoint:   base + "/chat/completions",
		params:     opts.Params,
		httpClient: httpClient,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Analyze issues exactly one chat-completions request. Every failure wraps llm.ErrRequestFailed.
func (c *Client) Analyze(ctx context.Context, req llm.Request) (string, error) {
	messages := llm.BuildMessages(req)
	content, err := c.complete(ctx, messages)
	if err != nil {
		telemetry.Error("llm.request.failed", map[string]any{
			"provider":    "openai-compatible",
			"model":       c.params.Model,
			"prompt_hash": llm.PromptHash(messages),
			"error":       err.Error(),
		})
		return "", llm.Fail(err)
	}
	return content, nil
}

func (c *Client) complete(ctx context.Context, messages []llm.Message) (string, error) {
	reqMessages := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, chatMessage{Role: m.Role, Content: m.Content})
	}
	temp := c.params.Temperature
	payload, err := json.Marshal(chatRequest{
		Model:       c.params.Model,
		Messages:    reqMessages,
		Temperature: &temp,
		MaxTokens:   c.params.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("chat completion timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("chat completion http status %d: %s", resp.StatusCode, truncate(body))
		}
		return "", fmt.Errorf("chat completion response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("chat completion http status %d: %s (%s)", resp.StatusCode, parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("chat completion http status %d: %s", resp.StatusCode, truncate(body))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("chat completion response empty content")
	}

	fields := map[string]any{
		"model":       c.params.Model,
		"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
	}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
	return content, nil
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}

var _ llm.Client = (*Client)(nil)
