// Package gemini sends analysis requests to Google Gemini through the genai SDK.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/shared/telemetry"
)

const defaultTimeout = 120 * time.Second

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures a Client. BaseURL is only set in tests.
type Options struct {
	APIKey     string
	BaseURL    string
	Params     llm.Params
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements llm.Client with the Gemini API.
type Client struct {
	models  generator
	params  llm.Params
	timeout time.Duration
}

// NewClient builds a Gemini-backed client.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(opts.Params.Model) == "" {
		return nil, fmt.Errorf("LLM model is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return newWithGenerator(client.Models, opts.Params, opts.Timeout), nil
}

func newWithGenerator(models generator, params llm.Params, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{models: models, params: params, timeout: timeout}
}

// Analyze issues exactly one GenerateContent call. Every failure wraps llm.ErrRequestFailed.
func (c *Client) Analyze(ctx context.Context, req llm.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := llm.BuildPrompt(req.ResumeText, req.JobDescription)
	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(c.params.Temperature),
		MaxOutputTokens:   int32(c.params.MaxTokens),
		SystemInstruction: genai.NewContentFromText(llm.SystemPrompt, genai.RoleUser),
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.params.Model, genai.Text(prompt), config)
	if err != nil {
		return "", c.fail(req, fmt.Errorf("gemini generate content: %w", err))
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", c.fail(req, fmt.Errorf("gemini response missing candidates"))
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", c.fail(req, fmt.Errorf("gemini response empty content"))
	}

	fields := map[string]any{
		"model":       c.params.Model,
		"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
	}
	if resp.UsageMetadata != nil {
		fields["prompt_tokens"] = resp.UsageMetadata.PromptTokenCount
		fields["completion_tokens"] = resp.UsageMetadata.CandidatesTokenCount
		fields["total_tokens"] = resp.UsageMetadata.TotalTokenCount
	}
	telemetry.Info("llm.response", fields)
	return text, nil
}

func (c *Client) fail(req llm.Request, err error) error {
	telemetry.Error("llm.request.failed", map[string]any{
		"provider":    "gemini",
		"model":       c.params.Model,
		"prompt_hash": llm.PromptHash(llm.BuildMessages(req)),
		"error":       err.Error(),
	})
	return llm.Fail(err)
}

var _ llm.Client = (*Client)(nil)
