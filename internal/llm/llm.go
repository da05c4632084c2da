// Package llm defines the resume analysis request sent to chat-completion providers.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client sends one analysis request to a provider and returns the reply text.
type Client interface {
	Analyze(ctx context.Context, req Request) (string, error)
}

// Request carries the two texts embedded into the prompt.
type Request struct {
	ResumeText     string
	JobDescription string
}

// Params are the fixed completion parameters used for every call.
type Params struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// DefaultParams returns the parameters used when configuration does not override them.
func DefaultParams() Params {
	return Params{
		Model:       "qwen-qwq-32b",
		Temperature: 0.7,
		MaxTokens:   2000,
	}
}

// ErrRequestFailed is the single failure category for analysis calls.
// Auth, timeout, transport and remote errors all wrap it.
var ErrRequestFailed = errors.New("analysis request failed")

// Fail wraps err into ErrRequestFailed, keeping the cause inspectable.
func Fail(err error) error {
	if err == nil || errors.Is(err, ErrRequestFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRequestFailed, err)
}

// Message is one chat message.
type Message struct {
	Role    string
	Content string
}
