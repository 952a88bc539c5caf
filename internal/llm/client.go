// Package llm is the completion-service capability shared by the conversation
// engine, the extractors and the sales pipeline.
package llm

import (
	"context"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// Request is a provider-neutral completion request. A negative Temperature
// leaves the provider default in place.
type Request struct {
	Model       string
	System      []string
	Messages    []Message
	MaxTokens   int32
	Temperature float32
}

type Response struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// Client issues a single completion request.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// Ask sends one system instruction and one user message and returns the
// trimmed reply text.
func Ask(ctx context.Context, c Client, system, user string, temperature float32, maxTokens int32) (string, error) {
	resp, err := c.Complete(ctx, Request{
		System:      []string{system},
		Messages:    []Message{{Role: RoleUser, Content: user}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
