package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/cityvibes-assistant/internal/llm"
	"github.com/wolfman30/cityvibes-assistant/pkg/logging"
)

const DefaultMaxTurns = 10

var engineTracer = otel.Tracer("cityvibes.internal.conversation.engine")

// EngineConfig controls the persona and the sliding window.
type EngineConfig struct {
	Persona     string
	MaxTurns    int
	MaxTokens   int32
	Temperature float32
}

// Engine answers a participant's message using the persona prompt and the
// participant's recent turns.
type Engine struct {
	llm    llm.Client
	store  SessionStore
	cfg    EngineConfig
	logger *logging.Logger
}

func NewEngine(client llm.Client, store SessionStore, cfg EngineConfig, logger *logging.Logger) *Engine {
	if client == nil {
		panic("conversation: llm client cannot be nil")
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{llm: client, store: store, cfg: cfg, logger: logger}
}

// Converse appends userText to the session, asks the completion service for a
// reply, records it and trims the window to the last MaxTurns entries.
//
// When the completion fails the user turn stays in the window without a
// matching assistant turn.
func (e *Engine) Converse(ctx context.Context, sessionID, userText string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", errors.New("conversation: session id required")
	}
	ctx, span := engineTracer.Start(ctx, "conversation.converse")
	defer span.End()
	span.SetAttributes(attribute.String("cityvibes.session_id", sessionID))

	if err := e.store.Append(ctx, sessionID, Turn{Role: llm.RoleUser, Text: userText}); err != nil {
		span.RecordError(err)
		return "", err
	}
	turns, err := e.store.Turns(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	messages := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Text})
	}

	resp, err := e.llm.Complete(ctx, llm.Request{
		System:      []string{e.cfg.Persona},
		Messages:    messages,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		span.RecordError(err)
		e.logger.Warn("completion failed; session ends on an unanswered user turn",
			"session_id", sessionID,
			"turns", len(turns),
			"error", err,
		)
		return "", fmt.Errorf("conversation: reply: %w", err)
	}
	reply := resp.Text

	if err := e.store.Append(ctx, sessionID, Turn{Role: llm.RoleAssistant, Text: reply}); err != nil {
		span.RecordError(err)
		return "", err
	}
	if err := e.store.Truncate(ctx, sessionID, e.cfg.MaxTurns); err != nil {
		span.RecordError(err)
		return "", err
	}
	return reply, nil
}

// Turns returns the participant's current window.
func (e *Engine) Turns(ctx context.Context, sessionID string) ([]Turn, error) {
	return e.store.Turns(ctx, sessionID)
}
