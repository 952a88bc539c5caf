package escalation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/cityvibes-assistant/internal/channels/whatsapp"
	"github.com/wolfman30/cityvibes-assistant/internal/conversation"
	"github.com/wolfman30/cityvibes-assistant/internal/extract"
	"github.com/wolfman30/cityvibes-assistant/internal/llm"
	"github.com/wolfman30/cityvibes-assistant/internal/notify"
	"github.com/wolfman30/cityvibes-assistant/pkg/logging"
)

var escalationTracer = otel.Tracer("cityvibes.internal.escalation")

// TurnSource exposes a participant's conversation window.
type TurnSource interface {
	Turns(ctx context.Context, sessionID string) ([]conversation.Turn, error)
}

// Extractor pulls contact details and a summary out of the conversation.
type Extractor interface {
	Name(ctx context.Context, text string) (string, bool)
	Number(ctx context.Context, text string) (string, bool)
	Summary(ctx context.Context, turns []extract.Turn) string
}

// Sender delivers the operator notification.
type Sender interface {
	SendText(ctx context.Context, to, body string) (*whatsapp.SendResponse, error)
}

// Notifier receives an optional copy of every escalation.
type Notifier interface {
	NotifyEscalation(ctx context.Context, esc notify.Escalation) error
}

// Escalator forwards a conversation to the operator contact.
type Escalator struct {
	turns    TurnSource
	extract  Extractor
	sender   Sender
	operator string
	notifier Notifier
	logger   *logging.Logger
}

// NewEscalator builds an escalator. notifier may be nil.
func NewEscalator(turns TurnSource, extractor Extractor, sender Sender, operator string, notifier Notifier, logger *logging.Logger) *Escalator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Escalator{
		turns:    turns,
		extract:  extractor,
		sender:   sender,
		operator: strings.TrimSpace(operator),
		notifier: notifier,
		logger:   logger,
	}
}

// Escalate summarizes the participant's session and notifies the operator.
// It returns the composed escalation and any delivery errors; callers only
// log them.
func (e *Escalator) Escalate(ctx context.Context, participantID, inboundText string) (notify.Escalation, error) {
	ctx, span := escalationTracer.Start(ctx, "escalation.escalate")
	defer span.End()
	span.SetAttributes(attribute.String("cityvibes.participant_id", participantID))

	turns := e.loadTurns(ctx, participantID, inboundText)
	userText := userTranscript(turns)

	esc := notify.Escalation{
		ParticipantID: participantID,
		Number:        participantID,
		Summary:       e.extract.Summary(ctx, turns),
		LastMessage:   inboundText,
	}
	if name, ok := e.extract.Name(ctx, userText); ok {
		esc.Name = name
	}
	if number, ok := e.extract.Number(ctx, userText); ok {
		esc.Number = number
	}

	var errs []error
	if e.operator == "" {
		errs = append(errs, errors.New("escalation: operator number not configured"))
	} else if _, err := e.sender.SendText(ctx, e.operator, notify.EscalationText(esc)); err != nil {
		errs = append(errs, fmt.Errorf("escalation: notify operator: %w", err))
	}
	if e.notifier != nil {
		if err := e.notifier.NotifyEscalation(ctx, esc); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
	}
	e.logger.Info("conversation escalated",
		"participant", participantID,
		"name_found", esc.Name != "",
		"number", esc.Number,
		"delivered", err == nil,
	)
	return esc, err
}

// loadTurns falls back to the inbound text when the session has no turns,
// which is the case for admin senders.
func (e *Escalator) loadTurns(ctx context.Context, participantID, inboundText string) []extract.Turn {
	var stored []conversation.Turn
	if e.turns != nil {
		var err error
		stored, err = e.turns.Turns(ctx, participantID)
		if err != nil {
			e.logger.Warn("escalation: load session failed", "participant", participantID, "error", err)
		}
	}
	if len(stored) == 0 {
		return []extract.Turn{{Role: llm.RoleUser, Text: inboundText}}
	}
	turns := make([]extract.Turn, 0, len(stored))
	for _, t := range stored {
		turns = append(turns, extract.Turn{Role: t.Role, Text: t.Text})
	}
	return turns
}

func userTranscript(turns []extract.Turn) string {
	var lines []string
	for _, t := range turns {
		if t.Role == llm.RoleUser && strings.TrimSpace(t.Text) != "" {
			lines = append(lines, t.Text)
		}
	}
	return strings.Join(lines, "\n")
}
